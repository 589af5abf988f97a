package updater

// InfoSource reports the client versions a sync server advertises.
// *client.Client satisfies this.
type InfoSource interface {
	ClientVersions() (latest, min string, err error)
}

// Updater checks the running client version against a server's advertised
// latest and minimum supported client versions.
type Updater struct {
	currentVersion string
	source         InfoSource
}

// New creates an Updater for the given current version.
func New(currentVersion string, source InfoSource) *Updater {
	return &Updater{currentVersion: currentVersion, source: source}
}

// CurrentVersion returns the version this updater was created with.
func (u *Updater) CurrentVersion() string {
	return u.currentVersion
}
