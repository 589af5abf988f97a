package updater

import (
	"fmt"
	"io"
	"time"

	"github.com/fieldsync-labs/fieldsync/internal/branding"
)

// CheckAndPrintBanner checks the version cache and prints an update banner if
// a newer client is available. It never blocks — if the cache is stale, a
// background goroutine refreshes it for the next invocation.
func (u *Updater) CheckAndPrintBanner(w io.Writer, configDir string) {
	cache, err := LoadCache(configDir)
	if err != nil {
		// Silently ignore cache errors.
		return
	}

	// Print banner from existing cache if update is available.
	if cache != nil && cache.UpdateAvailable {
		PrintUpdateBanner(w, cache.CurrentVersion, cache.LatestVersion)
	}

	// Refresh cache in background if stale.
	if IsCacheStale(cache, DefaultCacheMaxAge) {
		go u.refreshCache(configDir)
	}
}

// PrintUpdateBanner prints the update notification to w.
func PrintUpdateBanner(w io.Writer, current, latest string) {
	fmt.Fprintf(w, "\nUpdate available: %s -> %s\n", current, latest)
	fmt.Fprintf(w, "    Get the latest %s client from your server's downloads page\n\n", branding.CLIName())
}

// refreshCache fetches the server's advertised versions and updates the
// cache file. This runs in a background goroutine and never fails loudly.
func (u *Updater) refreshCache(configDir string) {
	latest, min, err := u.source.ClientVersions()
	if err != nil {
		return
	}

	available := false
	if latest != "" {
		if a, cmpErr := IsUpdateAvailable(u.currentVersion, latest); cmpErr == nil {
			available = a
		}
	}

	cache := &VersionCache{
		LatestVersion:   latest,
		MinVersion:      min,
		CurrentVersion:  u.currentVersion,
		CheckedAt:       time.Now(),
		UpdateAvailable: available,
	}

	// Silently ignore save errors.
	_ = SaveCache(configDir, cache)
}
