// Package updater checks the client version against the versions the sync
// server advertises and nudges the user when a newer client exists. Checks
// are cached on disk so the CLI never blocks on the network at startup.
package updater
