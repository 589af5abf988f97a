// Package diff compares two file manifests and reports what changed.
// It is the decision core of sync: a pull applies the cached-vs-server
// changes, a push uploads the cached-vs-local ones.
package diff

import (
	"fmt"

	"github.com/fieldsync-labs/fieldsync/internal/manifest"
)

// Changes describes how a base file set must change to match a target.
// Added and Updated carry target records; Removed carries base records.
type Changes struct {
	Added   []manifest.FileRecord
	Updated []manifest.FileRecord
	Removed []manifest.FileRecord
}

// Compare diffs base against target. A file counts as updated only when its
// checksum differs — size and mtime alone never force a transfer.
func Compare(base, target []manifest.FileRecord) Changes {
	baseByPath := make(map[string]manifest.FileRecord, len(base))
	for _, f := range base {
		if _, seen := baseByPath[f.Path]; !seen {
			baseByPath[f.Path] = f
		}
	}

	var c Changes
	targetPaths := make(map[string]struct{}, len(target))
	for _, f := range target {
		if _, seen := targetPaths[f.Path]; seen {
			continue
		}
		targetPaths[f.Path] = struct{}{}

		old, ok := baseByPath[f.Path]
		switch {
		case !ok:
			c.Added = append(c.Added, f)
		case old.Checksum != f.Checksum:
			c.Updated = append(c.Updated, f)
		}
	}

	for _, f := range base {
		if _, ok := targetPaths[f.Path]; !ok {
			c.Removed = append(c.Removed, f)
		}
	}

	return c
}

// Empty reports whether no changes are present.
func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Updated) == 0 && len(c.Removed) == 0
}

// Total returns the number of changed paths.
func (c Changes) Total() int {
	return len(c.Added) + len(c.Updated) + len(c.Removed)
}

// Summary renders a short human-readable count line.
func (c Changes) Summary() string {
	return fmt.Sprintf("%d added, %d updated, %d removed",
		len(c.Added), len(c.Updated), len(c.Removed))
}

// Touches reports whether path appears in any change list.
func (c Changes) Touches(path string) bool {
	for _, list := range [][]manifest.FileRecord{c.Added, c.Updated, c.Removed} {
		for _, f := range list {
			if f.Path == path {
				return true
			}
		}
	}
	return false
}

// Conflicts returns the paths touched by both change sets, in the order they
// appear in the local set. These are the files that changed locally and on
// the server since the last sync.
func Conflicts(local, remote Changes) []string {
	var paths []string
	for _, list := range [][]manifest.FileRecord{local.Added, local.Updated, local.Removed} {
		for _, f := range list {
			if remote.Touches(f.Path) {
				paths = append(paths, f.Path)
			}
		}
	}
	return paths
}
