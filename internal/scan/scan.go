// Package scan builds the local file inventory of a workspace in manifest
// form: path, sha256 checksum, size, and modification time per file.
package scan

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fieldsync-labs/fieldsync/internal/manifest"
)

// Options controls which files a scan includes.
type Options struct {
	// Ignore holds glob patterns matched against both the slash-separated
	// relative path and the base name. Matching files and directories are
	// skipped entirely.
	Ignore []string
}

// Dir walks root and returns a record per regular file, sorted by path.
// Hidden directories are not special-cased — only Ignore patterns exclude
// entries. Modification times are truncated to millisecond precision in UTC
// to match the manifest wire resolution.
func Dir(root string, opts Options) ([]manifest.FileRecord, error) {
	var records []manifest.FileRecord

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if Ignored(rel, d.Name(), opts.Ignore) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rec, err := File(path, rel)
		if err != nil {
			return err
		}
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Path < records[j].Path })
	return records, nil
}

// File builds the record for a single file, with rel as its manifest path.
func File(path, rel string) (manifest.FileRecord, error) {
	info, err := os.Stat(path)
	if err != nil {
		return manifest.FileRecord{}, fmt.Errorf("stating %s: %w", rel, err)
	}

	sum, err := Checksum(path)
	if err != nil {
		return manifest.FileRecord{}, err
	}

	return manifest.FileRecord{
		Path:     rel,
		Checksum: sum,
		Size:     info.Size(),
		MTime:    info.ModTime().UTC().Truncate(time.Millisecond),
	}, nil
}

// Checksum returns the hex-encoded sha256 of the file contents.
func Checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s for checksum: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("computing checksum of %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Ignored reports whether rel (or its base name) matches any pattern.
// Bad patterns are treated as non-matching rather than failing the walk.
func Ignored(rel, base string, patterns []string) bool {
	for _, p := range patterns {
		if ok, err := filepath.Match(p, rel); err == nil && ok {
			return true
		}
		if ok, err := filepath.Match(p, base); err == nil && ok {
			return true
		}
		// Directory patterns also cover everything beneath them.
		if strings.HasPrefix(rel, p+"/") {
			return true
		}
	}
	return false
}
