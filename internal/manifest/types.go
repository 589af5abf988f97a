package manifest

import "time"

// MTimeFormat is the wire timestamp layout: ISO-8601 with millisecond
// precision. Timestamps are normalized to UTC on parse.
const MTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// FileRecord describes one file tracked by a project manifest.
// Identity is the path; insertion order from the source document is
// preserved in ProjectManifest.Files for display.
type FileRecord struct {
	Path     string
	Checksum string
	Size     int64
	MTime    time.Time
}

// IsZero reports whether the record is the empty sentinel returned for
// paths the manifest does not track.
func (r FileRecord) IsZero() bool { return r.Path == "" }

// ProjectManifest is the parsed description of a remote project.
// It is immutable after construction; a sync replaces it wholesale.
type ProjectManifest struct {
	Name      string
	Namespace string
	Version   int
	Files     []FileRecord

	// index maps path to position in Files. The first occurrence wins if a
	// producer ever violates path uniqueness.
	index map[string]int
}

// Lookup returns the record for path, matching exactly and case-sensitively.
func (m *ProjectManifest) Lookup(path string) (FileRecord, bool) {
	i, ok := m.index[path]
	if !ok {
		return FileRecord{}, false
	}
	return m.Files[i], true
}

// FileInfo returns the record for path, or the empty sentinel record when
// the path is not tracked. Callers detect absence via FileRecord.IsZero.
func (m *ProjectManifest) FileInfo(path string) FileRecord {
	rec, _ := m.Lookup(path)
	return rec
}

// Ref returns the "namespace/name" form used to address the project.
func (m *ProjectManifest) Ref() string {
	return m.Namespace + "/" + m.Name
}

func (m *ProjectManifest) buildIndex() {
	m.index = make(map[string]int, len(m.Files))
	for i, f := range m.Files {
		if _, seen := m.index[f.Path]; !seen {
			m.index[f.Path] = i
		}
	}
}
