package manifest

import (
	"encoding/json"
	"fmt"
)

// wireManifest and wireFile mirror the manifest wire schema.
type wireManifest struct {
	Name      string     `json:"name"`
	Namespace string     `json:"namespace"`
	Version   string     `json:"version"`
	Files     []wireFile `json:"files"`
}

type wireFile struct {
	Path     string `json:"path"`
	Checksum string `json:"checksum"`
	Size     int64  `json:"size"`
	MTime    string `json:"mtime"`
}

// Encode serializes the manifest in the wire format, so that
// Parse(Encode(m)) reproduces m for all schema-covered fields.
func (m *ProjectManifest) Encode() ([]byte, error) {
	w := wireManifest{
		Name:      m.Name,
		Namespace: m.Namespace,
		Version:   FormatVersion(m.Version),
		Files:     make([]wireFile, len(m.Files)),
	}
	for i, f := range m.Files {
		w.Files[i] = wireFileFrom(f)
	}

	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	return data, nil
}

// MarshalJSON renders a file record in the wire format, keeping API request
// bodies consistent with manifest documents.
func (r FileRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireFileFrom(r))
}

// UnmarshalJSON accepts the wire format with the same field-level tolerance
// as Parse.
func (r *FileRecord) UnmarshalJSON(data []byte) error {
	var w wireFile
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	r.Path = w.Path
	r.Checksum = w.Checksum
	r.Size = w.Size
	r.MTime = ParseMTime(w.MTime)
	return nil
}

func wireFileFrom(r FileRecord) wireFile {
	return wireFile{
		Path:     r.Path,
		Checksum: r.Checksum,
		Size:     r.Size,
		MTime:    FormatMTime(r.MTime),
	}
}
