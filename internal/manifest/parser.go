package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Parse deserializes a project manifest document. It never fails hard: the
// returned manifest is always usable, and the error — when non-nil — is an
// advisory diagnostic (e.g., the top-level value was not an object). Field
// level problems degrade to defaults: an unparseable mtime becomes the zero
// time, an unparseable version becomes 0, missing strings become "".
func Parse(data []byte) (*ProjectManifest, error) {
	m := &ProjectManifest{}
	m.buildIndex()

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return m, fmt.Errorf("parsing manifest: %w", err)
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return m, errors.New("parsing manifest: top-level value is not an object")
	}

	m.Name = stringField(obj, "name")
	m.Namespace = stringField(obj, "namespace")
	m.Version = ParseVersion(stringField(obj, "version"))

	if files, ok := obj["files"].([]any); ok {
		m.Files = make([]FileRecord, 0, len(files))
		for _, f := range files {
			fobj, ok := f.(map[string]any)
			if !ok {
				continue
			}
			m.Files = append(m.Files, fileFromObject(fobj))
		}
	}

	m.buildIndex()
	return m, nil
}

// ParseCached reads a previously saved manifest from disk. An unreadable or
// missing file yields an empty manifest; nothing is propagated beyond that.
func ParseCached(path string) *ProjectManifest {
	data, err := os.ReadFile(path)
	if err != nil {
		m := &ProjectManifest{}
		m.buildIndex()
		return m
	}
	m, _ := Parse(data)
	return m
}

// ParseVersion converts a manifest version string of the form "v<digits>"
// into its integer value. Empty, unprefixed, or non-numeric strings all
// default to 0.
func ParseVersion(s string) int {
	if !strings.HasPrefix(s, "v") {
		return 0
	}
	n, err := strconv.Atoi(s[1:])
	if err != nil {
		return 0
	}
	return n
}

// FormatVersion renders an integer version in the wire form "v<int>".
func FormatVersion(v int) string {
	return "v" + strconv.Itoa(v)
}

// ParseMTime parses a wire timestamp and normalizes it to UTC. An invalid
// string yields the zero time sentinel rather than an error.
func ParseMTime(s string) time.Time {
	t, err := time.Parse(MTimeFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// FormatMTime renders a timestamp in the wire format. The zero time renders
// as the empty string, which parses back to the zero sentinel.
func FormatMTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(MTimeFormat)
}

func fileFromObject(obj map[string]any) FileRecord {
	return FileRecord{
		Path:     stringField(obj, "path"),
		Checksum: stringField(obj, "checksum"),
		Size:     intField(obj, "size"),
		MTime:    ParseMTime(stringField(obj, "mtime")),
	}
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

func intField(obj map[string]any, key string) int64 {
	// encoding/json decodes numbers into float64 in generic documents.
	f, _ := obj[key].(float64)
	return int64(f)
}
