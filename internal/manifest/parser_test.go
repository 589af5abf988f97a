package manifest

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testdataDir = "testdata"

func testPath(name string) string {
	return filepath.Join(testdataDir, name)
}

func TestParse_Example(t *testing.T) {
	data := []byte(`{"name":"Survey","namespace":"org1","version":"v3","files":[{"path":"data.gpkg","checksum":"abc123","size":2048,"mtime":"2020-01-01T00:00:00.000Z"}]}`)

	m, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if m.Name != "Survey" {
		t.Errorf("Name = %q, want %q", m.Name, "Survey")
	}
	if m.Namespace != "org1" {
		t.Errorf("Namespace = %q, want %q", m.Namespace, "org1")
	}
	if m.Version != 3 {
		t.Errorf("Version = %d, want 3", m.Version)
	}
	if len(m.Files) != 1 {
		t.Fatalf("Files len = %d, want 1", len(m.Files))
	}

	f := m.Files[0]
	if f.Path != "data.gpkg" {
		t.Errorf("Path = %q, want %q", f.Path, "data.gpkg")
	}
	if f.Checksum != "abc123" {
		t.Errorf("Checksum = %q, want %q", f.Checksum, "abc123")
	}
	if f.Size != 2048 {
		t.Errorf("Size = %d, want 2048", f.Size)
	}
	want := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	if !f.MTime.Equal(want) {
		t.Errorf("MTime = %v, want %v", f.MTime, want)
	}
}

func TestParse_TopLevelNotObject(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"array", `[1,2,3]`},
		{"number", `42`},
		{"string", `"hello"`},
		{"garbage", `{{{`},
		{"empty", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse([]byte(tt.data))
			if err == nil {
				t.Error("expected advisory error, got nil")
			}
			if m == nil {
				t.Fatal("manifest is nil, want empty manifest")
			}
			if m.Name != "" || m.Namespace != "" || m.Version != 0 || len(m.Files) != 0 {
				t.Errorf("manifest not empty: %+v", m)
			}
			// The empty manifest must still answer point queries.
			if rec := m.FileInfo("anything"); !rec.IsZero() {
				t.Errorf("FileInfo on empty manifest = %+v, want zero record", rec)
			}
		})
	}
}

func TestParse_MissingFields(t *testing.T) {
	m, err := Parse([]byte(`{}`))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if m.Name != "" || m.Namespace != "" || m.Version != 0 {
		t.Errorf("defaults not applied: %+v", m)
	}
	if len(m.Files) != 0 {
		t.Errorf("Files len = %d, want 0", len(m.Files))
	}
}

func TestParse_BadTimestampDoesNotAbort(t *testing.T) {
	data := []byte(`{"name":"p","namespace":"n","version":"v1","files":[
		{"path":"a.txt","checksum":"aa","size":1,"mtime":"not-a-time"},
		{"path":"b.txt","checksum":"bb","size":2,"mtime":"2020-01-01T00:00:00.000Z"}
	]}`)

	m, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(m.Files) != 2 {
		t.Fatalf("Files len = %d, want 2", len(m.Files))
	}
	if !m.Files[0].MTime.IsZero() {
		t.Errorf("bad mtime = %v, want zero sentinel", m.Files[0].MTime)
	}
	if m.Files[1].MTime.IsZero() {
		t.Error("valid mtime parsed as zero")
	}
}

func TestParse_NonObjectFileEntriesSkipped(t *testing.T) {
	data := []byte(`{"name":"p","namespace":"n","version":"v1","files":[
		"bogus",
		{"path":"a.txt","checksum":"aa","size":1,"mtime":""}
	]}`)

	m, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(m.Files) != 1 {
		t.Fatalf("Files len = %d, want 1", len(m.Files))
	}
	if m.Files[0].Path != "a.txt" {
		t.Errorf("Path = %q, want %q", m.Files[0].Path, "a.txt")
	}
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"v42", 42},
		{"v", 0},
		{"7", 0},
		{"v007", 7},
		{"vabc", 0},
		{"version3", 0},
		{"v1x", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseVersion(tt.in); got != tt.want {
				t.Errorf("ParseVersion(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseMTime(t *testing.T) {
	utc := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"utc", "2020-01-01T00:00:00.000Z", utc},
		{"offset normalized", "2020-01-01T01:00:00.000+01:00", utc},
		{"millis preserved", "2020-01-01T00:00:00.250Z", utc.Add(250 * time.Millisecond)},
		{"invalid", "yesterday", time.Time{}},
		{"empty", "", time.Time{}},
		{"no millis", "2020-01-01T00:00:00Z", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseMTime(tt.in)
			if !got.Equal(tt.want) {
				t.Errorf("ParseMTime(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if !got.IsZero() && got.Location() != time.UTC {
				t.Errorf("ParseMTime(%q) location = %v, want UTC", tt.in, got.Location())
			}
		})
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	orig := &ProjectManifest{
		Name:      "Survey",
		Namespace: "org1",
		Version:   3,
		Files: []FileRecord{
			{Path: "data.gpkg", Checksum: "abc123", Size: 2048, MTime: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
			{Path: "photos/p1.jpg", Checksum: "def456", Size: 512, MTime: time.Time{}},
		},
	}

	data, err := orig.Encode()
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	got, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if got.Name != orig.Name || got.Namespace != orig.Namespace || got.Version != orig.Version {
		t.Errorf("header mismatch: got %s/%s v%d", got.Namespace, got.Name, got.Version)
	}
	if len(got.Files) != len(orig.Files) {
		t.Fatalf("Files len = %d, want %d", len(got.Files), len(orig.Files))
	}
	for i, f := range got.Files {
		want := orig.Files[i]
		if f.Path != want.Path || f.Checksum != want.Checksum || f.Size != want.Size || !f.MTime.Equal(want.MTime) {
			t.Errorf("Files[%d] = %+v, want %+v", i, f, want)
		}
	}
}

func TestFileInfo(t *testing.T) {
	data, err := os.ReadFile(testPath("valid.json"))
	if err != nil {
		t.Fatalf("reading testdata: %v", err)
	}
	m, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	rec := m.FileInfo("data.gpkg")
	if rec.IsZero() {
		t.Fatal("FileInfo(data.gpkg) returned zero record")
	}
	if rec.Size != 2048 {
		t.Errorf("Size = %d, want 2048", rec.Size)
	}

	if rec := m.FileInfo("missing.gpkg"); !rec.IsZero() {
		t.Errorf("FileInfo(missing.gpkg) = %+v, want zero record", rec)
	}

	// Case-sensitive, no normalization.
	if rec := m.FileInfo("DATA.GPKG"); !rec.IsZero() {
		t.Errorf("FileInfo(DATA.GPKG) = %+v, want zero record", rec)
	}
	if _, ok := m.Lookup("./data.gpkg"); ok {
		t.Error("Lookup normalized the path, want exact match only")
	}
}

func TestFileInfo_DuplicatePathFirstWins(t *testing.T) {
	data := []byte(`{"name":"p","namespace":"n","version":"v1","files":[
		{"path":"dup.txt","checksum":"first","size":1,"mtime":""},
		{"path":"dup.txt","checksum":"second","size":2,"mtime":""}
	]}`)

	m, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	rec := m.FileInfo("dup.txt")
	if rec.Checksum != "first" {
		t.Errorf("Checksum = %q, want %q (first in insertion order)", rec.Checksum, "first")
	}
}

func TestParseCached(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		m := ParseCached(filepath.Join(t.TempDir(), "nope.json"))
		if m == nil {
			t.Fatal("ParseCached returned nil")
		}
		if len(m.Files) != 0 || m.Version != 0 {
			t.Errorf("manifest not empty: %+v", m)
		}
	})

	t.Run("valid file", func(t *testing.T) {
		m := ParseCached(testPath("valid.json"))
		if m.Name != "Survey" || m.Version != 3 {
			t.Errorf("got %s v%d, want Survey v3", m.Name, m.Version)
		}
		if len(m.Files) != 2 {
			t.Errorf("Files len = %d, want 2", len(m.Files))
		}
	})
}
