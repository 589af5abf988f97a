package scan

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", rel, err)
	}
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "survey.gpkg", "geopackage-bytes")
	writeFile(t, root, "photos/p1.jpg", "jpeg-bytes")
	writeFile(t, root, "notes.txt", "field notes")

	records, err := Dir(root, Options{})
	if err != nil {
		t.Fatalf("Dir error: %v", err)
	}

	wantPaths := []string{"notes.txt", "photos/p1.jpg", "survey.gpkg"}
	if len(records) != len(wantPaths) {
		t.Fatalf("records len = %d, want %d", len(records), len(wantPaths))
	}
	for i, rec := range records {
		if rec.Path != wantPaths[i] {
			t.Errorf("records[%d].Path = %q, want %q (sorted order)", i, rec.Path, wantPaths[i])
		}
		if rec.MTime.IsZero() {
			t.Errorf("records[%d].MTime is zero", i)
		}
	}

	if records[0].Checksum != sha256Hex("field notes") {
		t.Errorf("checksum = %q, want sha256 of contents", records[0].Checksum)
	}
	if records[0].Size != int64(len("field notes")) {
		t.Errorf("size = %d, want %d", records[0].Size, len("field notes"))
	}
}

func TestDir_Ignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "keep.txt", "a")
	writeFile(t, root, ".fieldsync/manifest.json", "{}")
	writeFile(t, root, "tmp/scratch.txt", "b")
	writeFile(t, root, "survey.gpkg-wal", "wal")

	records, err := Dir(root, Options{Ignore: []string{".fieldsync", "tmp", "*.gpkg-wal"}})
	if err != nil {
		t.Fatalf("Dir error: %v", err)
	}

	if len(records) != 1 || records[0].Path != "keep.txt" {
		t.Errorf("records = %+v, want only keep.txt", records)
	}
}

func TestDir_EmptyRoot(t *testing.T) {
	records, err := Dir(t.TempDir(), Options{})
	if err != nil {
		t.Fatalf("Dir error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("records len = %d, want 0", len(records))
	}
}

func TestFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "hello")

	rec, err := File(filepath.Join(root, "a.txt"), "a.txt")
	if err != nil {
		t.Fatalf("File error: %v", err)
	}
	if rec.Path != "a.txt" {
		t.Errorf("Path = %q, want a.txt", rec.Path)
	}
	if rec.Checksum != sha256Hex("hello") {
		t.Errorf("Checksum = %q, want sha256 of hello", rec.Checksum)
	}
	if rec.Size != 5 {
		t.Errorf("Size = %d, want 5", rec.Size)
	}
}

func TestChecksum_Missing(t *testing.T) {
	if _, err := Checksum(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
