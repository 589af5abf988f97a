package diff

import (
	"testing"

	"github.com/fieldsync-labs/fieldsync/internal/manifest"
)

func rec(path, checksum string) manifest.FileRecord {
	return manifest.FileRecord{Path: path, Checksum: checksum, Size: 1}
}

func TestCompare(t *testing.T) {
	base := []manifest.FileRecord{
		rec("kept.txt", "aaa"),
		rec("changed.txt", "bbb"),
		rec("gone.txt", "ccc"),
	}
	target := []manifest.FileRecord{
		rec("kept.txt", "aaa"),
		rec("changed.txt", "bbb2"),
		rec("new.txt", "ddd"),
	}

	c := Compare(base, target)

	if len(c.Added) != 1 || c.Added[0].Path != "new.txt" {
		t.Errorf("Added = %+v, want [new.txt]", c.Added)
	}
	if len(c.Updated) != 1 || c.Updated[0].Path != "changed.txt" {
		t.Errorf("Updated = %+v, want [changed.txt]", c.Updated)
	}
	if c.Updated[0].Checksum != "bbb2" {
		t.Errorf("Updated carries checksum %q, want target checksum %q", c.Updated[0].Checksum, "bbb2")
	}
	if len(c.Removed) != 1 || c.Removed[0].Path != "gone.txt" {
		t.Errorf("Removed = %+v, want [gone.txt]", c.Removed)
	}
	if c.Empty() {
		t.Error("Empty() = true, want false")
	}
	if c.Total() != 3 {
		t.Errorf("Total() = %d, want 3", c.Total())
	}
}

func TestCompare_ChecksumAuthoritative(t *testing.T) {
	base := []manifest.FileRecord{{Path: "a.txt", Checksum: "same", Size: 10}}
	target := []manifest.FileRecord{{Path: "a.txt", Checksum: "same", Size: 9999}}

	if c := Compare(base, target); !c.Empty() {
		t.Errorf("size-only difference produced changes: %+v", c)
	}
}

func TestCompare_Empty(t *testing.T) {
	if c := Compare(nil, nil); !c.Empty() {
		t.Errorf("Compare(nil, nil) = %+v, want empty", c)
	}

	c := Compare(nil, []manifest.FileRecord{rec("a", "x")})
	if len(c.Added) != 1 || len(c.Updated) != 0 || len(c.Removed) != 0 {
		t.Errorf("Compare(nil, one) = %+v", c)
	}

	c = Compare([]manifest.FileRecord{rec("a", "x")}, nil)
	if len(c.Removed) != 1 || len(c.Added) != 0 {
		t.Errorf("Compare(one, nil) = %+v", c)
	}
}

func TestSummary(t *testing.T) {
	c := Changes{Added: []manifest.FileRecord{rec("a", "x")}}
	if got, want := c.Summary(), "1 added, 0 updated, 0 removed"; got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}

func TestConflicts(t *testing.T) {
	local := Changes{
		Updated: []manifest.FileRecord{rec("both.gpkg", "l1")},
		Added:   []manifest.FileRecord{rec("local-only.txt", "l2")},
	}
	remote := Changes{
		Updated: []manifest.FileRecord{rec("both.gpkg", "r1")},
		Removed: []manifest.FileRecord{rec("remote-only.txt", "r2")},
	}

	got := Conflicts(local, remote)
	if len(got) != 1 || got[0] != "both.gpkg" {
		t.Errorf("Conflicts = %v, want [both.gpkg]", got)
	}

	if got := Conflicts(Changes{}, remote); len(got) != 0 {
		t.Errorf("Conflicts with empty local = %v, want none", got)
	}
}
