package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/harbackup/har/pkg/blobhash"
	"github.com/harbackup/har/pkg/harerr"
)

func mustKey(t *testing.T, b byte) BlobKey {
	t.Helper()
	var k BlobKey
	for i := range k {
		k[i] = b
	}
	return k
}

func TestRoundTrip(t *testing.T) {
	m := New()
	dirId, err := m.AddDir("sub", m.Root)
	if err != nil {
		t.Fatalf("AddDir: %v", err)
	}
	if _, err := m.AddFile("a.txt", mustKey(t, 0xaa), 10, m.Root); err != nil {
		t.Fatalf("AddFile root: %v", err)
	}
	if _, err := m.AddFile("b.txt", mustKey(t, 0xbb), 20, dirId); err != nil {
		t.Fatalf("AddFile sub: %v", err)
	}

	data, err := m.ToBytes()
	if err != nil {
		t.Fatalf("ToBytes: %v", err)
	}

	m2, err := FromBytes(data)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}

	statsA, statsB := m.GetStats(), m2.GetStats()
	if statsA != statsB {
		t.Fatalf("stats mismatch: %+v vs %+v", statsA, statsB)
	}

	parents := m2.GetMapParent()
	id, err := m2.JoinAndGetEntryId(m2.Root, "sub/b.txt")
	if err != nil {
		t.Fatalf("resolve sub/b.txt: %v", err)
	}
	if got := m2.GetFullPath(id, parents); got != "sub/b.txt" {
		t.Fatalf("full path = %q, want sub/b.txt", got)
	}
	key, size, err := m2.GetFileKeyAndSize(id)
	if err != nil {
		t.Fatalf("GetFileKeyAndSize: %v", err)
	}
	if key != mustKey(t, 0xbb) || size != 20 {
		t.Fatalf("got key=%s size=%d, want bb.../20", key, size)
	}
}

func TestAddDuplicateName(t *testing.T) {
	m := New()
	if _, err := m.AddFile("dup", mustKey(t, 1), 1, m.Root); err != nil {
		t.Fatalf("first add: %v", err)
	}
	_, err := m.AddFile("dup", mustKey(t, 2), 2, m.Root)
	if !harerr.Is(err, harerr.DuplicateName) {
		t.Fatalf("expected DuplicateName, got %v", err)
	}
}

func TestDiffIdentical(t *testing.T) {
	m := New()
	if _, err := m.AddFile("a.txt", mustKey(t, 1), 1, m.Root); err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	d, err := Diff(m, m)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(d.TopExtraIdsInA) != 0 || d.ExtraFilesInA != 0 || d.ExtraDirsInA != 0 {
		t.Fatalf("expected no extras, got %+v", d)
	}
}

func TestDiffSingleNewFile(t *testing.T) {
	a := New()
	subA, _ := a.AddDir("sub", a.Root)
	if _, err := a.AddFile("old.txt", mustKey(t, 1), 1, subA); err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	if _, err := a.AddFile("new.txt", mustKey(t, 2), 2, subA); err != nil {
		t.Fatalf("AddFile: %v", err)
	}

	b := New()
	subB, _ := b.AddDir("sub", b.Root)
	if _, err := b.AddFile("old.txt", mustKey(t, 1), 1, subB); err != nil {
		t.Fatalf("AddFile: %v", err)
	}

	d, err := Diff(a, b)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if d.ExtraFilesInA != 1 || d.ExtraDirsInA != 0 {
		t.Fatalf("expected 1 extra file, 0 extra dirs, got %+v", d)
	}
	if len(d.PathsOfTopExtraInA) != 1 || d.PathsOfTopExtraInA[0] != "sub/new.txt" {
		t.Fatalf("unexpected top extra paths: %v", d.PathsOfTopExtraInA)
	}
}

func TestDiffNestedNewDirectory(t *testing.T) {
	a := New()
	newDir, _ := a.AddDir("newdir", a.Root)
	nestedDir, _ := a.AddDir("nested", newDir)
	if _, err := a.AddFile("f.txt", mustKey(t, 3), 3, nestedDir); err != nil {
		t.Fatalf("AddFile: %v", err)
	}

	b := New()

	d, err := Diff(a, b)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(d.TopExtraIdsInA) != 1 {
		t.Fatalf("expected 1 top-extra id, got %d", len(d.TopExtraIdsInA))
	}
	if d.ExtraDirsInA != 2 || d.ExtraFilesInA != 1 {
		t.Fatalf("expected 2 extra dirs and 1 extra file, got %+v", d)
	}
}

func TestDiffExcludesHarDirAtRoot(t *testing.T) {
	a := New()
	harDir, _ := a.AddDir(".har", a.Root)
	if _, err := a.AddFile("key", mustKey(t, 9), 32, harDir); err != nil {
		t.Fatalf("AddFile: %v", err)
	}

	b := New()

	d, err := Diff(a, b)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(d.TopExtraIdsInA) != 0 {
		t.Fatalf("expected .har to be excluded, got %+v", d.PathsOfTopExtraInA)
	}
}

func TestAddNewEntriesMerge(t *testing.T) {
	a := New()
	subA, _ := a.AddDir("sub", a.Root)
	if _, err := a.AddFile("new.txt", mustKey(t, 7), 7, subA); err != nil {
		t.Fatalf("AddFile: %v", err)
	}

	b := New()
	if _, err := b.AddDir("sub", b.Root); err != nil {
		t.Fatalf("AddDir: %v", err)
	}

	d, err := Diff(a, b)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}

	keys := map[string]string{"sub/new.txt": mustKey(t, 7).String()}
	if err := AddNewEntries(a, b, d, keys); err != nil {
		t.Fatalf("AddNewEntries: %v", err)
	}

	id, err := b.JoinAndGetEntryId(b.Root, "sub/new.txt")
	if err != nil {
		t.Fatalf("resolve merged file: %v", err)
	}
	key, size, err := b.GetFileKeyAndSize(id)
	if err != nil {
		t.Fatalf("GetFileKeyAndSize: %v", err)
	}
	if key != mustKey(t, 7) || size != 7 {
		t.Fatalf("got key=%s size=%d, want 7...7/7", key, size)
	}
}

func TestAddNewEntriesMergeWholeNewDirectory(t *testing.T) {
	a := New()
	newDir, _ := a.AddDir("newdir", a.Root)
	nestedDir, _ := a.AddDir("nested", newDir)
	if _, err := a.AddFile("f1.txt", mustKey(t, 1), 1, newDir); err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	if _, err := a.AddFile("f2.txt", mustKey(t, 2), 2, nestedDir); err != nil {
		t.Fatalf("AddFile: %v", err)
	}

	b := New()

	d, err := Diff(a, b)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}

	keys := map[string]string{
		"newdir/f1.txt":        mustKey(t, 1).String(),
		"newdir/nested/f2.txt": mustKey(t, 2).String(),
	}
	if err := AddNewEntries(a, b, d, keys); err != nil {
		t.Fatalf("AddNewEntries: %v", err)
	}

	statsB := b.GetStats()
	if statsB.NumFiles != 2 || statsB.NumDirs != 3 {
		t.Fatalf("unexpected stats after merge: %+v", statsB)
	}

	id, err := b.JoinAndGetEntryId(b.Root, "newdir/nested/f2.txt")
	if err != nil {
		t.Fatalf("resolve merged nested file: %v", err)
	}
	key, _, err := b.GetFileKeyAndSize(id)
	if err != nil {
		t.Fatalf("GetFileKeyAndSize: %v", err)
	}
	if key != mustKey(t, 2) {
		t.Fatalf("got key=%s, want 2...2", key)
	}
}

func TestDiffHashCheckFlagsChangedContent(t *testing.T) {
	archiveRoot := t.TempDir()
	if err := os.Mkdir(filepath.Join(archiveRoot, "a"), 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	content := []byte("new content on disk")
	if err := os.WriteFile(filepath.Join(archiveRoot, "a", "x"), content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	scope := archiveRoot

	local := New()
	subLocal, _ := local.AddDir("a", local.Root)
	if _, err := local.AddFile("x", mustKey(t, 1), uint64(len(content)), subLocal); err != nil {
		t.Fatalf("AddFile local: %v", err)
	}

	remote := New()
	subRemote, _ := remote.AddDir("a", remote.Root)
	staleKey, err := ParseBlobKey(blobhash.Name(scope, []byte("old content")))
	if err != nil {
		t.Fatalf("ParseBlobKey: %v", err)
	}
	if _, err := remote.AddFile("x", staleKey, uint64(len("old content")), subRemote); err != nil {
		t.Fatalf("AddFile remote: %v", err)
	}

	d, err := Diff(local, remote, WithHashCheck(archiveRoot, scope))
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(d.PathsOfDifferentFiles) != 1 || d.PathsOfDifferentFiles[0] != "a/x" {
		t.Fatalf("PathsOfDifferentFiles = %v, want [a/x]", d.PathsOfDifferentFiles)
	}
}

func TestDiffHashCheckIgnoresUnchangedContent(t *testing.T) {
	archiveRoot := t.TempDir()
	content := []byte("stable content")
	if err := os.WriteFile(filepath.Join(archiveRoot, "x"), content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	scope := archiveRoot
	matchingKey, err := ParseBlobKey(blobhash.Name(scope, content))
	if err != nil {
		t.Fatalf("ParseBlobKey: %v", err)
	}

	local := New()
	if _, err := local.AddFile("x", mustKey(t, 1), uint64(len(content)), local.Root); err != nil {
		t.Fatalf("AddFile local: %v", err)
	}

	remote := New()
	if _, err := remote.AddFile("x", matchingKey, uint64(len(content)), remote.Root); err != nil {
		t.Fatalf("AddFile remote: %v", err)
	}

	d, err := Diff(local, remote, WithHashCheck(archiveRoot, scope))
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(d.PathsOfDifferentFiles) != 0 {
		t.Fatalf("expected no hash-check mismatches, got %v", d.PathsOfDifferentFiles)
	}
}

func TestAddNewEntriesMissingKeyFails(t *testing.T) {
	a := New()
	if _, err := a.AddFile("orphan.txt", mustKey(t, 5), 5, a.Root); err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	b := New()

	d, err := Diff(a, b)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}

	if err := AddNewEntries(a, b, d, map[string]string{}); !harerr.Is(err, harerr.NotFound) {
		t.Fatalf("expected NotFound for missing key mapping, got %v", err)
	}
}
