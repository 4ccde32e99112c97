package harconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/harbackup/har/pkg/harerr"
	"github.com/harbackup/har/pkg/manifest"
)

func TestInitAndRoundTripManifest(t *testing.T) {
	root := t.TempDir()
	d, err := Init(root)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if d.ArchiveRoot() != root {
		t.Fatalf("ArchiveRoot = %q, want %q", d.ArchiveRoot(), root)
	}

	m := manifest.New()
	if _, err := m.AddFile("x.txt", manifest.BlobKey{}, 3, m.Root); err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	data, err := m.ToBytes()
	if err != nil {
		t.Fatalf("ToBytes: %v", err)
	}

	if err := d.StoreManifest(data); err != nil {
		t.Fatalf("StoreManifest: %v", err)
	}
	roundTripped, err := d.CachedManifest()
	if err != nil {
		t.Fatalf("CachedManifest: %v", err)
	}
	if roundTripped.GetStats() != m.GetStats() {
		t.Fatalf("stats mismatch after round trip")
	}
}

func TestStoreManifestWithBackup(t *testing.T) {
	root := t.TempDir()
	d, err := Init(root)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	first := []byte("first version")
	second := []byte("second version")

	if err := d.StoreManifestWithBackup(first); err != nil {
		t.Fatalf("StoreManifestWithBackup (no prior): %v", err)
	}
	if err := d.StoreManifestWithBackup(second); err != nil {
		t.Fatalf("StoreManifestWithBackup (with prior): %v", err)
	}

	current, err := os.ReadFile(filepath.Join(root, DotHarName, "fetched_manifest"))
	if err != nil {
		t.Fatalf("reading current: %v", err)
	}
	if string(current) != string(second) {
		t.Fatalf("current = %q, want %q", current, second)
	}

	backup, err := os.ReadFile(filepath.Join(root, DotHarName, "fetched_manifest.backup"))
	if err != nil {
		t.Fatalf("reading backup: %v", err)
	}
	if string(backup) != string(first) {
		t.Fatalf("backup = %q, want %q", backup, first)
	}
}

func TestKeyFileAndRemoteSpecRoundTrip(t *testing.T) {
	root := t.TempDir()
	d, err := Init(root)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	if err := d.SetKeyFile("/path/to/key"); err != nil {
		t.Fatalf("SetKeyFile: %v", err)
	}
	got, err := d.KeyFile()
	if err != nil {
		t.Fatalf("KeyFile: %v", err)
	}
	if got != "/path/to/key" {
		t.Fatalf("KeyFile = %q, want /path/to/key", got)
	}

	spec := RemoteSpec{Kind: KindS3, Endpoint: "http://localhost:9000", BucketName: "bkt", Key: "ak", Secret: "sk"}
	if err := d.SetRemoteSpec(spec); err != nil {
		t.Fatalf("SetRemoteSpec: %v", err)
	}
	gotSpec, err := d.RemoteSpec()
	if err != nil {
		t.Fatalf("RemoteSpec: %v", err)
	}
	if gotSpec != spec {
		t.Fatalf("RemoteSpec = %+v, want %+v", gotSpec, spec)
	}
}

func TestFindCwdOrAncestor(t *testing.T) {
	root := t.TempDir()
	if _, err := Init(root); err != nil {
		t.Fatalf("Init: %v", err)
	}
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir nested: %v", err)
	}

	origWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	defer os.Chdir(origWd)

	if err := os.Chdir(nested); err != nil {
		t.Fatalf("Chdir: %v", err)
	}

	d, err := FindCwdOrAncestor()
	if err != nil {
		t.Fatalf("FindCwdOrAncestor: %v", err)
	}
	resolvedRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		t.Fatalf("EvalSymlinks: %v", err)
	}
	resolvedGot, err := filepath.EvalSymlinks(d.ArchiveRoot())
	if err != nil {
		t.Fatalf("EvalSymlinks: %v", err)
	}
	if resolvedGot != resolvedRoot {
		t.Fatalf("ArchiveRoot = %q, want %q", resolvedGot, resolvedRoot)
	}
}

func TestParseRemoteSpecRejectsUnknownScheme(t *testing.T) {
	_, err := ParseRemoteSpec("ftp://wherever")
	if !harerr.Is(err, harerr.Parse) {
		t.Fatalf("expected Parse error, got %v", err)
	}
}

func TestFindCwdOrAncestorNotFound(t *testing.T) {
	root := t.TempDir()
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	defer os.Chdir(origWd)
	if err := os.Chdir(root); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	if _, err := FindCwdOrAncestor(); !harerr.Is(err, harerr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}
