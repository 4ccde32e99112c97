package mirror

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/harbackup/har/pkg/blobcrypt"
	"github.com/harbackup/har/pkg/blobstore/localdir"
	"github.com/harbackup/har/pkg/harerr"
)

func newTestBackend(t *testing.T) *localdir.Backend {
	t.Helper()
	storeDir := t.TempDir()
	keyFile := filepath.Join(t.TempDir(), "key")
	key, err := blobcrypt.CreateKey()
	if err != nil {
		t.Fatalf("CreateKey: %v", err)
	}
	if err := os.WriteFile(keyFile, key, 0o600); err != nil {
		t.Fatalf("writing key file: %v", err)
	}
	backend, err := localdir.New(storeDir, keyFile)
	if err != nil {
		t.Fatalf("localdir.New: %v", err)
	}
	return backend
}

func TestInitRefusesDoubleInit(t *testing.T) {
	m := New(newTestBackend(t))
	if err := m.Init(); err != nil {
		t.Fatalf("first Init: %v", err)
	}
	if err := m.Init(); !harerr.Is(err, harerr.AlreadyInitialized) {
		t.Fatalf("expected AlreadyInitialized on second Init, got %v", err)
	}
}

func writeFile(t *testing.T, root, rel string, content []byte) {
	t.Helper()
	full := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", rel, err)
	}
	if err := os.WriteFile(full, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func TestPushThenPullRestoresTree(t *testing.T) {
	backend := newTestBackend(t)
	m := New(backend)
	if err := m.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	srcRoot := t.TempDir()
	feltContent := []byte("felt content")
	fetchContent := []byte("fetch content")
	faultContent := []byte("fault content")
	writeFile(t, srcRoot, "felt", feltContent)
	writeFile(t, srcRoot, "dango/fetch", fetchContent)
	writeFile(t, srcRoot, "dog/fault", faultContent)
	if err := os.MkdirAll(filepath.Join(srcRoot, "dog/deal"), 0o755); err != nil {
		t.Fatalf("mkdir dog/deal: %v", err)
	}

	cfg := DefaultTransferConfig()
	pushResult, err := m.Push(srcRoot, "test-bucket", cfg)
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if pushResult.FilesPushed != 3 {
		t.Fatalf("expected 3 files pushed, got %d", pushResult.FilesPushed)
	}

	destRoot := t.TempDir()
	pullResult, err := m.Pull(destRoot, pushResult.RemoteManifestBytes, cfg)
	if err != nil {
		t.Fatalf("Pull: %v", err)
	}
	if pullResult.FilesPulled != 3 {
		t.Fatalf("expected 3 files pulled, got %d", pullResult.FilesPulled)
	}

	for rel, want := range map[string][]byte{
		"felt":        feltContent,
		"dango/fetch": fetchContent,
		"dog/fault":   faultContent,
	} {
		got, err := os.ReadFile(filepath.Join(destRoot, rel))
		if err != nil {
			t.Fatalf("reading pulled %s: %v", rel, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("pulled %s content mismatch: got %q want %q", rel, got, want)
		}
	}
	if info, err := os.Stat(filepath.Join(destRoot, "dog/deal")); err != nil || !info.IsDir() {
		t.Fatalf("expected empty directory dog/deal to be pulled, stat err=%v", err)
	}
}

func TestPushWithNothingNewIsNoop(t *testing.T) {
	backend := newTestBackend(t)
	m := New(backend)
	if err := m.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	srcRoot := t.TempDir()

	result, err := m.Push(srcRoot, "test-bucket", DefaultTransferConfig())
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if result.FilesPushed != 0 || result.RemoteManifestBytes != nil {
		t.Fatalf("expected no-op push, got %+v", result)
	}
}
