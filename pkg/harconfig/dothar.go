// Package harconfig is a Go port of the original's dot_har.rs: the .har
// configuration directory that pins an archive root and carries the
// encryption keypath, the remote spec, and a cached copy of the last
// fetched manifest.
package harconfig

import (
	"os"
	"path/filepath"

	"github.com/harbackup/har/pkg/harerr"
	"github.com/harbackup/har/pkg/manifest"
)

// DotHarName is the configuration directory's fixed name.
const DotHarName = ".har"

const (
	keypathFile           = "keypath"
	remoteFile            = "remote"
	fetchedManifestFile   = "fetched_manifest"
	fetchedManifestBackup = "fetched_manifest.backup"
)

// DotHar addresses one archive's .har directory.
type DotHar struct {
	path string
}

// WithPath wraps an explicit .har directory path, for tests and for commands
// that have already located it some other way.
func WithPath(path string) DotHar {
	return DotHar{path: path}
}

// FindCwdOrAncestor walks upward from the current working directory looking
// for a .har directory, mirroring find_cwd_or_ancestor.
func FindCwdOrAncestor() (DotHar, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return DotHar{}, harerr.Wrap(harerr.Io, "getting current directory", err)
	}
	dir := cwd
	for {
		candidate := filepath.Join(dir, DotHarName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return DotHar{path: candidate}, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return DotHar{}, harerr.Newf(harerr.NotFound, "did not find %s in cwd or any ancestor directory", DotHarName)
}

// Init creates a fresh .har directory at filepath.Join(archiveRoot, ".har").
func Init(archiveRoot string) (DotHar, error) {
	path := filepath.Join(archiveRoot, DotHarName)
	if err := os.Mkdir(path, 0o755); err != nil {
		return DotHar{}, harerr.Wrap(harerr.Io, "creating "+path, err)
	}
	return DotHar{path: path}, nil
}

// ArchiveRoot is the directory .har lives directly inside.
func (d DotHar) ArchiveRoot() string {
	return filepath.Dir(d.path)
}

func (d DotHar) readFile(name string) ([]byte, error) {
	path := filepath.Join(d.path, name)
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, harerr.Wrap(harerr.Io, "reading "+path, err)
	}
	return content, nil
}

// CachedManifest deserializes the last manifest fetched from the remote.
func (d DotHar) CachedManifest() (*manifest.Manifest, error) {
	content, err := d.readFile(fetchedManifestFile)
	if err != nil {
		return nil, err
	}
	return manifest.FromBytes(content)
}

// CachedManifestBytes returns the raw bytes of the last fetched manifest.
func (d DotHar) CachedManifestBytes() ([]byte, error) {
	return d.readFile(fetchedManifestFile)
}

// KeyFile returns the path to the encryption key, as recorded by
// SetKeyFile.
func (d DotHar) KeyFile() (string, error) {
	content, err := d.readFile(keypathFile)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// RemoteSpec reads and parses the remote file.
func (d DotHar) RemoteSpec() (RemoteSpec, error) {
	content, err := d.readFile(remoteFile)
	if err != nil {
		return RemoteSpec{}, err
	}
	return ParseRemoteSpec(string(content))
}

// StoreManifest overwrites the cached manifest with manifestBlob, without
// keeping a backup of the previous copy.
func (d DotHar) StoreManifest(manifestBlob []byte) error {
	path := filepath.Join(d.path, fetchedManifestFile)
	if err := os.WriteFile(path, manifestBlob, 0o644); err != nil {
		return harerr.Wrap(harerr.Io, "storing fetched manifest", err)
	}
	return nil
}

// StoreManifestWithBackup copies the current cached manifest to its backup
// slot, then writes manifestBlob over the primary slot. If there is no
// current cached manifest yet, the backup step is skipped.
func (d DotHar) StoreManifestWithBackup(manifestBlob []byte) error {
	path := filepath.Join(d.path, fetchedManifestFile)
	backupPath := filepath.Join(d.path, fetchedManifestBackup)

	if current, err := os.ReadFile(path); err == nil {
		if err := os.WriteFile(backupPath, current, 0o644); err != nil {
			return harerr.Wrap(harerr.Io, "backing up fetched manifest", err)
		}
	} else if !os.IsNotExist(err) {
		return harerr.Wrap(harerr.Io, "reading current fetched manifest", err)
	}

	if err := os.WriteFile(path, manifestBlob, 0o644); err != nil {
		return harerr.Wrap(harerr.Io, "storing fetched manifest", err)
	}
	return nil
}

// SetKeyFile records path as the location of the encryption key.
func (d DotHar) SetKeyFile(path string) error {
	dest := filepath.Join(d.path, keypathFile)
	if err := os.WriteFile(dest, []byte(path), 0o644); err != nil {
		return harerr.Wrap(harerr.Io, "writing "+dest, err)
	}
	return nil
}

// SetRemoteSpec records spec as the archive's remote.
func (d DotHar) SetRemoteSpec(spec RemoteSpec) error {
	dest := filepath.Join(d.path, remoteFile)
	if err := os.WriteFile(dest, []byte(spec.String()), 0o644); err != nil {
		return harerr.Wrap(harerr.Io, "writing "+dest, err)
	}
	return nil
}
