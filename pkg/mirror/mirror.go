// Package mirror is a Go port of the original's mirror.rs, expanded per
// SPEC_FULL.md §4.9 from a diff-only stub into the full orchestrator: manifest
// blob I/O plus the bounded-concurrency push and pull control loop.
package mirror

import (
	"github.com/harbackup/har/pkg/blobstore"
	"github.com/harbackup/har/pkg/harerr"
	"github.com/harbackup/har/pkg/harlog"
	"github.com/harbackup/har/pkg/manifest"
)

var log = harlog.For("mirror")

// manifestKey is the fixed blob key the manifest is always stored under.
const manifestKey = "manifest"

// Mirror owns one blob-storage handle and the stateless transfer policy.
type Mirror struct {
	storage blobstore.BlobStorage
}

// New wraps storage in a Mirror.
func New(storage blobstore.BlobStorage) *Mirror {
	return &Mirror{storage: storage}
}

// Init is the remote equivalent of "git init": it refuses to overwrite an
// existing manifest, failing with AlreadyInitialized, and otherwise uploads
// a freshly serialized empty manifest under manifestKey.
func (m *Mirror) Init() error {
	exists := m.storage.ExistsBlocking(manifestKey)
	if exists.Err != nil {
		return exists.Err
	}
	if exists.Exists {
		return harerr.New(harerr.AlreadyInitialized, "manifest already exists in remote")
	}

	empty := manifest.New()
	data, err := empty.ToBytes()
	if err != nil {
		return err
	}
	key := manifestKey
	result := m.storage.UploadBlocking(data, &key)
	return result.Err
}

// GetManifestBlob fetches the remote manifest's raw serialized bytes.
func (m *Mirror) GetManifestBlob() ([]byte, error) {
	result := m.storage.DownloadBlocking(manifestKey)
	if result.Err != nil {
		return nil, result.Err
	}
	return result.Data, nil
}

// PushManifestBlob overwrites the remote manifest with data.
func (m *Mirror) PushManifestBlob(data []byte) error {
	key := manifestKey
	result := m.storage.UploadBlocking(data, &key)
	return result.Err
}
