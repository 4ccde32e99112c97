package mirror

import (
	"path/filepath"

	"github.com/harbackup/har/pkg/harerr"
	"github.com/harbackup/har/pkg/manifest"
)

// PushResult summarizes a completed push.
type PushResult struct {
	// RemoteManifestBytes is the serialized manifest now stored under
	// manifestKey. The caller is responsible for caching it locally
	// (mirror has no opinion on where that cache lives).
	RemoteManifestBytes []byte
	FilesPushed         int
}

// Push builds a manifest of archiveRoot, diffs it against the current
// remote manifest, uploads every new file and merges the new entries into
// the remote manifest, per SPEC_FULL.md §4.9's end-to-end push. Uploaded
// blobs are named by the storage backend under its own scope; bucketName
// is not used to name them. Returns a
// zero-value, nil-error PushResult with no RemoteManifestBytes if there is
// nothing to push.
func (m *Mirror) Push(archiveRoot, bucketName string, cfg TransferConfig) (PushResult, error) {
	local, err := manifest.FromFS(archiveRoot)
	if err != nil {
		return PushResult{}, err
	}

	remoteBytes, err := m.GetManifestBlob()
	if err != nil {
		return PushResult{}, err
	}
	remote, err := manifest.FromBytes(remoteBytes)
	if err != nil {
		return PushResult{}, err
	}

	diff, err := manifest.Diff(local, remote)
	if err != nil {
		return PushResult{}, err
	}
	if len(diff.TopExtraIdsInA) == 0 {
		log.Debug().Msg("push: nothing new to upload")
		return PushResult{}, nil
	}

	pathGetter := local.GetFullPathGetter()
	fileIds := filesUnderTopExtras(local, diff.TopExtraIdsInA)

	items := make([]transferItem, 0, len(fileIds))
	for _, fileId := range fileIds {
		archivePath := pathGetter.Path(fileId)
		items = append(items, transferItem{
			kind:          transferUpload,
			archivePath:   archivePath,
			localFullPath: filepath.Join(archiveRoot, archivePath),
		})
	}

	log.Info().Int("files", len(items)).Msg("push: uploading new files")
	outcomes, err := runTransfer(m.storage, archiveRoot, items, cfg)
	if err != nil {
		return PushResult{}, err
	}

	blobKeys := make(map[string]string, len(outcomes))
	for _, o := range outcomes {
		if o.uploadKey == "" {
			return PushResult{}, harerr.Newf(harerr.BadResult, "upload of %s completed with no key", o.item.archivePath)
		}
		blobKeys[o.item.archivePath] = o.uploadKey
	}

	if err := manifest.AddNewEntries(local, remote, diff, blobKeys); err != nil {
		return PushResult{}, err
	}

	data, err := remote.ToBytes()
	if err != nil {
		return PushResult{}, err
	}
	if err := m.PushManifestBlob(data); err != nil {
		return PushResult{}, err
	}

	return PushResult{RemoteManifestBytes: data, FilesPushed: len(items)}, nil
}
