package mirror

import (
	"os"
	"path/filepath"

	"github.com/harbackup/har/pkg/harerr"
	"github.com/harbackup/har/pkg/manifest"
)

// PullResult summarizes a completed pull.
type PullResult struct {
	FilesPulled int
}

// Pull diffs the cached remote manifest (remoteManifestBytes) against a
// manifest built from archiveRoot, pre-creates every new directory, and
// downloads every new file, per SPEC_FULL.md §4.9's end-to-end pull.
func (m *Mirror) Pull(archiveRoot string, remoteManifestBytes []byte, cfg TransferConfig) (PullResult, error) {
	remote, err := manifest.FromBytes(remoteManifestBytes)
	if err != nil {
		return PullResult{}, err
	}

	local, err := manifest.FromFS(archiveRoot)
	if err != nil {
		return PullResult{}, err
	}

	diff, err := manifest.Diff(remote, local)
	if err != nil {
		return PullResult{}, err
	}
	if len(diff.TopExtraIdsInA) == 0 {
		log.Debug().Msg("pull: nothing new to download")
		return PullResult{}, nil
	}

	remoteGetter := remote.GetFullPathGetter()

	for _, topId := range diff.TopExtraIdsInA {
		entry := remote.GetEntry(topId)
		if !entry.IsDirectory() {
			continue
		}
		for _, dirId := range remote.GetChildDirsRecurs(topId) {
			dirPath := remoteGetter.Path(dirId)
			if err := os.MkdirAll(filepath.Join(archiveRoot, dirPath), 0o755); err != nil {
				return PullResult{}, harerr.Wrap(harerr.Io, "creating directory "+dirPath, err)
			}
		}
	}

	fileIds := filesUnderTopExtras(remote, diff.TopExtraIdsInA)
	items := make([]transferItem, 0, len(fileIds))
	for _, fileId := range fileIds {
		archivePath := remoteGetter.Path(fileId)
		key, size, err := remote.GetFileKeyAndSize(fileId)
		if err != nil {
			return PullResult{}, err
		}
		items = append(items, transferItem{
			kind:        transferDownload,
			archivePath: archivePath,
			blobKey:     key.String(),
			size:        int64(size),
		})
	}

	log.Info().Int("files", len(items)).Msg("pull: downloading new files")
	if _, err := runTransfer(m.storage, archiveRoot, items, cfg); err != nil {
		return PullResult{}, err
	}

	return PullResult{FilesPulled: len(items)}, nil
}
