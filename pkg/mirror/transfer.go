package mirror

import (
	"os"
	"path/filepath"
	"time"

	"github.com/harbackup/har/pkg/blobstore"
	"github.com/harbackup/har/pkg/harerr"
	"github.com/harbackup/har/pkg/manifest"
)

// TransferConfig bounds the transfer loop's in-flight concurrency and
// governs how often progress is printed.
type TransferConfig struct {
	ActiveTasksLimit  int
	ActiveSizeLimit   int64
	TimeBetweenPrints time.Duration
}

// DefaultTransferConfig matches the original's hard-coded defaults.
func DefaultTransferConfig() TransferConfig {
	return TransferConfig{
		ActiveTasksLimit:  32,
		ActiveSizeLimit:   10_000_000,
		TimeBetweenPrints: 800 * time.Millisecond,
	}
}

type transferKind int

const (
	transferUpload transferKind = iota
	transferDownload
)

// transferItem is one file's worth of work: either "read this local file
// and upload it" or "download this blob key and write it at archivePath".
type transferItem struct {
	kind        transferKind
	archivePath string

	// transferUpload only.
	localFullPath string

	// transferDownload only: size is known upfront from the remote manifest.
	blobKey string
	size    int64
}

// transferOutcome is one item's result: for uploads, the key it was stored
// under (needed to build the path->key mapping for merge-after-push).
type transferOutcome struct {
	item      transferItem
	uploadKey string
}

// runTransfer drives the bounded-concurrency admission/drain/progress loop
// shared by push and pull, per SPEC_FULL.md §4.9. prefix is the archive root
// downloaded files are written beneath. Aborts and returns the first Error
// event observed; does not roll back partial side effects.
func runTransfer(storage blobstore.BlobStorage, prefix string, items []transferItem, cfg TransferConfig) ([]transferOutcome, error) {
	if len(items) == 0 {
		return nil, nil
	}

	outcomes := make([]transferOutcome, len(items))
	activeTasks := make(map[blobstore.TaskId]int)
	var activeSize int64
	nextIndex := 0
	var totalTransferred int64
	var lastPrint time.Time

	events := storage.Events()
	defer events.Close()

	for nextIndex < len(items) || len(activeTasks) > 0 {
		for nextIndex < len(items) &&
			(activeSize < cfg.ActiveSizeLimit || len(activeTasks) == 0) &&
			len(activeTasks) < cfg.ActiveTasksLimit {

			idx := nextIndex
			item := items[idx]

			var taskId blobstore.TaskId
			switch item.kind {
			case transferUpload:
				data, err := os.ReadFile(item.localFullPath)
				if err != nil {
					return nil, harerr.Wrap(harerr.Io, "reading "+item.localFullPath, err)
				}
				item.size = int64(len(data))
				items[idx] = item
				taskId = storage.Upload(data, nil)
			case transferDownload:
				taskId = storage.Download(item.blobKey)
			}

			activeTasks[taskId] = idx
			activeSize += item.size
			nextIndex++
		}

		if len(activeTasks) > 0 {
			ev, ok := events.Recv()
			if !ok {
				return nil, harerr.New(harerr.BadResult, "event channel closed with tasks still outstanding")
			}

			idx, known := activeTasks[ev.Id]
			if known {
				item := items[idx]
				switch ev.Content.Kind {
				case blobstore.KindErrorContent:
					return nil, ev.Content.ErrorValue
				case blobstore.KindUploadSuccess:
					if item.kind != transferUpload {
						return nil, harerr.New(harerr.BadResult, "upload success for a non-upload task")
					}
					outcomes[idx] = transferOutcome{item: item, uploadKey: ev.Content.UploadKey}
				case blobstore.KindDownloadSuccess:
					if item.kind != transferDownload {
						return nil, harerr.New(harerr.BadResult, "download success for a non-download task")
					}
					dest := filepath.Join(prefix, item.archivePath)
					if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
						return nil, harerr.Wrap(harerr.Io, "creating directory for "+dest, err)
					}
					if err := os.WriteFile(dest, ev.Content.DownloadBytes, 0o644); err != nil {
						return nil, harerr.Wrap(harerr.Io, "writing "+dest, err)
					}
					outcomes[idx] = transferOutcome{item: item}
				default:
					return nil, harerr.Newf(harerr.BadResult, "unexpected event content on transfer loop: %s", ev.Content)
				}

				activeSize -= item.size
				totalTransferred += item.size
				delete(activeTasks, ev.Id)
			}
		}

		if time.Since(lastPrint) >= cfg.TimeBetweenPrints {
			printProgress(nextIndex, len(items), totalTransferred)
			lastPrint = time.Now()
		}
	}

	clearProgressLine()
	return outcomes, nil
}

// filesUnderTopExtras enumerates every File descendant of diff's top-extra
// ids in m.
func filesUnderTopExtras(m *manifest.Manifest, topExtraIds []manifest.EntryId) []manifest.EntryId {
	var files []manifest.EntryId
	for _, topId := range topExtraIds {
		files = append(files, m.GetChildFilesRecurs(topId)...)
	}
	return files
}
