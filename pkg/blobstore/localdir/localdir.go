// Package localdir implements blobstore.BlobStorage over a local
// directory, mirroring the original's blob_storage_local_directory.rs.
package localdir

import (
	"os"
	"path/filepath"

	"github.com/harbackup/har/pkg/blobcrypt"
	"github.com/harbackup/har/pkg/blobhash"
	"github.com/harbackup/har/pkg/blobstore"
	"github.com/harbackup/har/pkg/chansync"
	"github.com/harbackup/har/pkg/harerr"
	"github.com/harbackup/har/pkg/harlog"
	"github.com/harbackup/har/pkg/tasks"
)

var log = harlog.For("blobstore.localdir")

// Backend stores blobs as individual encrypted files directly under dir.
type Backend struct {
	dir     string
	encrypt blobcrypt.Codec
	helper  *tasks.Helper
}

// New opens dir (which must already exist) as a blob store, loading the
// encryption key from encryptionKeyFile.
func New(dir string, encryptionKeyFile string) (*Backend, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, harerr.Wrap(harerr.Io, "local directory does not exist", err)
	}
	codec, err := blobcrypt.NewFromKeyFile(encryptionKeyFile)
	if err != nil {
		return nil, err
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, harerr.Wrap(harerr.Io, "resolving absolute directory path", err)
	}
	return &Backend{dir: absDir, encrypt: codec, helper: tasks.NewHelper()}, nil
}

type uploadTask struct {
	dir     string
	key     *string
	data    []byte
	encrypt blobcrypt.Codec
}

func (t uploadTask) Run(comm tasks.Comm) {
	key := ""
	if t.key != nil {
		key = *t.key
	} else {
		key = blobhash.Name(t.dir, t.data)
	}
	path := filepath.Join(t.dir, key)

	ciphertext, err := t.encrypt.Encrypt(t.data)
	if err != nil {
		tasks.SendErrorEvent(comm, "error while encrypting ("+err.Error()+")")
		return
	}

	if err := os.WriteFile(path, ciphertext, 0o600); err != nil {
		tasks.SendErrorEvent(comm, "error while writing file ("+err.Error()+")")
		return
	}
	tasks.SendEventContent(comm, blobstore.EventContent{Kind: blobstore.KindUploadSuccess, UploadKey: key})
}

type downloadTask struct {
	path    string
	encrypt blobcrypt.Codec
}

func (t downloadTask) Run(comm tasks.Comm) {
	ciphertext, err := os.ReadFile(t.path)
	if err != nil {
		tasks.SendErrorEvent(comm, "error while reading "+t.path+" ("+err.Error()+")")
		return
	}
	plaintext, err := t.encrypt.Decrypt(ciphertext)
	if err != nil {
		tasks.SendErrorEvent(comm, "error while decrypting ("+err.Error()+")")
		return
	}
	tasks.SendEventContent(comm, blobstore.EventContent{Kind: blobstore.KindDownloadSuccess, DownloadBytes: plaintext})
}

type existsTask struct {
	path string
}

func (t existsTask) Run(comm tasks.Comm) {
	_, err := os.Stat(t.path)
	exists := err == nil
	tasks.SendEventContent(comm, blobstore.EventContent{Kind: blobstore.KindExistsSuccess, ExistsResult: exists})
}

func (b *Backend) newUploadTask(data []byte, key *string) uploadTask {
	return uploadTask{dir: b.dir, key: key, data: data, encrypt: b.encrypt}
}

func (b *Backend) newDownloadTask(key string) downloadTask {
	return downloadTask{path: filepath.Join(b.dir, key), encrypt: b.encrypt}
}

func (b *Backend) newExistsTask(key string) existsTask {
	return existsTask{path: filepath.Join(b.dir, key)}
}

func (b *Backend) Upload(data []byte, key *string) blobstore.TaskId {
	log.Debug().Msg("running upload task")
	return b.helper.RunTask(b.newUploadTask(data, key))
}

func (b *Backend) Download(key string) blobstore.TaskId {
	log.Debug().Str("key", key).Msg("running download task")
	return b.helper.RunTask(b.newDownloadTask(key))
}

func (b *Backend) Exists(key string) blobstore.TaskId {
	return b.helper.RunTask(b.newExistsTask(key))
}

func (b *Backend) Events() chansync.Receiver[blobstore.Event] {
	return b.helper.Events()
}

func (b *Backend) UploadBlocking(data []byte, key *string) blobstore.UploadResult {
	events := tasks.RunBlocking(b.newUploadTask(data, key))
	return firstUploadResult(events)
}

func (b *Backend) DownloadBlocking(key string) blobstore.DownloadResult {
	events := tasks.RunBlocking(b.newDownloadTask(key))
	return firstDownloadResult(events)
}

func (b *Backend) ExistsBlocking(key string) blobstore.ExistsResultT {
	events := tasks.RunBlocking(b.newExistsTask(key))
	return firstExistsResult(events)
}

func firstUploadResult(events []blobstore.Event) blobstore.UploadResult {
	for _, ev := range events {
		switch ev.Content.Kind {
		case blobstore.KindUploadSuccess:
			return blobstore.UploadResult{Key: ev.Content.UploadKey}
		case blobstore.KindErrorContent:
			return blobstore.UploadResult{Err: ev.Content.ErrorValue}
		}
	}
	return blobstore.UploadResult{Err: harerr.New(harerr.BadResult, "did not find upload event")}
}

func firstDownloadResult(events []blobstore.Event) blobstore.DownloadResult {
	for _, ev := range events {
		switch ev.Content.Kind {
		case blobstore.KindDownloadSuccess:
			return blobstore.DownloadResult{Data: ev.Content.DownloadBytes}
		case blobstore.KindErrorContent:
			return blobstore.DownloadResult{Err: ev.Content.ErrorValue}
		}
	}
	return blobstore.DownloadResult{Err: harerr.New(harerr.BadResult, "did not find download event")}
}

func firstExistsResult(events []blobstore.Event) blobstore.ExistsResultT {
	for _, ev := range events {
		switch ev.Content.Kind {
		case blobstore.KindExistsSuccess:
			return blobstore.ExistsResultT{Exists: ev.Content.ExistsResult}
		case blobstore.KindErrorContent:
			return blobstore.ExistsResultT{Err: ev.Content.ErrorValue}
		}
	}
	return blobstore.ExistsResultT{Err: harerr.New(harerr.BadResult, "did not find exists event")}
}
