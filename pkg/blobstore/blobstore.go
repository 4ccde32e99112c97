// Package blobstore defines the uniform blob-storage interface (C5) and
// its event/task vocabulary, mirrored from the original's blob_storage.rs.
// Concrete backends live in the localdir and s3blob subpackages.
package blobstore

import (
	"fmt"

	"github.com/harbackup/har/pkg/chansync"
)

// TaskId identifies one unit of asynchronous blob-storage work, scoped to
// a single backend handle.
type TaskId uint64

// Error is the terminal failure payload an Event can carry. It is a plain
// message, not a harerr.Error, because it crosses the async event channel
// and must stay a simple, comparable value the way the original's
// blob_storage::Error does.
type Error struct {
	Msg string
}

func (e Error) Error() string { return e.Msg }

// Progress is declared for the Event union's completeness but never
// populated by either backend (see SPEC_FULL.md open questions). It is
// kept so the EventContent union compiles and so a future backend has
// somewhere to put transmitted-byte counters.
type Progress struct {
	BytesDone  int64
	BytesTotal int64
}

// EventContentKind discriminates the payload carried by an Event.
type EventContentKind int

const (
	KindUploadSuccess EventContentKind = iota
	KindDownloadSuccess
	KindExistsSuccess
	KindErrorContent
	KindProgress
)

// EventContent is the tagged-union payload of an Event, mirroring Rust's
// EventContent enum. Exactly one field is meaningful, selected by Kind.
type EventContent struct {
	Kind EventContentKind

	UploadKey     string
	DownloadBytes []byte
	ExistsResult  bool
	ErrorValue    Error
	ProgressValue Progress
}

func (c EventContent) String() string {
	switch c.Kind {
	case KindUploadSuccess:
		return fmt.Sprintf("UploadSuccess(%s)", c.UploadKey)
	case KindDownloadSuccess:
		return fmt.Sprintf("DownloadSuccess(%d bytes)", len(c.DownloadBytes))
	case KindExistsSuccess:
		return fmt.Sprintf("ExistsSuccess(%v)", c.ExistsResult)
	case KindErrorContent:
		return fmt.Sprintf("Error(%s)", c.ErrorValue.Msg)
	case KindProgress:
		return fmt.Sprintf("Progress(%d/%d)", c.ProgressValue.BytesDone, c.ProgressValue.BytesTotal)
	default:
		return "Unknown"
	}
}

// Event pairs a TaskId with its content; AsyncComm clones one of these to
// every live subscriber.
type Event struct {
	Id      TaskId
	Content EventContent
}

func (e Event) String() string {
	return fmt.Sprintf("[task:%d] %s", e.Id, e.Content)
}

// UploadResult, DownloadResult and ExistsResultT are the outcomes of the
// *_blocking calls, mirroring the original's type aliases.
type UploadResult struct {
	Key string
	Err error
}

type DownloadResult struct {
	Data []byte
	Err  error
}

type ExistsResultT struct {
	Exists bool
	Err    error
}

// BlobStorage is the capability set shared by the local-directory and S3
// backends: async submit + event subscription, plus blocking variants that
// never touch the async channel.
type BlobStorage interface {
	Upload(data []byte, key *string) TaskId
	Download(key string) TaskId
	Exists(key string) TaskId
	Events() chansync.Receiver[Event]

	UploadBlocking(data []byte, key *string) UploadResult
	DownloadBlocking(key string) DownloadResult
	ExistsBlocking(key string) ExistsResultT
}
