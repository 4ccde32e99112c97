// Package tasks is a Go port of the original's blob_storage_tasks.rs: the
// Comm capability set (AsyncComm / SyncComm), the Task interface, and the
// TaskHelper that owns a backend's subscriber list and task-id counter.
//
// Go has no generic associated-const trait dispatch, so Comm is a plain
// interface instead of the Rust trait-with-default-methods; the default
// method bodies (send_error_event, send_event_content) are implemented
// once as free functions and called by both Comm implementations.
package tasks

import (
	"os"

	"github.com/harbackup/har/pkg/blobstore"
	"github.com/harbackup/har/pkg/chansync"
	"github.com/harbackup/har/pkg/harlog"
)

var log = harlog.For("tasks")

// Comm is the capability a Task uses to emit its terminal event.
type Comm interface {
	SendEvent(ev blobstore.Event)
	TaskId() blobstore.TaskId
}

// SendErrorEvent emits an Error event content, mirroring Comm's default
// send_error_event method in the original.
func SendErrorEvent(c Comm, msg string) {
	log.Debug().Uint64("task", uint64(c.TaskId())).Str("err", msg).Msg("task error")
	SendEventContent(c, blobstore.EventContent{Kind: blobstore.KindErrorContent, ErrorValue: blobstore.Error{Msg: msg}})
}

// SendEventContent wraps content in an Event addressed to c's task id and
// sends it, mirroring Comm's default send_event_content method.
func SendEventContent(c Comm, content blobstore.EventContent) {
	c.SendEvent(blobstore.Event{Id: c.TaskId(), Content: content})
}

// AsyncComm fans an event out, best-effort, to a snapshot of a backend's
// subscriber list taken at task-spawn time.
type AsyncComm struct {
	Senders []chansync.Sender[blobstore.Event]
	Id      blobstore.TaskId
}

func (c AsyncComm) SendEvent(ev blobstore.Event) {
	for _, s := range c.Senders {
		// It's fine if the receiver side has gone away.
		s.Send(ev)
	}
}

func (c AsyncComm) TaskId() blobstore.TaskId { return c.Id }

// SyncComm appends events to a caller-owned buffer instead of fanning out
// over channels, used by the *_blocking entry points. TaskId is a
// placeholder since synchronous callers correlate by call, not by id.
type SyncComm struct {
	Events *[]blobstore.Event
}

func (c SyncComm) SendEvent(ev blobstore.Event) {
	*c.Events = append(*c.Events, ev)
}

func (c SyncComm) TaskId() blobstore.TaskId { return 0 }

// Task is any unit of work that can run against a Comm, emitting exactly
// one terminal event content.
type Task interface {
	Run(comm Comm)
}

// installPanicHook recovers a task-goroutine panic, logs it, and exits the
// process non-zero: the fail-fast policy documented in SPEC_FULL.md §5/§9.
// A lost task would otherwise leave every subscriber's events.Recv()
// blocked forever waiting for a terminal event that will never arrive.
func installPanicHook() {
	if r := recover(); r != nil {
		log.Error().Interface("panic", r).Msg("task goroutine panicked; exiting")
		os.Exit(1)
	}
}

// Helper owns a backend's live subscriber list and its next-task-id
// counter. It is only ever touched from the caller goroutine.
type Helper struct {
	senders    []chansync.Sender[blobstore.Event]
	nextTaskId uint64
}

// NewHelper returns an empty Helper, id counter starting at zero.
func NewHelper() *Helper {
	return &Helper{}
}

// RunTask allocates a task id, prunes dead subscribers, snapshots the
// surviving sender list, and spawns task on a new goroutine with an
// AsyncComm. It returns immediately with the allocated TaskId.
func (h *Helper) RunTask(task Task) blobstore.TaskId {
	id := blobstore.TaskId(h.nextTaskId)
	h.nextTaskId++

	h.cleanSenders()
	senders := make([]chansync.Sender[blobstore.Event], len(h.senders))
	copy(senders, h.senders)

	go func() {
		defer installPanicHook()
		task.Run(AsyncComm{Senders: senders, Id: id})
	}()

	return id
}

// RunBlocking runs task inline with a SyncComm, the building block for a
// backend's *_blocking methods.
func RunBlocking(task Task) []blobstore.Event {
	var events []blobstore.Event
	task.Run(SyncComm{Events: &events})
	return events
}

func (h *Helper) cleanSenders() {
	before := len(h.senders)
	kept := h.senders[:0]
	for _, s := range h.senders {
		if !s.Disconnected() {
			kept = append(kept, s)
		}
	}
	h.senders = kept
	if diff := before - len(h.senders); diff > 0 {
		log.Debug().Int("removed", diff).Msg("pruned disconnected senders")
	}
}

// Events creates a fresh channel, registers its sender side with the
// helper, and returns the receiver to the caller. The buffer depth only
// smooths bursts: Send blocks rather than drops once it fills, so this
// is independent of any caller's in-flight task concurrency limit.
func (h *Helper) Events() chansync.Receiver[blobstore.Event] {
	sender, receiver := chansync.Channel[blobstore.Event](8)
	h.senders = append(h.senders, sender)
	return receiver
}
