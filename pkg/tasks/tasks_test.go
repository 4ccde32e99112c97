package tasks

import (
	"testing"

	"github.com/harbackup/har/pkg/blobstore"
)

type echoTask struct{ value string }

func (t echoTask) Run(comm Comm) {
	SendEventContent(comm, blobstore.EventContent{Kind: blobstore.KindUploadSuccess, UploadKey: t.value})
}

type failingTask struct{ msg string }

func (t failingTask) Run(comm Comm) {
	SendErrorEvent(comm, t.msg)
}

func TestRunBlockingDeliversEvent(t *testing.T) {
	events := RunBlocking(echoTask{value: "abc"})
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Content.Kind != blobstore.KindUploadSuccess || events[0].Content.UploadKey != "abc" {
		t.Fatalf("unexpected event: %+v", events[0])
	}
}

func TestRunBlockingDeliversError(t *testing.T) {
	events := RunBlocking(failingTask{msg: "boom"})
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Content.Kind != blobstore.KindErrorContent || events[0].Content.ErrorValue.Msg != "boom" {
		t.Fatalf("unexpected event: %+v", events[0])
	}
}

func TestHelperRunTaskDeliversToSubscriber(t *testing.T) {
	h := NewHelper()
	receiver := h.Events()
	defer receiver.Close()

	id := h.RunTask(echoTask{value: "xyz"})

	ev, ok := receiver.Recv()
	if !ok {
		t.Fatalf("Recv returned ok=false")
	}
	if ev.Id != id {
		t.Fatalf("event id = %d, want %d", ev.Id, id)
	}
	if ev.Content.Kind != blobstore.KindUploadSuccess || ev.Content.UploadKey != "xyz" {
		t.Fatalf("unexpected event content: %+v", ev.Content)
	}
}

func TestHelperAllocatesIncreasingTaskIds(t *testing.T) {
	h := NewHelper()
	receiver := h.Events()
	defer receiver.Close()

	first := h.RunTask(echoTask{value: "a"})
	second := h.RunTask(echoTask{value: "b"})
	if second <= first {
		t.Fatalf("expected increasing task ids, got %d then %d", first, second)
	}

	if _, ok := receiver.Recv(); !ok {
		t.Fatalf("Recv returned ok=false")
	}
	if _, ok := receiver.Recv(); !ok {
		t.Fatalf("Recv returned ok=false")
	}
}
