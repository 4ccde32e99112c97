package chansync

import (
	"testing"
	"time"
)

func TestSendRecv(t *testing.T) {
	sender, receiver := Channel[int](1)
	if !sender.Send(42) {
		t.Fatalf("Send reported failure on a fresh channel")
	}
	v, ok := receiver.Recv()
	if !ok || v != 42 {
		t.Fatalf("Recv = (%d, %v), want (42, true)", v, ok)
	}
}

func TestSendBlocksPastBufferUntilDrained(t *testing.T) {
	sender, receiver := Channel[int](1)
	if !sender.Send(1) {
		t.Fatalf("first Send should succeed")
	}

	done := make(chan bool, 1)
	go func() { done <- sender.Send(2) }()

	select {
	case <-done:
		t.Fatalf("Send on a full buffer returned before the receiver drained it")
	case <-time.After(20 * time.Millisecond):
	}

	v, ok := receiver.Recv()
	if !ok || v != 1 {
		t.Fatalf("Recv = (%d, %v), want (1, true)", v, ok)
	}

	select {
	case ok := <-done:
		if !ok {
			t.Fatalf("second Send reported failure after the buffer drained")
		}
	case <-time.After(time.Second):
		t.Fatalf("second Send did not unblock after the buffer drained")
	}
}

func TestSendUnblocksOnClose(t *testing.T) {
	sender, receiver := Channel[int](1)
	if !sender.Send(1) {
		t.Fatalf("first Send should succeed")
	}

	done := make(chan bool, 1)
	go func() { done <- sender.Send(2) }()

	receiver.Close()

	select {
	case ok := <-done:
		if ok {
			t.Fatalf("Send reported success after the receiver closed")
		}
	case <-time.After(time.Second):
		t.Fatalf("Send did not unblock after Close")
	}
}

func TestCloseMarksDisconnected(t *testing.T) {
	sender, receiver := Channel[int](1)
	if sender.Disconnected() {
		t.Fatalf("sender reports disconnected before Close")
	}
	receiver.Close()
	if !sender.Disconnected() {
		t.Fatalf("sender does not report disconnected after Close")
	}
	if sender.Send(1) {
		t.Fatalf("Send should fail once the receiver has closed")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	_, receiver := Channel[int](1)
	receiver.Close()
	receiver.Close()
}

func TestTryRecvEmpty(t *testing.T) {
	_, receiver := Channel[int](1)
	if _, ok := receiver.TryRecv(); ok {
		t.Fatalf("TryRecv on empty channel reported ok=true")
	}
}
