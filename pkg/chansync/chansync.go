// Package chansync is a Go port of the original's thread_sync primitive:
// a multi-producer/single-consumer channel that additionally exposes a
// receiver-dropped flag to every sender clone, so a dispatch helper can
// prune subscribers that are no longer listening before spawning new
// tasks.
//
// Rust's Receiver transitions the flag on Drop; Go has no destructors, so
// the flag is instead flipped by an explicit Receiver.Close, which every
// caller here invokes via defer. Forgetting to call Close simply leaves
// the sender-side disconnect detection permanently false, the same
// failure mode a Rust caller would get by leaking the receiver's scope.
//
// Rust's mpsc::channel is unbounded: Send never fails for capacity
// reasons, only because the receiver is gone. Send here preserves that
// guarantee by blocking until either the value is delivered or the
// receiver disconnects, rather than dropping once the buffer fills —
// a dropped terminal task event would leave a caller's Recv blocked
// forever waiting for an id that will never arrive.
package chansync

import "sync/atomic"

// Sender is the producer half. It is cheap to copy by value; all copies
// share the same underlying channel and disconnect signal.
type Sender[T any] struct {
	ch         chan T
	disconnect *atomic.Bool
	closed     chan struct{}
}

// Receiver is the consumer half. Exactly one goroutine should own it.
type Receiver[T any] struct {
	ch         chan T
	disconnect *atomic.Bool
	closed     chan struct{}
	closeOnce  chan struct{}
}

// Channel constructs a linked Sender/Receiver pair with the given buffer
// depth (0 for unbuffered). The buffer only smooths out bursts; it never
// bounds how many in-flight Sends a producer can have outstanding, since
// Send blocks past a full buffer rather than dropping.
func Channel[T any](buffer int) (Sender[T], Receiver[T]) {
	ch := make(chan T, buffer)
	var disconnect atomic.Bool
	closed := make(chan struct{})
	return Sender[T]{ch: ch, disconnect: &disconnect, closed: closed},
		Receiver[T]{ch: ch, disconnect: &disconnect, closed: closed, closeOnce: make(chan struct{}, 1)}
}

// Send delivers v to the receiver, blocking until it is either queued or
// the receiver disconnects. It returns false only in the latter case,
// matching "it's ok if it's disconnected" from the original's AsyncComm.
func (s Sender[T]) Send(v T) bool {
	select {
	case <-s.closed:
		return false
	default:
	}
	select {
	case s.ch <- v:
		return true
	case <-s.closed:
		return false
	}
}

// Disconnected reports whether the receiver has been closed.
func (s Sender[T]) Disconnected() bool {
	return s.disconnect.Load()
}

// Recv blocks for the next value, returning ok=false once the channel is
// drained and Close has been called.
func (r Receiver[T]) Recv() (v T, ok bool) {
	select {
	case v = <-r.ch:
		return v, true
	case <-r.closed:
	}
	select {
	case v = <-r.ch:
		return v, true
	default:
		return v, false
	}
}

// TryRecv returns immediately with ok=false if no value is queued.
func (r Receiver[T]) TryRecv() (v T, ok bool) {
	select {
	case v, ok = <-r.ch:
		return
	default:
		return v, false
	}
}

// Close marks the receiver as dropped, the Go stand-in for the Rust
// Receiver's Drop impl. It is idempotent and safe to call multiple times
// (e.g. once explicitly and once via a deferred call).
func (r Receiver[T]) Close() {
	select {
	case r.closeOnce <- struct{}{}:
		r.disconnect.Store(true)
		close(r.closed)
	default:
	}
}
