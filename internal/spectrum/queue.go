// SPDX-License-Identifier: MIT
package spectrum

import "sync/atomic"

// Queue is the bounded handoff between the audio callback (single
// producer) and the render loop (single consumer). It is built on a
// buffered channel: TryPush is a non-blocking send that discards the
// incoming frame when the buffer is full (drop-newest), TryPopAll is a
// non-blocking drain. Neither side ever waits on the other, which is what
// keeps the audio callback real-time safe. Overflow leaves no trace except
// the Dropped counter.
type Queue struct {
	frames  chan Frame
	dropped atomic.Uint64
}

// NewQueue creates a queue holding at most capacity frames.
// Capacity is fixed for the queue's lifetime.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{
		frames: make(chan Frame, capacity),
	}
}

// TryPush enqueues f and reports whether it was accepted. A full queue
// rejects the frame immediately: the newest data loses, everything already
// queued keeps its place and order. Never blocks.
func (q *Queue) TryPush(f Frame) bool {
	select {
	case q.frames <- f:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// TryPopAll drains everything currently queued, in FIFO order, appending
// to dst. Passing a reused scratch slice keeps the consumer's tick
// allocation-steady. An empty queue returns dst unchanged. Never blocks.
func (q *Queue) TryPopAll(dst []Frame) []Frame {
	for {
		select {
		case f := <-q.frames:
			dst = append(dst, f)
		default:
			return dst
		}
	}
}

// Len returns the number of frames currently queued.
func (q *Queue) Len() int {
	return len(q.frames)
}

// Cap returns the fixed capacity.
func (q *Queue) Cap() int {
	return cap(q.frames)
}

// Dropped returns how many frames TryPush has discarded so far.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}
