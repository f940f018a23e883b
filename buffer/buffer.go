/*
NAME
  buffer.go

DESCRIPTION
  buffer.go implements the bounded producer/consumer queue of IQ sample
  vectors that decouples a device callback thread from the processing
  thread, in each direction of the daemon.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package buffer provides SampleBuffer, a FIFO of IQ sample vectors
// safe for concurrent producers and consumers, with an end-of-stream
// signal and a fill-level wait primitive.
package buffer

import (
	"sync"

	"github.com/ausocean/sdrd/iq"
)

// SampleBuffer is a bounded-by-convention FIFO of sample vectors. It
// never drops: memory pressure from an input that outruns its
// consumer is the caller's responsibility to detect via
// QueuedSamples, not the buffer's to enforce.
type SampleBuffer struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []iq.Vector
	samples int
	ended   bool
}

// New returns a new, empty SampleBuffer.
func New() *SampleBuffer {
	b := &SampleBuffer{}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Push appends v to the back of the queue and wakes any consumer
// blocked in Pull or WaitFill.
func (b *SampleBuffer) Push(v iq.Vector) {
	b.mu.Lock()
	b.queue = append(b.queue, v)
	b.samples += len(v)
	b.mu.Unlock()
	b.cond.Broadcast()
}

// PushEnd signals that no further vectors will be pushed. Any blocked
// or future Pull returns an empty vector once the queue drains.
func (b *SampleBuffer) PushEnd() {
	b.mu.Lock()
	b.ended = true
	b.mu.Unlock()
	b.cond.Broadcast()
}

// Pull blocks until a vector is available or end-of-stream is
// signalled and the queue is empty, in which case it returns a nil
// vector.
func (b *SampleBuffer) Pull() iq.Vector {
	b.mu.Lock()
	defer b.mu.Unlock()
	for len(b.queue) == 0 && !b.ended {
		b.cond.Wait()
	}
	if len(b.queue) == 0 {
		return nil
	}
	v := b.queue[0]
	b.queue = b.queue[1:]
	b.samples -= len(v)
	return v
}

// WaitFill blocks until the queued sample count reaches at least min,
// or end-of-stream is signalled. This lets a consumer avoid waking on
// every small vector when it would rather accumulate a larger chunk
// before doing work, avoiding starvation hiccups.
func (b *SampleBuffer) WaitFill(min int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for b.samples < min && !b.ended {
		b.cond.Wait()
	}
}

// QueuedSamples returns the number of samples (not vectors) currently
// queued. Callers use this to detect input overrun, e.g. growth beyond
// 10x the stream sample rate indicates the system cannot keep up.
func (b *SampleBuffer) QueuedSamples() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.samples
}
