// Package eventring implements the bounded lock-free ring buffer that
// carries control events into the rendering context.
//
// The ring supports any number of concurrent producers and exactly one
// consumer. Producers reserve a cell with a compare-and-swap on the write
// cursor and publish it by storing the cell's sequence number, so the
// consumer's acquire-ordered sequence read always observes a fully
// written record. Push fails immediately when the ring is full; neither
// side ever blocks or waits on the other.
package eventring

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrInvalidCapacity indicates a non-positive requested capacity.
var ErrInvalidCapacity = errors.New("eventring: capacity must be positive")

// cell pairs a slot with its sequence number. The sequence encodes the
// slot state: seq == pos means free for the producer reserving pos,
// seq == pos+1 means published and readable by the consumer.
type cell[T any] struct {
	seq atomic.Uint64
	val T
}

// Ring is a bounded multi-producer single-consumer queue. The zero value
// is not usable; construct with New.
type Ring[T any] struct {
	cells []cell[T]
	mask  uint64

	enqueuePos atomic.Uint64
	dequeuePos atomic.Uint64
}

// New creates a ring holding at least capacity elements. The actual
// capacity is rounded up to the next power of two so index masking
// replaces modulo in the hot paths.
func New[T any](capacity int) (*Ring[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}

	size := uint64(1)
	for size < uint64(capacity) {
		size <<= 1
	}

	r := &Ring[T]{
		cells: make([]cell[T], size),
		mask:  size - 1,
	}
	for i := range r.cells {
		r.cells[i].seq.Store(uint64(i))
	}
	return r, nil
}

// Cap returns the ring capacity.
func (r *Ring[T]) Cap() int {
	return len(r.cells)
}

// Len returns the approximate number of queued elements. Exact only when
// no producer is concurrently pushing.
func (r *Ring[T]) Len() int {
	head := r.dequeuePos.Load()
	tail := r.enqueuePos.Load()
	return int(tail - head)
}

// Push enqueues v. It returns false without modifying the ring when the
// ring is full. Push never blocks; the CAS loop only retries when another
// producer won the same slot, never while the ring stays full.
func (r *Ring[T]) Push(v T) bool {
	pos := r.enqueuePos.Load()
	for {
		c := &r.cells[pos&r.mask]
		seq := c.seq.Load()
		diff := int64(seq) - int64(pos)

		switch {
		case diff == 0:
			if r.enqueuePos.CompareAndSwap(pos, pos+1) {
				c.val = v
				c.seq.Store(pos + 1)
				return true
			}
			pos = r.enqueuePos.Load()

		case diff < 0:
			// The cell still holds an unconsumed element: full.
			return false

		default:
			pos = r.enqueuePos.Load()
		}
	}
}

// Pop dequeues the oldest element. It returns the zero value and false
// when the ring is empty. Only a single goroutine may call Pop.
func (r *Ring[T]) Pop() (T, bool) {
	var zero T

	pos := r.dequeuePos.Load()
	c := &r.cells[pos&r.mask]
	seq := c.seq.Load()

	if int64(seq)-int64(pos+1) < 0 {
		return zero, false
	}

	v := c.val
	c.val = zero
	// Mark the cell free for the producer one lap ahead.
	c.seq.Store(pos + r.mask + 1)
	r.dequeuePos.Store(pos + 1)
	return v, true
}
