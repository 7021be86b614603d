// Package eventring implements the lock-free single-producer/single-consumer
// ring of scene topology events that the game thread hands to the render
// thread once per block. It follows the same shape as the teacher's
// per-sender jitter ring (client/internal/jitter): a power-of-two-sized
// array, a producer-local coalescing map, and a monotonic drop counter —
// but with release/acquire handoff instead of single-goroutine ownership,
// since here producer and consumer really are different threads.
package eventring

import (
	"errors"
	"sync/atomic"

	"dynamisaudio/acoustic"
)

// EventKind tags the union of topology events the game thread can publish.
type EventKind uint8

const (
	PortalStateChanged EventKind = iota
	MaterialOverrideChanged
	GeometryDestroyedEvent
)

// Event is a single topology change. Only the fields relevant to Kind are
// populated by the producer; the consumer switches on Kind.
type Event struct {
	Kind          EventKind
	TimeNanos     int64
	PortalID      acoustic.PortalID
	Aperture      float64
	EntityID      uint32
	NewMaterialID acoustic.MaterialID
	GeometryID    uint32
}

// ErrCapacityNotPowerOfTwo is a construction-time contract violation (spec §7).
var ErrCapacityNotPowerOfTwo = errors.New("eventring: capacity must be a power of two >= 2")

// Ring is a lock-free SPSC ring of Events with portal-event coalescing.
//
// head is the next slot the consumer will read; tail is the next slot the
// producer will write. Both are monotonic counters (never wrapped); the
// slot index is counter&mask. atomic.Uint64 load/store in Go already gives
// sequential consistency, which is at least as strong as the release
// (store side) / acquire (load side) ordering the spec calls for, so no
// additional fencing is needed.
type Ring struct {
	slots []Event
	mask  uint64

	tail atomic.Uint64 // producer-owned; consumer acquire-loads it
	head atomic.Uint64 // consumer-owned; producer acquire-loads it

	dropped             atomic.Uint64
	enqueued            atomic.Uint64
	drained             atomic.Uint64
	coalescedReplacements atomic.Uint64

	// pendingPortalSlot is producer-local state (no synchronization needed):
	// it maps a portal id to the absolute slot index of its not-yet-drained
	// PortalStateChanged event, if any.
	pendingPortalSlot map[acoustic.PortalID]uint64
}

// New constructs a Ring. capacity must be a power of two >= 2.
func New(capacity int) (*Ring, error) {
	if capacity < 2 || capacity&(capacity-1) != 0 {
		return nil, ErrCapacityNotPowerOfTwo
	}
	return &Ring{
		slots:             make([]Event, capacity),
		mask:              uint64(capacity - 1),
		pendingPortalSlot: make(map[acoustic.PortalID]uint64),
	}, nil
}

// Capacity returns the fixed slot count.
func (r *Ring) Capacity() int { return len(r.slots) }

// Enqueue publishes an event (producer side only).
//
// Coalescing rule: a PortalStateChanged for a portal with an already
// pending (not yet drained) PortalStateChanged overwrites that slot in
// place instead of advancing tail. All other overflow (ring full for a
// non-coalesceable event, or a portal event when the ring is full and no
// pending slot exists for it) increments Dropped.
func (r *Ring) Enqueue(ev Event) {
	head := r.head.Load()
	tail := r.tail.Load()

	if ev.Kind == PortalStateChanged {
		if slot, ok := r.pendingPortalSlot[ev.PortalID]; ok && slot >= head {
			r.slots[slot&r.mask] = ev
			r.coalescedReplacements.Add(1)
			r.enqueued.Add(1)
			return
		}
	}

	if tail-head >= uint64(len(r.slots)) {
		r.dropped.Add(1)
		r.enqueued.Add(1)
		return
	}

	r.slots[tail&r.mask] = ev
	if ev.Kind == PortalStateChanged {
		r.pendingPortalSlot[ev.PortalID] = tail
	}
	r.tail.Store(tail + 1)
	r.enqueued.Add(1)
}

// Drain copies up to min(pending, len(out)) events into out (consumer side
// only), zero-allocation, and returns the number copied.
func (r *Ring) Drain(out []Event) int {
	head := r.head.Load()
	tail := r.tail.Load()

	pending := tail - head
	n := uint64(len(out))
	if pending < n {
		n = pending
	}
	for i := uint64(0); i < n; i++ {
		out[i] = r.slots[(head+i)&r.mask]
	}
	if n > 0 {
		r.head.Store(head + n)
		r.drained.Add(n)
	}
	return int(n)
}

// Pending returns the number of events awaiting drain. Safe for either side
// to call for diagnostics, though only the consumer's view is authoritative
// about what Drain will return next.
func (r *Ring) Pending() int {
	return int(r.tail.Load() - r.head.Load())
}

// Dropped returns the monotonic count of events dropped due to overflow.
func (r *Ring) Dropped() uint64 { return r.dropped.Load() }

// Enqueued returns the monotonic count of Enqueue calls.
func (r *Ring) Enqueued() uint64 { return r.enqueued.Load() }

// Drained returns the monotonic count of events copied out via Drain.
func (r *Ring) Drained() uint64 { return r.drained.Load() }

// CoalescedReplacements returns the monotonic count of in-place portal
// aperture overwrites that did not advance tail.
func (r *Ring) CoalescedReplacements() uint64 { return r.coalescedReplacements.Load() }
