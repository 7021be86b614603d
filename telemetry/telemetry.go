// Package telemetry wraps stdlib log.Printf with the teacher's bracketed
// subsystem-tag convention ("[audio] ...") and a small set of
// atomic counters for the render-thread failure semantics spec §4.J and
// §7 require (contained node panics, rendered blocks). Event-drop and
// candidate-trim totals live on their owning collaborators instead
// (eventring.Ring.Dropped, voice.Manager.TrimmedCandidates) since those
// are the code that actually observes the drop/trim — Engine exposes
// both directly alongside this snapshot rather than duplicating them
// here. No structured logging library is introduced, matching
// client/audio.go's own stdlib-only logging.
package telemetry

import (
	"log"
	"sync/atomic"
)

// Counters tracks the handful of running totals the render loop reports
// through instead of propagating errors (spec §7: "never throws through
// the loop ... reports through counters").
type Counters struct {
	NodePanicsContained atomic.Uint64
	BlocksRendered      atomic.Uint64
}

// Snapshot is a point-in-time copy of Counters for diagnostics/testing.
type Snapshot struct {
	NodePanicsContained uint64
	BlocksRendered      uint64
}

// Load returns a consistent-enough snapshot of the counters (each field
// read independently; this is diagnostics, not a transactional view).
func (c *Counters) Load() Snapshot {
	return Snapshot{
		NodePanicsContained: c.NodePanicsContained.Load(),
		BlocksRendered:      c.BlocksRendered.Load(),
	}
}

// Logf logs a message tagged with a bracketed component name, mirroring
// client/audio.go's `log.Printf("[audio] ...")` convention.
func Logf(component, format string, args ...any) {
	log.Printf("["+component+"] "+format, args...)
}
