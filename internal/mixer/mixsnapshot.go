package mixer

import "dynamisaudio/api"

// BusTarget pairs a bus with the gain a MixSnapshot wants it blended to.
type BusTarget struct {
	Bus        api.MixBusControl
	TargetGain float64
}

// MixSnapshot is a designer-authored bus-gain preset: a set of per-bus
// target gains reached by a linear blend over BlendSeconds (spec §8
// scenario 6). Activating one with BlendSeconds == 0 snaps immediately.
type MixSnapshot struct {
	Targets      []BusTarget
	BlendSeconds float64
}

type blendEntry struct {
	bus                   api.MixBusControl
	startGain, targetGain float64
}

// SnapshotBlender advances an active MixSnapshot's blend by one block at
// a time (spec §4.J step 1: "Advance mix-snapshot blend by one block
// duration (updates bus gains)").
type SnapshotBlender struct {
	active  []blendEntry
	elapsed float64
	total   float64
}

// NewSnapshotBlender constructs an idle blender.
func NewSnapshotBlender() *SnapshotBlender {
	return &SnapshotBlender{}
}

// Activate captures each target bus's current gain as the blend's start
// point and begins blending toward snap's targets over snap.BlendSeconds.
// A non-positive BlendSeconds snaps every target bus to its goal gain
// immediately.
func (s *SnapshotBlender) Activate(snap MixSnapshot) {
	s.active = s.active[:0]
	for _, t := range snap.Targets {
		s.active = append(s.active, blendEntry{
			bus:        t.Bus,
			startGain:  t.Bus.Gain(),
			targetGain: t.TargetGain,
		})
	}
	s.elapsed = 0
	s.total = snap.BlendSeconds
	if s.total <= 0 {
		s.applyFraction(1)
	}
}

// Advance moves the active blend forward by blockSeconds and writes the
// interpolated gain into each target bus.
func (s *SnapshotBlender) Advance(blockSeconds float64) {
	if len(s.active) == 0 {
		return
	}
	s.elapsed += blockSeconds
	frac := 1.0
	if s.total > 0 {
		frac = s.elapsed / s.total
		if frac > 1 {
			frac = 1
		}
	}
	s.applyFraction(frac)
}

func (s *SnapshotBlender) applyFraction(frac float64) {
	for _, e := range s.active {
		e.bus.SetGain(e.startGain + (e.targetGain-e.startGain)*frac)
	}
}
