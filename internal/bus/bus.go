// Package bus implements the mix bus graph (spec §4.I, component I): a
// bus owns a source list (child buses), an effect chain of dsp.Node, and
// pre-allocated accumulator/scratch buffers. It follows the same
// prepare-once, allocation-free-after-that shape as internal/dsp, and
// exposes api.MixBusControl so the mix-snapshot layer never needs the
// concrete *Bus type.
package bus

import (
	"dynamisaudio/internal/dsp"
)

// Bus is one node of the mix graph: Master has children SFX and Reverb in
// the canonical wiring (spec §4.J), but the type itself is generic and
// recursive — any bus may own child buses and an effect chain.
type Bus struct {
	name     string
	gain     float64
	bypass   bool
	prepared bool

	children []*Bus
	effects  []dsp.Node

	maxFrames int
	channels  int

	accumulator []float32
	scratchA    []float32
	scratchB    []float32
	inlet       []float32
}

// New constructs an unprepared Bus named name, at unity gain.
func New(name string) *Bus {
	return &Bus{name: name, gain: 1.0}
}

// Name, Gain, SetGain, Bypass, SetBypass satisfy api.MixBusControl (spec
// §4.I: "Buses expose {name, get/set gain, set bypass} as an interface
// consumed by the mix-snapshot layer, which must not depend on concrete
// bus types").
func (b *Bus) Name() string          { return b.name }
func (b *Bus) Gain() float64         { return b.gain }
func (b *Bus) SetGain(gain float64)  { b.gain = gain }
func (b *Bus) Bypass() bool          { return b.bypass }
func (b *Bus) SetBypass(bypass bool) { b.bypass = bypass }

// Prepared reports whether Prepare has been called since the last Reset.
func (b *Bus) Prepared() bool { return b.prepared }

// AddChild attaches a child bus as a source. If this bus is already
// Prepared, the newcomer is immediately prepared at this bus's size (spec
// §4.I dynamic mutation contract: "A Prepared bus auto-prepares
// newcomers").
func (b *Bus) AddChild(child *Bus) {
	b.children = append(b.children, child)
	if b.prepared {
		child.Prepare(b.maxFrames, b.channels)
	}
}

// AddEffect appends an effect to the chain, auto-preparing it if this bus
// is already Prepared.
func (b *Bus) AddEffect(n dsp.Node) {
	b.effects = append(b.effects, n)
	if b.prepared {
		n.Prepare(b.maxFrames, b.channels)
	}
}

// Prepare allocates this bus's buffers and recursively prepares children
// and effects, transitioning Unprepared -> Prepared (spec §4.I, §4.J).
func (b *Bus) Prepare(maxFrames, channels int) {
	b.maxFrames = maxFrames
	b.channels = channels
	n := maxFrames * channels
	b.accumulator = make([]float32, n)
	b.scratchA = make([]float32, n)
	b.scratchB = make([]float32, n)
	b.inlet = make([]float32, n)
	for _, c := range b.children {
		c.Prepare(maxFrames, channels)
	}
	for _, e := range b.effects {
		e.Prepare(maxFrames, channels)
	}
	b.prepared = true
}

// Reset releases this bus's buffers and recursively resets children and
// effects, transitioning back to Unprepared.
func (b *Bus) Reset() {
	b.accumulator = nil
	b.scratchA = nil
	b.scratchB = nil
	b.inlet = nil
	for _, c := range b.children {
		c.Reset()
	}
	for _, e := range b.effects {
		e.Reset()
	}
	b.prepared = false
}

// SubmitBlock mixes signal into this bus's inlet for consumption on the
// next Process call. All external inputs must enter this way; direct
// accumulator writes are forbidden (spec §4.I).
func (b *Bus) SubmitBlock(signal []float32, frames, channels int) {
	n := frames * channels
	for i := 0; i < n && i < len(b.inlet) && i < len(signal); i++ {
		b.inlet[i] += signal[i]
	}
}

// Process renders one block: zero the accumulator, mix in the submitted
// inlet (then clear it), sum every child bus's output, run the effect
// chain in order via buffer-swap ping-pong, and return the result scaled
// by this bus's own gain (spec §4.I steps 1-4). The returned slice is
// owned by the Bus and is only valid until the next Process call.
func (b *Bus) Process(frames, channels int) []float32 {
	n := frames * channels
	if n > len(b.accumulator) {
		n = len(b.accumulator)
	}
	acc := b.accumulator[:n]
	for i := range acc {
		acc[i] = 0
	}

	for i := 0; i < n && i < len(b.inlet); i++ {
		acc[i] += b.inlet[i]
		b.inlet[i] = 0
	}

	for _, c := range b.children {
		out := c.Process(frames, channels)
		for i := 0; i < n && i < len(out); i++ {
			acc[i] += out[i]
		}
	}

	result := acc
	if !b.bypass && len(b.effects) > 0 {
		src := acc
		dstA, dstB := b.scratchA[:n], b.scratchB[:n]
		for _, e := range b.effects {
			e.Process(src, dstA, frames, channels)
			src = dstA
			dstA, dstB = dstB, dstA
		}
		result = src
		copy(acc, result)
		result = acc
	}

	for i := range result {
		result[i] *= float32(b.gain)
	}
	return result
}
