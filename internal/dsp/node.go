// Package dsp implements the per-node audio processors (spec §4.G,
// component G): Gain, the 8-band EQ, Compressor, ReverbSend,
// EarlyReflections, and the Schroeder/fingerprint-driven reverb. Every
// node is prepared once with its maximum block size, after which Process
// must not allocate (spec §5 "Allocation rule").
package dsp

// Node is the common shape every DSP processor exposes (spec §4.G).
// Process must be zero-allocation once Prepare has returned.
type Node interface {
	Prepare(maxFrames, channels int)
	Reset()
	Process(in, out []float32, frames, channels int)
	Name() string
	Gain() float64
	SetGain(gain float64)
	Bypass() bool
	SetBypass(bypass bool)
}

// base holds the fields every node shares: name, post-process gain
// scalar, and bypass flag. Concrete nodes embed it.
type base struct {
	name   string
	gain   float64
	bypass bool
}

func newBase(name string) base {
	return base{name: name, gain: 1.0}
}

func (b *base) Name() string      { return b.name }
func (b *base) Gain() float64     { return b.gain }
func (b *base) SetGain(g float64) { b.gain = g }
func (b *base) Bypass() bool      { return b.bypass }
func (b *base) SetBypass(v bool)  { b.bypass = v }

// applyGain scales out[:frames*channels] by the node's post-process gain
// scalar in place.
func applyGain(out []float32, frames, channels int, gain float64) {
	n := frames * channels
	g := float32(gain)
	for i := 0; i < n && i < len(out); i++ {
		out[i] *= g
	}
}
