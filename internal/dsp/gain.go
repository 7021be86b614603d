package dsp

// GainSmoothCoeff is the per-sample exponential smoothing coefficient the
// Gain node uses to slew toward TargetGain, avoiding zipper noise on
// sudden gain changes.
const GainSmoothCoeff = 0.002

// Gain applies a per-sample smoothed gain that slews toward TargetGain
// (spec §4.G). Bypass copies input scaled by the node's current smoothed
// gain and post-process Gain scalar, same as the active path, since a
// bypassed Gain node still has a meaningful "current gain" to report.
type Gain struct {
	base

	TargetGain float64

	current float64
}

// NewGain constructs a Gain node with unity target and current gain.
func NewGain(name string) *Gain {
	return &Gain{base: newBase(name), TargetGain: 1.0, current: 1.0}
}

func (g *Gain) Prepare(maxFrames, channels int) {}

// Reset releases the smoothing tail: current gain snaps to TargetGain
// (spec §4.G: "reset clears the smoothing tail").
func (g *Gain) Reset() { g.current = g.TargetGain }

func (g *Gain) Process(in, out []float32, frames, channels int) {
	n := frames * channels
	for i := 0; i < n && i < len(in) && i < len(out); i++ {
		g.current += GainSmoothCoeff * (g.TargetGain - g.current)
		out[i] = in[i] * float32(g.current)
	}
	applyGain(out, frames, channels, g.base.gain)
}

// CurrentGain returns the smoothed gain value as of the last Process call.
func (g *Gain) CurrentGain() float64 { return g.current }
