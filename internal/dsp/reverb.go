package dsp

import (
	"math"

	"dynamisaudio/acoustic"
)

// combDelaysSamples are the four prime-factored comb-filter delays at
// 48 kHz (spec §4.G).
var combDelaysSamples = [4]int{1557, 1617, 1491, 1422}

// allpassDelaysSamples are the two series allpass delays at 48 kHz.
var allpassDelaysSamples = [2]int{225, 556}

const allpassGain = 0.5

type combFilter struct {
	buf     []float32
	pos     int
	feedback float64
	lpState  float64
	damping  float64
}

func newCombFilter(delaySamples int) *combFilter {
	return &combFilter{buf: make([]float32, delaySamples)}
}

func (c *combFilter) process(x float64) float64 {
	y := float64(c.buf[c.pos])
	c.lpState = y*(1-c.damping) + c.lpState*c.damping
	c.buf[c.pos] = float32(x + c.lpState*c.feedback)
	c.pos++
	if c.pos >= len(c.buf) {
		c.pos = 0
	}
	return y
}

func (c *combFilter) reset() {
	for i := range c.buf {
		c.buf[i] = 0
	}
	c.pos = 0
	c.lpState = 0
}

type allpassFilter struct {
	buf []float32
	pos int
}

func newAllpassFilter(delaySamples int) *allpassFilter {
	return &allpassFilter{buf: make([]float32, delaySamples)}
}

func (a *allpassFilter) process(x float64) float64 {
	bufOut := float64(a.buf[a.pos])
	y := -allpassGain*x + bufOut
	a.buf[a.pos] = float32(x + bufOut*allpassGain)
	a.pos++
	if a.pos >= len(a.buf) {
		a.pos = 0
	}
	return y
}

func (a *allpassFilter) reset() {
	for i := range a.buf {
		a.buf[i] = 0
	}
	a.pos = 0
}

// SchroederReverb is four parallel damped comb filters followed by two
// series allpass filters, mixing input to mono for processing and
// writing the wet result (scaled by WetMix) to every output channel
// (spec §4.G).
type SchroederReverb struct {
	base

	RT60Seconds float64
	Damping     float64 // [0,1], one-pole LP coefficient in each comb
	WetMix      float64 // [0,1]

	combs     [4]*combFilter
	allpasses [2]*allpassFilter
}

// NewSchroederReverb constructs a SchroederReverb with a 1-second RT60,
// moderate damping, and 50% wet mix.
func NewSchroederReverb(name string) *SchroederReverb {
	r := &SchroederReverb{base: newBase(name), RT60Seconds: 1.0, Damping: 0.5, WetMix: 0.5}
	for i, d := range combDelaysSamples {
		r.combs[i] = newCombFilter(d)
	}
	for i, d := range allpassDelaysSamples {
		r.allpasses[i] = newAllpassFilter(d)
	}
	r.updateCombFeedback()
	return r
}

func (r *SchroederReverb) Prepare(maxFrames, channels int) {}

func (r *SchroederReverb) Reset() {
	for _, c := range r.combs {
		c.reset()
	}
	for _, a := range r.allpasses {
		a.reset()
	}
}

// updateCombFeedback recomputes each comb's feedback coefficient from the
// current RT60: g = 10^(-3 * delay_seconds / rt60) (spec §4.G).
func (r *SchroederReverb) updateCombFeedback() {
	rt60 := r.RT60Seconds
	if rt60 < 0.01 {
		rt60 = 0.01
	}
	for i, c := range r.combs {
		delaySeconds := float64(combDelaysSamples[i]) / acoustic.SampleRate
		c.feedback = math.Pow(10, -3*delaySeconds/rt60)
		c.damping = r.Damping
	}
}

func (r *SchroederReverb) Process(in, out []float32, frames, channels int) {
	r.updateCombFeedback()
	wet := clamp01(r.WetMix)

	for f := 0; f < frames; f++ {
		mono := 0.0
		frameBase := f * channels
		for ch := 0; ch < channels; ch++ {
			if frameBase+ch < len(in) {
				mono += float64(in[frameBase+ch])
			}
		}
		if channels > 0 {
			mono /= float64(channels)
		}

		wetSample := 0.0
		for _, c := range r.combs {
			wetSample += c.process(mono)
		}
		wetSample /= float64(len(r.combs))
		for _, a := range r.allpasses {
			wetSample = a.process(wetSample)
		}

		for ch := 0; ch < channels; ch++ {
			idx := frameBase + ch
			if idx >= len(out) {
				continue
			}
			out[idx] = float32(wetSample * wet)
		}
	}
	applyGain(out, frames, channels, r.base.gain)
}

// reverbSmoothCoeff is the per-block smoothing coefficient
// FingerprintReverb slews its automated targets with.
const reverbSmoothCoeff = 0.025

// FingerprintReverb is a SchroederReverb whose parameters are automated
// each block from a blended acoustic fingerprint (spec §4.G): target
// RT60, damping, and wet mix are derived from the fingerprint and smoothed
// toward with reverbSmoothCoeff.
type FingerprintReverb struct {
	*SchroederReverb
}

// NewFingerprintReverb constructs a FingerprintReverb.
func NewFingerprintReverb(name string) *FingerprintReverb {
	return &FingerprintReverb{SchroederReverb: NewSchroederReverb(name)}
}

// Reset clears the smoothing tail in addition to the comb/allpass state
// (spec §4.G: "reset clears the smoothing tail (required on hard scene
// cuts)"). The smoothed targets are re-baselined to the same defaults
// NewSchroederReverb starts from, so a hard scene cut never carries over
// a stale RT60/damping/wet-mix tail into the next fingerprint.
func (f *FingerprintReverb) Reset() {
	f.SchroederReverb.Reset()
	f.RT60Seconds = 1.0
	f.Damping = 0.5
	f.WetMix = 0.5
}

// ApplyFingerprint derives this block's targets from fp and smooths the
// reverb's live parameters toward them.
func (f *FingerprintReverb) ApplyFingerprint(fp acoustic.Fingerprint) {
	targetRT60 := fp.RT60PerBand.Mean()
	if targetRT60 < acoustic.MinRT60Seconds {
		targetRT60 = acoustic.MinRT60Seconds
	}

	lowRT60 := fp.RT60PerBand.MeanRange(0, 4)
	highRT60 := fp.RT60PerBand.MeanRange(4, 8)
	targetDamping := 1.0
	if lowRT60 > 0 {
		targetDamping = 1 - 0.5*highRT60/lowRT60
	}
	targetDamping = clamp01(targetDamping)

	targetWetMix := clamp01(0.5 + 0.5*fp.PortalTransmission.Mean())

	f.RT60Seconds += reverbSmoothCoeff * (targetRT60 - f.RT60Seconds)
	f.Damping += reverbSmoothCoeff * (targetDamping - f.Damping)
	f.WetMix += reverbSmoothCoeff * (targetWetMix - f.WetMix)
}
