package dsp

import (
	"math"

	"dynamisaudio/acoustic"
)

// MaxOcclusionCutDB is the per-band attenuation applied at full occlusion
// (occlusion == 1) by OcclusionToBandGainsDB.
const MaxOcclusionCutDB = -60.0

// eqQ is the fixed Q factor every band's peaking biquad uses (spec §4.G).
const eqQ = 1.0

// minAudibleGainDB is the threshold below which a band's |gain| is
// treated as inaudible and the biquad coefficient recompute (and the
// per-sample processing it would otherwise cost) is skipped.
const minAudibleGainDB = 0.01

// biquadCoeffs holds one band's Audio-EQ-Cookbook peaking-EQ coefficients,
// already normalized by a0.
type biquadCoeffs struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// biquadState is one channel's DFII-Transposed state for one band: two
// delay registers, pre-allocated so Process never allocates.
type biquadState struct {
	z1, z2 float64
}

func (s *biquadState) process(c biquadCoeffs, x float64) float64 {
	y := c.b0*x + s.z1
	s.z1 = c.b1*x - c.a1*y + s.z2
	s.z2 = c.b2*x - c.a2*y
	return y
}

// EQ is an eight-band peaking EQ, one biquad per octave band, fixed
// Q = 1.0, centred on acoustic.BandCenters (spec §4.G).
type EQ struct {
	base

	GainDB acoustic.Bands

	sampleRate float64
	coeffs     [acoustic.NumBands]biquadCoeffs
	active     [acoustic.NumBands]bool

	// state[band][channel]
	state [acoustic.NumBands][]biquadState
}

// NewEQ constructs a flat EQ (all bands at 0 dB) sampling at
// acoustic.SampleRate.
func NewEQ(name string) *EQ {
	e := &EQ{base: newBase(name), sampleRate: acoustic.SampleRate}
	e.recompute()
	return e
}

func (e *EQ) Prepare(maxFrames, channels int) {
	for b := range e.state {
		e.state[b] = make([]biquadState, channels)
	}
	e.recompute()
}

func (e *EQ) Reset() {
	for b := range e.state {
		for c := range e.state[b] {
			e.state[b][c] = biquadState{}
		}
	}
}

// SetBandGainDB sets one band's gain in dB and recomputes its coefficients.
func (e *EQ) SetBandGainDB(band int, gainDB float64) {
	if band < 0 || band >= acoustic.NumBands {
		return
	}
	e.GainDB[band] = gainDB
	e.recomputeBand(band)
}

// OcclusionToBandGainsDB maps a per-band occlusion vector (each in [0,1])
// to EQ band gains in dB: gainDb = occlusion * MAX_OCCLUSION_CUT_DB (spec
// §4.G helper).
func OcclusionToBandGainsDB(occlusion acoustic.Bands) acoustic.Bands {
	var out acoustic.Bands
	for i, o := range occlusion {
		out[i] = o * MaxOcclusionCutDB
	}
	return out
}

// ApplyBandGainsDB sets every band's gain from bands in one call, as used
// when wiring occlusion into the EQ on a per-block basis.
func (e *EQ) ApplyBandGainsDB(bands acoustic.Bands) {
	e.GainDB = bands
	e.recompute()
}

func (e *EQ) recompute() {
	for b := range e.GainDB {
		e.recomputeBand(b)
	}
}

func (e *EQ) recomputeBand(band int) {
	gainDB := e.GainDB[band]
	if math.Abs(gainDB) < minAudibleGainDB {
		e.active[band] = false
		return
	}
	e.active[band] = true
	e.coeffs[band] = peakingCoeffs(acoustic.BandCenters[band], e.sampleRate, eqQ, gainDB)
}

// peakingCoeffs implements the RBJ Audio-EQ-Cookbook peaking filter,
// normalized so a0 == 1.
func peakingCoeffs(fc, fs, q, gainDB float64) biquadCoeffs {
	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * fc / fs
	cosW0 := math.Cos(w0)
	sinW0 := math.Sin(w0)
	alpha := sinW0 / (2 * q)

	b0 := 1 + alpha*a
	b1 := -2 * cosW0
	b2 := 1 - alpha*a
	a0 := 1 + alpha/a
	a1 := -2 * cosW0
	a2 := 1 - alpha/a

	return biquadCoeffs{
		b0: b0 / a0,
		b1: b1 / a0,
		b2: b2 / a0,
		a1: a1 / a0,
		a2: a2 / a0,
	}
}

func (e *EQ) Process(in, out []float32, frames, channels int) {
	n := frames * channels
	for i := 0; i < n && i < len(in) && i < len(out); i++ {
		out[i] = in[i]
	}
	if e.bypass {
		applyGain(out, frames, channels, e.base.gain)
		return
	}
	for band := 0; band < acoustic.NumBands; band++ {
		if !e.active[band] || len(e.state[band]) < channels {
			continue
		}
		coeffs := e.coeffs[band]
		for ch := 0; ch < channels; ch++ {
			st := &e.state[band][ch]
			for f := 0; f < frames; f++ {
				idx := f*channels + ch
				if idx >= len(out) {
					break
				}
				out[idx] = float32(st.process(coeffs, float64(out[idx])))
			}
		}
	}
	applyGain(out, frames, channels, e.base.gain)
}
