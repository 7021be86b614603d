package simfeed

import (
	"math"

	"dynamisaudio/acoustic"
)

// minOcclusionDB is the transmission loss below which occlusion saturates
// at 1.0 (spec §4.E: "<= -60 dB -> 1").
const minOcclusionDB = -60.0

// OcclusionFromDB converts a single transmission loss in dB to an occlusion
// fraction in [0,1]: 0 dB -> 0 (no occlusion), <= -60 dB -> 1 (fully
// blocked), otherwise 1 - 10^(dB/20).
func OcclusionFromDB(dB float64) float64 {
	if dB >= 0 {
		return 0
	}
	if dB <= minOcclusionDB {
		return 1
	}
	return clamp(1-math.Pow(10, dB/20), 0, 1)
}

// Accumulator composes multiple occlusion hits into a single per-band
// occlusion vector. Multi-hit accumulation multiplies the open-path
// fractions: final = 1 - product_i(1 - o_i). This is associative and
// commutative, so the result is order-invariant regardless of the order
// hits are accumulated in (spec §8 invariant 4).
type Accumulator struct {
	openFraction acoustic.Bands // product of (1 - o_i) so far, per band
}

// NewAccumulator returns an Accumulator with full openness (zero occlusion).
func NewAccumulator() *Accumulator {
	return &Accumulator{openFraction: acoustic.Fill(1)}
}

// Reset returns the accumulator to full openness for reuse across blocks.
func (a *Accumulator) Reset() {
	a.openFraction = acoustic.Fill(1)
}

// AccumulateDB folds one hit's per-band transmission loss (dB) into the
// running product.
func (a *Accumulator) AccumulateDB(lossDB acoustic.Bands) {
	for i, db := range lossDB {
		o := OcclusionFromDB(db)
		a.openFraction[i] *= 1 - o
	}
}

// Accumulate folds one hit's already-converted per-band occlusion into the
// running product.
func (a *Accumulator) Accumulate(occlusion acoustic.Bands) {
	for i, o := range occlusion {
		a.openFraction[i] *= 1 - clamp(o, 0, 1)
	}
}

// Result returns the composed per-band occlusion: 1 - openFraction.
func (a *Accumulator) Result() acoustic.Bands {
	var out acoustic.Bands
	for i, open := range a.openFraction {
		out[i] = clamp(1-open, 0, 1)
	}
	return out
}
