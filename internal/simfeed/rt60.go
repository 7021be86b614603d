// Package simfeed implements the scene-derived simulation feeders: the
// fingerprint builder/blender, the RT60 estimator, the wet-gain calculator,
// the occlusion accumulator, and the linear resampler (spec §4.E,
// component E).
package simfeed

import (
	"math"

	"dynamisaudio/acoustic"
)

// EstimateRT60 computes per-band RT60 for a room from its volume, surface
// area, and per-band sabins (S·α), selecting Eyring over Sabine when the
// mean absorption coefficient exceeds acoustic.EyringThreshold (spec §4.E).
//
// A zero or negative volume yields MinRT60Seconds on every band (RT60 scales
// with volume, so a degenerate room decays instantly); a zero-sabins band
// yields MaxRT60Seconds on that band (no absorption means the formula's
// denominator vanishes, i.e. infinite decay). Surface area is floored at 1
// purely to keep the Eyring/alpha division finite — unlike the volume and
// sabins edge cases, a degenerate surface area has no acoustic meaning the
// spec calls out explicitly.
func EstimateRT60(volumeM3, surfaceAreaM2 float64, sabinsPerBand acoustic.Bands) acoustic.Bands {
	s := floorAtOne(surfaceAreaM2)
	meanAlpha := sabinsPerBand.Mean() / s
	useEyring := meanAlpha > acoustic.EyringThreshold

	var out acoustic.Bands
	for i, sabins := range sabinsPerBand {
		var rt60 float64
		switch {
		case volumeM3 <= 0:
			rt60 = 0
		case sabins <= 0:
			rt60 = math.Inf(1)
		case useEyring:
			alpha := sabins / s
			if alpha >= 1 {
				alpha = 0.9999
			}
			rt60 = acoustic.SabineConstant * volumeM3 / (-s * math.Log(1-alpha))
		default:
			rt60 = acoustic.SabineConstant * volumeM3 / sabins
		}
		out[i] = clamp(rt60, acoustic.MinRT60Seconds, acoustic.MaxRT60Seconds)
	}
	return out
}

func floorAtOne(v float64) float64 {
	if v < 1 {
		return 1
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
