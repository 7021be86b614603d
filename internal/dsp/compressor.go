package dsp

import (
	"math"

	"dynamisaudio/acoustic"
)

// rmsEMACoeff is the exponential moving average coefficient for the
// feed-forward RMS envelope (spec §4.G).
const rmsEMACoeff = 0.001

// Compressor is a feed-forward RMS compressor with independent attack and
// release time constants, expressed as 1 - exp(-1/tauSamples) (spec
// §4.G). It reports gain reduction in dB for telemetry.
type Compressor struct {
	base

	ThresholdDB float64
	Ratio       float64 // >= 1
	AttackMS    float64
	ReleaseMS   float64
	MakeupGain  float64 // linear

	sampleRate   float64
	meanSquare   float64
	envelopeDB   float64
	reductionDB  float64
}

// NewCompressor constructs a Compressor with a permissive default
// threshold/ratio (no compression until configured).
func NewCompressor(name string) *Compressor {
	return &Compressor{
		base:        newBase(name),
		ThresholdDB: 0,
		Ratio:       1,
		AttackMS:    10,
		ReleaseMS:   100,
		MakeupGain:  1,
	}
}

func (c *Compressor) Prepare(maxFrames, channels int) {
	c.sampleRate = acoustic.SampleRate
}

func (c *Compressor) Reset() {
	c.meanSquare = 0
	c.envelopeDB = -120
	c.reductionDB = 0
}

// GainReductionDB returns the most recent block's gain reduction, in dB
// (non-negative: the amount the signal was turned down), for telemetry.
func (c *Compressor) GainReductionDB() float64 { return c.reductionDB }

func (c *Compressor) Process(in, out []float32, frames, channels int) {
	n := frames * channels
	for i := 0; i < n && i < len(in) && i < len(out); i++ {
		out[i] = in[i]
	}
	if c.bypass || c.Ratio <= 1 {
		applyGain(out, frames, channels, c.base.gain)
		return
	}

	attackCoeff := timeConstantCoeff(c.AttackMS, c.sampleRate)
	releaseCoeff := timeConstantCoeff(c.ReleaseMS, c.sampleRate)

	for f := 0; f < frames; f++ {
		peakAbs := 0.0
		for ch := 0; ch < channels; ch++ {
			idx := f*channels + ch
			if idx >= len(out) {
				continue
			}
			v := float64(out[idx])
			c.meanSquare += rmsEMACoeff * (v*v - c.meanSquare)
			if a := math.Abs(v); a > peakAbs {
				peakAbs = a
			}
		}
		rms := math.Sqrt(math.Max(c.meanSquare, 1e-12))
		levelDB := 20 * math.Log10(rms)

		targetReductionDB := 0.0
		if levelDB > c.ThresholdDB {
			over := levelDB - c.ThresholdDB
			targetReductionDB = over - over/c.Ratio
		}

		coeff := releaseCoeff
		if targetReductionDB > c.reductionDB {
			coeff = attackCoeff
		}
		c.reductionDB += coeff * (targetReductionDB - c.reductionDB)

		gainLinear := math.Pow(10, -c.reductionDB/20) * c.MakeupGain
		for ch := 0; ch < channels; ch++ {
			idx := f*channels + ch
			if idx >= len(out) {
				continue
			}
			out[idx] = float32(float64(out[idx]) * gainLinear)
		}
	}
	applyGain(out, frames, channels, c.base.gain)
}

// timeConstantCoeff converts a time constant in milliseconds to a
// per-sample smoothing coefficient: 1 - exp(-1/tauSamples).
func timeConstantCoeff(ms, sampleRate float64) float64 {
	if ms <= 0 {
		return 1
	}
	tauSamples := ms / 1000 * sampleRate
	return 1 - math.Exp(-1/tauSamples)
}
