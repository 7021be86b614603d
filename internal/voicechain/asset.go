// Package voicechain implements the per-voice DSP chain and the
// fixed-capacity voice pool (spec §4.H, component H).
package voicechain

import (
	"dynamisaudio/acoustic"
	"dynamisaudio/api"
	"dynamisaudio/internal/simfeed"
)

// resamplingAsset transparently wraps a host AudioAsset whose native
// sample rate is not 48 kHz, presenting a 48 kHz AudioAsset to the rest of
// the chain (spec §4.H: "non-48 kHz assets are transparently wrapped by a
// resampling adapter"). All scratch buffers are sized once, at wrap time,
// so the steady-state ReadFrames call never allocates.
type resamplingAsset struct {
	inner    api.AudioAsset
	channels int
	resample []*simfeed.Resampler // one per channel, independent phase

	srcInterleaved []float32   // reused raw read from inner
	srcPlanar      [][]float32 // per-channel deinterleaved copy of srcInterleaved
	dstPlanar      [][]float32 // per-channel resampled scratch

	maxFrames int
}

func wrapForTargetRate(inner api.AudioAsset, maxFrames int) api.AudioAsset {
	if inner == nil || inner.SampleRate() == acoustic.SampleRate {
		return inner
	}
	channels := inner.ChannelCount()
	ratio := float64(inner.SampleRate()) / float64(acoustic.SampleRate)

	srcFrames := simfeed.FramesRequired(maxFrames, ratio)
	r := &resamplingAsset{
		inner:          inner,
		channels:       channels,
		resample:       make([]*simfeed.Resampler, channels),
		srcInterleaved: make([]float32, srcFrames*channels),
		srcPlanar:      make([][]float32, channels),
		dstPlanar:      make([][]float32, channels),
		maxFrames:      maxFrames,
	}
	for ch := 0; ch < channels; ch++ {
		r.resample[ch] = simfeed.NewResampler(ratio)
		r.srcPlanar[ch] = make([]float32, srcFrames)
		r.dstPlanar[ch] = make([]float32, maxFrames)
	}
	return r
}

func (r *resamplingAsset) SampleRate() int    { return acoustic.SampleRate }
func (r *resamplingAsset) ChannelCount() int  { return r.channels }
func (r *resamplingAsset) TotalFrames() int64 { return r.inner.TotalFrames() }
func (r *resamplingAsset) IsExhausted() bool  { return r.inner.IsExhausted() }

func (r *resamplingAsset) Reset() error {
	for _, rs := range r.resample {
		rs.Reset()
	}
	return r.inner.Reset()
}

// ReadFrames reads from inner at its native rate and resamples into out.
// All buffers were sized for frames <= maxFrames at wrap time; a caller
// requesting more than that falls back to the largest prepared chunk.
func (r *resamplingAsset) ReadFrames(out []float32, frames int) int {
	if frames > r.maxFrames {
		frames = r.maxFrames
	}
	ratio := r.resample[0].Ratio()
	srcFrames := simfeed.FramesRequired(frames, ratio)
	if srcFrames*r.channels > cap(r.srcInterleaved) {
		srcFrames = cap(r.srcInterleaved) / r.channels
	}

	got := r.inner.ReadFrames(r.srcInterleaved[:srcFrames*r.channels], srcFrames)
	if got == 0 {
		return 0
	}

	for ch := 0; ch < r.channels; ch++ {
		planar := r.srcPlanar[ch][:got]
		for i := 0; i < got; i++ {
			planar[i] = r.srcInterleaved[i*r.channels+ch]
		}
		r.resample[ch].Process(planar, r.dstPlanar[ch][:frames])
	}

	n := frames * r.channels
	for i := 0; i < n && i < len(out); i++ {
		f := i / r.channels
		ch := i % r.channels
		out[i] = r.dstPlanar[ch][f]
	}
	return frames
}
