package dsp

import (
	"math"
	"sync/atomic"

	"dynamisaudio/acoustic"
	"dynamisaudio/api"
)

// MaxReflections bounds the number of simultaneous reflection taps a
// voice's EarlyReflections node mixes (spec §4.G).
const MaxReflections = 6

// EarlyReflections holds a circular delay line per channel sized for at
// least 30 m of travel at the speed of sound plus one render block, and
// mixes up to MaxReflections delayed, attenuated copies of the dry signal
// into the output (spec §4.G). The tap set is double-buffered: a
// cooperative emitter worker calls SetTaps on the back set and flips with
// a release store; Process acquire-loads the front set once per block,
// satisfying api.EarlyReflectionSink.
type EarlyReflections struct {
	base

	delayLines [][]float32 // per channel, fixed length
	writePos   []int

	taps     [2][MaxReflections]api.ReflectionTap
	tapCount [2]int
	frontIdx atomic.Uint32
}

// NewEarlyReflections constructs an EarlyReflections node with no active
// taps.
func NewEarlyReflections(name string) *EarlyReflections {
	return &EarlyReflections{base: newBase(name)}
}

func (e *EarlyReflections) Prepare(maxFrames, channels int) {
	travelSamples := 30.0 / acoustic.SpeedOfSoundMPS * acoustic.SampleRate
	delaySamples := int(math.Ceil(travelSamples)) + maxFrames
	e.delayLines = make([][]float32, channels)
	e.writePos = make([]int, channels)
	for ch := range e.delayLines {
		e.delayLines[ch] = make([]float32, delaySamples)
	}
}

func (e *EarlyReflections) Reset() {
	for ch := range e.delayLines {
		for i := range e.delayLines[ch] {
			e.delayLines[ch][i] = 0
		}
		e.writePos[ch] = 0
	}
	e.ClearTaps()
}

// SetTaps installs taps (up to MaxReflections, extras ignored) as the new
// active set, satisfying api.EarlyReflectionSink.
func (e *EarlyReflections) SetTaps(taps []api.ReflectionTap) {
	back := 1 - e.frontIdx.Load()
	n := len(taps)
	if n > MaxReflections {
		n = MaxReflections
	}
	for i := 0; i < n; i++ {
		e.taps[back][i] = taps[i]
	}
	e.tapCount[back] = n
	e.frontIdx.Store(back)
}

// ClearTaps zeros the active tap count (spec §4.G: "clearing the sink
// zeros the active count").
func (e *EarlyReflections) ClearTaps() {
	back := 1 - e.frontIdx.Load()
	e.tapCount[back] = 0
	e.frontIdx.Store(back)
}

func (e *EarlyReflections) Process(in, out []float32, frames, channels int) {
	n := frames * channels
	for i := 0; i < n && i < len(in) && i < len(out); i++ {
		out[i] = in[i]
	}
	if e.bypass {
		applyGain(out, frames, channels, e.base.gain)
		return
	}

	front := e.frontIdx.Load()
	tapCount := e.tapCount[front]
	taps := e.taps[front]

	for ch := 0; ch < channels && ch < len(e.delayLines); ch++ {
		line := e.delayLines[ch]
		lineLen := len(line)
		pos := e.writePos[ch]
		for f := 0; f < frames; f++ {
			idx := f*channels + ch
			if idx >= len(in) || idx >= len(out) {
				continue
			}
			dry := in[idx]
			line[pos] = dry

			sum := dry
			for t := 0; t < tapCount; t++ {
				tap := taps[t]
				readPos := pos - tap.DelaySamples
				for readPos < 0 {
					readPos += lineLen
				}
				sum += line[readPos] * float32(tap.Gain)
			}
			out[idx] = sum

			pos++
			if pos >= lineLen {
				pos = 0
			}
		}
		e.writePos[ch] = pos
	}
	applyGain(out, frames, channels, e.base.gain)
}
