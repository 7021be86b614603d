// Package nullsink implements the headless audio.device=null sink spec §6
// requires for CI: every write is discarded, Open/Close always succeed.
package nullsink

import "sync/atomic"

// Sink is an api.AudioSink that discards every block written to it.
type Sink struct {
	open       atomic.Bool
	sampleRate int

	framesWritten atomic.Uint64
}

// New constructs an unopened Sink.
func New() *Sink { return &Sink{} }

// Open records the sample rate and marks the sink open. block_size and
// channels are accepted but unused: there is nothing downstream of a null
// sink that cares about the block shape.
func (s *Sink) Open(sampleRate, channels, blockSize int) error {
	s.sampleRate = sampleRate
	s.open.Store(true)
	return nil
}

// Write discards interleaved and counts the frames, for diagnostics.
func (s *Sink) Write(interleaved []float32, frames, channels int) error {
	s.framesWritten.Add(uint64(frames))
	return nil
}

// Close marks the sink closed.
func (s *Sink) Close() error {
	s.open.Store(false)
	return nil
}

// IsOpen reports whether Open has been called without a matching Close.
func (s *Sink) IsOpen() bool { return s.open.Load() }

// ActualSampleRate returns the sample rate passed to Open.
func (s *Sink) ActualSampleRate() int { return s.sampleRate }

// OutputLatencyMS is always zero: nothing buffers the discarded audio.
func (s *Sink) OutputLatencyMS() float64 { return 0 }

// FramesWritten returns the running total of frames accepted by Write,
// useful for asserting a headless test actually drove the render loop.
func (s *Sink) FramesWritten() uint64 { return s.framesWritten.Load() }
