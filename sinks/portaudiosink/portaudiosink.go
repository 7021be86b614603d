// Package portaudiosink implements api.AudioSink over PortAudio, for
// local manual auditioning of the engine outside the null-sink CI path
// (spec §6 "audio.device=null" only forces the null sink; a real device
// path is still required for a developer to actually hear output). It
// mirrors the teacher's AudioEngine.Start/Stop stream lifecycle
// (client/audio.go): resolve a device, open a stream sized to one
// engine block, start it, and on each Write copy into the stream's
// reusable buffer and push it out — no per-block allocation.
package portaudiosink

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
)

// ErrAlreadyOpen is returned by Open on a Sink that is already open.
var ErrAlreadyOpen = errors.New("portaudiosink: already open")

// ErrNotOpen is returned by Write on a Sink that is not open (Close on such
// a Sink returns nil).
var ErrNotOpen = errors.New("portaudiosink: not open")

// paStream is the narrow surface Sink needs from *portaudio.Stream, so
// tests can substitute a fake rather than opening a real device.
type paStream interface {
	Start() error
	Stop() error
	Close() error
	Write() error
}

// Sink is an api.AudioSink backed by a PortAudio output-only stream.
// DeviceID selects an output device index; -1 (the default, matching the
// teacher's AudioDevice convention) picks the host's default output
// device.
type Sink struct {
	mu sync.Mutex

	DeviceID int

	stream     paStream
	buf        []float32
	sampleRate int
	channels   int

	open atomic.Bool

	openStream func(params portaudio.StreamParameters, buf []float32) (paStream, error)
}

// New constructs an unopened Sink targeting the default output device.
func New() *Sink {
	return &Sink{
		DeviceID: -1,
		openStream: func(params portaudio.StreamParameters, buf []float32) (paStream, error) {
			return portaudio.OpenStream(params, buf)
		},
	}
}

// Open resolves the target output device and opens a PortAudio stream
// whose reusable buffer is sized to exactly one engine block
// (blockSize*channels), matching the fixed block size the mixer always
// renders (spec §4.A "DSP_BLOCK_SIZE fixed").
func (s *Sink) Open(sampleRate, channels, blockSize int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open.Load() {
		return ErrAlreadyOpen
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return err
	}
	dev, err := resolveOutputDevice(devices, s.DeviceID)
	if err != nil {
		return err
	}

	buf := make([]float32, blockSize*channels)
	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: channels,
			Latency:  dev.DefaultLowOutputLatency,
		},
		SampleRate:      float64(sampleRate),
		FramesPerBuffer: blockSize,
	}
	stream, err := s.openStream(params, buf)
	if err != nil {
		return err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return err
	}

	s.stream = stream
	s.buf = buf
	s.sampleRate = sampleRate
	s.channels = channels
	s.open.Store(true)
	return nil
}

func resolveOutputDevice(devices []*portaudio.DeviceInfo, idx int) (*portaudio.DeviceInfo, error) {
	if idx >= 0 && idx < len(devices) && devices[idx].MaxOutputChannels > 0 {
		return devices[idx], nil
	}
	return portaudio.DefaultOutputDevice()
}

// Write copies interleaved into the stream's reusable buffer and pushes
// it to the device. interleaved must carry exactly frames*channels
// samples, matching the buffer Open sized.
func (s *Sink) Write(interleaved []float32, frames, channels int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open.Load() {
		return ErrNotOpen
	}
	n := frames * channels
	if n > len(s.buf) {
		n = len(s.buf)
	}
	copy(s.buf[:n], interleaved[:n])
	for i := n; i < len(s.buf); i++ {
		s.buf[i] = 0
	}
	return s.stream.Write()
}

// Close stops and closes the underlying stream.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open.Load() {
		return nil
	}
	s.open.Store(false)
	if err := s.stream.Stop(); err != nil {
		s.stream.Close()
		return err
	}
	return s.stream.Close()
}

// IsOpen reports whether the stream is currently open.
func (s *Sink) IsOpen() bool { return s.open.Load() }

// ActualSampleRate returns the sample rate the stream was opened with.
func (s *Sink) ActualSampleRate() int { return s.sampleRate }

// OutputLatencyMS is not tracked per-block by PortAudio's blocking API
// here; 0 matches the null sink's convention for "unknown/negligible".
func (s *Sink) OutputLatencyMS() float64 { return 0 }
