// Package opusasset implements api.AudioAsset over an Opus-compressed PCM
// source, decoding to interleaved float32 as spec §6's "asset decoding is
// an external collaborator" seam. It is grounded on the teacher's Opus
// usage in client/audio.go (opus.NewDecoder, per-packet Decode calls into
// a reused buffer) and is used by integration tests and the demo harness
// as a stand-in for a host asset decoder, not a core engine dependency.
package opusasset

import (
	"errors"
	"log"

	"gopkg.in/hraban/opus.v2"
)

// opusDecoder is the narrow surface Asset needs from *opus.Decoder, so
// tests can substitute a fake without a real Opus packet stream.
type opusDecoder interface {
	DecodeFloat32(data []byte, pcm []float32) (int, error)
}

// ErrNoPackets is a construction-time contract violation: an asset with no
// packets has nothing to play.
var ErrNoPackets = errors.New("opusasset: packets must be non-empty")

// Asset decodes a fixed, in-memory sequence of Opus packets to interleaved
// float32 PCM on demand. Every packet is assumed to carry exactly
// frameSize samples per channel (the teacher's fixed 20ms-frame
// convention, client/audio.go's FrameSize), so random access by packet
// index is well-defined for Reset.
type Asset struct {
	decoder    opusDecoder
	packets    [][]byte
	sampleRate int
	channels   int
	frameSize  int

	packetIdx int

	scratch       []float32 // frameSize*channels, reused every decode
	scratchPos    int
	scratchFilled int

	resetIsNoOp bool
	loggedReset bool
}

// New constructs an Asset decoding packets (each one Opus-encoded
// frameSize-sample-per-channel frame) at sampleRate/channels. resetIsNoOp
// marks this source as non-seekable (spec §6: "streaming over a
// non-seekable source has reset as a logged no-op"); pass false for an
// in-memory packet slice, which is always seekable.
func New(sampleRate, channels, frameSize int, packets [][]byte, resetIsNoOp bool) (*Asset, error) {
	if len(packets) == 0 {
		return nil, ErrNoPackets
	}
	dec, err := opus.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, err
	}
	return &Asset{
		decoder:     dec,
		packets:     packets,
		sampleRate:  sampleRate,
		channels:    channels,
		frameSize:   frameSize,
		scratch:     make([]float32, frameSize*channels),
		resetIsNoOp: resetIsNoOp,
	}, nil
}

// SampleRate is fixed at construction (Opus decoders are rate-locked).
func (a *Asset) SampleRate() int { return a.sampleRate }

// ChannelCount returns the configured channel count.
func (a *Asset) ChannelCount() int { return a.channels }

// TotalFrames returns the exact frame count: every packet is exactly
// frameSize samples per channel.
func (a *Asset) TotalFrames() int64 { return int64(len(a.packets)) * int64(a.frameSize) }

// IsExhausted reports whether every packet has been decoded and consumed.
func (a *Asset) IsExhausted() bool {
	return a.packetIdx >= len(a.packets) && a.scratchPos >= a.scratchFilled
}

// ReadFrames decodes as many packets as needed to fill out with up to
// frames frames of interleaved PCM, reusing the same scratch buffer
// across decode calls (zero-allocation per spec §6). Returns the number
// of frames actually written; 0 means end of stream.
func (a *Asset) ReadFrames(out []float32, frames int) int {
	written := 0
	for written < frames {
		if a.scratchPos >= a.scratchFilled {
			if !a.decodeNextPacket() {
				break
			}
		}
		availSamples := a.scratchFilled - a.scratchPos
		availFrames := availSamples / a.channels
		want := frames - written
		if want > availFrames {
			want = availFrames
		}
		n := want * a.channels
		copy(out[written*a.channels:written*a.channels+n], a.scratch[a.scratchPos:a.scratchPos+n])
		a.scratchPos += n
		written += want
	}
	return written
}

func (a *Asset) decodeNextPacket() bool {
	if a.packetIdx >= len(a.packets) {
		return false
	}
	n, err := a.decoder.DecodeFloat32(a.packets[a.packetIdx], a.scratch)
	a.packetIdx++
	if err != nil {
		log.Printf("[opusasset] decode packet %d: %v", a.packetIdx-1, err)
		return false
	}
	a.scratchFilled = n * a.channels
	a.scratchPos = 0
	return a.scratchFilled > 0
}

// Reset rewinds to the first packet, or logs a no-op once if this asset
// was constructed with resetIsNoOp (spec §6).
func (a *Asset) Reset() error {
	if a.resetIsNoOp {
		if !a.loggedReset {
			a.loggedReset = true
			log.Printf("[opusasset] reset is a no-op for this non-seekable source")
		}
		return nil
	}
	a.packetIdx = 0
	a.scratchPos = 0
	a.scratchFilled = 0
	return nil
}
