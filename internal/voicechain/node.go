package voicechain

import (
	"sync/atomic"

	"dynamisaudio/api"
	"dynamisaudio/internal/dsp"
	"dynamisaudio/internal/voice"
)

// AssetLookup resolves the host-assigned PCM handle carried in an
// emitter's published Params to the concrete asset the host registered
// for it. A zero handle (voice.Params.PCMBufferHandle == 0) always means
// "no asset", mirroring set_asset(None) (spec §4.H).
type AssetLookup func(handle uint64) (api.AudioAsset, bool)

// VoiceNode is one physical voice: a fixed chain of
// early-reflections -> EQ -> gain -> reverb-send over two ping-pong
// buffers sized once at Prepare (spec §4.H). Dry output is the chain's
// final buffer (post-gain, pre-send); reverb output is that same data
// scaled by the send node.
type VoiceNode struct {
	earlyRef *dsp.EarlyReflections
	eq       *dsp.EQ
	gain     *dsp.Gain
	send     *dsp.ReverbSend

	bufA, bufB []float32
	reverbBuf  []float32
	maxFrames  int
	channels   int

	asset       api.AudioAsset
	boundHandle uint64
	loop        bool
	completion  atomic.Bool

	emitter *voice.Emitter // set on Pool.Bind, cleared on Pool.Release
}

// newVoiceNode constructs a VoiceNode and prepares its DSP chain for the
// given block size and channel count.
func newVoiceNode(maxFrames, channels int) *VoiceNode {
	v := &VoiceNode{
		earlyRef:  dsp.NewEarlyReflections("early_reflections"),
		eq:        dsp.NewEQ("eq"),
		gain:      dsp.NewGain("gain"),
		send:      dsp.NewReverbSend("reverb_send"),
		maxFrames: maxFrames,
		channels:  channels,
	}
	v.earlyRef.Prepare(maxFrames, channels)
	v.eq.Prepare(maxFrames, channels)
	v.gain.Prepare(maxFrames, channels)
	v.send.Prepare(maxFrames, channels)
	n := maxFrames * channels
	v.bufA = make([]float32, n)
	v.bufB = make([]float32, n)
	v.reverbBuf = make([]float32, n)
	return v
}

// reset clears chain state and the asset binding, returning the node to
// the state a freshly prepared voice started in. Called by the pool on
// Release so a recycled slot never leaks state into its next binding.
func (v *VoiceNode) reset() {
	v.earlyRef.Reset()
	v.eq.Reset()
	v.gain.Reset()
	v.send.Reset()
	v.asset = nil
	v.boundHandle = 0
	v.loop = false
	v.completion.Store(false)
	v.emitter = nil
}

// SetAsset binds asset as this voice's PCM source, wrapping it in a
// resampling adapter if its native rate isn't 48 kHz (spec §4.H). Passing
// nil clears the binding (set_asset(None)).
func (v *VoiceNode) SetAsset(asset api.AudioAsset, loop bool) {
	if asset == nil {
		v.asset = nil
		v.loop = false
		return
	}
	v.asset = wrapForTargetRate(asset, v.maxFrames)
	v.loop = loop
	v.completion.Store(false)
}

// ClearAsset is equivalent to SetAsset(nil, false).
func (v *VoiceNode) ClearAsset() { v.SetAsset(nil, false) }

// CompletionPending reports whether a one-shot asset ran out of frames
// this block (spec §4.H: "mark completion-pending (listener notified)").
func (v *VoiceNode) CompletionPending() bool { return v.completion.Load() }

// EmitterID returns the id of the emitter currently bound to this voice,
// or ok=false if no emitter is bound.
func (v *VoiceNode) EmitterID() (id uint64, ok bool) {
	if v.emitter == nil {
		return 0, false
	}
	return uint64(v.emitter.ID), true
}

// ClearCompletion acknowledges a pending completion without releasing the
// voice. The mixer's completion drain does not call it: Pool.Release resets
// the voice, which clears the flag.
func (v *VoiceNode) ClearCompletion() { v.completion.Store(false) }

// UpdateFromEmitter applies the bound emitter's latest published params
// to this voice's chain: occlusion maps to EQ band gains, master gain to
// the gain node, and reverb wet gain to the send level (spec §4.J step 4:
// "update params from the emitter"). It is a no-op if no emitter is bound.
func (v *VoiceNode) UpdateFromEmitter(lookup AssetLookup) {
	if v.emitter == nil {
		return
	}
	p := v.emitter.AcquireParams()

	v.eq.ApplyBandGainsDB(dsp.OcclusionToBandGainsDB(p.OcclusionPerBand))
	v.gain.TargetGain = p.MasterGain
	v.send.SendLevel = p.ReverbWetGain

	if p.PCMBufferHandle != v.boundHandle {
		v.boundHandle = p.PCMBufferHandle
		if p.PCMBufferHandle == 0 || lookup == nil {
			v.SetAsset(nil, false)
		} else if asset, ok := lookup(p.PCMBufferHandle); ok {
			v.SetAsset(asset, p.Loop)
		} else {
			v.SetAsset(nil, false)
		}
	} else {
		v.loop = p.Loop
	}
}

// RenderBlock reads frames from the bound asset (looping or marking
// completion per spec §4.H), runs the fixed chain, and returns this
// voice's dry and reverb contributions for the block. Both slices are
// owned by the VoiceNode and are only valid until the next RenderBlock
// call.
func (v *VoiceNode) RenderBlock(frames int) (dry, reverb []float32) {
	n := frames * v.channels
	if n > len(v.bufA) {
		n = len(v.bufA)
		frames = n / v.channels
	}
	in := v.bufA[:n]
	for i := range in {
		in[i] = 0
	}
	v.readAsset(in, frames)

	out := v.bufB[:n]
	v.earlyRef.Process(in, out, frames, v.channels)
	v.eq.Process(out, in, frames, v.channels)  // in now holds post-EQ
	v.gain.Process(in, out, frames, v.channels) // out is the dry result

	rev := v.reverbBuf[:n]
	v.send.Process(out, rev, frames, v.channels)
	return out, rev
}

// readAsset fills in with up to frames of PCM from the bound asset,
// handling the loop/one-shot completion contract (spec §4.H).
func (v *VoiceNode) readAsset(in []float32, frames int) {
	if v.asset == nil {
		return
	}
	got := v.asset.ReadFrames(in, frames)
	if got >= frames {
		return
	}
	if v.loop {
		if err := v.asset.Reset(); err != nil {
			v.completion.Store(true)
			return
		}
		remaining := in[got*v.channels:]
		remFrames := frames - got
		more := v.asset.ReadFrames(remaining, remFrames)
		_ = more
		return
	}
	// one-shot: silence fills the rest (already zeroed), mark completion.
	v.completion.Store(true)
}
