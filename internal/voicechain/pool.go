package voicechain

import (
	"sync"

	"dynamisaudio/api"
	"dynamisaudio/internal/dsp"
	"dynamisaudio/internal/voice"
)

// Pool is the fixed-capacity set of pre-prepared voices spec §4.H
// describes: every VoiceNode is constructed and Prepare'd once, up front,
// and Bind/Release only flip a free-bitmap entry and wire (or unwire) the
// bound emitter's reflection sink. It satisfies voice.VoiceHandle.
type Pool struct {
	mu     sync.Mutex
	voices []*VoiceNode
	free   []bool

	emitters func(id voice.ID) (*voice.Emitter, bool)
}

// NewPool constructs a Pool of capacity pre-prepared voices, each sized
// for maxFrames/channels. emitters resolves an emitter id to its Emitter
// so Bind can wire the reflection sink and Release can clear it; pass nil
// if the caller wires reflection sinks itself.
func NewPool(capacity, maxFrames, channels int, emitters func(id voice.ID) (*voice.Emitter, bool)) *Pool {
	p := &Pool{
		voices:   make([]*VoiceNode, capacity),
		free:     make([]bool, capacity),
		emitters: emitters,
	}
	for i := range p.voices {
		p.voices[i] = newVoiceNode(maxFrames, channels)
		p.free[i] = true
	}
	return p
}

// Bind finds a free voice, assigns it to emitterID, and returns its slot
// id. It returns ok=false on exhaustion, the contract for upstream flow
// control (spec §4.H) rather than blocking or erroring.
func (p *Pool) Bind(emitterID uint64) (slotID int32, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, free := range p.free {
		if !free {
			continue
		}
		p.free[i] = false
		v := p.voices[i]
		if p.emitters != nil {
			if e, found := p.emitters(voice.ID(emitterID)); found {
				v.emitter = e
				e.SetReflectionSink(voiceReflectionAdapter{v.earlyRef})
			}
		}
		return int32(i), true
	}
	return 0, false
}

// Release returns the voice bound to slotID to the pool, clearing its
// chain state and emitter binding.
func (p *Pool) Release(slotID int32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if slotID < 0 || int(slotID) >= len(p.voices) {
		return
	}
	v := p.voices[slotID]
	if v.emitter != nil {
		v.emitter.SetReflectionSink(nil)
	}
	v.reset()
	p.free[slotID] = true
}

// Voice returns the VoiceNode bound to slotID, for the mixer's per-block
// update/render pass. Returns nil if the slot is currently free.
func (p *Pool) Voice(slotID int32) *VoiceNode {
	p.mu.Lock()
	defer p.mu.Unlock()
	if slotID < 0 || int(slotID) >= len(p.voices) || p.free[slotID] {
		return nil
	}
	return p.voices[slotID]
}

// Capacity returns the pool's fixed voice count.
func (p *Pool) Capacity() int { return len(p.voices) }

// ForEachBound calls fn once per currently bound slot, holding the pool
// lock for the duration. fn must not call Bind or Release (both take the
// same lock and would deadlock); callers needing to release a voice from
// within the walk should collect slot ids and release them after
// ForEachBound returns.
func (p *Pool) ForEachBound(fn func(slotID int32, v *VoiceNode)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, free := range p.free {
		if free {
			continue
		}
		fn(int32(i), p.voices[i])
	}
}

// voiceReflectionAdapter adapts a *dsp.EarlyReflections (which speaks
// api.ReflectionTap) to voice.ReflectionSink (which speaks
// voice.ReflectionTap) so an emitter's worker can publish taps without the
// voice package importing api or dsp.
type voiceReflectionAdapter struct {
	er *dsp.EarlyReflections
}

func (a voiceReflectionAdapter) SetTaps(taps []voice.ReflectionTap) {
	converted := make([]api.ReflectionTap, len(taps))
	for i, t := range taps {
		converted[i] = api.ReflectionTap{
			DistanceM:    t.DistanceM,
			Gain:         t.Gain,
			DelaySamples: t.DelaySamples,
		}
	}
	a.er.SetTaps(converted)
}

func (a voiceReflectionAdapter) ClearTaps() { a.er.ClearTaps() }
