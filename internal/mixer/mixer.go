// Package mixer implements the per-block render loop (spec §4.J,
// component J): drains topology events into the snapshot back buffer,
// acquires the front snapshot, renders every bound voice, feeds the SFX
// and Reverb buses, drains voice completions, and renders the master bus
// to the audio sink. It follows the teacher's capture/playback loop shape
// (client/audio.go): a single loop function, atomic counters for
// telemetry instead of propagated errors, and contained per-step failure.
package mixer

import (
	"sync/atomic"

	"dynamisaudio/acoustic"
	"dynamisaudio/api"
	"dynamisaudio/internal/bus"
	"dynamisaudio/internal/dsp"
	"dynamisaudio/internal/eventring"
	"dynamisaudio/internal/snapshot"
	"dynamisaudio/internal/voice"
	"dynamisaudio/internal/voicechain"
	"dynamisaudio/telemetry"
)

// RoomFingerprintSource resolves which acoustic fingerprint should drive
// the shared reverb bus's automated Schroeder reverb this block (spec
// §4.G "reverb driven by fingerprint"). The engine supplies this; the
// mixer only needs to know where to call it, not how a "current room" is
// decided from listener position. front is the just-acquired snapshot for
// this block and must not be retained past the call.
type RoomFingerprintSource func(front *snapshot.Snapshot) (acoustic.Fingerprint, bool)

// Mixer owns the bus graph, the voice pool, the event ring, and the
// snapshot manager, and drives one render block at a time via
// RenderBlock. It is not safe for concurrent RenderBlock calls: spec §5
// reserves the render loop to a single dedicated thread.
type Mixer struct {
	Master *bus.Bus
	SFX    *bus.Bus
	Reverb *bus.Bus

	reverbFingerprint *dsp.FingerprintReverb

	ring      *eventring.Ring
	snapshots *snapshot.Manager
	voices    *voice.Manager
	pool      *voicechain.Pool
	resolver  api.MaterialResolver
	listener  api.VoiceCompletionListener
	assets    voicechain.AssetLookup
	fpSource  RoomFingerprintSource

	blender *SnapshotBlender

	blockFrames int
	channels    int

	dryAccum    []float32
	reverbAccum []float32
	drainBuf    []eventring.Event

	completedSlots    []int32
	completedEmitters []uint64

	blockCounter   atomic.Uint64
	lastBlockNanos atomic.Int64

	Counters telemetry.Counters
}

// Config bundles the collaborators a Mixer is constructed with. Resolver,
// Listener, Assets, and FingerprintSource are optional (nil disables the
// feature they back, logged once per occurrence rather than failing the
// block).
type Config struct {
	Ring              *eventring.Ring
	Snapshots         *snapshot.Manager
	Voices            *voice.Manager
	Pool              *voicechain.Pool
	Resolver          api.MaterialResolver
	Listener          api.VoiceCompletionListener
	Assets            voicechain.AssetLookup
	FingerprintSource RoomFingerprintSource
	BlockFrames       int
	Channels          int
}

// New constructs a Mixer with the canonical Master{SFX, Reverb} bus
// wiring (spec §4.J steps 5 and 7), a fingerprint-driven reverb on the
// Reverb bus, and prepares the whole graph.
func New(cfg Config) *Mixer {
	reverbEffect := dsp.NewFingerprintReverb("reverb")

	m := &Mixer{
		Master:            bus.New("master"),
		SFX:               bus.New("sfx"),
		Reverb:            bus.New("reverb"),
		reverbFingerprint: reverbEffect,
		ring:              cfg.Ring,
		snapshots:         cfg.Snapshots,
		voices:            cfg.Voices,
		pool:              cfg.Pool,
		resolver:          cfg.Resolver,
		listener:          cfg.Listener,
		assets:            cfg.Assets,
		fpSource:          cfg.FingerprintSource,
		blender:           NewSnapshotBlender(),
		blockFrames:       cfg.BlockFrames,
		channels:          cfg.Channels,
	}
	m.Reverb.AddEffect(reverbEffect)
	m.Master.AddChild(m.SFX)
	m.Master.AddChild(m.Reverb)
	m.Master.Prepare(cfg.BlockFrames, cfg.Channels)

	n := cfg.BlockFrames * cfg.Channels
	m.dryAccum = make([]float32, n)
	m.reverbAccum = make([]float32, n)
	m.drainBuf = make([]eventring.Event, cfg.Ring.Capacity())
	capacity := cfg.Pool.Capacity()
	m.completedSlots = make([]int32, 0, capacity)
	m.completedEmitters = make([]uint64, 0, capacity)
	return m
}

// ActivateMixSnapshot starts blending toward snap (spec §8 scenario 6).
func (m *Mixer) ActivateMixSnapshot(snap MixSnapshot) { m.blender.Activate(snap) }

// BlockCount returns the number of blocks rendered so far.
func (m *Mixer) BlockCount() uint64 { return m.blockCounter.Load() }

// LastBlockDurationNanos returns the wall-clock duration of the most
// recently rendered block, as supplied by the caller of RenderBlock.
func (m *Mixer) LastBlockDurationNanos() int64 { return m.lastBlockNanos.Load() }

// EventsDropped returns the event ring's running drop count (spec §4.J:
// "Event drops are counted but never stop rendering").
func (m *Mixer) EventsDropped() uint64 { return m.ring.Dropped() }

// RenderBlock executes the fixed nine-step render loop for one block
// (spec §4.J). nowNanos stamps any snapshot publish this block performs;
// blockDurationSeconds advances the mix-snapshot blend; blockDurationNanos
// is recorded verbatim for LastBlockDurationNanos.
func (m *Mixer) RenderBlock(sink api.AudioSink, nowNanos int64, blockDurationSeconds float64, blockDurationNanos int64) {
	// Step 1: advance mix-snapshot blend.
	m.blender.Advance(blockDurationSeconds)

	// Step 2: drain events into the snapshot back buffer.
	m.drainEvents(nowNanos)

	// Step 3: acquire the front snapshot for this block only; it is never
	// stored on m and never escapes this function.
	front := m.snapshots.Acquire()
	m.applyRoomFingerprint(front)

	// Step 4: render every bound voice into the dry/reverb accumulators.
	m.renderVoices()

	// Step 5: submit accumulators into SFX / Reverb.
	m.SFX.SubmitBlock(m.dryAccum, m.blockFrames, m.channels)
	m.Reverb.SubmitBlock(m.reverbAccum, m.blockFrames, m.channels)

	// Step 6: completion drain.
	m.drainCompletions()

	// Step 7: process master bus from zero input.
	masterOut := m.renderMaster()

	// Step 8: write to sink.
	if sink != nil {
		if err := sink.Write(masterOut, m.blockFrames, m.channels); err != nil {
			telemetry.Logf("mixer", "sink write: %v", err)
		}
	}

	// Step 9: bookkeeping.
	m.blockCounter.Add(1)
	m.lastBlockNanos.Store(blockDurationNanos)
	m.Counters.BlocksRendered.Add(1)
}

// drainEvents implements step 2: drain the ring, mutate the snapshot back
// buffer per event kind, and publish if anything changed.
func (m *Mixer) drainEvents(nowNanos int64) {
	n := m.ring.Drain(m.drainBuf)
	if n == 0 {
		return
	}
	back := m.snapshots.Back()
	mutated := false
	for i := 0; i < n; i++ {
		ev := m.drainBuf[i]
		switch ev.Kind {
		case eventring.PortalStateChanged:
			back.SetPortalAperture(ev.PortalID, ev.Aperture)
			mutated = true
		case eventring.GeometryDestroyedEvent:
			back.ClearPortalApertureOverrides()
			mutated = true
		case eventring.MaterialOverrideChanged:
			if m.resolver == nil {
				telemetry.Logf("mixer", "material override for entity %d: no resolver installed", ev.EntityID)
				continue
			}
			mat, ok := m.resolver.ResolveMaterial(ev.EntityID, ev.NewMaterialID)
			if !ok {
				telemetry.Logf("mixer", "material override for entity %d: material %d did not resolve", ev.EntityID, ev.NewMaterialID)
				continue
			}
			back.PutMaterial(mat)
			mutated = true
		}
	}
	if mutated {
		m.snapshots.Publish(nowNanos)
	}
}

// applyRoomFingerprint automates the shared reverb's target parameters
// from whichever fingerprint the engine says is current this block (spec
// §4.G reverb automation). A nil source or a "no fingerprint" answer
// leaves the reverb's existing smoothed parameters untouched.
func (m *Mixer) applyRoomFingerprint(front *snapshot.Snapshot) {
	if m.fpSource == nil {
		return
	}
	fp, ok := m.fpSource(front)
	if !ok {
		return
	}
	m.reverbFingerprint.ApplyFingerprint(fp)
}

// renderVoices implements step 4: zero the accumulators, then for every
// bound voice update its params from the emitter and render its chain,
// summing dry and reverb contributions. A voice whose render panics is
// contained (spec §7) and counted rather than taking the block down.
func (m *Mixer) renderVoices() {
	for i := range m.dryAccum {
		m.dryAccum[i] = 0
	}
	for i := range m.reverbAccum {
		m.reverbAccum[i] = 0
	}

	m.pool.ForEachBound(func(slotID int32, v *voicechain.VoiceNode) {
		m.renderOneVoice(v)
	})
}

func (m *Mixer) renderOneVoice(v *voicechain.VoiceNode) {
	defer func() {
		if r := recover(); r != nil {
			m.Counters.NodePanicsContained.Add(1)
			telemetry.Logf("mixer", "voice render panic contained: %v", r)
		}
	}()
	v.UpdateFromEmitter(m.assets)
	dry, reverb := v.RenderBlock(m.blockFrames)
	for i := 0; i < len(dry) && i < len(m.dryAccum); i++ {
		m.dryAccum[i] += dry[i]
	}
	for i := 0; i < len(reverb) && i < len(m.reverbAccum); i++ {
		m.reverbAccum[i] += reverb[i]
	}
}

// drainCompletions implements step 6: release and demote every voice
// whose one-shot asset finished this block. Slot ids and emitter ids are
// collected during a lock-held walk, then released after it ends, since
// Pool.Release takes the same lock ForEachBound holds.
func (m *Mixer) drainCompletions() {
	m.completedSlots = m.completedSlots[:0]
	m.completedEmitters = m.completedEmitters[:0]

	m.pool.ForEachBound(func(slotID int32, v *voicechain.VoiceNode) {
		if !v.CompletionPending() {
			return
		}
		emitterID, ok := v.EmitterID()
		if !ok {
			return
		}
		m.completedSlots = append(m.completedSlots, slotID)
		m.completedEmitters = append(m.completedEmitters, emitterID)
	})

	for i, slotID := range m.completedSlots {
		emitterID := m.completedEmitters[i]
		if m.listener != nil {
			m.listener.OnVoiceCompleted(emitterID)
		}
		m.pool.Release(slotID)
		m.voices.Demote(voice.ID(emitterID))
	}
}

// renderMaster implements step 7: master is processed from zero input
// (nothing is ever submitted to its own inlet in the canonical wiring);
// its children (SFX, Reverb) are summed, and its own effect chain runs
// last.
func (m *Mixer) renderMaster() []float32 {
	return m.Master.Process(m.blockFrames, m.channels)
}
