// Package dynamisaudio wires the engine's components (spec §2 system
// overview) into a single construction and per-block driving surface: an
// Engine owns the event ring, the world snapshot manager, the voice
// manager and its cooperative workers, the voice-chain pool, and the
// mixer, and exposes the narrow host-facing API spec §6 describes
// (emitter spawn/release/update, listener pose, scene mutation, and
// RenderBlock). It follows the teacher's top-level composition shape
// (client/app.go wiring AudioEngine, config, and the UI together in one
// constructor) generalized to this module's components.
package dynamisaudio

import (
	"errors"
	"sync"

	"dynamisaudio/acoustic"
	"dynamisaudio/api"
	"dynamisaudio/internal/eventring"
	"dynamisaudio/internal/mixer"
	"dynamisaudio/internal/snapshot"
	"dynamisaudio/internal/voice"
	"dynamisaudio/internal/voicechain"
	"dynamisaudio/telemetry"
)

// managerReader adapts *snapshot.Manager to voice.SnapshotReader by
// re-acquiring the current front snapshot on every call, so an emitter's
// worker always reads whichever buffer is front at tick time rather than
// whatever was front when the emitter was spawned (spec §4.C: the render
// thread, and anything reading through it, must see the latest published
// snapshot on each access).
type managerReader struct{ m *snapshot.Manager }

func (r managerReader) Room(id acoustic.RoomID) (acoustic.Room, bool) {
	return r.m.Acquire().Room(id)
}

func (r managerReader) Material(id acoustic.MaterialID) (acoustic.Material, bool) {
	return r.m.Acquire().Material(id)
}

func (r managerReader) TraceRayMulti(origin, dir acoustic.Vec3, maxDistance float64, out *acoustic.AcousticHitBuffer) int {
	return r.m.Acquire().TraceRayMulti(origin, dir, maxDistance, out)
}

func (r managerReader) TraceRay(origin, dir acoustic.Vec3, maxDistance float64, out *acoustic.AcousticHit) {
	r.m.Acquire().TraceRay(origin, dir, maxDistance, out)
}

// ErrUnknownEmitter is returned by host calls that reference an emitter id
// the engine never spawned (or has already released to completion).
var ErrUnknownEmitter = errors.New("dynamisaudio: unknown emitter id")

// Engine is the top-level handle a host program constructs once and drives
// one render block at a time. It is not safe for concurrent RenderBlock
// calls (spec §5: the render loop is single-threaded), but emitter
// spawn/release/update calls may come from a separate game thread, the
// same split the teacher's AudioEngine makes between its capture/playback
// goroutines and app-thread config changes.
type Engine struct {
	cfg Config

	ring      *eventring.Ring
	snapshots *snapshot.Manager
	voices    *voice.Manager
	pool      *voicechain.Pool
	mixer     *mixer.Mixer

	mu       sync.Mutex
	workers  map[voice.ID]*voice.Worker
	emitters map[voice.ID]*voice.Emitter
	nextID   uint64
}

// Deps bundles the host-supplied collaborators New needs beyond Config.
// Every field is optional (the block size is taken from cfg.BlockSize, and
// Channels below 1 defaults to 2); a nil Resolver/Listener/Assets/FingerprintSource/RayBackend simply
// disables the feature it backs (spec §7 "scene absence ... no error
// surfaced").
type Deps struct {
	Resolver          api.MaterialResolver
	Listener          api.VoiceCompletionListener
	Assets            voicechain.AssetLookup
	FingerprintSource mixer.RoomFingerprintSource
	RayBackend        api.RayBackend
	Channels          int
}

// New validates cfg (spec §7 construction-time contract checks) and wires
// every component together: event ring, snapshot manager, voice manager,
// voice-chain pool, and mixer, in that dependency order.
func New(cfg Config, deps Deps) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	channels := deps.Channels
	if channels < 1 {
		channels = 2
	}

	ring, err := eventring.New(cfg.EventRingCapacity)
	if err != nil {
		return nil, err
	}

	snapshots := snapshot.NewManager()
	if deps.RayBackend != nil {
		snapshots.Back().SetRayBackend(deps.RayBackend)
		snapshots.Publish(0)
	}

	e := &Engine{
		cfg:       cfg,
		ring:      ring,
		snapshots: snapshots,
		workers:   make(map[voice.ID]*voice.Worker),
		emitters:  make(map[voice.ID]*voice.Emitter),
	}

	pool := voicechain.NewPool(cfg.PhysicalBudget, cfg.BlockSize, channels, e.lookupEmitter)
	e.pool = pool
	e.voices = voice.NewManager(cfg.PhysicalBudget, cfg.CriticalReserve, pool)

	e.mixer = mixer.New(mixer.Config{
		Ring:              ring,
		Snapshots:         snapshots,
		Voices:            e.voices,
		Pool:              pool,
		Resolver:          deps.Resolver,
		Listener:          deps.Listener,
		Assets:            deps.Assets,
		FingerprintSource: deps.FingerprintSource,
		BlockFrames:       cfg.BlockSize,
		Channels:          channels,
	})

	return e, nil
}

func (e *Engine) lookupEmitter(id voice.ID) (*voice.Emitter, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	em, ok := e.emitters[id]
	return em, ok
}

// SpawnEmitter registers a new logical sound source (spec §4.F lifecycle
// INACTIVE->SPAWNING->VIRTUAL) and starts its cooperative worker. The
// returned id is stable for the emitter's lifetime and is what later
// Release/UpdateParams/SetListenerPose calls reference.
func (e *Engine) SpawnEmitter(importance voice.Importance) voice.ID {
	e.mu.Lock()
	e.nextID++
	id := voice.ID(e.nextID)
	em := voice.NewEmitter(id, importance)
	em.SetSnapshotReader(managerReader{e.snapshots})
	w := voice.NewWorker(em)
	e.emitters[id] = em
	e.workers[id] = w
	e.mu.Unlock()

	em.Trigger()
	em.FinishSpawn()
	e.voices.Add(em)
	w.Start()
	return id
}

// ReleaseEmitter transitions id to RELEASE, stops its worker, and
// unregisters it. Safe to call on an id already released.
func (e *Engine) ReleaseEmitter(id voice.ID) error {
	e.mu.Lock()
	em, ok := e.emitters[id]
	w := e.workers[id]
	if ok {
		delete(e.emitters, id)
		delete(e.workers, id)
	}
	e.mu.Unlock()
	if !ok {
		return ErrUnknownEmitter
	}

	em.Release()
	e.voices.Remove(id)
	if w != nil {
		w.Stop()
	}
	em.FinishRelease()
	return nil
}

// UpdateEmitterParams publishes p as id's new parameter snapshot, read by
// its bound voice (if PHYSICAL) on the next render block.
func (e *Engine) UpdateEmitterParams(id voice.ID, p voice.Params) error {
	em, ok := e.lookupEmitter(id)
	if !ok {
		return ErrUnknownEmitter
	}
	em.PublishParams(p)
	return nil
}

// SetListenerPose publishes the listener position to every currently
// registered emitter (spec §4.F: "published to the emitter via
// single-word writes").
func (e *Engine) SetListenerPose(x, y, z float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, em := range e.emitters {
		em.SetListenerPose(x, y, z)
	}
}

// MutateScene returns the snapshot back buffer for scene topology
// mutation (put_material/put_room/put_portal/remove_*/clear/
// set_ray_backend, spec §4.C). The caller must call PublishScene once
// done; it must not retain the returned pointer past that call.
func (e *Engine) MutateScene() *snapshot.Snapshot { return e.snapshots.Back() }

// PublishScene publishes the back buffer mutated via MutateScene, stamped
// with nowNanos.
func (e *Engine) PublishScene(nowNanos int64) { e.snapshots.Publish(nowNanos) }

// EnqueueTopologyEvent publishes a topology event to the render thread via
// the event ring (spec §4.B). Safe to call from the game thread only
// (single-producer contract).
func (e *Engine) EnqueueTopologyEvent(ev eventring.Event) { e.ring.Enqueue(ev) }

// ActivateMixSnapshot starts blending every bus toward a designer-authored
// preset (spec §8 scenario 6).
func (e *Engine) ActivateMixSnapshot(snap mixer.MixSnapshot) { e.mixer.ActivateMixSnapshot(snap) }

// Master, SFX, Reverb expose the mixer's canonical buses for designer
// tooling that drives gain/bypass directly (spec §4.I).
func (e *Engine) Master() api.MixBusControl { return e.mixer.Master }
func (e *Engine) SFX() api.MixBusControl    { return e.mixer.SFX }
func (e *Engine) Reverb() api.MixBusControl { return e.mixer.Reverb }

// RenderBlock evaluates the voice-pool promotion/demotion budget (spec
// §4.F) and then drives one mixer render block to sink (spec §4.J). It is
// the single entry point the render thread calls once per block; poolHint
// of -1 disables the extra pool-capacity trim spec §4.F allows.
func (e *Engine) RenderBlock(sink api.AudioSink, poolHint int, nowNanos int64, blockDurationSeconds float64, blockDurationNanos int64) {
	e.voices.EvaluateBudget(poolHint)
	e.mixer.RenderBlock(sink, nowNanos, blockDurationSeconds, blockDurationNanos)
}

// Counters returns a point-in-time snapshot of the engine's telemetry
// (spec §7 "runtime saturation ... counted").
func (e *Engine) Counters() telemetry.Snapshot { return e.mixer.Counters.Load() }

// EventsDropped returns the event ring's running drop count.
func (e *Engine) EventsDropped() uint64 { return e.mixer.EventsDropped() }

// TrimmedCandidates returns the running total of promotion candidates
// deferred by a voice-pool capacity hint (spec §4.F).
func (e *Engine) TrimmedCandidates() uint64 { return e.voices.TrimmedCandidates() }
