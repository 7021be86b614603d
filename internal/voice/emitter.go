// Package voice implements the emitter lifecycle and the voice manager: the
// per-emitter parameter double buffer, priority scoring, and the dual-pool
// promotion/demotion budget evaluation (spec §4.F, component F).
package voice

import (
	"sync/atomic"

	"dynamisaudio/acoustic"
)

// State is an emitter's lifecycle state. The only permitted transitions are
// INACTIVE->SPAWNING (trigger), SPAWNING->VIRTUAL (initialized),
// VIRTUAL<->PHYSICAL (manager promotion/demotion), any->RELEASE (destroy),
// RELEASE->INACTIVE (after tail).
type State int32

const (
	StateInactive State = iota
	StateSpawning
	StateVirtual
	StatePhysical
	StateRelease
)

func (s State) String() string {
	switch s {
	case StateInactive:
		return "inactive"
	case StateSpawning:
		return "spawning"
	case StateVirtual:
		return "virtual"
	case StatePhysical:
		return "physical"
	case StateRelease:
		return "release"
	default:
		return "unknown"
	}
}

// Importance is ordered; lower ordinal means higher importance. CRITICAL
// emitters compete only within the reserved pool (spec §4.F).
type Importance int32

const (
	ImportanceCritical Importance = iota
	ImportanceHigh
	ImportanceNormal
	ImportanceLow
)

func (i Importance) String() string {
	switch i {
	case ImportanceCritical:
		return "critical"
	case ImportanceHigh:
		return "high"
	case ImportanceNormal:
		return "normal"
	case ImportanceLow:
		return "low"
	default:
		return "unknown"
	}
}

// Params is the plain, primitive-only per-block snapshot a voice reads.
// It holds no inner references so it copies without chasing pointers
// (spec glossary: EmitterParams).
type Params struct {
	PositionX, PositionY, PositionZ float64
	VelocityX, VelocityY, VelocityZ float64

	OcclusionPerBand acoustic.Bands
	RoomID           acoustic.RoomID
	ReverbWetGain    float64
	MasterGain       float64
	Pitch            float64

	PlaybackPositionFrames int64
	Loop                   bool
	PCMBufferHandle        uint64

	AzimuthRad   float64
	ElevationRad float64
	DistanceM    float64
}

// ParamBuffer is the per-emitter double buffer: the worker copies the
// current front into the back, mutates the back, then releases the flip.
// Render-thread readers acquire the published index and read that buffer
// for exactly one block.
type ParamBuffer struct {
	buffers  [2]Params
	frontIdx atomic.Uint32
}

// Back returns a copy of the current front, ready for the worker to mutate
// and hand to Publish.
func (p *ParamBuffer) Back() Params {
	return p.buffers[p.frontIdx.Load()]
}

// Publish writes back into the non-front slot and release-stores the
// flipped index.
func (p *ParamBuffer) Publish(back Params) {
	idx := 1 - p.frontIdx.Load()
	p.buffers[idx] = back
	p.frontIdx.Store(idx)
}

// Acquire acquire-loads the published index and returns that buffer's
// value. The caller's copy is stable for the duration of one render block.
func (p *ParamBuffer) Acquire() Params {
	return p.buffers[p.frontIdx.Load()]
}

// ID uniquely identifies an Emitter for its lifetime; lower ids are older
// (used as the comparator's final, deterministic tiebreak).
type ID uint64

// Emitter is a logical sound source: its lifecycle is exclusively owned by
// its worker (see worker.go); the render thread only ever reads through
// the Params front buffer of a promoted Emitter's bound voice.
type Emitter struct {
	ID         ID
	Importance Importance

	state atomic.Int32
	score atomic.Uint64 // float64 bits, written by the worker, read by the manager

	params ParamBuffer

	// SlotID is the pool slot this emitter is bound to while PHYSICAL; -1
	// when VIRTUAL or INACTIVE.
	SlotID atomic.Int32

	sink      atomic.Pointer[reflectionSinkHolder]
	listener  atomic.Pointer[listenerPoseHolder]
	snapshots atomic.Pointer[snapshotManagerHolder]
}

// ReflectionSink receives a reflection tap set produced by an emitter's
// cooperative worker (spec §4.F duty 2). It mirrors api.EarlyReflectionSink
// without importing the api package from this lower layer; the manager
// adapts between the two types at the boundary where a voice (which does
// import api) is bound on promotion.
type ReflectionSink interface {
	SetTaps(taps []ReflectionTap)
	ClearTaps()
}

// NewEmitter constructs an Emitter in the INACTIVE state.
func NewEmitter(id ID, importance Importance) *Emitter {
	e := &Emitter{ID: id, Importance: importance}
	e.state.Store(int32(StateInactive))
	e.SlotID.Store(-1)
	return e
}

// State returns the emitter's current lifecycle state.
func (e *Emitter) State() State { return State(e.state.Load()) }

// setState performs an unconditional transition; callers are responsible
// for respecting the permitted-transition table.
func (e *Emitter) setState(s State) { e.state.Store(int32(s)) }

// Trigger transitions INACTIVE -> SPAWNING. Returns false if the emitter
// was not INACTIVE.
func (e *Emitter) Trigger() bool {
	return e.state.CompareAndSwap(int32(StateInactive), int32(StateSpawning))
}

// FinishSpawn transitions SPAWNING -> VIRTUAL once worker initialization
// completes.
func (e *Emitter) FinishSpawn() bool {
	return e.state.CompareAndSwap(int32(StateSpawning), int32(StateVirtual))
}

// Release transitions any state to RELEASE (destroy).
func (e *Emitter) Release() { e.setState(StateRelease) }

// FinishRelease transitions RELEASE -> INACTIVE once the voice tail (if
// any) has finished.
func (e *Emitter) FinishRelease() bool {
	return e.state.CompareAndSwap(int32(StateRelease), int32(StateInactive))
}

// Score returns the most recently computed priority score.
func (e *Emitter) Score() float64 {
	return float64FromBits(e.score.Load())
}

func (e *Emitter) setScore(v float64) {
	e.score.Store(bitsFromFloat64(v))
}

// PublishParams writes p into the unpublished slot and flips it to the
// front.
func (e *Emitter) PublishParams(p Params) { e.params.Publish(p) }

// AcquireParams returns the currently published parameter snapshot.
func (e *Emitter) AcquireParams() Params { return e.params.Acquire() }

// BackParams returns a mutable copy of the worker's staging buffer.
func (e *Emitter) BackParams() Params { return e.params.Back() }

type reflectionSinkHolder struct{ v ReflectionSink }
type listenerPoseHolder struct{ X, Y, Z float64 }
type snapshotManagerHolder struct{ v SnapshotReader }

// ReflectionTap mirrors api.ReflectionTap without importing the api
// package from this lower layer; the manager adapts between the two at
// the boundary where it is wired to a concrete EarlyReflectionSink.
type ReflectionTap struct {
	DistanceM    float64
	Gain         float64
	DelaySamples int
}

// SetReflectionSink installs (or clears, with nil) the destination for
// this emitter's reflection taps. Bound during promotion, cleared during
// demotion.
func (e *Emitter) SetReflectionSink(s ReflectionSink) {
	if s == nil {
		e.sink.Store(nil)
		return
	}
	e.sink.Store(&reflectionSinkHolder{v: s})
}

// ReflectionSink returns the currently bound reflection sink, or nil.
func (e *Emitter) ReflectionSink() ReflectionSink {
	h := e.sink.Load()
	if h == nil {
		return nil
	}
	return h.v
}

// SnapshotReader is the narrow read surface the voice package needs from a
// world snapshot: enough to compute occlusion, RT60, and wet gain without
// importing the snapshot package's mutation API.
type SnapshotReader interface {
	Room(id acoustic.RoomID) (acoustic.Room, bool)
	Material(id acoustic.MaterialID) (acoustic.Material, bool)
	TraceRayMulti(origin, dir acoustic.Vec3, maxDistance float64, out *acoustic.AcousticHitBuffer) int
	TraceRay(origin, dir acoustic.Vec3, maxDistance float64, out *acoustic.AcousticHit)
}

// SetListenerPose publishes the listener position with one atomic pointer
// store, so a reader sees all three coordinates from the same call.
func (e *Emitter) SetListenerPose(x, y, z float64) {
	e.listener.Store(&listenerPoseHolder{X: x, Y: y, Z: z})
}

// ListenerPose reads the most recently published listener position.
func (e *Emitter) ListenerPose() (x, y, z float64, ok bool) {
	h := e.listener.Load()
	if h == nil {
		return 0, 0, 0, false
	}
	return h.X, h.Y, h.Z, true
}

// SetSnapshotReader publishes the snapshot manager's reader surface.
func (e *Emitter) SetSnapshotReader(r SnapshotReader) {
	if r == nil {
		e.snapshots.Store(nil)
		return
	}
	e.snapshots.Store(&snapshotManagerHolder{v: r})
}

// SnapshotReader returns the most recently published snapshot reader, or
// nil if none has been set.
func (e *Emitter) SnapshotReader() SnapshotReader {
	h := e.snapshots.Load()
	if h == nil {
		return nil
	}
	return h.v
}
