package api

import "dynamisaudio/acoustic"

// RayBackend is the pluggable ray-query capability the host supplies (spec
// §6). A brute-force implementation over an AcousticProxy is provided in
// internal/rayproxy; a physics-mesh-backed implementation is a host
// collaborator that must honour the same triangle-index ordering contract
// (spec §4.D) as the proxy it was built from.
type RayBackend interface {
	// TraceRay resets out and writes the nearest hit along the ray, or
	// leaves out in the miss state (out.Hit == false) if nothing is hit
	// within maxDistance.
	TraceRay(origin, dir acoustic.Vec3, maxDistance float64, out *acoustic.AcousticHit)

	// TraceRayMulti resets out and inserts every hit along the ray into it,
	// nearest-first, up to out's capacity. Returns the number of hits
	// retained.
	TraceRayMulti(origin, dir acoustic.Vec3, maxDistance float64, out *acoustic.AcousticHitBuffer) int
}

// MeshSurface is what a MeshTagger callback returns for a triangle the host
// mesh iterator yields, or nil if the triangle carries no acoustic meaning.
type MeshSurface struct {
	V0, V1, V2     acoustic.Vec3
	MaterialID     acoustic.MaterialID
	PortalID       acoustic.PortalID
	RoomID         acoustic.RoomID
	IsPortal       bool
	IsRoomBoundary bool
}

// MeshTagger classifies one triangle of the host's physics mesh. bodyID and
// triIndex identify the source triangle for diagnostics; the returned
// MeshSurface (or nil, meaning "acoustically inert") becomes one entry of
// the built AcousticProxy, in the same order the iterator yields triangles
// — this is the ordering contract physics-backed RayBackend implementations
// must also honour (spec §4.D, §6).
type MeshTagger func(bodyID uint64, triIndex int, v0, v1, v2 acoustic.Vec3) *MeshSurface

// MeshIterator drives BuildFromMeshIterator: Next returns the next triangle
// of the host mesh, or ok=false once exhausted.
type MeshIterator interface {
	Next() (bodyID uint64, triIndex int, v0, v1, v2 acoustic.Vec3, ok bool)
}

// AudioSink is the host-implemented device I/O boundary (spec §6). A null
// sink that discards writes is provided in sinks/nullsink for headless CI.
type AudioSink interface {
	Open(sampleRate, channels, blockSize int) error
	Write(interleaved []float32, frames, channels int) error
	Close() error
	IsOpen() bool
	ActualSampleRate() int
	OutputLatencyMS() float64
}

// AudioAsset is the host-supplied streaming PCM producer (spec §6).
// ReadFrames must be zero-allocation and returns 0 at end of stream.
type AudioAsset interface {
	SampleRate() int
	ChannelCount() int
	TotalFrames() int64 // -1 if unknown
	ReadFrames(out []float32, frames int) int
	Reset() error
	IsExhausted() bool
}

// MixBusControl is the narrow designer-facing seam onto a bus (spec §4.I,
// Design Notes): gain/bypass/name only, so the mix-snapshot layer never
// needs to know about concrete bus or DSP node types.
type MixBusControl interface {
	Name() string
	Gain() float64
	SetGain(gain float64)
	Bypass() bool
	SetBypass(bypass bool)
}

// EarlyReflectionSink receives a reflection tap set produced by an
// emitter's cooperative worker (spec §4.F duty 2) and consumed by the
// early-reflections DSP node (spec §4.G) bound to that emitter's voice.
type EarlyReflectionSink interface {
	SetTaps(taps []ReflectionTap)
	ClearTaps()
}

// ReflectionTap is one early-reflection delay/gain pair derived from a
// multi-hit ray fan.
type ReflectionTap struct {
	DistanceM    float64
	Gain         float64
	DelaySamples int
}

// VoiceCompletionListener is notified when a one-shot voice finishes
// playback, so the host can release any associated handle (spec §4.H).
type VoiceCompletionListener interface {
	OnVoiceCompleted(emitterID uint64)
}

// MaterialResolver resolves a MaterialOverrideChanged event (spec §4.B,
// §4.J step 2) to the full acoustic.Material its new_material_id names.
// The ring event carries only the id pair; the host owns the material
// catalogue entityID was overridden against.
type MaterialResolver interface {
	ResolveMaterial(entityID uint32, materialID acoustic.MaterialID) (acoustic.Material, bool)
}
