package acoustic

import "math"

// Material is an immutable handle describing a surface's acoustic response:
// per-band absorption and scattering coefficients in [0,1], and a per-band
// transmission loss in dB (non-positive; 0 means no loss). Materials are
// identified by a stable MaterialID so scene authoring can reference them
// without holding a pointer into the live world.
type Material struct {
	id                 MaterialID
	absorption         Bands
	scattering         Bands
	transmissionLossDB Bands
}

// MaterialID stably identifies a Material across the scene's lifetime.
type MaterialID uint32

// NewMaterial constructs a Material, defensively copying the band arrays so
// the caller cannot mutate them out from under the handle afterwards.
// Absorption and scattering are clamped to [0,1]; transmission loss is
// clamped to (-inf, 0].
func NewMaterial(id MaterialID, absorption, scattering, transmissionLossDB Bands) Material {
	return Material{
		id:                 id,
		absorption:         absorption.Clamp(0, 1),
		scattering:         scattering.Clamp(0, 1),
		transmissionLossDB: transmissionLossDB.Clamp(math.Inf(-1), 0),
	}
}

func (m Material) ID() MaterialID             { return m.id }
func (m Material) Absorption() Bands          { return m.absorption }
func (m Material) Scattering() Bands          { return m.scattering }
func (m Material) TransmissionLossDB() Bands  { return m.transmissionLossDB }
