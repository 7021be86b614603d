package acoustic

// RoomID stably identifies a Room across the scene's lifetime.
type RoomID uint32

// Room is an enclosed space with a positive volume and surface area, and a
// per-band absorption budget expressed in sabins (S·α: surface area times
// absorption coefficient, summed per band). DominantMaterial drives scattering
// and mean-free-path lookups when no finer-grained surface data is available.
//
// Room stores exactly what the scene mutation layer supplies; it does not
// floor or otherwise correct degenerate volume/area values. Formulas that
// divide by volume or area (the reverb estimator, fingerprint builder) floor
// their own inputs at construction per spec §4.E — that flooring is a
// property of the formula, not of the value type.
type Room struct {
	id               RoomID
	volumeM3         float64
	surfaceAreaM2    float64
	sabinsPerBand    Bands
	dominantMaterial MaterialID
}

// NewRoom constructs a Room from scene-authored values.
func NewRoom(id RoomID, volumeM3, surfaceAreaM2 float64, sabinsPerBand Bands, dominantMaterial MaterialID) Room {
	return Room{
		id:               id,
		volumeM3:         volumeM3,
		surfaceAreaM2:    surfaceAreaM2,
		sabinsPerBand:    sabinsPerBand,
		dominantMaterial: dominantMaterial,
	}
}

func (r Room) ID() RoomID                   { return r.id }
func (r Room) VolumeM3() float64            { return r.volumeM3 }
func (r Room) SurfaceAreaM2() float64       { return r.surfaceAreaM2 }
func (r Room) SabinsPerBand() Bands         { return r.sabinsPerBand }
func (r Room) DominantMaterial() MaterialID { return r.dominantMaterial }
