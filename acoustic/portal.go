package acoustic

import "math"

// PortalID stably identifies a Portal across the scene's lifetime.
type PortalID uint32

// Portal connects two rooms through a continuous aperture in [0,1] (not
// boolean — a half-open door has aperture 0.5) with a per-band transmission
// loss in dB applied when sound crosses it.
type Portal struct {
	id                 PortalID
	roomA, roomB       RoomID
	aperture           float64
	transmissionLossDB Bands
}

// NewPortal constructs a Portal, clamping aperture to [0,1].
func NewPortal(id PortalID, roomA, roomB RoomID, aperture float64, transmissionLossDB Bands) Portal {
	return Portal{
		id:                 id,
		roomA:              roomA,
		roomB:              roomB,
		aperture:           clampFloat(aperture, 0, 1),
		transmissionLossDB: transmissionLossDB.Clamp(math.Inf(-1), 0),
	}
}

func (p Portal) ID() PortalID                 { return p.id }
func (p Portal) Rooms() (RoomID, RoomID)      { return p.roomA, p.roomB }
func (p Portal) Aperture() float64            { return p.aperture }
func (p Portal) TransmissionLossDB() Bands    { return p.transmissionLossDB }

// SurfaceType classifies a proxy triangle's acoustic role.
type SurfaceType uint8

const (
	SurfaceOrdinary SurfaceType = iota
	SurfaceRoomBoundary
	SurfacePortal
)

func (s SurfaceType) String() string {
	switch s {
	case SurfaceOrdinary:
		return "ordinary"
	case SurfaceRoomBoundary:
		return "room_boundary"
	case SurfacePortal:
		return "portal"
	default:
		return "unknown"
	}
}
