package acoustic

// Vec3 is a plain 3-component vector. It has no methods beyond what the ray
// backend and primitives need — this package does not own a general linear
// algebra library, following the spec's "primitives, not a math toolkit"
// framing for component A.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Dot(o Vec3) float64   { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

// AcousticHit is a plain ray-intersection result. IsPortal and IsRoomBoundary
// distinguish PortalID/MaterialID/RoomID meaning: for a portal hit, PortalAperture has
// been resolved through the live snapshot override (default 1.0) by the ray
// backend that produced it.
type AcousticHit struct {
	Hit             bool
	Distance        float64
	Normal          Vec3
	MaterialID      MaterialID
	PortalID        PortalID
	RoomID          RoomID
	PortalAperture  float64
	IsRoomBoundary  bool
	IsPortal        bool
}

// Reset zeroes a hit to the "miss" state with the spec-mandated default
// aperture of 1.0 (an unknown/absent portal is fully open).
func (h *AcousticHit) Reset() {
	*h = AcousticHit{PortalAperture: 1.0}
}
