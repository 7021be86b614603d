package rayproxy

import (
	"math"

	"dynamisaudio/acoustic"
)

// mollerTrumboreEpsilon gates near-parallel ray/triangle tests.
const mollerTrumboreEpsilon = 1e-8

// ApertureSource resolves the live aperture for a portal id, falling
// through override -> definition -> 1.0 (spec §4.C). A world snapshot
// (*snapshot.Snapshot) implements this; BruteForceBackend holds it as a narrow
// interface so this package never imports the snapshot package.
type ApertureSource interface {
	PortalAperture(id acoustic.PortalID) float64
}

// BruteForceBackend intersects rays against every triangle in a Proxy by
// Möller-Trumbore, with no spatial acceleration structure (spec §4.D: the
// reference backend is deliberately O(n) — acceleration is a host-backend
// concern).
type BruteForceBackend struct {
	proxy     *Proxy
	apertures ApertureSource
}

// NewBruteForceBackend builds a backend over proxy. apertures may be nil,
// in which case every portal hit reports the default aperture of 1.0.
func NewBruteForceBackend(proxy *Proxy, apertures ApertureSource) *BruteForceBackend {
	return &BruteForceBackend{proxy: proxy, apertures: apertures}
}

func (b *BruteForceBackend) aperture(id acoustic.PortalID) float64 {
	if b.apertures == nil {
		return 1.0
	}
	return b.apertures.PortalAperture(id)
}

// intersectTriangle performs the Möller-Trumbore test against one triangle,
// returning (t, normal, ok) where ok is true for a hit with
// 0 <= t <= maxDistance.
func intersectTriangle(origin, dir acoustic.Vec3, tri Triangle, maxDistance float64) (float64, acoustic.Vec3, bool) {
	edge1 := tri.V1.Sub(tri.V0)
	edge2 := tri.V2.Sub(tri.V0)
	pvec := dir.Cross(edge2)
	det := edge1.Dot(pvec)
	if math.Abs(det) < mollerTrumboreEpsilon {
		return 0, acoustic.Vec3{}, false
	}
	invDet := 1.0 / det
	tvec := origin.Sub(tri.V0)
	u := tvec.Dot(pvec) * invDet
	if u < 0 || u > 1 {
		return 0, acoustic.Vec3{}, false
	}
	qvec := tvec.Cross(edge1)
	v := dir.Dot(qvec) * invDet
	if v < 0 || u+v > 1 {
		return 0, acoustic.Vec3{}, false
	}
	t := edge2.Dot(qvec) * invDet
	if t < 0 || t > maxDistance {
		return 0, acoustic.Vec3{}, false
	}
	normal := edge1.Cross(edge2)
	normal = normalize(normal)
	return t, normal, true
}

func normalize(v acoustic.Vec3) acoustic.Vec3 {
	length := math.Sqrt(v.Dot(v))
	if length < 1e-12 {
		return v
	}
	return v.Scale(1.0 / length)
}

func (b *BruteForceBackend) hitFromTriangle(tri Triangle, t float64, normal acoustic.Vec3) acoustic.AcousticHit {
	h := acoustic.AcousticHit{
		Hit:            true,
		Distance:       t,
		Normal:         normal,
		MaterialID:     tri.MaterialID,
		PortalID:       tri.PortalID,
		RoomID:         tri.RoomID,
		IsRoomBoundary: tri.SurfaceType == acoustic.SurfaceRoomBoundary,
		IsPortal:       tri.SurfaceType == acoustic.SurfacePortal,
		PortalAperture: 1.0,
	}
	if h.IsPortal {
		h.PortalAperture = b.aperture(tri.PortalID)
	}
	return h
}

// TraceRay implements api.RayBackend. It resets out and keeps the least
// non-negative t <= maxDistance across all triangles.
func (b *BruteForceBackend) TraceRay(origin, dir acoustic.Vec3, maxDistance float64, out *acoustic.AcousticHit) {
	out.Reset()
	if b.proxy == nil {
		return
	}
	bestT := math.Inf(1)
	var bestTri Triangle
	var bestNormal acoustic.Vec3
	found := false
	for _, tri := range b.proxy.Triangles() {
		t, normal, ok := intersectTriangle(origin, dir, tri, maxDistance)
		if !ok {
			continue
		}
		if t < bestT {
			bestT = t
			bestTri = tri
			bestNormal = normal
			found = true
		}
	}
	if !found {
		return
	}
	*out = b.hitFromTriangle(bestTri, bestT, bestNormal)
}

// TraceRayMulti implements api.RayBackend. It resets out and inserts every
// hit, nearest-first, capped at out's capacity.
func (b *BruteForceBackend) TraceRayMulti(origin, dir acoustic.Vec3, maxDistance float64, out *acoustic.AcousticHitBuffer) int {
	out.Reset()
	if b.proxy == nil {
		return 0
	}
	for _, tri := range b.proxy.Triangles() {
		t, normal, ok := intersectTriangle(origin, dir, tri, maxDistance)
		if !ok {
			continue
		}
		out.Insert(b.hitFromTriangle(tri, t, normal))
	}
	return out.Active()
}
