// Package rayproxy implements the immutable triangle proxy and the
// brute-force triangle-ray intersection backend (spec §4.D, component D).
package rayproxy

import (
	"errors"
	"math"

	"dynamisaudio/acoustic"
	"dynamisaudio/api"
)

// Triangle is one tagged surface in an AcousticProxy.
type Triangle struct {
	V0, V1, V2     acoustic.Vec3
	MaterialID     acoustic.MaterialID
	PortalID       acoustic.PortalID
	RoomID         acoustic.RoomID
	SurfaceType    acoustic.SurfaceType
}

// ErrNonFiniteVertex and ErrPortalMissingID are construction-time contract
// violations (spec §4.D, §7): a portal triangle without a portal id, or any
// non-finite vertex component.
var (
	ErrNonFiniteVertex = errors.New("rayproxy: triangle has a non-finite vertex component")
	ErrPortalMissingID = errors.New("rayproxy: portal triangle has portal_id == 0")
)

// Proxy is an immutable vector of tagged triangles. Index order is load-bearing:
// a physics-backed RayBackend sharing this scene must return hit indices that
// agree with this proxy's index for the same surface (spec §4.D).
type Proxy struct {
	triangles []Triangle
}

// NewProxy validates and constructs a Proxy from tris, in the given order.
func NewProxy(tris []Triangle) (*Proxy, error) {
	cp := make([]Triangle, len(tris))
	copy(cp, tris)
	for i, t := range cp {
		if !finiteVec(t.V0) || !finiteVec(t.V1) || !finiteVec(t.V2) {
			return nil, ErrNonFiniteVertex
		}
		if t.SurfaceType == acoustic.SurfacePortal && t.PortalID == 0 {
			return nil, ErrPortalMissingID
		}
		_ = i
	}
	return &Proxy{triangles: cp}, nil
}

func finiteVec(v acoustic.Vec3) bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Triangles returns the proxy's triangles in index order. The returned
// slice must not be mutated by callers.
func (p *Proxy) Triangles() []Triangle { return p.triangles }

// Len returns the triangle count.
func (p *Proxy) Len() int { return len(p.triangles) }

// BuildFromMeshIterator walks it, tagging each triangle via tag, and builds
// a Proxy preserving iteration order — the same order a physics ray
// backend sharing the host mesh must index by (spec §4.D, §6, §9(c)).
// Triangles tag returns nil for are skipped (acoustically inert).
func BuildFromMeshIterator(it api.MeshIterator, tag api.MeshTagger) (*Proxy, error) {
	var tris []Triangle
	for {
		bodyID, triIndex, v0, v1, v2, ok := it.Next()
		if !ok {
			break
		}
		surf := tag(bodyID, triIndex, v0, v1, v2)
		if surf == nil {
			continue
		}
		st := acoustic.SurfaceOrdinary
		switch {
		case surf.IsPortal:
			st = acoustic.SurfacePortal
		case surf.IsRoomBoundary:
			st = acoustic.SurfaceRoomBoundary
		}
		tris = append(tris, Triangle{
			V0: surf.V0, V1: surf.V1, V2: surf.V2,
			MaterialID:  surf.MaterialID,
			PortalID:    surf.PortalID,
			RoomID:      surf.RoomID,
			SurfaceType: st,
		})
	}
	return NewProxy(tris)
}
