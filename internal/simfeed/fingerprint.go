package simfeed

import (
	"math"

	"dynamisaudio/acoustic"
	"dynamisaudio/internal/rayproxy"
)

// MaterialLookup resolves a material by id, mirroring snapshot.Snapshot's
// Material method as a narrow interface so this package does not need to
// import the snapshot package.
type MaterialLookup interface {
	Material(id acoustic.MaterialID) (acoustic.Material, bool)
}

// PortalLookup resolves a portal definition by id, mirroring
// snapshot.Snapshot's Portal method.
type PortalLookup interface {
	Portal(id acoustic.PortalID) (acoustic.Portal, bool)
}

// BuildFingerprint derives an immutable Fingerprint for room from its own
// fields plus the proxy's portal-tagged triangles (spec §4.E). materials
// and portals may be nil; lookups that miss use the documented fallbacks
// (dominant-material scattering -> 0, unresolved portal transmission loss
// -> 0 dB i.e. full transmission).
func BuildFingerprint(room acoustic.Room, proxy *rayproxy.Proxy, materials MaterialLookup, portals PortalLookup) acoustic.Fingerprint {
	v := floorAtOne(room.VolumeM3())
	s := floorAtOne(room.SurfaceAreaM2())

	scalarMFP := 4 * v / s

	scattering := acoustic.Bands{}
	if materials != nil {
		if mat, ok := materials.Material(room.DominantMaterial()); ok {
			scattering = mat.Scattering()
		}
	}

	var perBandMFP acoustic.Bands
	for i, sc := range scattering {
		perBandMFP[i] = scalarMFP * (1 - clamp(sc, 0, 0.9999))
	}

	rt60 := EstimateRT60(room.VolumeM3(), room.SurfaceAreaM2(), room.SabinsPerBand())

	erDensity := earlyReflectionDensity(scalarMFP, room.VolumeM3())

	transmission := portalTransmissionForRoom(room.ID(), proxy, portals)

	return acoustic.NewFingerprint(room.ID(), room.VolumeM3(), room.SurfaceAreaM2(), scalarMFP, perBandMFP, erDensity, rt60, transmission)
}

// earlyReflectionDensity approximates reflection density ≈ c^3 * 4*pi *
// (MFP/c)^2 / (2V) (spec §4.E).
func earlyReflectionDensity(scalarMFP, volumeM3 float64) float64 {
	v := floorAtOne(volumeM3)
	c := acoustic.SpeedOfSoundMPS
	t := scalarMFP / c
	return c * c * c * 4 * math.Pi * t * t / (2 * v)
}

// portalTransmissionForRoom averages per-band transmission loss (converted
// to a linear amplitude ratio, clamped to [0,1]) over every portal-tagged
// triangle belonging to roomID. If there are no such triangles, every
// band transmits fully (1.0).
func portalTransmissionForRoom(roomID acoustic.RoomID, proxy *rayproxy.Proxy, portals PortalLookup) acoustic.Bands {
	if proxy == nil {
		return acoustic.Fill(1)
	}
	var sum acoustic.Bands
	count := 0
	for _, tri := range proxy.Triangles() {
		if tri.SurfaceType != acoustic.SurfacePortal || tri.RoomID != roomID {
			continue
		}
		lossDB := acoustic.Bands{} // fallback: 0 dB == full transmission
		if portals != nil {
			if p, ok := portals.Portal(tri.PortalID); ok {
				lossDB = p.TransmissionLossDB()
			}
		}
		for i, db := range lossDB {
			sum[i] += db
		}
		count++
	}
	if count == 0 {
		return acoustic.Fill(1)
	}
	var out acoustic.Bands
	for i, sumDB := range sum {
		meanDB := sumDB / float64(count)
		out[i] = clamp(math.Pow(10, meanDB/20), 0, 1)
	}
	return out
}
