package simfeed

import (
	"math"

	"dynamisaudio/acoustic"
)

// logBlendFloor is the minimum value a log-interpolated quantity may take
// before interpolation, avoiding log(0). Volumes/areas this small have no
// acoustic meaning so the floor never affects a real scene.
const logBlendFloor = 1e-6

// BlendFingerprints interpolates between a and b at t in [0,1] (not
// clamped here; callers are expected to clamp per their own contract) and
// returns a frozen Fingerprint (spec §4.E, §8 invariant 3 and scenario 2).
//
// Most fields lerp linearly. VolumeM3 and SurfaceAreaM2 interpolate in log
// space (rooms vary over orders of magnitude, so a linear blend between a
// small and a large room would spend almost the whole transition sounding
// like the large one); if either side is non-positive the blend falls back
// to a linear lerp instead. RoomID does not blend: it snaps to a's id for
// t <= 0.5, b's id otherwise, matching the "a side wins the tie" rule
// at exactly t == 0.5.
func BlendFingerprints(a, b acoustic.Fingerprint, t float64) acoustic.Fingerprint {
	var s acoustic.BlendScratch

	if t <= 0.5 {
		s.RoomID = a.RoomID
	} else {
		s.RoomID = b.RoomID
	}

	s.VolumeM3 = logLerp(a.VolumeM3, b.VolumeM3, t)
	s.SurfaceAreaM2 = logLerp(a.SurfaceAreaM2, b.SurfaceAreaM2, t)
	s.MeanFreePathM = lerp(a.MeanFreePathM, b.MeanFreePathM, t)
	s.PerBandMeanFreePathM = acoustic.Lerp(a.PerBandMeanFreePathM, b.PerBandMeanFreePathM, t)
	s.EarlyReflectionDensity = lerp(a.EarlyReflectionDensity, b.EarlyReflectionDensity, t)
	s.RT60PerBand = acoustic.Lerp(a.RT60PerBand, b.RT60PerBand, t)
	s.PortalTransmission = acoustic.Lerp(a.PortalTransmission, b.PortalTransmission, t)

	return s.Freeze()
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// logLerp interpolates a and b in log space. Either input below
// logBlendFloor disqualifies the pair from log interpolation (there is no
// meaningful log of a non-positive magnitude), and the call falls back to
// a plain linear lerp.
func logLerp(a, b, t float64) float64 {
	if a < logBlendFloor || b < logBlendFloor {
		return lerp(a, b, t)
	}
	la, lb := math.Log(a), math.Log(b)
	return math.Exp(la + (lb-la)*t)
}
