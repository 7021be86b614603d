package acoustic

// Fingerprint is an immutable, compact per-room acoustic descriptor used to
// drive reverb automation. It is constructed via defensive copy of every
// array (Bands are value types, so simple assignment already copies) and
// must never alias a BlendScratch.
type Fingerprint struct {
	RoomID               RoomID
	VolumeM3             float64
	SurfaceAreaM2        float64
	MeanFreePathM        float64
	PerBandMeanFreePathM Bands
	EarlyReflectionDensity float64
	RT60PerBand          Bands
	PortalTransmission   Bands
}

// NewFingerprint validates and constructs a Fingerprint. All magnitude
// fields must be >= 0; callers that violate this have a contract bug, so
// this constructor clamps rather than panicking (scene-derived data is
// never allowed to propagate NaN/negative values into the render thread).
func NewFingerprint(roomID RoomID, volumeM3, surfaceAreaM2, meanFreePathM float64, perBandMFP Bands, erDensity float64, rt60 Bands, portalTransmission Bands) Fingerprint {
	return Fingerprint{
		RoomID:                 roomID,
		VolumeM3:               nonNegative(volumeM3),
		SurfaceAreaM2:          nonNegative(surfaceAreaM2),
		MeanFreePathM:          nonNegative(meanFreePathM),
		PerBandMeanFreePathM:   perBandMFP.Clamp(0, 1e300),
		EarlyReflectionDensity: nonNegative(erDensity),
		RT60PerBand:            rt60.Clamp(0, 1e300),
		PortalTransmission:     portalTransmission.Clamp(0, 1),
	}
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// BlendScratch is a mutable staging type used only during fingerprint
// interpolation. It must never be passed where an immutable Fingerprint is
// expected — Freeze is the only way to turn one into a Fingerprint.
type BlendScratch struct {
	RoomID                 RoomID
	VolumeM3               float64
	SurfaceAreaM2          float64
	MeanFreePathM          float64
	PerBandMeanFreePathM   Bands
	EarlyReflectionDensity float64
	RT60PerBand            Bands
	PortalTransmission     Bands
}

// Freeze converts the scratch into an immutable Fingerprint.
func (s BlendScratch) Freeze() Fingerprint {
	return NewFingerprint(s.RoomID, s.VolumeM3, s.SurfaceAreaM2, s.MeanFreePathM, s.PerBandMeanFreePathM, s.EarlyReflectionDensity, s.RT60PerBand, s.PortalTransmission)
}
