package acoustic

// SabineConstant is the Sabine/Eyring RT60 formula constant (0.161 in SI
// units: seconds per (m^3 / m^2)).
const SabineConstant = 0.161

// EyringThreshold is the mean-absorption coefficient above which the Eyring
// RT60 formula is used instead of Sabine (spec §4.E).
const EyringThreshold = 0.3

// MinRT60Seconds and MaxRT60Seconds bound every computed RT60 value.
const (
	MinRT60Seconds = 0.01
	MaxRT60Seconds = 30.0
)

// SpeedOfSoundMPS is the speed of sound in air used throughout the engine
// (m/s). It drives critical-distance, reflection delay, and comb-filter
// delay-length computations.
const SpeedOfSoundMPS = 343.0

// SampleRate is the engine's fixed internal sample rate. Non-48kHz assets
// and host capabilities are resampled to this rate at the boundary.
const SampleRate = 48000

// DSPBlockSize is the default per-block frame count. Builds may override it
// at construction, but 256 is the typical value referenced throughout the
// spec's worked examples.
const DSPBlockSize = 256

// Priority-score weights for the voice manager (spec §4.F). They sum to 1.
const (
	WeightDistance   = 0.40
	WeightImportance = 0.25
	WeightAudibility = 0.20
	WeightVelocity   = 0.15

	// WeightOcclusionPenalty scales the mean per-band occlusion subtracted
	// from raw score; it is a penalty weight, not a term in the weight sum.
	WeightOcclusionPenalty = 0.5
)

// Promotion/demotion hysteresis and scheduling constants (spec §4.F, §4.A).
const (
	PromoteThreshold  = 0.55
	DemoteThreshold   = 0.35
	ScoreEpsilon      = 1e-6
	ScoreUpdateBlocks = 16
)
