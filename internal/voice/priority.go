package voice

import (
	"math"

	"dynamisaudio/acoustic"
)

func bitsFromFloat64(v float64) uint64 { return math.Float64bits(v) }
func float64FromBits(b uint64) float64 { return math.Float64frombits(b) }

// ScoreInputs carries the per-emitter quantities the priority formula
// needs, already resolved from Params and the emitter's Importance (spec
// §4.F).
type ScoreInputs struct {
	DistanceM    float64
	MasterGain   float64
	SpeedMPS     float64
	Importance   Importance
	MeanOcclusion float64 // mean of OcclusionPerBand
}

// ComputeScore implements the priority formula:
//
//	dist_factor  = 1 / (1 + distance^2 * 0.01)
//	audibility   = master_gain
//	vel_factor   = min(1, |velocity| / 50)
//	importance_f = 1 - importance_ordinal * 0.25
//	raw = W_DISTANCE*dist + W_IMPORTANCE*imp + W_AUDIBILITY*aud + W_VELOCITY*vel
//	score = max(0, raw - mean_occlusion * W_OCCLUSION_PENALTY)
func ComputeScore(in ScoreInputs) float64 {
	distFactor := 1 / (1 + in.DistanceM*in.DistanceM*0.01)
	audibility := in.MasterGain
	velFactor := in.SpeedMPS / 50
	if velFactor > 1 {
		velFactor = 1
	}
	if velFactor < 0 {
		velFactor = 0
	}
	importanceFactor := 1 - float64(in.Importance)*0.25

	raw := acoustic.WeightDistance*distFactor +
		acoustic.WeightImportance*importanceFactor +
		acoustic.WeightAudibility*audibility +
		acoustic.WeightVelocity*velFactor

	score := raw - in.MeanOcclusion*acoustic.WeightOcclusionPenalty
	if score < 0 {
		score = 0
	}
	return score
}

// Compare implements the mandatory stable total order (spec §4.F):
// higher score first (beyond SCORE_EPSILON), then lower importance
// ordinal, then lower emitter id (oldest wins). Returns <0 if a sorts
// before b, >0 if after, 0 if equal in every tiebreak field.
func Compare(a, b *Emitter) int {
	sa, sb := a.Score(), b.Score()
	if sa-sb > acoustic.ScoreEpsilon {
		return -1
	}
	if sb-sa > acoustic.ScoreEpsilon {
		return 1
	}
	if a.Importance != b.Importance {
		if a.Importance < b.Importance {
			return -1
		}
		return 1
	}
	if a.ID != b.ID {
		if a.ID < b.ID {
			return -1
		}
		return 1
	}
	return 0
}
