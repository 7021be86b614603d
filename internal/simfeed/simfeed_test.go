package simfeed

import (
	"math"
	"testing"

	"dynamisaudio/acoustic"
	"dynamisaudio/internal/rayproxy"
)

func TestEstimateRT60ZeroVolumeYieldsMin(t *testing.T) {
	rt60 := EstimateRT60(0, 100, acoustic.Fill(10))
	for i, v := range rt60 {
		if v != acoustic.MinRT60Seconds {
			t.Fatalf("band %d = %v, want MinRT60Seconds", i, v)
		}
	}
}

func TestEstimateRT60ZeroSabinsYieldsMax(t *testing.T) {
	rt60 := EstimateRT60(100, 100, acoustic.Fill(0))
	for i, v := range rt60 {
		if v != acoustic.MaxRT60Seconds {
			t.Fatalf("band %d = %v, want MaxRT60Seconds", i, v)
		}
	}
}

func TestEstimateRT60SwitchesToEyringAboveThreshold(t *testing.T) {
	// mean alpha = sabins/S; push it above EyringThreshold.
	lowAlpha := EstimateRT60(200, 100, acoustic.Fill(10))  // alpha 0.1, Sabine
	highAlpha := EstimateRT60(200, 100, acoustic.Fill(50)) // alpha 0.5, Eyring
	for i := range lowAlpha {
		if lowAlpha[i] <= 0 || highAlpha[i] <= 0 {
			t.Fatalf("band %d: expected positive RT60s, got %v and %v", i, lowAlpha[i], highAlpha[i])
		}
	}
	eyring := acoustic.SabineConstant * 200 / (-100 * math.Log(1-0.5))
	for i, v := range highAlpha {
		if math.Abs(v-eyring) > 1e-9 {
			t.Fatalf("band %d: alpha 0.5 RT60 = %v, want Eyring %v", i, v, eyring)
		}
	}
}

func TestOcclusionFromDBEndpoints(t *testing.T) {
	if got := OcclusionFromDB(0); got != 0 {
		t.Fatalf("0dB occlusion = %v, want 0", got)
	}
	if got := OcclusionFromDB(-60); got != 1 {
		t.Fatalf("-60dB occlusion = %v, want 1", got)
	}
	if got := OcclusionFromDB(-120); got != 1 {
		t.Fatalf("-120dB occlusion = %v, want 1 (saturates)", got)
	}
}

func TestAccumulatorOrderInvariant(t *testing.T) {
	hitA := acoustic.Fill(-6)
	hitB := acoustic.Fill(-12)

	accA := NewAccumulator()
	accB := NewAccumulator()
	accA.AccumulateDB(hitA)
	accA.AccumulateDB(hitB)
	accB.AccumulateDB(hitB)
	accB.AccumulateDB(hitA)

	r1 := accA.Result()
	r2 := accB.Result()
	for i := range r1 {
		if math.Abs(r1[i]-r2[i]) > 1e-12 {
			t.Fatalf("band %d order-dependent result: %v vs %v", i, r1[i], r2[i])
		}
	}
}

func TestAccumulatorSingleSurfaceMatchesDirectConversion(t *testing.T) {
	loss := acoustic.Fill(-20)
	acc := NewAccumulator()
	acc.AccumulateDB(loss)
	result := acc.Result()
	want := OcclusionFromDB(-20)
	for i, v := range result {
		if math.Abs(v-want) > 1e-12 {
			t.Fatalf("band %d = %v, want %v", i, v, want)
		}
	}
}

func TestWetGainZeroDistanceIsZero(t *testing.T) {
	if got := WetGain(0, 100, 1); got != 0 {
		t.Fatalf("WetGain at distance 0 = %v, want 0", got)
	}
}

func TestWetGainApproachesOneFarField(t *testing.T) {
	g := WetGain(10000, 100, 0.5)
	if g < 0.99 {
		t.Fatalf("far-field wet gain = %v, want near 1", g)
	}
}

func TestBuildFingerprintNoPortalsDefaultsFullTransmission(t *testing.T) {
	room := acoustic.NewRoom(1, 200, 120, acoustic.Fill(20), 1)
	proxy, err := rayproxy.NewProxy(nil)
	if err != nil {
		t.Fatal(err)
	}
	fp := BuildFingerprint(room, proxy, nil, nil)
	for i, v := range fp.PortalTransmission {
		if v != 1 {
			t.Fatalf("band %d portal transmission = %v, want 1 (no portals)", i, v)
		}
	}
	if fp.MeanFreePathM != 4*200.0/120.0 {
		t.Fatalf("scalar MFP = %v, want %v", fp.MeanFreePathM, 4*200.0/120.0)
	}
}

func TestBuildFingerprintFloorsDegenerateRoom(t *testing.T) {
	room := acoustic.NewRoom(1, 0, 0, acoustic.Fill(0), 1)
	fp := BuildFingerprint(room, nil, nil, nil)
	if fp.MeanFreePathM != 4 {
		t.Fatalf("degenerate scalar MFP = %v, want 4 (4*1/1)", fp.MeanFreePathM)
	}
}

type fakeMaterials struct {
	m map[acoustic.MaterialID]acoustic.Material
}

func (f fakeMaterials) Material(id acoustic.MaterialID) (acoustic.Material, bool) {
	mat, ok := f.m[id]
	return mat, ok
}

func TestBuildFingerprintUsesDominantMaterialScattering(t *testing.T) {
	mat := acoustic.NewMaterial(7, acoustic.Fill(0.1), acoustic.Fill(0.5), acoustic.Fill(0))
	materials := fakeMaterials{m: map[acoustic.MaterialID]acoustic.Material{7: mat}}
	room := acoustic.NewRoom(1, 200, 100, acoustic.Fill(20), 7)
	fp := BuildFingerprint(room, nil, materials, nil)
	scalarMFP := 4 * 200.0 / 100.0
	want := scalarMFP * 0.5
	for i, v := range fp.PerBandMeanFreePathM {
		if math.Abs(v-want) > 1e-9 {
			t.Fatalf("band %d MFP = %v, want %v", i, v, want)
		}
	}
}

func TestBlendFingerprintsEndpoints(t *testing.T) {
	a := acoustic.NewFingerprint(1, 100, 80, 5, acoustic.Fill(5), 10, acoustic.Fill(1), acoustic.Fill(1))
	b := acoustic.NewFingerprint(2, 400, 320, 20, acoustic.Fill(20), 40, acoustic.Fill(2), acoustic.Fill(0.5))

	at0 := BlendFingerprints(a, b, 0)
	if at0.RoomID != a.RoomID || math.Abs(at0.VolumeM3-a.VolumeM3) > 1e-6 {
		t.Fatalf("blend at t=0 != a: %+v", at0)
	}
	at1 := BlendFingerprints(a, b, 1)
	if at1.RoomID != b.RoomID || math.Abs(at1.VolumeM3-b.VolumeM3) > 1e-6 {
		t.Fatalf("blend at t=1 != b: %+v", at1)
	}
}

func TestBlendFingerprintsRoomIDSnapAtHalf(t *testing.T) {
	a := acoustic.NewFingerprint(1, 100, 80, 5, acoustic.Fill(5), 10, acoustic.Fill(1), acoustic.Fill(1))
	b := acoustic.NewFingerprint(2, 400, 320, 20, acoustic.Fill(20), 40, acoustic.Fill(2), acoustic.Fill(0.5))
	mid := BlendFingerprints(a, b, 0.5)
	if mid.RoomID != a.RoomID {
		t.Fatalf("room id at t=0.5 = %v, want a's id %v (a-side tiebreak)", mid.RoomID, a.RoomID)
	}
}

func TestBlendFingerprintsLogVolumeBlendIsNotLinearMidpoint(t *testing.T) {
	a := acoustic.NewFingerprint(1, 10, 10, 1, acoustic.Fill(1), 1, acoustic.Fill(1), acoustic.Fill(1))
	b := acoustic.NewFingerprint(2, 1000, 10, 1, acoustic.Fill(1), 1, acoustic.Fill(1), acoustic.Fill(1))
	mid := BlendFingerprints(a, b, 0.5)
	linearMid := (10.0 + 1000.0) / 2
	if math.Abs(mid.VolumeM3-linearMid) < 1 {
		t.Fatalf("expected log-space blend to diverge from linear midpoint, got %v", mid.VolumeM3)
	}
	// log space: sqrt(10*1000) = 100
	want := math.Sqrt(10.0 * 1000.0)
	if math.Abs(mid.VolumeM3-want) > 1e-6 {
		t.Fatalf("log blend volume = %v, want %v", mid.VolumeM3, want)
	}
}

func TestBlendFingerprintsAEqualsBIsIdentity(t *testing.T) {
	a := acoustic.NewFingerprint(1, 150, 90, 7, acoustic.Fill(7), 12, acoustic.Fill(1.5), acoustic.Fill(0.8))
	for _, tt := range []float64{0, 0.25, 0.5, 0.75, 1} {
		got := BlendFingerprints(a, a, tt)
		if math.Abs(got.VolumeM3-a.VolumeM3) > 1e-9 || math.Abs(got.MeanFreePathM-a.MeanFreePathM) > 1e-9 {
			t.Fatalf("a==b blend at t=%v changed value: %+v", tt, got)
		}
	}
}

func TestFramesRequiredCoversWholeOutput(t *testing.T) {
	need := FramesRequired(100, 2.0)
	in := make([]float32, need)
	for i := range in {
		in[i] = float32(i)
	}
	out := make([]float32, 100)
	LinearResample(in, out, 2.0)
}

func TestResamplerStreamingMatchesOneShot(t *testing.T) {
	const n = 64
	in := make([]float32, n)
	for i := range in {
		in[i] = float32(i)
	}
	ratio := 1.5
	outLen := int(float64(n) / ratio)

	oneShot := make([]float32, outLen)
	LinearResample(in, oneShot, ratio)

	r := NewResampler(ratio)
	streamed := make([]float32, outLen)
	chunk := 8
	produced := 0
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		want := int(float64(end)/ratio) - produced
		if want <= 0 {
			continue
		}
		if produced+want > outLen {
			want = outLen - produced
		}
		r.Process(in[start:end], streamed[produced:produced+want])
		produced += want
	}
	if produced < outLen-2 {
		t.Fatalf("streaming resampler under-produced: got %d of %d", produced, outLen)
	}
	for i := 0; i < produced; i++ {
		if math.Abs(float64(streamed[i]-oneShot[i])) > 1e-5 {
			t.Fatalf("streamed[%d] = %v, one-shot = %v", i, streamed[i], oneShot[i])
		}
	}
}
