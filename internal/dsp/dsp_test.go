package dsp

import (
	"math"
	"testing"

	"dynamisaudio/acoustic"
	"dynamisaudio/api"
)

func allFinite(t *testing.T, buf []float32) {
	t.Helper()
	for i, v := range buf {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("index %d is not finite: %v", i, v)
		}
	}
}

func randomish(n int) []float32 {
	buf := make([]float32, n)
	for i := range buf {
		buf[i] = float32(math.Sin(float64(i) * 0.37))
	}
	return buf
}

func TestGainProducesFiniteOutput(t *testing.T) {
	g := NewGain("gain")
	g.Prepare(256, 2)
	g.TargetGain = 0.5
	in := randomish(512)
	out := make([]float32, 512)
	g.Process(in, out, 256, 2)
	allFinite(t, out)
}

func TestGainBypassStillScalesByCurrentGain(t *testing.T) {
	g := NewGain("gain")
	g.Prepare(64, 1)
	g.SetBypass(true)
	g.SetGain(2.0)
	in := []float32{0.1, 0.2, 0.3}
	out := make([]float32, 3)
	g.Process(in, out, 3, 1)
	for i := range out {
		want := in[i] * 2.0
		if math.Abs(float64(out[i]-want)) > 1e-5 {
			t.Fatalf("index %d = %v, want %v", i, out[i], want)
		}
	}
}

func TestEQProducesFiniteOutput(t *testing.T) {
	eq := NewEQ("eq")
	eq.Prepare(256, 2)
	for b := 0; b < acoustic.NumBands; b++ {
		eq.SetBandGainDB(b, 6)
	}
	in := randomish(512)
	out := make([]float32, 512)
	eq.Process(in, out, 256, 2)
	allFinite(t, out)
}

func TestEQSkipsInaudibleBands(t *testing.T) {
	eq := NewEQ("eq")
	eq.Prepare(64, 1)
	eq.SetBandGainDB(0, 0.001)
	if eq.active[0] {
		t.Fatal("band with |gain| < 0.01dB should be inactive")
	}
}

func TestEQOcclusionHelperMapsToCutDB(t *testing.T) {
	occ := acoustic.Fill(1)
	gains := OcclusionToBandGainsDB(occ)
	for i, g := range gains {
		if g != MaxOcclusionCutDB {
			t.Fatalf("band %d gain = %v, want %v at full occlusion", i, g, MaxOcclusionCutDB)
		}
	}
}

func TestCompressorReducesLoudSignal(t *testing.T) {
	c := NewCompressor("comp")
	c.Prepare(256, 1)
	c.ThresholdDB = -10
	c.Ratio = 4
	c.AttackMS = 1
	c.ReleaseMS = 50

	in := make([]float32, 4800) // 100ms @ 48kHz
	for i := range in {
		in[i] = float32(math.Sin(float64(i)*0.3)) * 0.9
	}
	out := make([]float32, len(in))
	c.Process(in, out, len(in), 1)
	allFinite(t, out)
	if c.GainReductionDB() <= 0 {
		t.Fatalf("expected positive gain reduction for loud signal, got %v", c.GainReductionDB())
	}
}

func TestReverbSendScalesAndClamps(t *testing.T) {
	rs := NewReverbSend("send")
	rs.Prepare(64, 1)
	rs.SendLevel = 1.5 // out of range, should clamp to 1.0
	in := []float32{1, -1, 0.5}
	out := make([]float32, 3)
	rs.Process(in, out, 3, 1)
	for i := range out {
		if math.Abs(float64(out[i]-in[i])) > 1e-6 {
			t.Fatalf("index %d = %v, want %v (send clamped to 1.0)", i, out[i], in[i])
		}
	}
}

func TestEarlyReflectionsClearTapsZeroesContribution(t *testing.T) {
	er := NewEarlyReflections("er")
	er.Prepare(256, 1)
	er.SetTaps([]api.ReflectionTap{{DistanceM: 5, Gain: 0.5, DelaySamples: 100}})
	er.ClearTaps()

	in := make([]float32, 256)
	in[0] = 1
	out := make([]float32, 256)
	er.Process(in, out, 256, 1)
	if out[0] != 1 {
		t.Fatalf("direct sample should pass through unchanged: got %v", out[0])
	}
}

func TestEarlyReflectionsAddsDelayedTap(t *testing.T) {
	er := NewEarlyReflections("er")
	er.Prepare(1024, 1)
	er.SetTaps([]api.ReflectionTap{{DistanceM: 1, Gain: 1.0, DelaySamples: 100}})

	in := make([]float32, 1024)
	in[0] = 1.0
	out := make([]float32, 1024)
	er.Process(in, out, 1024, 1)
	allFinite(t, out)
	if out[100] < 0.99 {
		t.Fatalf("expected delayed tap contribution at sample 100, got %v", out[100])
	}
}

func TestSchroederReverbProducesFiniteOutput(t *testing.T) {
	r := NewSchroederReverb("reverb")
	r.Prepare(256, 2)
	in := randomish(512)
	out := make([]float32, 512)
	r.Process(in, out, 256, 2)
	allFinite(t, out)
}

func TestFingerprintReverbConvergesToTargetRT60(t *testing.T) {
	fr := NewFingerprintReverb("reverb")
	fr.Prepare(256, 1)
	fp := acoustic.NewFingerprint(1, 500, 200, 10, acoustic.Fill(10), 5, acoustic.Fill(3.0), acoustic.Fill(1))

	in := make([]float32, 256)
	out := make([]float32, 256)
	for i := 0; i < 250; i++ {
		fr.ApplyFingerprint(fp)
		fr.Process(in, out, 256, 1)
	}
	if math.Abs(fr.RT60Seconds-3.0) > 0.05 {
		t.Fatalf("RT60 did not converge: got %v, want ~3.0", fr.RT60Seconds)
	}
	allFinite(t, out)
}
