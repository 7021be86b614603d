package bus

import (
	"math"
	"testing"

	"dynamisaudio/internal/dsp"
)

func TestSubmitBlockRequiresProcessToConsumeIt(t *testing.T) {
	b := New("sfx")
	b.Prepare(64, 1)
	sig := []float32{1, 1, 1, 1}
	b.SubmitBlock(sig, 4, 1)
	out := b.Process(4, 1)
	for i, v := range out {
		if v != 1 {
			t.Fatalf("out[%d] = %v, want 1", i, v)
		}
	}
	// inlet was cleared; a second Process with no new submit is silent.
	out2 := b.Process(4, 1)
	for i, v := range out2 {
		if v != 0 {
			t.Fatalf("out2[%d] = %v, want 0 (inlet should have been cleared)", i, v)
		}
	}
}

func TestChildBusesSumIntoParent(t *testing.T) {
	master := New("master")
	sfx := New("sfx")
	reverb := New("reverb")
	master.AddChild(sfx)
	master.AddChild(reverb)
	master.Prepare(64, 1)

	sfx.SubmitBlock([]float32{1, 1, 1, 1}, 4, 1)
	reverb.SubmitBlock([]float32{0.5, 0.5, 0.5, 0.5}, 4, 1)

	out := master.Process(4, 1)
	for i, v := range out {
		if math.Abs(float64(v-1.5)) > 1e-6 {
			t.Fatalf("master out[%d] = %v, want 1.5", i, v)
		}
	}
}

func TestBusGainAppliedLast(t *testing.T) {
	b := New("sfx")
	b.SetGain(0.5)
	b.Prepare(64, 1)
	b.SubmitBlock([]float32{2, 2}, 2, 1)
	out := b.Process(2, 1)
	for i, v := range out {
		if math.Abs(float64(v-1.0)) > 1e-6 {
			t.Fatalf("out[%d] = %v, want 1.0 (2 * 0.5 gain)", i, v)
		}
	}
}

func TestAutoPrepareOnAttachToPreparedBus(t *testing.T) {
	master := New("master")
	master.Prepare(64, 2)
	child := New("child")
	master.AddChild(child)
	if !child.Prepared() {
		t.Fatal("expected child to be auto-prepared on attach to a prepared bus")
	}

	g := dsp.NewGain("late_gain")
	master.AddEffect(g)
	// effect.Prepare is a no-op for Gain but must not panic when called
	// post-hoc; Process must still run cleanly.
	master.SubmitBlock([]float32{1, 1}, 1, 2)
	_ = master.Process(1, 2)
}

func TestResetReleasesBuffersAndUnprepares(t *testing.T) {
	b := New("sfx")
	b.Prepare(64, 1)
	b.Reset()
	if b.Prepared() {
		t.Fatal("expected bus to be unprepared after Reset")
	}
}
