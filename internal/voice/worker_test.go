package voice

import (
	"testing"

	"dynamisaudio/acoustic"
)

type fakeReader struct {
	room     acoustic.Room
	hasRoom  bool
	material acoustic.Material
	hasMat   bool
	hitDist  float64
	hit      bool
}

func (r fakeReader) Room(id acoustic.RoomID) (acoustic.Room, bool) { return r.room, r.hasRoom }
func (r fakeReader) Material(id acoustic.MaterialID) (acoustic.Material, bool) {
	return r.material, r.hasMat
}
func (r fakeReader) TraceRay(origin, dir acoustic.Vec3, maxDistance float64, out *acoustic.AcousticHit) {
	out.Reset()
	if r.hit {
		out.Hit = true
		out.Distance = r.hitDist
		out.MaterialID = r.material.ID()
	}
}
func (r fakeReader) TraceRayMulti(origin, dir acoustic.Vec3, maxDistance float64, out *acoustic.AcousticHitBuffer) int {
	out.Reset()
	return 0
}

func TestWorkerTickPublishesOcclusionFromHitMaterial(t *testing.T) {
	mat := acoustic.NewMaterial(1, acoustic.Fill(0.1), acoustic.Fill(0.1), acoustic.Fill(-20))
	reader := fakeReader{material: mat, hasMat: true, hit: true, hitDist: 5}

	e := NewEmitter(1, ImportanceNormal)
	e.SetSnapshotReader(reader)
	e.SetListenerPose(10, 0, 0)
	back := e.BackParams()
	back.PositionX, back.PositionY, back.PositionZ = 0, 0, 0
	back.MasterGain = 1
	e.PublishParams(back)

	w := NewWorker(e)
	w.tick()

	got := e.AcquireParams().OcclusionPerBand
	want := 1 - 0.1 // 1 - 10^(-20/20) = 1-0.1 = 0.9
	for i, v := range got {
		if diff := v - want; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("band %d occlusion = %v, want %v", i, v, want)
		}
	}
}

func TestWorkerTickNoReaderLeavesZeroOcclusion(t *testing.T) {
	e := NewEmitter(1, ImportanceNormal)
	w := NewWorker(e)
	w.tick()
	got := e.AcquireParams().OcclusionPerBand
	for i, v := range got {
		if v != 0 {
			t.Fatalf("band %d occlusion = %v, want 0 with no snapshot reader", i, v)
		}
	}
}

func TestWorkerStartStopDoesNotHang(t *testing.T) {
	e := NewEmitter(1, ImportanceNormal)
	e.setState(StateVirtual)
	w := NewWorker(e)
	w.Start()
	w.Stop()
}
