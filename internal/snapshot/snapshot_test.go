package snapshot

import (
	"testing"

	"dynamisaudio/acoustic"
)

func TestVersionStrictlyMonotonic(t *testing.T) {
	m := NewManager()
	var last uint64
	for i := 0; i < 5; i++ {
		m.Publish(int64(i))
		v := m.Acquire().Version
		if v <= last {
			t.Fatalf("version not strictly increasing: %d then %d", last, v)
		}
		last = v
	}
}

func TestPublishFlipsFrontToBackMutations(t *testing.T) {
	m := NewManager()
	mat := acoustic.NewMaterial(1, acoustic.Fill(0.5), acoustic.Fill(0.1), acoustic.Fill(-3))
	m.Back().PutMaterial(mat)
	if _, ok := m.Acquire().Material(1); ok {
		t.Fatal("mutation visible on front before publish")
	}
	m.Publish(1000)
	if _, ok := m.Acquire().Material(1); !ok {
		t.Fatal("mutation not visible on front after publish")
	}
}

func TestPublishCarriesStateForwardAcrossBuffers(t *testing.T) {
	m := NewManager()
	mat := acoustic.NewMaterial(1, acoustic.Fill(0.5), acoustic.Fill(0.1), acoustic.Fill(-3))
	m.Back().PutMaterial(mat)
	m.Publish(1)

	// A second, unrelated mutation + publish must not lose the first one.
	room := acoustic.NewRoom(1, 100, 80, acoustic.Fill(10), 1)
	m.Back().PutRoom(room)
	m.Publish(2)

	front := m.Acquire()
	if _, ok := front.Material(1); !ok {
		t.Fatal("earlier published material lost across second publish")
	}
	if _, ok := front.Room(1); !ok {
		t.Fatal("room not visible after its publish")
	}
}

func TestPortalApertureFallthrough(t *testing.T) {
	s := newSnapshot()
	// Unknown portal -> 1.0.
	if got := s.PortalAperture(99); got != 1.0 {
		t.Fatalf("unknown portal aperture = %v, want 1.0", got)
	}
	// Known portal, no override -> definition aperture.
	p := acoustic.NewPortal(5, 1, 2, 0.6, acoustic.Fill(0))
	s.PutPortal(p)
	if got := s.PortalAperture(5); got != 0.6 {
		t.Fatalf("definition aperture = %v, want 0.6", got)
	}
	// Override present -> override wins.
	s.SetPortalAperture(5, 0.2)
	if got := s.PortalAperture(5); got != 0.2 {
		t.Fatalf("override aperture = %v, want 0.2", got)
	}
	// Clearing overrides falls back to definition.
	s.ClearPortalApertureOverrides()
	if got := s.PortalAperture(5); got != 0.6 {
		t.Fatalf("post-clear aperture = %v, want 0.6 (definition)", got)
	}
}

func TestRemovePortalClearsOverride(t *testing.T) {
	s := newSnapshot()
	p := acoustic.NewPortal(5, 1, 2, 0.6, acoustic.Fill(0))
	s.PutPortal(p)
	s.SetPortalAperture(5, 0.1)
	s.RemovePortal(5)
	if got := s.PortalAperture(5); got != 1.0 {
		t.Fatalf("aperture after remove = %v, want 1.0 default", got)
	}
}

func TestTraceRayMissesWithoutBackend(t *testing.T) {
	s := newSnapshot()
	var hit acoustic.AcousticHit
	s.TraceRay(acoustic.Vec3{}, acoustic.Vec3{Z: 1}, 10, &hit)
	if hit.Hit {
		t.Fatal("expected miss with no backend installed")
	}
}

func TestClearRemovesEverything(t *testing.T) {
	s := newSnapshot()
	s.PutMaterial(acoustic.NewMaterial(1, acoustic.Fill(0.1), acoustic.Fill(0.1), acoustic.Fill(0)))
	s.PutRoom(acoustic.NewRoom(1, 10, 10, acoustic.Fill(1), 1))
	s.PutPortal(acoustic.NewPortal(1, 1, 2, 1, acoustic.Fill(0)))
	s.SetPortalAperture(1, 0.5)
	s.Clear()
	if _, ok := s.Material(1); ok {
		t.Fatal("material survived Clear")
	}
	if _, ok := s.Room(1); ok {
		t.Fatal("room survived Clear")
	}
	if _, ok := s.Portal(1); ok {
		t.Fatal("portal survived Clear")
	}
	if got := s.PortalAperture(1); got != 1.0 {
		t.Fatalf("override survived Clear: aperture=%v", got)
	}
}
