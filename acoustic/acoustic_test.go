package acoustic

import "testing"

func TestBandsLerpEndpoints(t *testing.T) {
	a := Fill(1)
	b := Fill(5)
	if got := Lerp(a, b, 0); got != a {
		t.Fatalf("t=0: got %v want %v", got, a)
	}
	if got := Lerp(a, b, 1); got != b {
		t.Fatalf("t=1: got %v want %v", got, b)
	}
	mid := Lerp(a, b, 0.5)
	for i, v := range mid {
		if v != 3 {
			t.Fatalf("band %d: got %v want 3", i, v)
		}
	}
}

func TestBandsClamp(t *testing.T) {
	b := Bands{-1, 0.5, 2, 0, 1, -5, 10, 0.9}
	c := b.Clamp(0, 1)
	want := Bands{0, 0.5, 1, 0, 1, 0, 1, 0.9}
	if c != want {
		t.Fatalf("got %v want %v", c, want)
	}
}

func TestMaterialClampsCoefficients(t *testing.T) {
	m := NewMaterial(1, Fill(1.5), Fill(-0.2), Fill(3))
	for _, v := range m.Absorption() {
		if v != 1 {
			t.Fatalf("absorption not clamped: %v", m.Absorption())
		}
	}
	for _, v := range m.Scattering() {
		if v != 0 {
			t.Fatalf("scattering not clamped: %v", m.Scattering())
		}
	}
	for _, v := range m.TransmissionLossDB() {
		if v != 0 {
			t.Fatalf("transmission loss not clamped to <=0: %v", m.TransmissionLossDB())
		}
	}
}

func TestPortalApertureClamped(t *testing.T) {
	p := NewPortal(1, 1, 2, 1.5, Fill(-6))
	if p.Aperture() != 1 {
		t.Fatalf("aperture not clamped: %v", p.Aperture())
	}
	p2 := NewPortal(1, 1, 2, -0.3, Fill(-6))
	if p2.Aperture() != 0 {
		t.Fatalf("aperture not clamped: %v", p2.Aperture())
	}
}

func TestAcousticHitReset(t *testing.T) {
	h := AcousticHit{Hit: true, Distance: 5, PortalAperture: 0.3}
	h.Reset()
	if h.Hit || h.Distance != 0 || h.PortalAperture != 1.0 {
		t.Fatalf("reset did not produce miss state with default aperture: %+v", h)
	}
}

func TestAcousticHitBufferNearestFirstAndCapacity(t *testing.T) {
	b := NewAcousticHitBuffer(3)
	b.Insert(AcousticHit{Distance: 5})
	b.Insert(AcousticHit{Distance: 1})
	b.Insert(AcousticHit{Distance: 3})
	b.Insert(AcousticHit{Distance: 10}) // should be dropped, farther than all 3
	b.Insert(AcousticHit{Distance: 2})  // should evict the 5

	hits := b.Hits()
	if len(hits) != 3 {
		t.Fatalf("expected 3 active hits, got %d", len(hits))
	}
	wantDist := []float64{1, 2, 3}
	for i, h := range hits {
		if h.Distance != wantDist[i] {
			t.Fatalf("hits[%d].Distance = %v, want %v (hits=%v)", i, h.Distance, wantDist[i], hits)
		}
	}
}

func TestAcousticHitBufferReset(t *testing.T) {
	b := NewAcousticHitBuffer(2)
	b.Insert(AcousticHit{Distance: 1})
	b.Reset()
	if b.Active() != 0 {
		t.Fatalf("active count not reset: %d", b.Active())
	}
}

func TestFingerprintFreezeNonNegative(t *testing.T) {
	s := BlendScratch{VolumeM3: -5, SurfaceAreaM2: -1, MeanFreePathM: -2}
	fp := s.Freeze()
	if fp.VolumeM3 != 0 || fp.SurfaceAreaM2 != 0 || fp.MeanFreePathM != 0 {
		t.Fatalf("negative magnitudes not clamped: %+v", fp)
	}
}
