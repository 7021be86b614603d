package voicechain

import (
	"math"
	"testing"

	"dynamisaudio/acoustic"
	"dynamisaudio/internal/voice"
)

type fakeAsset struct {
	rate, channels int
	total          int64
	pos            int64
	data           []float32 // interleaved
	resetCount     int
}

func (a *fakeAsset) SampleRate() int    { return a.rate }
func (a *fakeAsset) ChannelCount() int  { return a.channels }
func (a *fakeAsset) TotalFrames() int64 { return a.total }
func (a *fakeAsset) IsExhausted() bool  { return a.pos >= int64(len(a.data)/a.channels) }
func (a *fakeAsset) Reset() error       { a.pos = 0; a.resetCount++; return nil }
func (a *fakeAsset) ReadFrames(out []float32, frames int) int {
	available := int64(len(a.data)/a.channels) - a.pos
	n := int64(frames)
	if n > available {
		n = available
	}
	if n <= 0 {
		return 0
	}
	copy(out[:n*int64(a.channels)], a.data[a.pos*int64(a.channels):(a.pos+n)*int64(a.channels)])
	a.pos += n
	return int(n)
}

func TestVoiceNodeRenderBlockProducesFiniteDryAndReverb(t *testing.T) {
	v := newVoiceNode(256, 1)
	asset := &fakeAsset{rate: acoustic.SampleRate, channels: 1, total: 1000, data: make([]float32, 1000)}
	for i := range asset.data {
		asset.data[i] = float32(math.Sin(float64(i) * 0.1))
	}
	v.SetAsset(asset, false)
	v.gain.TargetGain = 1.0
	v.send.SendLevel = 0.5

	dry, reverb := v.RenderBlock(128)
	for i, s := range dry {
		if math.IsNaN(float64(s)) || math.IsInf(float64(s), 0) {
			t.Fatalf("dry[%d] not finite: %v", i, s)
		}
	}
	for i, s := range reverb {
		if math.IsNaN(float64(s)) || math.IsInf(float64(s), 0) {
			t.Fatalf("reverb[%d] not finite: %v", i, s)
		}
	}
}

func TestVoiceNodeOneShotMarksCompletionOnExhaustion(t *testing.T) {
	v := newVoiceNode(256, 1)
	asset := &fakeAsset{rate: acoustic.SampleRate, channels: 1, total: 10, data: make([]float32, 10)}
	v.SetAsset(asset, false)

	v.RenderBlock(128) // asset has only 10 frames, block wants 128
	if !v.CompletionPending() {
		t.Fatal("expected completion pending after one-shot asset exhausted")
	}
}

func TestVoiceNodeLoopingResetsOnExhaustion(t *testing.T) {
	v := newVoiceNode(256, 1)
	asset := &fakeAsset{rate: acoustic.SampleRate, channels: 1, total: 10, data: make([]float32, 10)}
	v.SetAsset(asset, true)

	v.RenderBlock(128)
	if v.CompletionPending() {
		t.Fatal("looping asset should never mark completion")
	}
	if asset.resetCount == 0 {
		t.Fatal("expected looping asset to be reset at least once")
	}
}

func TestVoiceNodeClearAssetStopsReads(t *testing.T) {
	v := newVoiceNode(64, 1)
	asset := &fakeAsset{rate: acoustic.SampleRate, channels: 1, total: 10, data: []float32{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}}
	v.SetAsset(asset, false)
	v.ClearAsset()

	dry, _ := v.RenderBlock(16)
	for i, s := range dry {
		if s != 0 {
			t.Fatalf("expected silence after ClearAsset, got dry[%d]=%v", i, s)
		}
	}
}

func TestVoiceNodeWrapsNonNativeSampleRate(t *testing.T) {
	v := newVoiceNode(256, 1)
	asset := &fakeAsset{rate: 24000, channels: 1, total: 1000, data: make([]float32, 1000)}
	for i := range asset.data {
		asset.data[i] = 1
	}
	v.SetAsset(asset, false)
	if v.asset.SampleRate() != acoustic.SampleRate {
		t.Fatalf("expected wrapped asset to report %d Hz, got %d", acoustic.SampleRate, v.asset.SampleRate())
	}
	dry, _ := v.RenderBlock(128)
	nonZero := false
	for _, s := range dry {
		if s != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Fatal("expected resampled signal to carry through non-zero samples")
	}
}

func TestPoolBindReleaseFreeBitmap(t *testing.T) {
	p := NewPool(2, 64, 1, nil)
	s1, ok := p.Bind(1)
	if !ok {
		t.Fatal("expected bind to succeed")
	}
	s2, ok := p.Bind(2)
	if !ok {
		t.Fatal("expected second bind to succeed")
	}
	if s1 == s2 {
		t.Fatal("expected distinct slots")
	}
	if _, ok := p.Bind(3); ok {
		t.Fatal("expected pool exhaustion on third bind")
	}
	p.Release(s1)
	if _, ok := p.Bind(4); !ok {
		t.Fatal("expected bind to succeed after release")
	}
}

func TestPoolBindWiresReflectionSink(t *testing.T) {
	e := voice.NewEmitter(voice.ID(7), voice.ImportanceNormal)
	lookup := func(id voice.ID) (*voice.Emitter, bool) {
		if id == voice.ID(7) {
			return e, true
		}
		return nil, false
	}
	p := NewPool(1, 64, 1, lookup)
	slot, ok := p.Bind(7)
	if !ok {
		t.Fatal("expected bind to succeed")
	}
	if e.ReflectionSink() == nil {
		t.Fatal("expected reflection sink to be wired on bind")
	}
	p.Release(slot)
	if e.ReflectionSink() != nil {
		t.Fatal("expected reflection sink to be cleared on release")
	}
}

func TestVoiceNodeUpdateFromEmitterAppliesParams(t *testing.T) {
	e := voice.NewEmitter(voice.ID(1), voice.ImportanceNormal)
	params := e.BackParams()
	params.MasterGain = 0.25
	params.ReverbWetGain = 0.75
	params.OcclusionPerBand = acoustic.Fill(1)
	e.PublishParams(params)

	v := newVoiceNode(64, 1)
	v.emitter = e
	v.UpdateFromEmitter(nil)

	if v.gain.TargetGain != 0.25 {
		t.Fatalf("gain.TargetGain = %v, want 0.25", v.gain.TargetGain)
	}
	if v.send.SendLevel != 0.75 {
		t.Fatalf("send.SendLevel = %v, want 0.75", v.send.SendLevel)
	}
}
