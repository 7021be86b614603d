package portaudiosink

import (
	"testing"

	"github.com/gordonklaus/portaudio"
)

type fakeStream struct {
	started, stopped, closed int
	writes                   int
	buf                       []float32
}

func (f *fakeStream) Start() error { f.started++; return nil }
func (f *fakeStream) Stop() error  { f.stopped++; return nil }
func (f *fakeStream) Close() error { f.closed++; return nil }
func (f *fakeStream) Write() error { f.writes++; return nil }

func newTestSink(fs *fakeStream) *Sink {
	s := New()
	s.openStream = func(params portaudio.StreamParameters, buf []float32) (paStream, error) {
		fs.buf = buf
		return fs, nil
	}
	return s
}

func TestWriteCopiesIntoReusableBufferAndPushesStream(t *testing.T) {
	fs := &fakeStream{}
	s := newTestSink(fs)
	s.stream = fs // bypass Open's device resolution, which needs a real device
	s.buf = make([]float32, 8)
	s.open.Store(true)

	interleaved := []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8}
	if err := s.Write(interleaved, 4, 2); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if fs.writes != 1 {
		t.Fatalf("stream.Write calls = %d, want 1", fs.writes)
	}
	for i, v := range interleaved {
		if s.buf[i] != v {
			t.Fatalf("buf[%d] = %v, want %v", i, s.buf[i], v)
		}
	}
}

func TestWriteFailsBeforeOpen(t *testing.T) {
	s := New()
	if err := s.Write(make([]float32, 4), 2, 2); err != ErrNotOpen {
		t.Fatalf("Write before Open = %v, want ErrNotOpen", err)
	}
}

func TestCloseStopsAndClosesStream(t *testing.T) {
	fs := &fakeStream{}
	s := newTestSink(fs)
	s.stream = fs
	s.open.Store(true)

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if fs.stopped != 1 || fs.closed != 1 {
		t.Fatalf("stopped=%d closed=%d, want 1,1", fs.stopped, fs.closed)
	}
	if s.IsOpen() {
		t.Fatal("expected !IsOpen after Close")
	}
}
