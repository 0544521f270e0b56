package audio

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

// recordingSink remembers every call and can fail on demand.
type recordingSink struct {
	loads   []string
	plays   []string
	closed  int
	loadErr map[string]error
	playErr error
}

func (s *recordingSink) Load(name string) error {
	s.loads = append(s.loads, name)
	return s.loadErr[name]
}

func (s *recordingSink) Play(name string) error {
	s.plays = append(s.plays, name)
	return s.playErr
}

func (s *recordingSink) Close() error {
	s.closed++
	return nil
}

func quiet() *log.Logger {
	return log.New(io.Discard)
}

func TestRegistryLoadAndPlay(t *testing.T) {
	sink := &recordingSink{}
	r := NewRegistry(sink, quiet())

	if err := r.LoadAll(AllCues...); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	// Loading twice does not reload
	r.LoadAll(Wing)
	if len(sink.loads) != len(AllCues) {
		t.Errorf("sink loads = %v, want each cue once", sink.loads)
	}

	r.Play(Wing)
	r.Play(Point)
	r.Play("unknown")
	if want := []string{Wing, Point}; len(sink.plays) != 2 || sink.plays[0] != want[0] || sink.plays[1] != want[1] {
		t.Errorf("plays = %v, want %v", sink.plays, want)
	}
}

func TestRegistrySkipsFailedCues(t *testing.T) {
	sink := &recordingSink{loadErr: map[string]error{Die: errors.New("missing sample")}}
	r := NewRegistry(sink, quiet())

	if err := r.LoadAll(Hit, Die); err == nil {
		t.Error("LoadAll should report the failed cue")
	}
	if !r.loaded[Hit] || r.loaded[Die] {
		t.Errorf("Loaded(hit)=%v Loaded(die)=%v, want true/false", r.loaded[Hit], r.loaded[Die])
	}

	r.Play(Die)
	if len(sink.plays) != 0 {
		t.Errorf("failed cue should not play, got %v", sink.plays)
	}
}

func TestRegistrySwallowsPlayErrors(t *testing.T) {
	sink := &recordingSink{playErr: errors.New("device busy")}
	r := NewRegistry(sink, quiet())
	r.LoadAll(Hit)

	// Must not panic or surface anything
	r.Play(Hit)
	if len(sink.plays) != 1 {
		t.Errorf("plays = %v", sink.plays)
	}
}

func TestRegistryCloseReleases(t *testing.T) {
	sink := &recordingSink{}
	r := NewRegistry(sink, quiet())
	r.LoadAll(AllCues...)

	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	r.Close()
	if sink.closed != 1 {
		t.Errorf("sink closed %d times, want 1", sink.closed)
	}

	r.Play(Wing)
	r.LoadAll(Wing)
	if len(sink.plays) != 0 || r.loaded[Wing] {
		t.Error("closed registry must not play or load")
	}
}

func TestRegistryNilSink(t *testing.T) {
	r := NewRegistry(nil, quiet())
	if err := r.LoadAll(AllCues...); err != nil {
		t.Errorf("LoadAll with nil sink: %v", err)
	}
	r.Play(Wing)
	if err := r.Close(); err != nil {
		t.Errorf("Close with nil sink: %v", err)
	}
}

// bellWriter blocks every write until release is closed.
type bellWriter struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	release chan struct{}
}

func (w *bellWriter) Write(p []byte) (int, error) {
	if w.release != nil {
		<-w.release
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *bellWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

func TestBellSink(t *testing.T) {
	w := &bellWriter{}
	s := NewBellSink(w, []string{Hit})

	if err := s.Load("trumpet"); !errors.Is(err, ErrUnknownCue) {
		t.Errorf("Load(trumpet) = %v, want ErrUnknownCue", err)
	}
	for _, c := range AllCues {
		if err := s.Load(c); err != nil {
			t.Errorf("Load(%s) = %v", c, err)
		}
	}

	s.Play(Wing)
	s.Play(Hit)
	s.Close()
	<-s.done
	if w.String() != "\a" {
		t.Errorf("output = %q, want a single bell", w.String())
	}

	if err := s.Play(Hit); err != nil {
		t.Errorf("Play after Close = %v, want nil", err)
	}
	s.Close()
}

func TestBellSinkDoesNotBlockOnSlowWriter(t *testing.T) {
	w := &bellWriter{release: make(chan struct{})}
	s := NewBellSink(w, []string{Hit})
	r := NewRegistry(s, quiet())
	r.LoadAll(Hit)

	var dropped int
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for i := 0; i < 20; i++ {
			if err := s.Play(Hit); errors.Is(err, ErrBellDropped) {
				dropped++
			}
			r.Play(Hit)
		}
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Play blocked on a writer that is not reading")
	}
	if dropped == 0 {
		t.Error("rings beyond the queue should be dropped")
	}

	close(w.release)
	r.Close()
	<-s.done
	if n := len(w.String()); n == 0 || n > bellQueue+1 {
		t.Errorf("wrote %d bells, want between 1 and %d", n, bellQueue+1)
	}
}
