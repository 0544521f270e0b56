// Package audio owns the game's sound cues. A Registry is created per
// session controller, loaded once at mount and released at teardown; there
// is no global sample table.
//
// Playback is fire-and-forget: failures are logged and never reach gameplay.
package audio

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
)

// Cue names used by the game.
const (
	Wing      = "wing"      // Jump
	Hit       = "hit"       // Collision
	Point     = "point"     // Pipe passed
	Swooshing = "swooshing" // Screen transition
	Die       = "die"       // Bird falls after a hit
)

// AllCues lists every cue the game plays.
var AllCues = []string{Wing, Hit, Point, Swooshing, Die}

// ErrUnknownCue is returned by sinks asked to load an unsupported cue.
var ErrUnknownCue = errors.New("audio: unknown cue")

// ErrBellDropped is returned by BellSink.Play when rings are backed up.
var ErrBellDropped = errors.New("audio: bell queue full")

// Sink renders cues. Load is called once per cue before any Play.
type Sink interface {
	Load(name string) error
	Play(name string) error
	Close() error
}

// Registry tracks loaded cues and forwards playback to a Sink.
type Registry struct {
	sink   Sink
	logger *log.Logger

	mu     sync.Mutex
	loaded map[string]bool
	closed bool
}

// NewRegistry creates a registry over sink. A nil sink plays nothing.
func NewRegistry(sink Sink, logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{
		sink:   sink,
		logger: logger,
		loaded: make(map[string]bool),
	}
}

// LoadAll loads every named cue. Cues that fail to load are skipped; the
// joined error is returned for logging only.
func (r *Registry) LoadAll(names ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.sink == nil {
		return nil
	}

	var errs []error
	for _, name := range names {
		if r.loaded[name] {
			continue
		}
		if err := r.sink.Load(name); err != nil {
			r.logger.Debug("cue not loaded", "cue", name, "err", err)
			errs = append(errs, fmt.Errorf("audio: load %s: %w", name, err))
			continue
		}
		r.loaded[name] = true
	}
	return errors.Join(errs...)
}

// Play plays a loaded cue. Unknown cues, sink errors and calls after Close
// are ignored.
func (r *Registry) Play(name string) {
	r.mu.Lock()
	sink := r.sink
	ok := !r.closed && sink != nil && r.loaded[name]
	r.mu.Unlock()
	if !ok {
		return
	}
	if err := sink.Play(name); err != nil {
		r.logger.Debug("cue playback failed", "cue", name, "err", err)
	}
}

// Close releases the sink. Later calls to Play do nothing.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.loaded = make(map[string]bool)
	if r.sink == nil {
		return nil
	}
	return r.sink.Close()
}

// bellQueue is how many rings may wait for a slow writer before new ones
// are dropped.
const bellQueue = 4

// BellSink rings the terminal bell for a configured subset of cues and
// accepts the rest silently. Rings are written by a background goroutine,
// so Play never blocks on the writer; rings that do not fit in the queue
// are dropped.
type BellSink struct {
	w     io.Writer
	rings map[string]bool
	queue chan struct{}
	done  chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewBellSink creates a sink writing BEL to w for each cue in bell.
func NewBellSink(w io.Writer, bell []string) *BellSink {
	rings := make(map[string]bool, len(bell))
	for _, name := range bell {
		rings[name] = true
	}
	s := &BellSink{
		w:     w,
		rings: rings,
		queue: make(chan struct{}, bellQueue),
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *BellSink) run() {
	defer close(s.done)
	for range s.queue {
		if s.w == nil {
			continue
		}
		if _, err := io.WriteString(s.w, "\a"); err != nil {
			s.w = nil
		}
	}
}

// Load accepts any of the game's cues.
func (s *BellSink) Load(name string) error {
	for _, c := range AllCues {
		if c == name {
			return nil
		}
	}
	return ErrUnknownCue
}

// Play queues a bell if the cue rings. It returns ErrBellDropped when the
// queue is full.
func (s *BellSink) Play(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.rings[name] {
		return nil
	}
	select {
	case s.queue <- struct{}{}:
		return nil
	default:
		return ErrBellDropped
	}
}

// Close stops the writer goroutine once queued rings are written. It does
// not wait for a blocked writer.
func (s *BellSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	return nil
}
