package show

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeOnsets struct {
	onsets    map[string][]float64
	durations map[string]time.Duration
}

func (f *fakeOnsets) Onsets(ctx context.Context, file string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.onsets[file], nil
}

func (f *fakeOnsets) Duration(ctx context.Context, file string) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	d, ok := f.durations[file]
	if !ok {
		return 0, errors.New("unknown file " + file)
	}
	return d, nil
}

// fakePlayer completes each file after its duration unless stopped.
type fakePlayer struct {
	durations map[string]time.Duration
	failing   map[string]bool

	mu     sync.Mutex
	played []string
	stops  atomic.Int32
}

func (p *fakePlayer) Play(file string) (Playback, error) {
	if p.failing[file] {
		return nil, errors.New("audio device busy")
	}
	p.mu.Lock()
	p.played = append(p.played, file)
	p.mu.Unlock()

	pb := &fakePlayback{player: p, done: make(chan struct{})}
	pb.timer = time.AfterFunc(p.durations[file], pb.finish)
	return pb, nil
}

func (p *fakePlayer) Played() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.played)
}

type fakePlayback struct {
	player *fakePlayer
	timer  *time.Timer
	once   sync.Once
	done   chan struct{}
}

func (pb *fakePlayback) finish() {
	pb.once.Do(func() { close(pb.done) })
}

func (pb *fakePlayback) Stop() {
	pb.timer.Stop()
	pb.once.Do(func() {
		pb.player.stops.Add(1)
		close(pb.done)
	})
}

func (pb *fakePlayback) Done() <-chan struct{} {
	return pb.done
}

// fakeStrip records the color of every region written before a Show.
type fakeStrip struct {
	n int

	mu       sync.Mutex
	pixels   []Color
	flashed  []Color
	closed   bool
	lateUse  int
	blackout bool
}

func newFakeStrip(n int) *fakeStrip {
	return &fakeStrip{n: n, pixels: make([]Color, n)}
}

func (s *fakeStrip) Len() int { return s.n }

func (s *fakeStrip) Fill(c Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.lateUse++
	}
	for i := range s.pixels {
		s.pixels[i] = c
	}
}

func (s *fakeStrip) SetRegion(r Region, c Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.lateUse++
	}
	for i := r.Start; i < r.End; i++ {
		s.pixels[i] = c
	}
}

func (s *fakeStrip) Show() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.lateUse++
	}
	for _, p := range s.pixels {
		if p != White && p != Black {
			s.flashed = append(s.flashed, p)
			return nil
		}
	}
	if len(s.pixels) > 0 && s.pixels[0] == Black {
		s.blackout = true
	}
	return nil
}

func (s *fakeStrip) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeStrip) Flashed() []Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.flashed)
}

// stripRecorder hands out a fresh fakeStrip per song and remembers them.
type stripRecorder struct {
	mu     sync.Mutex
	strips []*fakeStrip
	err    error
}

func (r *stripRecorder) Open(ctx context.Context) (Strip, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, prev := range r.strips {
		prev.mu.Lock()
		open := !prev.closed
		prev.mu.Unlock()
		if open {
			return nil, errors.New("strip still held by previous song")
		}
	}
	s := newFakeStrip(64)
	r.strips = append(r.strips, s)
	return s, nil
}

func (r *stripRecorder) Strips() []*fakeStrip {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.strips)
}

func waitEvent(t *testing.T, events <-chan Event, want EventType, timeout time.Duration) Event {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatalf("event stream closed while waiting for %s", want)
			}
			if ev.Type == want {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

// drainCount counts events of type want that arrive within window.
func drainCount(events <-chan Event, want EventType, window time.Duration) int {
	n := 0
	deadline := time.After(window)
	for {
		select {
		case ev := <-events:
			if ev.Type == want {
				n++
			}
		case <-deadline:
			return n
		}
	}
}
