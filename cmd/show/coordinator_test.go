package show

import (
	"context"
	"errors"
	"math/rand"
	"slices"
	"sync"
	"testing"
	"time"
)

type harness struct {
	coord   *Coordinator
	player  *fakePlayer
	strips  *stripRecorder
	events  <-chan Event
	cancel  context.CancelFunc
	runDone chan error
}

func newHarness(t *testing.T, catalog []Song, onsets map[string][]float64, durations map[string]time.Duration) *harness {
	t.Helper()
	src, err := NewSongSource(catalog)
	if err != nil {
		t.Fatalf("NewSongSource: %v", err)
	}
	player := &fakePlayer{durations: durations, failing: map[string]bool{}}
	strips := &stripRecorder{}
	coord := NewCoordinator(src,
		&fakeOnsets{onsets: onsets, durations: durations},
		player,
		strips.Open,
		WithRand(rand.New(rand.NewSource(7))),
		WithBlackoutOnStop(true),
	)
	events, unsubscribe := coord.Subscribe(64)

	ctx, cancel := context.WithCancel(context.Background())
	h := &harness{
		coord:   coord,
		player:  player,
		strips:  strips,
		events:  events,
		cancel:  cancel,
		runDone: make(chan error, 1),
	}
	go func() { h.runDone <- coord.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case <-h.runDone:
		case <-time.After(2 * time.Second):
			t.Errorf("Run did not exit")
		}
		unsubscribe()
	})
	return h
}

func stopWithin(t *testing.T, c *Coordinator, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("Stop did not return within %v: %v", d, err)
	}
}

func TestStop_WhileIdleReturnsImmediately(t *testing.T) {
	h := newHarness(t, []Song{songA}, nil, map[string]time.Duration{"a.wav": time.Second})

	start := time.Now()
	stopWithin(t, h.coord, 100*time.Millisecond)
	stopWithin(t, h.coord, 100*time.Millisecond)
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("idle Stop took %v", elapsed)
	}
	if st := h.coord.Status(); st.State != StateIdle {
		t.Errorf("state = %s, want idle", st.State)
	}
}

func TestStop_WhilePlayingAcknowledgesOnce(t *testing.T) {
	h := newHarness(t, []Song{songA}, map[string][]float64{"a.wav": {0}}, map[string]time.Duration{"a.wav": 5 * time.Second})

	h.coord.Play()
	waitEvent(t, h.events, EventSongStarted, time.Second)
	if st := h.coord.Status(); st.State != StatePlaying || st.Current == nil || *st.Current != songA {
		t.Fatalf("status = %+v, want playing A", st)
	}

	stopWithin(t, h.coord, time.Second)

	if st := h.coord.Status(); st.State != StateIdle || st.Current != nil {
		t.Errorf("status after stop = %+v, want idle", st)
	}
	if n := h.player.stops.Load(); n != 1 {
		t.Errorf("audio halted %d times, want 1", n)
	}
	strips := h.strips.Strips()
	if len(strips) != 1 || !strips[0].closed {
		t.Fatalf("strip not released before Stop returned")
	}
	if !strips[0].blackout {
		t.Errorf("strip was not blanked on stop")
	}
	if n := drainCount(h.events, EventSongStopped, 200*time.Millisecond); n != 1 {
		t.Errorf("got %d acknowledgments, want 1", n)
	}
}

func TestStop_RaisesExactlyOneAcknowledgment(t *testing.T) {
	h := newHarness(t, []Song{songA}, nil, map[string]time.Duration{"a.wav": 5 * time.Second})

	h.coord.Play()
	waitEvent(t, h.events, EventSongStarted, time.Second)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			errs <- h.coord.Stop(ctx)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("concurrent Stop returned %v", err)
		}
	}

	if n := drainCount(h.events, EventSongStopped, 200*time.Millisecond); n != 1 {
		t.Errorf("got %d acknowledgments, want 1", n)
	}
	if n := h.player.stops.Load(); n != 1 {
		t.Errorf("audio halted %d times, want 1", n)
	}

	// a later stop has nothing to wait for
	stopWithin(t, h.coord, 100*time.Millisecond)
}

func TestStop_SkipsFlashesAfterStopInstant(t *testing.T) {
	// onsets 0, 1.5 and 4.0 of a 5 second song, stopped at 2.0, scaled down 5x
	h := newHarness(t, []Song{songA},
		map[string][]float64{"a.wav": {0, 0.3, 0.8}},
		map[string]time.Duration{"a.wav": time.Second})

	h.coord.Play()
	waitEvent(t, h.events, EventSongStarted, time.Second)
	time.Sleep(400 * time.Millisecond)
	stopWithin(t, h.coord, time.Second)

	time.Sleep(600 * time.Millisecond)
	strips := h.strips.Strips()
	if len(strips) != 1 {
		t.Fatalf("got %d strips, want 1", len(strips))
	}
	got := strips[0].Flashed()
	want := []Color{DefaultPalette[0], DefaultPalette[1]}
	if !slices.Equal(got, want) {
		t.Errorf("flashed %v, want %v", got, want)
	}
	if strips[0].lateUse != 0 {
		t.Errorf("strip written %d times after release", strips[0].lateUse)
	}
	if n := drainCount(h.events, EventSongStopped, 100*time.Millisecond); n != 1 {
		t.Errorf("got %d acknowledgments, want 1", n)
	}
	if st := h.coord.Status(); st.State != StateIdle {
		t.Errorf("state = %s, want idle", st.State)
	}
}

func TestSkip_StartsNextSongWithoutOldFlashes(t *testing.T) {
	h := newHarness(t, []Song{songA, songB},
		map[string][]float64{"a.wav": {0, 0.3}, "b.wav": {0}},
		map[string]time.Duration{"a.wav": 5 * time.Second, "b.wav": 5 * time.Second})

	h.coord.Play()
	waitEvent(t, h.events, EventSongStarted, time.Second)
	time.Sleep(100 * time.Millisecond)

	skipped := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := h.coord.Skip(ctx); err != nil {
		t.Fatalf("Skip: %v", err)
	}

	ev := waitEvent(t, h.events, EventSongStarted, time.Second)
	if ev.Song != songB {
		t.Errorf("next song = %v, want B", ev.Song)
	}
	if latency := time.Since(skipped); latency > 300*time.Millisecond {
		t.Errorf("next song started %v after skip", latency)
	}

	time.Sleep(400 * time.Millisecond)
	strips := h.strips.Strips()
	if len(strips) != 2 {
		t.Fatalf("got %d strips, want one per song", len(strips))
	}
	if got := strips[0].Flashed(); !slices.Equal(got, []Color{DefaultPalette[0]}) {
		t.Errorf("skipped song flashed %v, want only its first onset", got)
	}
	if strips[0].lateUse != 0 {
		t.Errorf("skipped song wrote to its strip after release")
	}
	if got := h.player.Played(); !slices.Equal(got, []string{"a.wav", "b.wav"}) {
		t.Errorf("played %v", got)
	}
	if st := h.coord.Status(); st.State != StatePlaying || *st.Current != songB {
		t.Errorf("status = %+v, want playing B", st)
	}
}

func TestSkip_WhileIdleStartsPlayback(t *testing.T) {
	h := newHarness(t, []Song{songA}, nil, map[string]time.Duration{"a.wav": 5 * time.Second})

	if err := h.coord.Skip(context.Background()); err != nil {
		t.Fatalf("Skip: %v", err)
	}
	if ev := waitEvent(t, h.events, EventSongStarted, time.Second); ev.Song != songA {
		t.Errorf("started %v, want A", ev.Song)
	}
}

func TestRun_CyclesCatalogAfterNaturalCompletion(t *testing.T) {
	h := newHarness(t, []Song{songA, songB},
		map[string][]float64{"a.wav": {0}, "b.wav": {0}},
		map[string]time.Duration{"a.wav": 30 * time.Millisecond, "b.wav": 30 * time.Millisecond})

	h.coord.Play()
	var started []Song
	for len(started) < 3 {
		started = append(started, waitEvent(t, h.events, EventSongStarted, time.Second).Song)
	}
	if want := []Song{songA, songB, songA}; !slices.Equal(started, want) {
		t.Errorf("played %v, want %v", started, want)
	}
	if n := h.player.stops.Load(); n != 0 {
		t.Errorf("naturally finished songs were halted %d times", n)
	}
}

func TestRun_RequestPlaysBeforeCatalog(t *testing.T) {
	h := newHarness(t, []Song{songA}, nil,
		map[string]time.Duration{"a.wav": 30 * time.Millisecond, "x.wav": 30 * time.Millisecond})

	h.coord.Enqueue(songX)
	waitEvent(t, h.events, EventQueued, time.Second)
	h.coord.Play()

	first := waitEvent(t, h.events, EventSongStarted, time.Second).Song
	second := waitEvent(t, h.events, EventSongStarted, time.Second).Song
	if first != songX || second != songA {
		t.Errorf("played %v then %v, want X then A", first, second)
	}
}

func TestRun_AudioFailureMovesOn(t *testing.T) {
	h := newHarness(t, []Song{songA, songB}, nil,
		map[string]time.Duration{"a.wav": time.Second, "b.wav": time.Second})
	h.player.failing["a.wav"] = true

	h.coord.Play()
	failed := waitEvent(t, h.events, EventSongFailed, time.Second)
	if failed.Song != songA || failed.Err == "" {
		t.Errorf("failed event = %+v", failed)
	}
	if ev := waitEvent(t, h.events, EventSongStarted, time.Second); ev.Song != songB {
		t.Errorf("next started %v, want B", ev.Song)
	}
	stopWithin(t, h.coord, time.Second)
}

func TestRun_AnalysisFailureMovesOn(t *testing.T) {
	// no duration for a.wav makes analysis fail
	h := newHarness(t, []Song{songA, songB}, nil, map[string]time.Duration{"b.wav": time.Second})

	h.coord.Play()
	if ev := waitEvent(t, h.events, EventSongFailed, time.Second); ev.Song != songA {
		t.Errorf("failed song = %v, want A", ev.Song)
	}
	if ev := waitEvent(t, h.events, EventSongStarted, time.Second); ev.Song != songB {
		t.Errorf("next started %v, want B", ev.Song)
	}
}

func TestRun_StripUnavailableStillPlaysAudio(t *testing.T) {
	h := newHarness(t, []Song{songA}, map[string][]float64{"a.wav": {0}},
		map[string]time.Duration{"a.wav": 50 * time.Millisecond})
	h.strips.err = errors.New("no such device")

	h.coord.Play()
	if ev := waitEvent(t, h.events, EventSongFinished, time.Second); ev.Song != songA {
		t.Errorf("finished %v, want A", ev.Song)
	}
}

func TestRun_ShutdownHaltsActiveSong(t *testing.T) {
	h := newHarness(t, []Song{songA}, nil, map[string]time.Duration{"a.wav": 5 * time.Second})

	h.coord.Play()
	waitEvent(t, h.events, EventSongStarted, time.Second)
	h.cancel()

	select {
	case err := <-h.runDone:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
		h.runDone <- err
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if n := h.player.stops.Load(); n != 1 {
		t.Errorf("audio halted %d times, want 1", n)
	}
}
