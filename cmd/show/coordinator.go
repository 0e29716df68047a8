package show

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// playbackSlack is added to the analysed duration before the audio subtask
// gives up waiting for natural completion.
const playbackSlack = 500 * time.Millisecond

type Option func(*Coordinator)

func WithRegions(regions []Region) Option {
	return func(c *Coordinator) { c.regions = regions }
}

func WithPalette(palette []Color) Option {
	return func(c *Coordinator) { c.palette = palette }
}

// WithRand injects the random source used to pick flash regions. It is only
// used from the run-loop goroutine.
func WithRand(rng *rand.Rand) Option {
	return func(c *Coordinator) { c.rng = rng }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) { c.log = logger }
}

// WithBlackoutOnStop turns the strip off when a song is interrupted.
func WithBlackoutOnStop(enabled bool) Option {
	return func(c *Coordinator) { c.blackout = enabled }
}

// Coordinator owns playback. A single run-loop (Run) drives one song at a
// time; Play, Stop and Skip may be called from any goroutine.
type Coordinator struct {
	source *SongSource
	onsets OnsetProvider
	audio  AudioPlayer
	strips StripOpener

	regions  []Region
	palette  []Color
	rng      *rand.Rand
	blackout bool
	log      *slog.Logger
	events   *broker

	mu      sync.Mutex
	playing bool     // desired state, asserted by Play and Skip
	current *session // nil while idle
	wake    chan struct{}
}

// session is the lifetime of one song. Its context is scoped to this song's
// subtasks only, so interrupting it never leaks into the next song.
type session struct {
	song    Song
	started time.Time
	ctx     context.Context
	cancel  context.CancelFunc
	ackOnce sync.Once
	acked   atomic.Bool
	done    chan struct{}
}

// NewCoordinator creates an idle coordinator. strips may be nil when no LED
// device is attached.
func NewCoordinator(source *SongSource, onsets OnsetProvider, audio AudioPlayer, strips StripOpener, opts ...Option) *Coordinator {
	c := &Coordinator{
		source:   source,
		onsets:   onsets,
		audio:    audio,
		strips:   strips,
		regions:  DefaultRegions,
		palette:  DefaultPalette,
		blackout: true,
		log:      slog.Default(),
		events:   newBroker(),
		wake:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return c
}

// Play asserts that songs should be playing. It is a no-op while a song is
// already active.
func (c *Coordinator) Play() {
	c.mu.Lock()
	c.playing = true
	c.mu.Unlock()
	c.wakeUp()
}

// Stop interrupts the active song and blocks until its audio and light
// subtasks have released their devices. With no active song it returns
// immediately. Concurrent calls wait for the same song; only one
// acknowledgment is ever raised for it.
func (c *Coordinator) Stop(ctx context.Context) error {
	c.mu.Lock()
	c.playing = false
	s := c.current
	c.mu.Unlock()
	return c.interrupt(ctx, s)
}

// Skip interrupts the active song and lets the run-loop continue with the
// next one. The desired state stays asserted throughout, so the loop never
// goes idle mid-skip.
func (c *Coordinator) Skip(ctx context.Context) error {
	c.mu.Lock()
	c.playing = true
	s := c.current
	c.mu.Unlock()
	c.wakeUp()
	return c.interrupt(ctx, s)
}

// Enqueue pushes a request onto the song source.
func (c *Coordinator) Enqueue(song Song) {
	c.source.Push(song)
	c.events.publish(Event{Type: EventQueued, Song: song})
}

// Reload replaces the default cycle of the song source.
func (c *Coordinator) Reload(catalog []Song) error {
	if err := c.source.Reload(catalog); err != nil {
		return err
	}
	c.events.publish(Event{Type: EventCatalogReloaded})
	return nil
}

// Status returns a snapshot of the playback state.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	s := c.current
	c.mu.Unlock()

	status := Status{State: StateIdle, Pending: c.source.Pending()}
	if s != nil {
		song := s.song
		status.State = StatePlaying
		status.Current = &song
		status.Started = s.started
	}
	return status
}

// Subscribe returns a channel of playback events and a function that ends
// the subscription. Events are dropped when the buffer is full.
func (c *Coordinator) Subscribe(buffer int) (<-chan Event, func()) {
	return c.events.subscribe(buffer)
}

// Run is the run-loop. It waits for Play, plays songs one at a time until
// Stop, and returns ctx.Err() once ctx is cancelled and the active song has
// been wound down.
func (c *Coordinator) Run(ctx context.Context) error {
	for {
		s := c.begin(ctx)
		if s == nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-c.wake:
			}
			continue
		}

		c.playSong(s)
		c.finish(s)

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *Coordinator) wakeUp() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Coordinator) interrupt(ctx context.Context, s *session) error {
	if s == nil {
		return nil
	}
	s.cancel()
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// begin registers the next song as active, or returns nil when playback is
// not wanted. Checking the desired state and registering the session under
// one lock means a Stop either sees the session or prevents it.
func (c *Coordinator) begin(ctx context.Context) *session {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.playing || ctx.Err() != nil {
		return nil
	}

	songCtx, cancel := context.WithCancel(ctx)
	s := &session{
		song:    c.source.Next(),
		started: time.Now(),
		ctx:     songCtx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	c.current = s
	return s
}

func (c *Coordinator) finish(s *session) {
	s.cancel()
	c.mu.Lock()
	if c.current == s {
		c.current = nil
	}
	c.mu.Unlock()
	close(s.done)
}

// playSong analyses the song, then runs the audio and light subtasks
// together and returns once both have resolved.
func (c *Coordinator) playSong(s *session) {
	log := c.log.With("song_id", s.song.ID, "song", s.song.Name)

	onsets, duration, err := c.analyze(s)
	if err != nil && s.ctx.Err() == nil {
		log.Error("failed to analyze song", "file", s.song.File, "error", err)
		c.events.publish(Event{Type: EventSongFailed, Song: s.song, Err: err.Error()})
		return
	}

	flashes := PlanFlashes(onsets, duration, c.regions, c.palette, c.rng)
	if s.ctx.Err() == nil {
		log.Info("now playing", "duration", duration, "flashes", len(flashes))
		c.events.publish(Event{Type: EventSongStarted, Song: s.song})
	}

	lightCtx, stopLights := context.WithCancel(s.ctx)
	defer stopLights()

	start := time.Now()
	var g errgroup.Group
	g.Go(func() error {
		defer stopLights()
		return c.runAudio(s, duration)
	})
	g.Go(func() error {
		c.runLights(lightCtx, s, start, flashes)
		return nil
	})

	switch err := g.Wait(); {
	case err != nil:
		log.Error("playback failed", "error", err)
		c.events.publish(Event{Type: EventSongFailed, Song: s.song, Err: err.Error()})
	case s.acked.Load():
		log.Info("stopped")
	default:
		log.Info("finished")
		c.events.publish(Event{Type: EventSongFinished, Song: s.song})
	}
}

func (c *Coordinator) analyze(s *session) ([]float64, time.Duration, error) {
	onsets, err := c.onsets.Onsets(s.ctx, s.song.File)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to detect onsets: %w", err)
	}
	duration, err := c.onsets.Duration(s.ctx, s.song.File)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read duration: %w", err)
	}
	return onsets, duration, nil
}

// runAudio plays the file and races natural completion against the song's
// cancellation, bounded by duration. Only this subtask acknowledges a stop.
func (c *Coordinator) runAudio(s *session, duration time.Duration) error {
	if s.ctx.Err() != nil {
		c.acknowledge(s)
		return nil
	}

	pb, err := c.audio.Play(s.song.File)
	if err != nil {
		return fmt.Errorf("failed to start audio for %s: %w", s.song.File, err)
	}

	var timeout <-chan time.Time
	if duration > 0 {
		timer := time.NewTimer(duration + playbackSlack)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-pb.Done():
	case <-s.ctx.Done():
		pb.Stop()
		c.acknowledge(s)
	case <-timeout:
		c.log.Warn("audio overran its duration, halting", "song_id", s.song.ID, "duration", duration)
		pb.Stop()
	}
	return nil
}

func (c *Coordinator) acknowledge(s *session) {
	s.ackOnce.Do(func() {
		s.acked.Store(true)
		c.events.publish(Event{Type: EventSongStopped, Song: s.song})
	})
}

// runLights holds the strip for the duration of the song. Device errors are
// logged and never affect the audio subtask.
func (c *Coordinator) runLights(ctx context.Context, s *session, start time.Time, flashes []Flash) {
	if c.strips == nil || ctx.Err() != nil {
		return
	}
	log := c.log.With("song_id", s.song.ID)

	strip, err := c.strips(ctx)
	if err != nil {
		log.Warn("LED strip unavailable", "error", err)
		return
	}
	defer func() {
		if err := strip.Close(); err != nil {
			log.Warn("failed to release LED strip", "error", err)
		}
	}()

	if err := RunFlashes(ctx, strip, start, flashes); err != nil {
		log.Warn("LED write failed", "error", err)
	}

	if c.blackout && s.ctx.Err() != nil {
		strip.Fill(Black)
		if err := strip.Show(); err != nil {
			log.Warn("failed to blank LED strip", "error", err)
		}
	}
}
