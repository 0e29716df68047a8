//go:build (linux && cgo) || windows || darwin

package audio

import (
	"sync"
	"time"

	"github.com/gigurra/strobe/cmd/show"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// Available indicates whether this build has a real audio output.
const Available = true

// Player plays files on the default sound device through beep's speaker.
// Starting a file halts whatever the player was playing before.
type Player struct {
	mu sync.Mutex

	initialized bool
	sampleRate  beep.SampleRate
	current     *playback
}

// NewPlayer creates a player. The speaker is initialized lazily on the first
// Play.
func NewPlayer() *Player {
	return &Player{
		sampleRate: beep.SampleRate(44100),
	}
}

func (p *Player) initSpeaker() error {
	if p.initialized {
		return nil
	}
	if err := speaker.Init(p.sampleRate, p.sampleRate.N(time.Second/10)); err != nil {
		return err
	}
	p.initialized = true
	return nil
}

// Play starts file and returns immediately.
func (p *Player) Play(file string) (show.Playback, error) {
	streamer, format, err := Decode(file)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil {
		p.current.Stop()
		p.current = nil
	}

	if err := p.initSpeaker(); err != nil {
		_ = streamer.Close()
		return nil, err
	}

	resampled := beep.Resample(4, format.SampleRate, p.sampleRate, streamer)
	ctrl := &beep.Ctrl{Streamer: resampled}

	pb := newPlayback()
	var closeOnce sync.Once
	pb.halt = func() {
		speaker.Lock()
		ctrl.Streamer = nil
		speaker.Unlock()
		closeOnce.Do(func() { _ = streamer.Close() })
	}

	// the callback runs on the speaker goroutine, so it must not block
	speaker.Play(beep.Seq(ctrl, beep.Callback(pb.finish)))
	p.current = pb
	return pb, nil
}

// Close halts playback.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil {
		p.current.Stop()
		p.current = nil
	}
}
