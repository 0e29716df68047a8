//go:build !((linux && cgo) || windows || darwin)

package audio

import (
	"sync"
	"time"

	"github.com/gigurra/strobe/cmd/show"
)

// Available indicates whether this build has a real audio output.
// Audio requires CGO for native sound libraries.
const Available = false

// Player is a silent stand-in for builds without cgo. It still decodes each
// file to learn its length and reports completion after that long, so the
// lights run on schedule.
type Player struct {
	mu      sync.Mutex
	current *playback
}

func NewPlayer() *Player {
	return &Player{}
}

func (p *Player) Play(file string) (show.Playback, error) {
	length, err := Length(file)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil {
		p.current.Stop()
	}

	pb := newPlayback()
	timer := time.AfterFunc(length, pb.finish)
	pb.halt = func() { timer.Stop() }
	p.current = pb
	return pb, nil
}

func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil {
		p.current.Stop()
		p.current = nil
	}
}
