package serve

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/gigurra/strobe/cmd/show"
	"github.com/gigurra/strobe/cmd/show/catalog"
)

var ErrUnknownAction = errors.New("invalid action")

const (
	ActionPlay = "play"
	ActionStop = "stop"
	ActionSkip = "skip"
)

// Coordinator is the part of show.Coordinator the control surface drives.
type Coordinator interface {
	Play()
	Stop(ctx context.Context) error
	Skip(ctx context.Context) error
	Enqueue(song show.Song)
	Reload(songs []show.Song) error
	Status() show.Status
	Subscribe(buffer int) (<-chan show.Event, func())
}

// Control validates commands from the outside world before they reach the
// coordinator.
type Control struct {
	coord   Coordinator
	catalog atomic.Pointer[catalog.Catalog]
}

func NewControl(coord Coordinator, cat *catalog.Catalog) *Control {
	c := &Control{coord: coord}
	c.catalog.Store(cat)
	return c
}

func (c *Control) Songs() []show.Song {
	return c.catalog.Load().Songs
}

// Enqueue requests the song with the given id. Unknown ids leave the queue
// untouched.
func (c *Control) Enqueue(id int) (show.Song, error) {
	song, ok := c.catalog.Load().Lookup(id)
	if !ok {
		return show.Song{}, fmt.Errorf("%w: %d", show.ErrInvalidSelection, id)
	}
	c.coord.Enqueue(song)
	return song, nil
}

// Do runs play, stop or skip. Stop and skip return once the interrupted song
// has released its devices.
func (c *Control) Do(ctx context.Context, action string) error {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case ActionPlay:
		c.coord.Play()
		return nil
	case ActionStop:
		return c.coord.Stop(ctx)
	case ActionSkip:
		return c.coord.Skip(ctx)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
}

// Reload swaps in a new catalog for lookups and the default cycle.
func (c *Control) Reload(cat *catalog.Catalog) error {
	if err := c.coord.Reload(cat.Songs); err != nil {
		return err
	}
	c.catalog.Store(cat)
	return nil
}

func (c *Control) Status() show.Status {
	return c.coord.Status()
}

func (c *Control) Subscribe(buffer int) (<-chan show.Event, func()) {
	return c.coord.Subscribe(buffer)
}
