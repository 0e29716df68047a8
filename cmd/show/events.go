package show

import (
	"sync"
	"time"
)

type EventType string

const (
	EventSongStarted     EventType = "song_started"
	EventSongFinished    EventType = "song_finished"
	EventSongStopped     EventType = "song_stopped"
	EventSongFailed      EventType = "song_failed"
	EventQueued          EventType = "queued"
	EventCatalogReloaded EventType = "catalog_reloaded"
)

// Event describes a playback transition. EventSongStopped is the stop
// acknowledgment: it is published exactly once per interrupted song.
type Event struct {
	Type EventType `json:"type"`
	Song Song      `json:"song"`
	Err  string    `json:"error,omitempty"`
	At   time.Time `json:"at"`
}

// broker fans events out to subscribers. Slow subscribers lose events rather
// than blocking the publisher.
type broker struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func newBroker() *broker {
	return &broker{subs: make(map[chan Event]struct{})}
}

func (b *broker) subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *broker) publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
