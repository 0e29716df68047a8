package show

import (
	"context"
	"time"
)

// OnsetProvider analyses an audio file. Results must be deterministic for a
// given file: onsets are seconds from the start, non-decreasing, first
// element 0 by convention.
type OnsetProvider interface {
	Onsets(ctx context.Context, file string) ([]float64, error)
	Duration(ctx context.Context, file string) (time.Duration, error)
}

// AudioPlayer starts playback of a file.
type AudioPlayer interface {
	Play(file string) (Playback, error)
}

// Playback is a handle to one started file. Done is closed when playback
// ends, either naturally or after Stop. Stop is idempotent.
type Playback interface {
	Stop()
	Done() <-chan struct{}
}

// Strip is an acquired LED device. Writes are buffered until Show.
type Strip interface {
	Len() int
	Fill(c Color)
	SetRegion(r Region, c Color)
	Show() error
	Close() error
}

// StripOpener acquires the LED device. The returned strip is closed by the
// caller on every exit path.
type StripOpener func(ctx context.Context) (Strip, error)
