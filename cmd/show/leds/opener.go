package leds

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gigurra/strobe/cmd/show"
)

const (
	BackendSerial   = "serial"
	BackendTerminal = "terminal"
	BackendNone     = "none"
)

var ErrUnknownBackend = errors.New("unknown LED backend")

type Config struct {
	Backend    string
	Device     string
	Baud       int
	Count      int
	Order      Order
	Brightness float64
	Out        io.Writer // terminal backend only, defaults to stdout
}

// Opener returns a function that acquires a fresh strip handle. It returns a
// nil opener for the none backend.
func (c Config) Opener() (show.StripOpener, error) {
	if c.Count <= 0 {
		return nil, fmt.Errorf("LED count must be positive, got %d", c.Count)
	}
	brightness := c.Brightness
	if brightness <= 0 {
		brightness = 1
	}

	switch c.Backend {
	case BackendNone, "":
		return nil, nil
	case BackendSerial:
		return func(ctx context.Context) (show.Strip, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			s, err := OpenSerial(c.Device, c.Baud, c.Count, c.Order)
			if err != nil {
				return nil, err
			}
			s.SetBrightness(brightness)
			return s, nil
		}, nil
	case BackendTerminal:
		out := c.Out
		if out == nil {
			out = os.Stdout
		}
		return func(ctx context.Context) (show.Strip, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			t := NewTerminal(out, c.Count)
			t.SetBrightness(brightness)
			return t, nil
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}
}
