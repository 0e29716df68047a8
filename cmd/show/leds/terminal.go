package leds

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const pixelGlyph = "█"

// Terminal previews the strip as a row of colored blocks. On a terminal the
// row is redrawn in place; otherwise each Show writes one line.
type Terminal struct {
	*Buffer

	mu      sync.Mutex
	out     io.Writer
	inPlace bool
	closed  bool
}

func NewTerminal(out io.Writer, count int) *Terminal {
	inPlace := false
	if f, ok := out.(*os.File); ok {
		inPlace = term.IsTerminal(int(f.Fd()))
	}
	return &Terminal{Buffer: NewBuffer(count), out: out, inPlace: inPlace}
}

func (t *Terminal) Render() string {
	var sb strings.Builder
	for _, c := range t.Pixels() {
		sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(c.String())).Render(pixelGlyph))
	}
	return sb.String()
}

func (t *Terminal) Show() error {
	row := t.Render()

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	var err error
	if t.inPlace {
		_, err = fmt.Fprintf(t.out, "\r%s", row)
	} else {
		_, err = fmt.Fprintln(t.out, row)
	}
	return err
}

func (t *Terminal) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.inPlace && !t.closed {
		_, _ = fmt.Fprintln(t.out)
	}
	t.closed = true
	return nil
}
