package leds

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gigurra/strobe/cmd/show"
)

var ErrUnknownOrder = errors.New("unknown channel order")

// Order is the byte order a controller expects for each pixel.
type Order string

const (
	OrderRGB Order = "rgb"
	OrderBGR Order = "bgr"
	OrderGRB Order = "grb"
)

func ParseOrder(s string) (Order, error) {
	switch o := Order(strings.ToLower(strings.TrimSpace(s))); o {
	case OrderRGB, OrderBGR, OrderGRB:
		return o, nil
	case "":
		return OrderRGB, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOrder, s)
	}
}

func (o Order) Bytes(c show.Color) [3]byte {
	switch o {
	case OrderBGR:
		return [3]byte{c.B, c.G, c.R}
	case OrderGRB:
		return [3]byte{c.G, c.R, c.B}
	default:
		return [3]byte{c.R, c.G, c.B}
	}
}

// Buffer holds pixel state between Show calls. Devices embed it and only
// implement Show and Close.
type Buffer struct {
	mu         sync.Mutex
	pixels     []show.Color
	brightness float64
}

func NewBuffer(n int) *Buffer {
	return &Buffer{pixels: make([]show.Color, max(n, 0)), brightness: 1}
}

func (b *Buffer) Len() int {
	return len(b.pixels)
}

func (b *Buffer) Fill(c show.Color) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.pixels {
		b.pixels[i] = c
	}
}

func (b *Buffer) SetRegion(r show.Region, c show.Color) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r = r.Clip(len(b.pixels))
	for i := r.Start; i < r.End; i++ {
		b.pixels[i] = c
	}
}

func (b *Buffer) Set(i int, c show.Color) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i >= 0 && i < len(b.pixels) {
		b.pixels[i] = c
	}
}

func (b *Buffer) SetBrightness(v float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.brightness = min(max(v, 0), 1)
}

func (b *Buffer) Brightness() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.brightness
}

// Pixels returns the pixels with brightness applied.
func (b *Buffer) Pixels() []show.Color {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]show.Color, len(b.pixels))
	for i, c := range b.pixels {
		out[i] = c.Scale(b.brightness)
	}
	return out
}

// Encode returns the pixels as a flat byte slice in the given order.
func (b *Buffer) Encode(order Order) []byte {
	pixels := b.Pixels()
	out := make([]byte, 0, 3*len(pixels))
	for _, c := range pixels {
		ch := order.Bytes(c)
		out = append(out, ch[:]...)
	}
	return out
}
