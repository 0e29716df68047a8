package leds

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gigurra/strobe/cmd/show"
)

func TestParseOrder(t *testing.T) {
	tests := []struct {
		in      string
		want    Order
		wantErr bool
	}{
		{in: "rgb", want: OrderRGB},
		{in: " BGR ", want: OrderBGR},
		{in: "grb", want: OrderGRB},
		{in: "", want: OrderRGB},
		{in: "rbg", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOrder(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownOrder) {
					t.Errorf("err = %v, want ErrUnknownOrder", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseOrder(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestOrder_Bytes(t *testing.T) {
	c := show.Color{R: 1, G: 2, B: 3}
	tests := []struct {
		order Order
		want  [3]byte
	}{
		{OrderRGB, [3]byte{1, 2, 3}},
		{OrderBGR, [3]byte{3, 2, 1}},
		{OrderGRB, [3]byte{2, 1, 3}},
	}
	for _, tt := range tests {
		if got := tt.order.Bytes(c); got != tt.want {
			t.Errorf("%s.Bytes = %v, want %v", tt.order, got, tt.want)
		}
	}
}

func TestBuffer_RegionIsClipped(t *testing.T) {
	b := NewBuffer(4)
	b.Fill(show.White)
	b.SetRegion(show.Region{Start: 2, End: 10}, show.Black)

	want := []show.Color{show.White, show.White, show.Black, show.Black}
	if got := b.Pixels(); !slices.Equal(got, want) {
		t.Errorf("Pixels = %v, want %v", got, want)
	}
}

func TestBuffer_EncodeAppliesBrightness(t *testing.T) {
	b := NewBuffer(2)
	b.Fill(show.Color{R: 200, G: 100})
	b.SetBrightness(0.5)

	got := b.Encode(OrderBGR)
	want := []byte{0, 50, 100, 0, 50, 100}
	if !bytes.Equal(got, want) {
		t.Errorf("Encode = %v, want %v", got, want)
	}

	b.SetBrightness(7)
	if b.Brightness() != 1 {
		t.Errorf("Brightness = %v, want clamped to 1", b.Brightness())
	}
}

func TestEncodeFrame(t *testing.T) {
	got, err := EncodeFrame(CmdShow, []byte{0x01, 0x02, 0x03})
	if err != nil {
		t.Fatal(err)
	}
	cks := byte(0x00 ^ 0x04 ^ CmdShow ^ 0x01 ^ 0x02 ^ 0x03)
	want := []byte{SOF0, SOF1, 0x00, 0x04, CmdShow, 0x01, 0x02, 0x03, cks}
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeFrame = % x, want % x", got, want)
	}

	if _, err := EncodeFrame(CmdShow, make([]byte, MaxPayload+1)); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("oversized frame err = %v", err)
	}
}

func TestEncodeFrame_LongStrip(t *testing.T) {
	payload := make([]byte, 300*3)
	got, err := EncodeFrame(CmdShow, payload)
	if err != nil {
		t.Fatal(err)
	}
	length := int(got[2])<<8 | int(got[3])
	if length != len(payload)+1 {
		t.Errorf("LEN = %d, want %d", length, len(payload)+1)
	}
}

type recordingPort struct {
	bytes.Buffer
	closes int
}

func (p *recordingPort) Close() error {
	p.closes++
	return nil
}

func TestSerial_ShowWritesFrame(t *testing.T) {
	port := &recordingPort{}
	s := NewSerial("test", port, 2, OrderGRB)
	s.SetRegion(show.Region{Start: 1, End: 2}, show.Color{R: 10, G: 20, B: 30})

	if err := s.Show(); err != nil {
		t.Fatal(err)
	}
	want, _ := EncodeFrame(CmdShow, []byte{0, 0, 0, 20, 10, 30})
	if !bytes.Equal(port.Bytes(), want) {
		t.Errorf("wrote % x, want % x", port.Bytes(), want)
	}

	_ = s.Close()
	_ = s.Close()
	if port.closes != 1 {
		t.Errorf("port closed %d times, want 1", port.closes)
	}
}

func TestTerminal_WritesOneLinePerShow(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(&out, 3)
	term.Fill(show.Color{R: 255})

	if err := term.Show(); err != nil {
		t.Fatal(err)
	}
	if err := term.Show(); err != nil {
		t.Fatal(err)
	}
	_ = term.Close()
	if err := term.Show(); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), out.String())
	}
	if n := strings.Count(lines[0], pixelGlyph); n != 3 {
		t.Errorf("line has %d pixels, want 3", n)
	}
}

func TestConfig_Opener(t *testing.T) {
	open, err := Config{Backend: BackendNone, Count: 8}.Opener()
	if err != nil || open != nil {
		t.Errorf("none backend = %v, %v; want nil opener", open, err)
	}

	if _, err := (Config{Backend: "laser", Count: 8}).Opener(); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("unknown backend err = %v", err)
	}

	if _, err := (Config{Backend: BackendTerminal}).Opener(); err == nil {
		t.Error("expected error for zero LED count")
	}

	var out bytes.Buffer
	open, err = Config{Backend: BackendTerminal, Count: 4, Brightness: 0.5, Out: &out}.Opener()
	if err != nil {
		t.Fatal(err)
	}
	strip, err := open(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer strip.Close()
	if strip.Len() != 4 {
		t.Errorf("Len = %d, want 4", strip.Len())
	}
	if d, ok := strip.(Dimmer); !ok || d.Brightness() != 0.5 {
		t.Errorf("brightness not applied: %#v", strip)
	}
}

func TestStatic_Regions(t *testing.T) {
	strip := NewTerminal(&bytes.Buffer{}, 4)
	if err := Static(strip, Gold, show.Region{Start: 0, End: 1}, show.Region{Start: 3, End: 4}); err != nil {
		t.Fatal(err)
	}
	want := []show.Color{Gold, show.Black, show.Black, Gold}
	if got := strip.Pixels(); !slices.Equal(got, want) {
		t.Errorf("Pixels = %v, want %v", got, want)
	}

	if err := Off(strip); err != nil {
		t.Fatal(err)
	}
	for i, c := range strip.Pixels() {
		if c != show.Black {
			t.Errorf("pixel %d = %v after Off", i, c)
		}
	}
}

func TestRainbow_CyclesPalette(t *testing.T) {
	strip := NewTerminal(&bytes.Buffer{}, 4)
	regions := [2]show.Region{{Start: 0, End: 2}, {Start: 2, End: 4}}
	palette := []show.Color{Red, Gold, show.White, show.Black}

	// 3 steps: indices 0,1,2 then 2,3,0 for the second region
	if err := Rainbow(context.Background(), strip, palette, regions, 100, 30*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	px := strip.Pixels()
	if px[0] != show.White || px[2] != Red {
		t.Errorf("Pixels = %v, want first region white and second red", px)
	}
}

func TestFlicker_StopsOnCancel(t *testing.T) {
	strip := NewTerminal(&bytes.Buffer{}, 32)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := Flicker(ctx, strip, DefaultFlickerBands, 30, 0.075, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	px := strip.Pixels()
	if px[0] != show.Black {
		t.Errorf("pixel 0 lit: %v", px[0])
	}
	b := strip.Brightness()
	if b < 0 || b > 1 {
		t.Errorf("brightness %v out of range", b)
	}
}
