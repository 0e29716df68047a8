package leds

import (
	"context"
	"math/rand"
	"time"

	"github.com/gigurra/strobe/cmd/show"
)

var (
	Gold = show.Color{R: 255, G: 215}
	Red  = show.Color{R: 255}

	Purples = []show.Color{
		{R: 255, B: 255},
		{R: 255, B: 200},
		{R: 255, B: 128},
		{R: 200, B: 128},
		{R: 128, B: 128},
		{R: 128, B: 200},
		{R: 128, B: 255},
		{R: 200, B: 255},
	}
)

// Band is a region lit with one color.
type Band struct {
	Region show.Region
	Color  show.Color
}

// DefaultFlickerBands is the candle layout of a 32 LED strip.
var DefaultFlickerBands = []Band{
	{Region: show.Region{Start: 5, End: 15}, Color: show.White},
	{Region: show.Region{Start: 15, End: 24}, Color: Gold},
	{Region: show.Region{Start: 24, End: 32}, Color: Red},
}

// DefaultRainbowRegions are the two ranges the rainbow effect cycles over.
var DefaultRainbowRegions = [2]show.Region{
	{Start: 15, End: 24},
	{Start: 24, End: 32},
}

// Dimmer is implemented by strips with a global brightness.
type Dimmer interface {
	SetBrightness(float64)
	Brightness() float64
}

// Off blanks the whole strip.
func Off(strip show.Strip) error {
	strip.Fill(show.Black)
	return strip.Show()
}

// Static lights the regions with c, or the whole strip when none are given.
func Static(strip show.Strip, c show.Color, regions ...show.Region) error {
	if len(regions) == 0 {
		strip.Fill(c)
	}
	for _, r := range regions {
		strip.SetRegion(r, c)
	}
	return strip.Show()
}

// Rainbow steps through palette frequency times per second for duration.
// The second region runs half a cycle ahead of the first.
func Rainbow(ctx context.Context, strip show.Strip, palette []show.Color, regions [2]show.Region, frequency int, duration time.Duration) error {
	if len(palette) == 0 || frequency <= 0 {
		return nil
	}
	steps := int(duration * time.Duration(frequency) / time.Second)
	ticker := time.NewTicker(time.Second / time.Duration(frequency))
	defer ticker.Stop()

	offset := len(palette) / 2
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		strip.SetRegion(regions[0], palette[i%len(palette)])
		strip.SetRegion(regions[1], palette[(i+offset)%len(palette)])
		if err := strip.Show(); err != nil {
			return err
		}
	}
	return nil
}

// Flicker lights the bands and jitters the strip brightness with gaussian
// noise fps times per second until ctx is done.
func Flicker(ctx context.Context, strip show.Strip, bands []Band, fps int, sigma float64, rng *rand.Rand) error {
	if fps <= 0 {
		fps = 30
	}
	dimmer, _ := strip.(Dimmer)

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	for {
		if dimmer != nil {
			dimmer.SetBrightness(dimmer.Brightness() + rng.NormFloat64()*sigma)
		}
		for _, b := range bands {
			strip.SetRegion(b.Region, b.Color)
		}
		if err := strip.Show(); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
