package show

import (
	"fmt"
	"strconv"
	"strings"
)

type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

var (
	White = Color{R: 255, G: 255, B: 255}
	Black = Color{}
)

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Scale multiplies every channel by f, clamped to [0, 1].
func (c Color) Scale(f float64) Color {
	if f >= 1 {
		return c
	}
	if f <= 0 {
		return Black
	}
	return Color{
		R: uint8(float64(c.R) * f),
		G: uint8(float64(c.G) * f),
		B: uint8(float64(c.B) * f),
	}
}

// ParseColor accepts "#rrggbb", "rrggbb" or "r,g,b".
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		if len(parts) != 3 {
			return Color{}, fmt.Errorf("invalid color %q: want r,g,b", s)
		}
		var ch [3]uint8
		for i, p := range parts {
			v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
			if err != nil {
				return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
			}
			ch[i] = uint8(v)
		}
		return Color{R: ch[0], G: ch[1], B: ch[2]}, nil
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("invalid color %q: want #rrggbb", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// Region is a half-open range [Start, End) of LED indices.
type Region struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (r Region) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start
}

// Clip limits the region to a strip of n LEDs.
func (r Region) Clip(n int) Region {
	r.Start = max(0, min(r.Start, n))
	r.End = max(r.Start, min(r.End, n))
	return r
}

// PartitionRegions splits n LEDs into len(weights) contiguous regions whose
// sizes are proportional to the weights.
func PartitionRegions(n int, weights ...int) []Region {
	total := 0
	for _, w := range weights {
		total += w
	}
	if n <= 0 || total <= 0 {
		return nil
	}
	regions := make([]Region, 0, len(weights))
	start, acc := 0, 0
	for _, w := range weights {
		acc += w
		end := n * acc / total
		regions = append(regions, Region{Start: start, End: end})
		start = end
	}
	return regions
}

// DefaultPalette is the flash color cycle, indexed by onset position.
var DefaultPalette = []Color{
	{R: 251, G: 185, B: 49},  // yellow
	{R: 244, G: 136, B: 211}, // pink
	{R: 74, G: 77, B: 154},   // indigo
	{R: 151, G: 187, B: 97},  // green
	{R: 254, G: 60, B: 50},   // red
	{R: 248, G: 0, B: 255},   // fuchsia
	{R: 217, G: 0, B: 0},     // dark red
	{R: 26, G: 215, B: 35},   // green 2
	{R: 40, G: 210, B: 255},  // light blue
	{R: 5, G: 36, B: 136},    // blue
}

// DefaultRegions partitions a 64 LED strip.
var DefaultRegions = []Region{
	{Start: 0, End: 7},
	{Start: 7, End: 16},
	{Start: 16, End: 26},
	{Start: 26, End: 47},
	{Start: 47, End: 64},
}

// RegionsFor returns DefaultRegions when the strip has 64 LEDs and a
// proportional partition of the same shape otherwise.
func RegionsFor(n int) []Region {
	if n == 64 {
		return DefaultRegions
	}
	weights := make([]int, len(DefaultRegions))
	for i, r := range DefaultRegions {
		weights[i] = r.Len()
	}
	return PartitionRegions(n, weights...)
}
