package show

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Flash is one timed light action: at At from song start, reset the strip to
// white and paint Region with Color.
type Flash struct {
	Index  int           `json:"index"`
	At     time.Duration `json:"at"`
	Region Region        `json:"region"`
	Color  Color         `json:"color"`
}

// PlanFlashes assigns a region and a color to every onset. The region is a
// uniform pick from regions using rng, the color cycles through palette by
// onset position. Onsets that are negative, or at or beyond limit when limit
// is positive, are dropped.
func PlanFlashes(onsets []float64, limit time.Duration, regions []Region, palette []Color, rng *rand.Rand) []Flash {
	if len(regions) == 0 || len(palette) == 0 {
		return nil
	}

	flashes := make([]Flash, 0, len(onsets))
	for i, t := range onsets {
		at := time.Duration(t * float64(time.Second))
		// The random draw happens for every onset so that a given seed maps
		// the same onset index to the same region regardless of filtering.
		region := regions[rng.Intn(len(regions))]
		if t < 0 || (limit > 0 && at >= limit) {
			continue
		}
		flashes = append(flashes, Flash{
			Index:  i,
			At:     at,
			Region: region,
			Color:  palette[i%len(palette)],
		})
	}
	return flashes
}

// RunFlashes schedules every flash relative to start and returns once each
// one has either fired or been cancelled through ctx. Writes to the strip are
// serialized, and a flash whose deadline loses the race against ctx is
// skipped without touching the strip.
func RunFlashes(ctx context.Context, strip Strip, start time.Time, flashes []Flash) error {
	var (
		mu sync.Mutex
		g  errgroup.Group
	)

	for _, f := range flashes {
		g.Go(func() error {
			timer := time.NewTimer(time.Until(start.Add(f.At)))
			defer timer.Stop()

			select {
			case <-ctx.Done():
				return nil
			case <-timer.C:
			}

			mu.Lock()
			defer mu.Unlock()
			// a stop may have landed while waiting for the lock
			if ctx.Err() != nil {
				return nil
			}
			strip.Fill(White)
			strip.SetRegion(f.Region.Clip(strip.Len()), f.Color)
			return strip.Show()
		})
	}

	return g.Wait()
}
