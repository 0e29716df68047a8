package onsets

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/GiGurra/cmder"
	"github.com/gigurra/strobe/cmd/show/audio"
)

const DefaultToolCommand = "aubioonset"

// Tool runs the aubioonset command line tool and reads one onset time in
// seconds per output line. Durations come from the local decoder.
type Tool struct {
	Command string
	Timeout time.Duration
}

func NewTool(command string) *Tool {
	if command == "" {
		command = DefaultToolCommand
	}
	return &Tool{Command: command, Timeout: 2 * time.Minute}
}

func (t *Tool) Onsets(ctx context.Context, file string) ([]float64, error) {
	duration, err := t.Duration(ctx, file)
	if err != nil {
		return nil, err
	}

	result := cmder.New(t.Command, "-i", file).
		WithAttemptTimeout(t.Timeout).
		Run(ctx)
	if result.Err != nil {
		return nil, fmt.Errorf("%s failed on %s: %w", t.Command, file, result.Err)
	}

	times, err := parseOnsets(result.StdOut)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s output: %w", t.Command, err)
	}
	return normalize(times, duration.Seconds()), nil
}

func (t *Tool) Duration(ctx context.Context, file string) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return audio.Length(file)
}

func parseOnsets(out string) ([]float64, error) {
	var times []float64
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, fmt.Errorf("bad onset %q: %w", line, err)
		}
		times = append(times, v)
	}
	return times, nil
}

// normalize sorts times, leads them with 0 and drops everything at or past
// duration (when known).
func normalize(times []float64, duration float64) []float64 {
	slices.Sort(times)
	out := []float64{0}
	for _, v := range times {
		if v <= 0 {
			continue
		}
		if duration > 0 && v >= duration {
			break
		}
		out = append(out, v)
	}
	return out
}
