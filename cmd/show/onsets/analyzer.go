package onsets

import (
	"context"
	"time"

	"github.com/gigurra/strobe/cmd/show/audio"
)

// Analyzer is an in-process onset provider. It decodes the whole file on
// every call; wrap it in a Cache when files are analyzed repeatedly.
type Analyzer struct {
	Params Params
}

func NewAnalyzer(p Params) *Analyzer {
	return &Analyzer{Params: p}
}

func (a *Analyzer) Onsets(ctx context.Context, file string) ([]float64, error) {
	signal, err := loadMono(file)
	if err != nil {
		return nil, err
	}
	return Detect(ctx, signal.samples, signal.sampleRate, a.Params)
}

func (a *Analyzer) Duration(ctx context.Context, file string) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return audio.Length(file)
}
