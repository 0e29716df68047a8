package onsets

import (
	"context"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Params tune the spectral-flux detector. Zero fields take the defaults.
type Params struct {
	WindowSize int     // FFT size in samples
	HopSize    int     // samples between frames
	Threshold  float64 // peak must exceed the local mean by this much
	MinGapSecs float64 // minimum distance between two onsets
	Context    int     // frames either side used for the local mean
}

var DefaultParams = Params{
	WindowSize: 1024,
	HopSize:    512,
	Threshold:  0.3,
	MinGapSecs: 0.05,
	Context:    8,
}

func (p Params) withDefaults() Params {
	if p.WindowSize <= 0 {
		p.WindowSize = DefaultParams.WindowSize
	}
	if p.HopSize <= 0 {
		p.HopSize = DefaultParams.HopSize
	}
	if p.Threshold <= 0 {
		p.Threshold = DefaultParams.Threshold
	}
	if p.MinGapSecs <= 0 {
		p.MinGapSecs = DefaultParams.MinGapSecs
	}
	if p.Context <= 0 {
		p.Context = DefaultParams.Context
	}
	return p
}

// spectralFlux returns one value per hop: the summed positive change of the
// log-compressed magnitude spectrum against the previous frame, normalized to
// a peak of 1.
func spectralFlux(ctx context.Context, signal []float64, p Params) ([]float64, error) {
	if len(signal) < p.WindowSize {
		return nil, nil
	}

	hann := make([]float64, p.WindowSize)
	for i := range hann {
		hann[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(p.WindowSize-1))
	}

	bins := p.WindowSize/2 + 1
	prev := make([]float64, bins)
	frame := make([]float64, p.WindowSize)
	frames := (len(signal)-p.WindowSize)/p.HopSize + 1
	flux := make([]float64, frames)

	var peak float64
	for f := 0; f < frames; f++ {
		if f%256 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		offset := f * p.HopSize
		for i := range frame {
			frame[i] = signal[offset+i] * hann[i]
		}
		spectrum := fft.FFTReal(frame)

		var sum float64
		for k := 0; k < bins; k++ {
			mag := math.Log1p(100 * cmplx.Abs(spectrum[k]))
			if d := mag - prev[k]; d > 0 && f > 0 {
				sum += d
			}
			prev[k] = mag
		}
		flux[f] = sum
		peak = max(peak, sum)
	}

	if peak > 0 {
		for i := range flux {
			flux[i] /= peak
		}
	}
	return flux, nil
}

// pickPeaks returns the frames that are local maxima above an adaptive
// threshold, at least minGap frames apart.
func pickPeaks(flux []float64, p Params, minGap int) []int {
	var peaks []int
	last := -minGap
	for i := range flux {
		lo, hi := max(0, i-p.Context), min(len(flux), i+p.Context+1)

		var mean float64
		isMax := true
		for j := lo; j < hi; j++ {
			mean += flux[j]
			if flux[j] > flux[i] {
				isMax = false
			}
		}
		mean /= float64(hi - lo)

		if isMax && flux[i] > mean+p.Threshold && i-last >= minGap {
			peaks = append(peaks, i)
			last = i
		}
	}
	return peaks
}

// Detect returns onset times in seconds, led by 0 and strictly below the
// signal's duration.
func Detect(ctx context.Context, signal []float64, sampleRate int, p Params) ([]float64, error) {
	p = p.withDefaults()
	times := []float64{0}
	if sampleRate <= 0 {
		return times, nil
	}

	flux, err := spectralFlux(ctx, signal, p)
	if err != nil {
		return nil, err
	}

	duration := float64(len(signal)) / float64(sampleRate)
	minGap := int(math.Ceil(p.MinGapSecs * float64(sampleRate) / float64(p.HopSize)))
	for _, frame := range pickPeaks(flux, p, max(minGap, 1)) {
		at := float64(frame*p.HopSize+p.WindowSize/2) / float64(sampleRate)
		if at <= 0 {
			continue
		}
		if at >= duration {
			break
		}
		times = append(times, at)
	}
	return times, nil
}
