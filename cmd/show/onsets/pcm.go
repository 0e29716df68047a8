package onsets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gigurra/strobe/cmd/show"
	"github.com/go-audio/wav"
	"github.com/gopxl/beep/v2/mp3"
)

var ErrInvalidWav = errors.New("not a valid wav file")

// pcm is a mono signal normalized to [-1, 1].
type pcm struct {
	samples    []float64
	sampleRate int
}

func loadMono(path string) (pcm, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		return loadWav(path)
	case ".mp3":
		return loadMp3(path)
	default:
		return pcm{}, fmt.Errorf("%w: %q", show.ErrUnsupportedFormat, ext)
	}
}

func loadWav(path string) (pcm, error) {
	file, err := os.Open(path)
	if err != nil {
		return pcm{}, err
	}
	defer file.Close()

	dec := wav.NewDecoder(file)
	if !dec.IsValidFile() {
		return pcm{}, fmt.Errorf("%w: %s", ErrInvalidWav, path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return pcm{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(dec.BitDepth)
	}
	scale := float64(int64(1) << (bitDepth - 1))

	out := make([]float64, len(buf.Data)/channels)
	for i := range out {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c])
		}
		out[i] = sum / float64(channels) / scale
	}
	return pcm{samples: out, sampleRate: buf.Format.SampleRate}, nil
}

func loadMp3(path string) (pcm, error) {
	file, err := os.Open(path)
	if err != nil {
		return pcm{}, err
	}
	streamer, format, err := mp3.Decode(file)
	if err != nil {
		_ = file.Close()
		return pcm{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	defer streamer.Close()

	out := make([]float64, 0, max(streamer.Len(), 0))
	chunk := make([][2]float64, 4096)
	for {
		n, ok := streamer.Stream(chunk)
		for _, frame := range chunk[:n] {
			out = append(out, (frame[0]+frame[1])/2)
		}
		if !ok {
			break
		}
	}
	if err := streamer.Err(); err != nil {
		return pcm{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return pcm{samples: out, sampleRate: int(format.SampleRate)}, nil
}
