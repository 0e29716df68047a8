package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gigurra/strobe/cmd/show"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"
)

// Decode opens an mp3 or wav file. Closing the returned streamer closes the
// file.
func Decode(path string) (beep.StreamSeekCloser, beep.Format, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, err
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(file)
	case ".wav":
		streamer, format, err = wav.Decode(file)
	default:
		err = fmt.Errorf("%w: %q", show.ErrUnsupportedFormat, ext)
	}
	if err != nil {
		_ = file.Close()
		return nil, beep.Format{}, err
	}
	return streamer, format, nil
}

// Length returns the play time of an mp3 or wav file.
func Length(path string) (time.Duration, error) {
	streamer, format, err := Decode(path)
	if err != nil {
		return 0, err
	}
	defer streamer.Close()
	return format.SampleRate.D(streamer.Len()), nil
}
