package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gigurra/strobe/cmd/show"
	"github.com/samber/lo"
)

// Catalog is the parsed song catalog file.
type Catalog struct {
	Path  string
	Songs []show.Song
}

// Load reads a JSON array of {"id", "name", "file"} objects. Relative files
// resolve against the catalog's directory.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	songs, err := Parse(data, filepath.Dir(abs))
	if err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}
	return &Catalog{Path: abs, Songs: songs}, nil
}

func Parse(data []byte, baseDir string) ([]show.Song, error) {
	var songs []show.Song
	if err := json.Unmarshal(data, &songs); err != nil {
		return nil, err
	}

	songs = lo.Map(songs, func(s show.Song, _ int) show.Song {
		s.File = strings.TrimSpace(s.File)
		if s.File != "" && !filepath.IsAbs(s.File) {
			s.File = filepath.Join(baseDir, s.File)
		}
		if strings.TrimSpace(s.Name) == "" {
			s.Name = strings.TrimSuffix(filepath.Base(s.File), filepath.Ext(s.File))
		}
		return s
	})
	if err := Validate(songs); err != nil {
		return nil, err
	}
	return songs, nil
}

func Validate(songs []show.Song) error {
	if len(songs) == 0 {
		return show.ErrEmptyCatalog
	}
	if missing, ok := lo.Find(songs, func(s show.Song) bool { return s.File == "" }); ok {
		return fmt.Errorf("song %d has no file", missing.ID)
	}
	if dups := lo.FindDuplicatesBy(songs, func(s show.Song) int { return s.ID }); len(dups) > 0 {
		return fmt.Errorf("%w: %d", show.ErrDuplicateSongID, dups[0].ID)
	}
	return nil
}

// Lookup finds a song by id.
func (c *Catalog) Lookup(id int) (show.Song, bool) {
	return lo.Find(c.Songs, func(s show.Song) bool { return s.ID == id })
}
