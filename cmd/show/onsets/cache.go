package onsets

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gigurra/strobe/cmd/show"
	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheKey struct {
	path    string
	modTime time.Time
	size    int64
}

type analysis struct {
	onsets   []float64
	duration time.Duration
}

// Cache memoizes another provider, keyed by file path, modification time and
// size so edited files are analyzed again.
type Cache struct {
	inner   show.OnsetProvider
	entries *lru.Cache[cacheKey, analysis]
}

func NewCache(inner show.OnsetProvider, size int) (*Cache, error) {
	entries, err := lru.New[cacheKey, analysis](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create onset cache: %w", err)
	}
	return &Cache{inner: inner, entries: entries}, nil
}

func (c *Cache) Onsets(ctx context.Context, file string) ([]float64, error) {
	a, err := c.lookup(ctx, file)
	if err != nil {
		return nil, err
	}
	return append([]float64(nil), a.onsets...), nil
}

func (c *Cache) Duration(ctx context.Context, file string) (time.Duration, error) {
	a, err := c.lookup(ctx, file)
	if err != nil {
		return 0, err
	}
	return a.duration, nil
}

// Len reports the number of cached files.
func (c *Cache) Len() int {
	return c.entries.Len()
}

func (c *Cache) lookup(ctx context.Context, file string) (analysis, error) {
	info, err := os.Stat(file)
	if err != nil {
		return analysis{}, err
	}
	key := cacheKey{path: file, modTime: info.ModTime(), size: info.Size()}
	if a, ok := c.entries.Get(key); ok {
		return a, nil
	}

	onsets, err := c.inner.Onsets(ctx, file)
	if err != nil {
		return analysis{}, err
	}
	duration, err := c.inner.Duration(ctx, file)
	if err != nil {
		return analysis{}, err
	}
	a := analysis{onsets: onsets, duration: duration}
	c.entries.Add(key, a)
	return a, nil
}
