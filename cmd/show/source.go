package show

import (
	"slices"
	"sync"
)

// SongSource hands out the next song to play: explicit requests first, in
// FIFO order, then the default catalog cycle, wrapping around forever.
type SongSource struct {
	mu       sync.Mutex
	requests []Song
	cycle    []Song
	cursor   int
}

// NewSongSource creates a source cycling over catalog. An empty catalog is a
// configuration error.
func NewSongSource(catalog []Song) (*SongSource, error) {
	if len(catalog) == 0 {
		return nil, ErrEmptyCatalog
	}
	return &SongSource{cycle: slices.Clone(catalog)}, nil
}

// Next removes and returns the head of the request queue, or the next song
// of the default cycle when no requests are pending.
func (s *SongSource) Next() Song {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.requests) > 0 {
		song := s.requests[0]
		s.requests = s.requests[1:]
		return song
	}

	song := s.cycle[s.cursor]
	s.cursor = (s.cursor + 1) % len(s.cycle)
	return song
}

// Push appends a request.
func (s *SongSource) Push(song Song) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, song)
}

// Reload replaces the default cycle and restarts it from its first song.
// Pending requests are kept.
func (s *SongSource) Reload(catalog []Song) error {
	if len(catalog) == 0 {
		return ErrEmptyCatalog
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycle = slices.Clone(catalog)
	s.cursor = 0
	return nil
}

// Pending returns a copy of the request queue.
func (s *SongSource) Pending() []Song {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Song{}, s.requests...)
}

// Catalog returns a copy of the default cycle.
func (s *SongSource) Catalog() []Song {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.cycle)
}
