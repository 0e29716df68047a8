package show

import (
	"errors"
	"time"
)

var (
	ErrEmptyCatalog      = errors.New("catalog has no songs")
	ErrDuplicateSongID   = errors.New("duplicate song id")
	ErrInvalidSelection  = errors.New("invalid song")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// Song is one entry of the catalog. Songs are values; nothing mutates them
// after the catalog is loaded.
type Song struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	File string `json:"file"`
}

// State represents whether a song is currently being driven.
type State string

const (
	StateIdle    State = "idle"
	StatePlaying State = "playing"
)

// Status is a point-in-time snapshot of the coordinator.
type Status struct {
	State   State     `json:"state"`
	Current *Song     `json:"current,omitempty"`
	Started time.Time `json:"started,omitzero"`
	Pending []Song    `json:"pending"`
}
