package onsets

import (
	"errors"
	"fmt"

	"github.com/gigurra/strobe/cmd/show"
)

const (
	BackendAnalyzer = "analyzer"
	BackendAubio    = "aubio"
)

var ErrUnknownBackend = errors.New("unknown onset backend")

// New builds the provider for backend. A positive cacheSize wraps it in a
// Cache.
func New(backend, command string, cacheSize int) (show.OnsetProvider, error) {
	var provider show.OnsetProvider
	switch backend {
	case BackendAnalyzer, "":
		provider = NewAnalyzer(DefaultParams)
	case BackendAubio:
		provider = NewTool(command)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}

	if cacheSize <= 0 {
		return provider, nil
	}
	return NewCache(provider, cacheSize)
}
