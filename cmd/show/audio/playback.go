package audio

import "sync"

// playback is the handle returned by Player.Play.
type playback struct {
	once sync.Once
	done chan struct{}
	halt func()
}

func newPlayback() *playback {
	return &playback{done: make(chan struct{})}
}

func (pb *playback) finish() {
	pb.once.Do(func() { close(pb.done) })
}

// Stop halts the playback and releases its decoder. Safe to call repeatedly
// and after natural completion.
func (pb *playback) Stop() {
	if pb.halt != nil {
		pb.halt()
	}
	pb.finish()
}

func (pb *playback) Done() <-chan struct{} {
	return pb.done
}
