package clock

import "sync/atomic"

// Epoch is a generation counter bumped on every teardown.
type Epoch struct {
	gen atomic.Uint64
}

func (e *Epoch) Current() uint64 { return e.gen.Load() }

// Bump starts a new generation and returns it.
func (e *Epoch) Bump() uint64 { return e.gen.Add(1) }

// Valid reports whether gen is still the current generation.
func (e *Epoch) Valid(gen uint64) bool { return e.gen.Load() == gen }

// Guard captures the current generation; the returned func runs fn only while
// that generation is still current.
func (e *Epoch) Guard(fn func()) func() {
	gen := e.Current()
	return func() {
		if e.Valid(gen) {
			fn()
		}
	}
}

// GuardFrame is Guard for frame callbacks.
func GuardFrame[T any](e *Epoch, fn func(T)) func(T) {
	gen := e.Current()
	return func(v T) {
		if e.Valid(gen) {
			fn(v)
		}
	}
}
