package engine

import (
	"context"
	"fmt"

	"github.com/san-kum/msgviz/internal/clock"
	"github.com/san-kum/msgviz/internal/logging"
	"github.com/san-kum/msgviz/internal/strategy"
)

// SwitchMode replaces the active strategy with the named one. It returns
// false when another switch is in progress, the mode is unknown, or the new
// strategy fails to start. Switching to the active mode is a no-op.
//
// A completed switch leaves no visuals from the previous mode and no timer
// from it that can still fire.
func (e *Engine) SwitchMode(name string) bool {
	ctx := context.Background()
	if !e.switching.CompareAndSwap(false, true) {
		e.log.Warn(ctx, "mode switch rejected: transition in progress", logging.String("mode", name))
		e.rec.ModeSwitched("", name, false)
		return false
	}
	defer e.switching.Store(false)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return false
	}
	if e.active != nil && name == e.mode {
		return true
	}
	factory, err := e.lookup(name)
	if err != nil {
		e.log.Warn(ctx, "mode switch rejected", logging.Err(err))
		e.rec.ModeSwitched(e.mode, name, false)
		return false
	}

	from := e.mode
	if err := e.transition(name, factory); err != nil {
		e.log.Error(ctx, "mode switch failed",
			logging.String("from", from),
			logging.String("to", name),
			logging.Err(err))
		e.rec.ModeSwitched(from, name, false)
		return false
	}
	e.log.Info(ctx, "mode switched",
		logging.String("from", from),
		logging.String("to", name),
		logging.Uint64("epoch", e.epoch.Current()))
	e.rec.ModeSwitched(from, name, true)
	return true
}

// Transitioning reports whether a mode switch is running.
func (e *Engine) Transitioning() bool { return e.switching.Load() }

func (e *Engine) transition(name string, factory strategy.Factory) (err error) {
	var timers *clock.Group
	defer func() {
		if r := recover(); r != nil {
			if timers != nil {
				timers.Stop()
			}
			e.teardown()
			e.purge()
			e.mode = ""
			err = fmt.Errorf("%w: %s: panic: %v", ErrStartFailed, name, r)
		}
	}()

	e.epoch.Bump()
	e.teardown()
	if n := e.purge(); n > 0 {
		e.log.Debug(context.Background(), "purged leftover visuals", logging.Int("count", n))
	}
	e.cleanup.Reset()
	e.cleanup.SetConfig(e.cfg.CleanupFor(name))

	timers = e.sched.NewGroup()
	env := e.env(timers)
	env.Log = e.log.With(logging.String("mode", name))
	s := factory(env)
	if err := s.Start(); err != nil {
		s.Teardown()
		timers.Stop()
		e.purge()
		e.mode = ""
		return fmt.Errorf("%w: %s: %v", ErrStartFailed, name, err)
	}

	e.mode = name
	e.active = s
	e.timers = timers
	return nil
}
