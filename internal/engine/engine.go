// Package engine wires the registry, the cleanup manager and the active
// strategy into one driveable unit and coordinates mode switches.
//
// All state is owned by a single logical thread. Advance, OnEvent and
// SwitchMode may be called from different goroutines; they serialize on the
// engine's lock. Stats is safe to call concurrently, which is how the
// metrics collector reads it.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/san-kum/msgviz/internal/cleanup"
	"github.com/san-kum/msgviz/internal/clock"
	"github.com/san-kum/msgviz/internal/config"
	"github.com/san-kum/msgviz/internal/entity"
	"github.com/san-kum/msgviz/internal/layout"
	"github.com/san-kum/msgviz/internal/logging"
	"github.com/san-kum/msgviz/internal/registry"
	"github.com/san-kum/msgviz/internal/render"
	"github.com/san-kum/msgviz/internal/source"
	"github.com/san-kum/msgviz/internal/strategy"
)

var (
	ErrUnknownMode = errors.New("engine: unknown mode")
	ErrStartFailed = errors.New("engine: strategy failed to start")
	ErrClosed      = errors.New("engine: closed")
)

// Recorder receives engine activity. observability.Collector implements it.
type Recorder interface {
	EventRouted(mode string, ok bool)
	ModeSwitched(from, to string, ok bool)
	Swept(res cleanup.SweepResult)
}

type nopRecorder struct{}

func (nopRecorder) EventRouted(string, bool)          {}
func (nopRecorder) ModeSwitched(string, string, bool) {}
func (nopRecorder) Swept(cleanup.SweepResult)         {}

type Options struct {
	// Host supplies the canvas size. Defaults to a static host sized from
	// the layout config.
	Host layout.Host
	// Sink defaults to a render.MemorySink.
	Sink render.Sink
	// Clock defaults to a scheduler starting at time.Now.
	Clock    *clock.Scheduler
	Log      logging.Logger
	Recorder Recorder
	// Modes adds or replaces strategy factories by name.
	Modes map[string]strategy.Factory
}

type Stats struct {
	Mode          string
	Entities      registry.Counts
	Alpha         float64
	Epoch         uint64
	Events        uint64
	Dropped       uint64
	Sweeps        uint64
	Frames        uint64
	Transitioning bool
}

type Engine struct {
	mu sync.Mutex

	cfg    *config.Config
	sched  *clock.Scheduler
	epoch  clock.Epoch
	reg    *registry.Registry
	sink   render.Sink
	layout *layout.Calculator
	rng    *rand.Rand
	log    logging.Logger
	rec    Recorder
	modes  map[string]strategy.Factory

	cleanup       *cleanup.Manager
	cleanupTimers *clock.Group

	mode   string
	active strategy.Strategy
	timers *clock.Group

	switching atomic.Bool
	closed    bool

	events  uint64
	dropped uint64
}

func New(cfg *config.Config, opts Options) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	host := opts.Host
	if host == nil {
		static := layout.NewStaticHost(cfg.Layout.Width, cfg.Layout.Height)
		static.SetPanelCollapsed(cfg.Layout.PanelCollapsed)
		host = static
	}
	sink := opts.Sink
	if sink == nil {
		sink = render.NewMemorySink()
	}
	sched := opts.Clock
	if sched == nil {
		sched = clock.NewScheduler(time.Now())
	}
	log := opts.Log
	if log == nil {
		log = logging.Noop()
	}
	rec := opts.Recorder
	if rec == nil {
		rec = nopRecorder{}
	}

	lay := layout.NewCalculator(host)
	if cfg.Layout.CollapsedPanel > 0 {
		lay.CollapsedPanelWidth = cfg.Layout.CollapsedPanel
	}
	if cfg.Layout.ExpandedPanel > 0 {
		lay.ExpandedPanelWidth = cfg.Layout.ExpandedPanel
	}

	e := &Engine{
		cfg:    cfg,
		sched:  sched,
		reg:    registry.New(sched),
		sink:   sink,
		layout: lay,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		log:    log,
		rec:    rec,
		modes:  opts.Modes,
	}

	e.cleanup = cleanup.New(cfg.CleanupFor(cfg.Mode), e.reg, sink, lay,
		cleanup.RemoverFunc(e.remove), log.With(logging.String("component", "cleanup")))
	e.cleanup.OnSweep(e.rec.Swept)
	e.cleanupTimers = sched.NewGroup()
	e.cleanup.Start(e.cleanupTimers)

	if !e.SwitchMode(cfg.Mode) {
		e.Close()
		return nil, fmt.Errorf("%w: %s", ErrStartFailed, cfg.Mode)
	}
	return e, nil
}

func (e *Engine) lookup(name string) (strategy.Factory, error) {
	if f, ok := e.modes[name]; ok {
		return f, nil
	}
	f, err := strategy.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMode, name)
	}
	return f, nil
}

// Modes lists the selectable mode names, built-in first.
func (e *Engine) Modes() []string {
	names := strategy.Names()
	for name := range e.modes {
		if _, err := strategy.Lookup(name); err != nil {
			names = append(names, name)
		}
	}
	return names
}

// OnEvent routes ev to the active strategy. Events arriving with no active
// strategy are counted as dropped.
func (e *Engine) OnEvent(ev source.Event) (entity.ID, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.events++
	if e.active == nil || e.closed {
		e.dropped++
		e.rec.EventRouted(e.mode, false)
		return 0, false
	}
	id, ok := e.active.OnEvent(ev)
	if !ok {
		e.dropped++
	}
	e.rec.EventRouted(e.mode, ok)
	return id, ok
}

// Advance moves virtual time to now, firing due timers and one frame.
func (e *Engine) Advance(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.sched.Advance(now)
}

// Step advances virtual time by d.
func (e *Engine) Step(d time.Duration) {
	e.Advance(e.Now().Add(d))
}

func (e *Engine) Now() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sched.Now()
}

// NotifyResize schedules a debounced aggressive cleanup sweep.
func (e *Engine) NotifyResize() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cleanup.NotifyResize()
}

// Sweep runs one cleanup pass immediately.
func (e *Engine) Sweep(aggressive bool) cleanup.SweepResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cleanup.Sweep(aggressive)
}

func (e *Engine) Mode() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Stats{
		Mode:          e.mode,
		Entities:      e.reg.Counts(),
		Epoch:         e.epoch.Current(),
		Events:        e.events,
		Dropped:       e.dropped,
		Sweeps:        e.cleanup.Sweeps(),
		Frames:        e.sched.Frames(),
		Transitioning: e.switching.Load(),
	}
	if a, ok := e.active.(strategy.AlphaReporter); ok {
		s.Alpha = a.Alpha()
	}
	return s
}

// Layout exposes the calculator the strategies lay out against.
func (e *Engine) Layout() *layout.Calculator { return e.layout }

// Sink returns the render sink visuals are drawn to.
func (e *Engine) Sink() render.Sink { return e.sink }

// remove is the cleanup manager's remover. The owning strategy gets the
// first chance so it can drop its own bookkeeping; elements it does not know
// are removed directly.
func (e *Engine) remove(id entity.ID) bool {
	if e.active != nil && e.active.Remove(id) {
		return true
	}
	el, ok := e.reg.Get(id)
	if !ok {
		return false
	}
	e.sink.Remove(el.Handle)
	e.reg.Untrack(id)
	return true
}

// purge removes every visual still tracked and empties the registry.
func (e *Engine) purge() int {
	snapshot := e.reg.Snapshot()
	for _, el := range snapshot {
		e.sink.Remove(el.Handle)
	}
	e.reg.Clear()
	return len(snapshot)
}

// Close tears down the active strategy and stops all timers. It is safe to
// call more than once.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.epoch.Bump()
	e.teardown()
	e.cleanup.Stop()
	e.cleanupTimers.Stop()
	e.purge()
	return nil
}

func (e *Engine) teardown() {
	if e.active != nil {
		e.active.Teardown()
	}
	if e.timers != nil {
		e.timers.Stop()
	}
	e.active = nil
	e.timers = nil
}

func (e *Engine) env(timers *clock.Group) strategy.Env {
	return strategy.Env{
		Registry: e.reg,
		Sink:     e.sink,
		Layout:   e.layout,
		Timers:   timers,
		Clock:    e.sched,
		Epoch:    &e.epoch,
		Rand:     e.rng,
		Log:      e.log,
		Config:   e.cfg.Strategies(),
	}
}

// Run drives the engine in real time until ctx is done. Virtual time moves
// by the wall-clock time between frames. Events are routed as they arrive; a
// closed events channel leaves the frame loop running.
func (e *Engine) Run(ctx context.Context, events <-chan source.Event) error {
	ticker := time.NewTicker(e.cfg.FrameInterval())
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			e.OnEvent(ev)
		case now := <-ticker.C:
			if e.isClosed() {
				return ErrClosed
			}
			e.Step(now.Sub(last))
			last = now
		}
	}
}

func (e *Engine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}
