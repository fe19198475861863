// Package cleanup bounds the number of live visuals.
//
// A Manager sweeps the registry on a fixed interval and removes elements that
// are detached, far off-screen, too old, or merely old while the registry is
// over capacity. A debounced resize forces one aggressive sweep.
package cleanup

import (
	"context"
	"time"

	"github.com/san-kum/msgviz/internal/clock"
	"github.com/san-kum/msgviz/internal/entity"
	"github.com/san-kum/msgviz/internal/layout"
	"github.com/san-kum/msgviz/internal/logging"
	"github.com/san-kum/msgviz/internal/registry"
	"github.com/san-kum/msgviz/internal/render"
)

type Config struct {
	CheckInterval  time.Duration `yaml:"check_interval" toml:"check_interval"`
	BufferZone     float64       `yaml:"buffer_zone" toml:"buffer_zone"`
	MaxAge         time.Duration `yaml:"max_age" toml:"max_age"`
	MaxElements    int           `yaml:"max_elements" toml:"max_elements"`
	AggressiveAge  time.Duration `yaml:"aggressive_age" toml:"aggressive_age"`
	ResizeDebounce time.Duration `yaml:"resize_debounce" toml:"resize_debounce"`
}

func DefaultConfig() Config {
	return Config{
		CheckInterval:  time.Second,
		BufferZone:     100,
		MaxAge:         30 * time.Second,
		MaxElements:    200,
		AggressiveAge:  10 * time.Second,
		ResizeDebounce: 300 * time.Millisecond,
	}
}

type State int

const (
	Idle State = iota
	Sweeping
)

func (s State) String() string {
	if s == Sweeping {
		return "sweeping"
	}
	return "idle"
}

// Reason explains why an element was flagged.
type Reason string

const (
	ReasonDetached  Reason = "detached"
	ReasonOffscreen Reason = "offscreen"
	ReasonExpired   Reason = "expired"
	ReasonOverflow  Reason = "overflow"
	ReasonResize    Reason = "resize"
)

// Remover deletes a flagged element and reports whether it existed.
type Remover interface {
	Remove(id entity.ID) bool
}

type RemoverFunc func(id entity.ID) bool

func (f RemoverFunc) Remove(id entity.ID) bool { return f(id) }

// Scheduler is the subset of clock.Group the manager needs.
type Scheduler interface {
	Now() time.Time
	After(d time.Duration, fn func()) clock.TimerID
	Every(interval time.Duration, fn func()) clock.TimerID
	Cancel(id clock.TimerID) bool
}

type SweepResult struct {
	At         time.Time
	Aggressive bool
	Checked    int
	Removed    int
	ByReason   map[Reason]int
}

type Manager struct {
	cfg      Config
	registry *registry.Registry
	sink     render.Sink
	layout   *layout.Calculator
	remover  Remover
	log      logging.Logger

	sched    Scheduler
	interval clock.TimerID
	resize   clock.TimerID

	state    State
	observer func(SweepResult)
	last     SweepResult
	sweeps   uint64
}

func New(cfg Config, reg *registry.Registry, sink render.Sink, lay *layout.Calculator, remover Remover, log logging.Logger) *Manager {
	if log == nil {
		log = logging.Noop()
	}
	return &Manager{
		cfg:      normalize(cfg),
		registry: reg,
		sink:     sink,
		layout:   lay,
		remover:  remover,
		log:      log,
	}
}

func normalize(cfg Config) Config {
	def := DefaultConfig()
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = def.CheckInterval
	}
	if cfg.ResizeDebounce <= 0 {
		cfg.ResizeDebounce = def.ResizeDebounce
	}
	return cfg
}

func (m *Manager) Config() Config { return m.cfg }

// SetConfig replaces the configuration read by subsequent sweeps and
// re-arms the interval when running.
func (m *Manager) SetConfig(cfg Config) {
	cfg = normalize(cfg)
	rearm := m.sched != nil && cfg.CheckInterval != m.cfg.CheckInterval
	m.cfg = cfg
	if rearm {
		m.Start(m.sched)
	}
}

// OnSweep registers a hook called after every sweep.
func (m *Manager) OnSweep(fn func(SweepResult)) { m.observer = fn }

// Start arms the periodic sweep on sched.
func (m *Manager) Start(sched Scheduler) {
	if m.sched != nil && m.interval != 0 {
		m.sched.Cancel(m.interval)
	}
	m.sched = sched
	m.interval = sched.Every(m.cfg.CheckInterval, func() { m.Sweep(false) })
}

// Stop cancels the periodic sweep and any pending resize sweep.
func (m *Manager) Stop() {
	if m.sched == nil {
		return
	}
	m.sched.Cancel(m.interval)
	m.interval = 0
	m.Reset()
	m.sched = nil
}

// NotifyResize schedules an aggressive sweep once resizes stop for
// ResizeDebounce.
func (m *Manager) NotifyResize() {
	if m.sched == nil {
		return
	}
	if m.resize != 0 {
		m.sched.Cancel(m.resize)
	}
	m.resize = m.sched.After(m.cfg.ResizeDebounce, func() {
		m.resize = 0
		m.Sweep(true)
	})
}

// ResizePending reports whether a debounced resize sweep is scheduled.
func (m *Manager) ResizePending() bool { return m.resize != 0 }

// Reset drops a pending resize sweep and returns to idle.
func (m *Manager) Reset() {
	if m.resize != 0 && m.sched != nil {
		m.sched.Cancel(m.resize)
	}
	m.resize = 0
	m.state = Idle
}

func (m *Manager) State() State { return m.state }

func (m *Manager) Last() SweepResult { return m.last }

func (m *Manager) Sweeps() uint64 { return m.sweeps }

func (m *Manager) now() time.Time {
	if m.sched != nil {
		return m.sched.Now()
	}
	return time.Now()
}

// classify returns why el should be removed, or "" to keep it.
func (m *Manager) classify(el registry.TrackedElement, now time.Time, aggressive, overflow bool) Reason {
	if !m.sink.IsAttached(el.Handle) {
		return ReasonDetached
	}
	if el.Pinned {
		return ""
	}
	if !m.layout.Contains(el.X, el.Y, m.cfg.BufferZone) {
		return ReasonOffscreen
	}
	age := el.Age(now)
	if m.cfg.MaxAge > 0 && age >= m.cfg.MaxAge {
		return ReasonExpired
	}
	if age >= m.cfg.AggressiveAge {
		if aggressive {
			return ReasonResize
		}
		if overflow {
			return ReasonOverflow
		}
	}
	return ""
}

// Sweep runs one pass over a snapshot of the registry. A sweep requested
// while one is running returns an empty result.
func (m *Manager) Sweep(aggressive bool) SweepResult {
	if m.state == Sweeping {
		return SweepResult{}
	}
	m.state = Sweeping
	defer func() { m.state = Idle }()

	now := m.now()
	snapshot := m.registry.Snapshot()
	res := SweepResult{
		At:         now,
		Aggressive: aggressive,
		Checked:    len(snapshot),
		ByReason:   make(map[Reason]int),
	}
	// Over capacity retires every element past AggressiveAge, not just the excess.
	overflow := m.cfg.MaxElements > 0 && len(snapshot) > m.cfg.MaxElements

	for _, el := range snapshot {
		reason := m.classify(el, now, aggressive, overflow)
		if reason == "" {
			continue
		}
		if m.remover.Remove(el.ID) {
			res.Removed++
			res.ByReason[reason]++
		}
	}

	m.sweeps++
	m.last = res
	if res.Removed > 0 {
		m.log.Debug(context.Background(), "cleanup sweep",
			logging.Int("checked", res.Checked),
			logging.Int("removed", res.Removed),
			logging.Bool("aggressive", aggressive))
	}
	if m.observer != nil {
		m.observer(res)
	}
	return res
}
