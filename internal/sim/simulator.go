// Package sim runs the engine headless on a virtual clock, feeding it from an
// event source and sampling its state.
package sim

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/san-kum/msgviz/internal/engine"
	"github.com/san-kum/msgviz/internal/source"
)

type hookAt struct {
	at time.Duration
	fn Hook
}

type Simulator struct {
	eng       *engine.Engine
	src       source.Emitter
	metrics   []Metric
	observers []Observer
	hooks     []hookAt
}

func New(eng *engine.Engine, src source.Emitter) *Simulator {
	return &Simulator{
		eng:       eng,
		src:       src,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// At schedules fn to run once the run has been going for offset.
func (s *Simulator) At(offset time.Duration, fn Hook) {
	s.hooks = append(s.hooks, hookAt{at: offset, fn: fn})
}

func (s *Simulator) Engine() *engine.Engine { return s.eng }

func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	cfg, err := s.validateConfig(cfg)
	if err != nil {
		return nil, err
	}

	steps := int(cfg.Duration / cfg.Frame)
	result := &Result{
		Samples: make([]Sample, 0, int(cfg.Duration/cfg.SampleEvery)+1),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}
	hooks := make([]hookAt, len(s.hooks))
	copy(hooks, s.hooks)
	sort.SliceStable(hooks, func(i, j int) bool { return hooks[i].at < hooks[j].at })

	var elapsed, nextSample time.Duration
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		for len(hooks) > 0 && hooks[0].at <= elapsed {
			if err := hooks[0].fn(s.eng); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("hook at %v: %w", hooks[0].at, err))
			}
			hooks = hooks[1:]
		}

		if s.src != nil {
			for _, ev := range s.src.Emit(s.eng.Now()) {
				s.eng.OnEvent(ev)
			}
		}

		s.eng.Step(cfg.Frame)
		elapsed += cfg.Frame
		result.Frames++

		if elapsed >= nextSample {
			s.sample(result, elapsed)
			nextSample += cfg.SampleEvery
		}
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	result.Events = s.eng.Stats().Events

	return result, nil
}

func (s *Simulator) sample(result *Result, elapsed time.Duration) {
	stats := s.eng.Stats()
	at := s.eng.Now()
	smp := Sample{
		T:       elapsed,
		Mode:    stats.Mode,
		Total:   stats.Entities.Total,
		ByType:  stats.Entities.ByType,
		Alpha:   stats.Alpha,
		Events:  stats.Events,
		Dropped: stats.Dropped,
	}
	result.Samples = append(result.Samples, smp)

	for _, m := range s.metrics {
		m.Observe(stats, at)
	}
	for _, obs := range s.observers {
		obs.OnSample(smp)
	}
}

func (s *Simulator) validateConfig(cfg Config) (Config, error) {
	if cfg.Frame <= 0 {
		return cfg, fmt.Errorf("frame must be positive, got %v", cfg.Frame)
	}
	if cfg.Duration <= 0 {
		return cfg, fmt.Errorf("duration must be positive, got %v", cfg.Duration)
	}
	if cfg.Duration < cfg.Frame {
		return cfg, fmt.Errorf("duration %v is shorter than one frame", cfg.Duration)
	}
	if cfg.SampleEvery <= 0 {
		cfg.SampleEvery = 100 * time.Millisecond
	}
	return cfg, nil
}
