package metrics

import (
	"time"

	"github.com/san-kum/msgviz/internal/engine"
)

type rateSample struct {
	at     time.Time
	events uint64
}

// EventRate reports events per second over a sliding window.
type EventRate struct {
	name    string
	window  time.Duration
	samples []rateSample
}

func NewEventRate(window time.Duration) *EventRate {
	if window <= 0 {
		window = time.Minute
	}
	return &EventRate{
		name:   "event_rate",
		window: window,
	}
}

func (r *EventRate) Name() string { return r.name }

func (r *EventRate) Observe(s engine.Stats, at time.Time) {
	r.samples = append(r.samples, rateSample{at: at, events: s.Events})
	cutoff := at.Add(-r.window)
	drop := 0
	for drop < len(r.samples)-1 && r.samples[drop].at.Before(cutoff) {
		drop++
	}
	r.samples = r.samples[drop:]
}

func (r *EventRate) Value() float64 {
	if len(r.samples) < 2 {
		return 0
	}
	first, last := r.samples[0], r.samples[len(r.samples)-1]
	span := last.at.Sub(first.at).Seconds()
	if span <= 0 || last.events < first.events {
		return 0
	}
	return float64(last.events-first.events) / span
}

func (r *EventRate) Reset() {
	r.samples = r.samples[:0]
}
