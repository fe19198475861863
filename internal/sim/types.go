package sim

import (
	"time"

	"github.com/san-kum/msgviz/internal/engine"
	"github.com/san-kum/msgviz/internal/entity"
	"github.com/san-kum/msgviz/internal/metrics"
)

type Metric = metrics.Metric

type Observer interface {
	OnSample(s Sample)
}

type ObserverFunc func(s Sample)

func (f ObserverFunc) OnSample(s Sample) { f(s) }

// Hook runs at a fixed offset into the run, before that frame's events.
type Hook func(eng *engine.Engine) error

type Config struct {
	Frame       time.Duration
	Duration    time.Duration
	SampleEvery time.Duration
}

// Sample is one periodic snapshot of the engine.
type Sample struct {
	T       time.Duration       `json:"t"`
	Mode    string              `json:"mode"`
	Total   int                 `json:"total"`
	ByType  map[entity.Kind]int `json:"by_type"`
	Alpha   float64             `json:"alpha"`
	Events  uint64              `json:"events"`
	Dropped uint64              `json:"dropped"`
}

type Result struct {
	Samples []Sample
	Metrics map[string]float64
	Frames  int
	Events  uint64
	Errors  []error
}

// Totals returns the entity count of every sample.
func (r *Result) Totals() []float64 {
	out := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = float64(s.Total)
	}
	return out
}
