// Package metrics summarises a run from periodic engine snapshots.
package metrics

import (
	"time"

	"github.com/san-kum/msgviz/internal/engine"
)

// Metric folds a sequence of engine snapshots into one number.
type Metric interface {
	Name() string
	Observe(s engine.Stats, at time.Time)
	Value() float64
	Reset()
}

// Defaults returns the metrics recorded for every bench run.
func Defaults() []Metric {
	return []Metric{
		NewEventRate(time.Minute),
		NewPeak(),
		NewMeanEntities(),
		NewDropRatio(),
	}
}
