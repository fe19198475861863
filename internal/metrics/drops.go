package metrics

import (
	"time"

	"github.com/san-kum/msgviz/internal/engine"
)

// DropRatio is the share of events that no strategy accepted.
type DropRatio struct {
	name    string
	events  uint64
	dropped uint64
}

func NewDropRatio() *DropRatio {
	return &DropRatio{name: "drop_ratio"}
}

func (d *DropRatio) Name() string { return d.name }

func (d *DropRatio) Observe(s engine.Stats, _ time.Time) {
	d.events = s.Events
	d.dropped = s.Dropped
}

func (d *DropRatio) Value() float64 {
	if d.events == 0 {
		return 0
	}
	return float64(d.dropped) / float64(d.events)
}

func (d *DropRatio) Reset() {
	d.events = 0
	d.dropped = 0
}
