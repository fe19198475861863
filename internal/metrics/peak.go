package metrics

import (
	"time"

	"github.com/san-kum/msgviz/internal/engine"
)

// Peak is the largest live entity count seen.
type Peak struct {
	name string
	max  int
}

func NewPeak() *Peak {
	return &Peak{name: "peak_entities"}
}

func (p *Peak) Name() string { return p.name }

func (p *Peak) Observe(s engine.Stats, _ time.Time) {
	if s.Entities.Total > p.max {
		p.max = s.Entities.Total
	}
}

func (p *Peak) Value() float64 { return float64(p.max) }

func (p *Peak) Reset() { p.max = 0 }

type MeanEntities struct {
	name    string
	sum     float64
	samples int
}

func NewMeanEntities() *MeanEntities {
	return &MeanEntities{name: "mean_entities"}
}

func (m *MeanEntities) Name() string { return m.name }

func (m *MeanEntities) Observe(s engine.Stats, _ time.Time) {
	m.sum += float64(s.Entities.Total)
	m.samples++
}

func (m *MeanEntities) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanEntities) Reset() {
	m.sum = 0
	m.samples = 0
}
