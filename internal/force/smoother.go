package force

import (
	"math"

	"github.com/san-kum/msgviz/internal/entity"
)

// Smoother damps rendered positions between simulation ticks. It is applied
// to output coordinates only and never feeds back into the simulation.
type Smoother struct {
	Large       float64
	Medium      float64
	Small       float64
	LargeAbove  float64
	MediumAbove float64
	MinMovement float64

	prev map[entity.ID][2]float64
}

func NewSmoother() *Smoother {
	return &Smoother{
		Large:       0.6,
		Medium:      0.3,
		Small:       0.1,
		LargeAbove:  10,
		MediumAbove: 1,
		MinMovement: 0.1,
		prev:        make(map[entity.ID][2]float64),
	}
}

// Smooth returns the position to render for id and whether it moved.
func (s *Smoother) Smooth(id entity.ID, x, y float64) (float64, float64, bool) {
	p, ok := s.prev[id]
	if !ok {
		s.prev[id] = [2]float64{x, y}
		return x, y, true
	}
	dx, dy := x-p[0], y-p[1]
	d := math.Hypot(dx, dy)
	if d < s.MinMovement {
		return p[0], p[1], false
	}
	factor := s.Small
	switch {
	case d > s.LargeAbove:
		factor = s.Large
	case d > s.MediumAbove:
		factor = s.Medium
	}
	nx, ny := p[0]+dx*factor, p[1]+dy*factor
	s.prev[id] = [2]float64{nx, ny}
	return nx, ny, true
}

func (s *Smoother) Forget(id entity.ID) { delete(s.prev, id) }

func (s *Smoother) Reset() { clear(s.prev) }
