package force

import (
	"github.com/san-kum/msgviz/internal/layout"
)

// Boundary contains nodes inside a rectangle. As a Force it pushes nodes out
// of an edge zone with strength growing quadratically with penetration; as a
// Constraint it clamps positions that still escaped.
type Boundary struct {
	Bounds   func() layout.Bounds
	Zone     float64
	Strength float64
}

func NewBoundary(bounds func() layout.Bounds) *Boundary {
	return &Boundary{Bounds: bounds, Zone: 50, Strength: 0.5}
}

const maxPenetration = 3

func (f *Boundary) push(low, high, pos, r float64) float64 {
	if f.Zone <= 0 {
		return 0
	}
	var d float64
	if in := low + r + f.Zone; pos < in {
		p := min((in-pos)/f.Zone, maxPenetration)
		d += f.Strength * p * p
	}
	if in := high - r - f.Zone; pos > in {
		p := min((pos-in)/f.Zone, maxPenetration)
		d -= f.Strength * p * p
	}
	return d
}

func (f *Boundary) Apply(s *Simulation, alpha float64) {
	if f.Bounds == nil {
		return
	}
	b := f.Bounds()
	for i := range s.nodes {
		n := &s.nodes[i]
		s.Nudge(n, f.push(b.MinX, b.MaxX, n.X, n.Radius), f.push(b.MinY, b.MaxY, n.Y, n.Radius))
	}
}

func clampAxis(low, high, pos, r float64) (float64, bool) {
	lo, hi := low+r, high-r
	if lo > hi {
		mid := (low + high) / 2
		return mid, pos != mid
	}
	if pos < lo {
		return lo, true
	}
	if pos > hi {
		return hi, true
	}
	return pos, false
}

func (f *Boundary) Constrain(s *Simulation) {
	if f.Bounds == nil {
		return
	}
	b := f.Bounds()
	for i := range s.nodes {
		n := &s.nodes[i]
		if n.Fixed {
			continue
		}
		if x, moved := clampAxis(b.MinX, b.MaxX, n.X, n.Radius); moved {
			n.X, n.VX = x, 0
		}
		if y, moved := clampAxis(b.MinY, b.MaxY, n.Y, n.Radius); moved {
			n.Y, n.VY = y, 0
		}
	}
}
