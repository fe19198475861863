package force

import (
	"math"

	"github.com/san-kum/msgviz/internal/entity"
)

// LinkForce pulls linked nodes toward each link's rest distance. The
// correction is split by node degree so hubs move less than leaves; when one
// end is fixed the other end takes all of it.
type LinkForce struct {
	DefaultDistance float64
	DefaultStrength float64

	degree map[entity.ID]int
}

func NewLinkForce() *LinkForce {
	return &LinkForce{DefaultDistance: 30, DefaultStrength: 1}
}

func (f *LinkForce) Apply(s *Simulation, alpha float64) {
	if len(s.links) == 0 {
		return
	}
	if f.degree == nil {
		f.degree = make(map[entity.ID]int)
	}
	clear(f.degree)
	for _, l := range s.links {
		f.degree[l.Source]++
		f.degree[l.Target]++
	}

	for _, l := range s.links {
		src, ok := s.Node(l.Source)
		if !ok {
			continue
		}
		tgt, ok := s.Node(l.Target)
		if !ok || (src.Fixed && tgt.Fixed) {
			continue
		}
		dist, strength := l.Distance, l.Strength
		if dist <= 0 {
			dist = f.DefaultDistance
		}
		if strength <= 0 {
			strength = f.DefaultStrength
		}

		x := tgt.X + tgt.VX - src.X - src.VX
		y := tgt.Y + tgt.VY - src.Y - src.VY
		if x == 0 && y == 0 {
			x, y = s.jiggle(), s.jiggle()
		}
		l2 := math.Sqrt(x*x + y*y)
		k := (l2 - dist) / l2 * alpha * strength
		x *= k
		y *= k

		switch {
		case src.Fixed:
			s.Nudge(tgt, -x, -y)
		case tgt.Fixed:
			s.Nudge(src, x, y)
		default:
			ds, dt := float64(f.degree[l.Source]), float64(f.degree[l.Target])
			bias := ds / (ds + dt)
			s.Nudge(tgt, -x*bias, -y*bias)
			s.Nudge(src, x*(1-bias), y*(1-bias))
		}
	}
}

// ManyBody is pairwise repulsion (negative Strength) or attraction, ignored
// beyond DistanceMax.
type ManyBody struct {
	Strength    float64
	DistanceMin float64
	DistanceMax float64
}

func NewManyBody() *ManyBody {
	return &ManyBody{Strength: -30, DistanceMin: 1, DistanceMax: math.Inf(1)}
}

func (f *ManyBody) Apply(s *Simulation, alpha float64) {
	min2 := f.DistanceMin * f.DistanceMin
	max2 := f.DistanceMax * f.DistanceMax
	nodes := s.nodes
	for i := range nodes {
		a := &nodes[i]
		for j := i + 1; j < len(nodes); j++ {
			b := &nodes[j]
			if a.Fixed && b.Fixed {
				continue
			}
			x, y := b.X-a.X, b.Y-a.Y
			d2 := x*x + y*y
			if d2 >= max2 {
				continue
			}
			if d2 == 0 {
				x, y = s.jiggle(), s.jiggle()
				d2 = x*x + y*y
			}
			if d2 < min2 {
				d2 = math.Sqrt(min2 * d2)
			}
			w := f.Strength * alpha / d2
			s.Nudge(a, x*w, y*w)
			s.Nudge(b, -x*w, -y*w)
		}
	}
}

// Center pulls every free node toward a moving target.
type Center struct {
	Target   func() (x, y float64)
	Strength float64
}

func (f *Center) Apply(s *Simulation, alpha float64) {
	if f.Target == nil {
		return
	}
	cx, cy := f.Target()
	for i := range s.nodes {
		n := &s.nodes[i]
		s.Nudge(n, (cx-n.X)*f.Strength*alpha, (cy-n.Y)*f.Strength*alpha)
	}
}

// Collide keeps node circles from overlapping. Pairs in the same Group are
// separated with SameGroup strength, others with OtherGroup.
type Collide struct {
	Padding    float64
	SameGroup  float64
	OtherGroup float64
	Iterations int
}

func NewCollide() *Collide {
	return &Collide{Padding: 2, SameGroup: 0.7, OtherGroup: 1, Iterations: 1}
}

func (f *Collide) Apply(s *Simulation, alpha float64) {
	iters := f.Iterations
	if iters < 1 {
		iters = 1
	}
	nodes := s.nodes
	for it := 0; it < iters; it++ {
		for i := range nodes {
			a := &nodes[i]
			for j := i + 1; j < len(nodes); j++ {
				b := &nodes[j]
				if a.Fixed && b.Fixed {
					continue
				}
				r := a.Radius + b.Radius + f.Padding
				x := a.X + a.VX - b.X - b.VX
				y := a.Y + a.VY - b.Y - b.VY
				d2 := x*x + y*y
				if d2 >= r*r {
					continue
				}
				if d2 == 0 {
					x, y = s.jiggle(), s.jiggle()
					d2 = x*x + y*y
				}
				strength := f.OtherGroup
				if a.Group != "" && a.Group == b.Group {
					strength = f.SameGroup
				}
				l := math.Sqrt(d2)
				k := (r - l) / l * strength
				x *= k
				y *= k

				switch {
				case a.Fixed:
					s.Nudge(b, -x, -y)
				case b.Fixed:
					s.Nudge(a, x, y)
				default:
					ra, rb := a.Radius*a.Radius, b.Radius*b.Radius
					w := 0.5
					if ra+rb > 0 {
						w = rb / (ra + rb)
					}
					s.Nudge(a, x*w, y*w)
					s.Nudge(b, -x*(1-w), -y*(1-w))
				}
			}
		}
	}
}
