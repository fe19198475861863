package strategy

import (
	"math"
	"time"

	"github.com/san-kum/msgviz/internal/entity"
	"github.com/san-kum/msgviz/internal/render"
	"github.com/san-kum/msgviz/internal/source"
)

// StarfieldDistance is max × (elapsed/duration)^intensity: almost still at
// first, then accelerating. It is exactly max at elapsed == duration.
func StarfieldDistance(elapsed, duration time.Duration, max, intensity float64) float64 {
	if duration <= 0 {
		return max
	}
	p := entity.Clamp(float64(elapsed)/float64(duration), 0, 1)
	return max * math.Pow(p, intensity)
}

// StarfieldOpacity fades in over the first fadeIn of the journey.
func StarfieldOpacity(progress, fadeIn float64) float64 {
	if fadeIn <= 0 || progress >= fadeIn {
		return 1
	}
	return math.Max(progress/fadeIn, 0)
}

// StarfieldScale grows with the square of the distance ratio.
func StarfieldScale(ratio, lo, hi float64) float64 {
	return lo + (hi-lo)*ratio*ratio
}

// Starfield flies entities out of the center as if approaching the viewer.
type Starfield struct {
	closedForm
	cfg StarfieldConfig
}

func NewStarfield(env Env) *Starfield {
	s := &Starfield{cfg: env.Config.Starfield}
	s.closedForm = closedForm{
		env:      env.withDefaults(),
		mode:     "starfield",
		kind:     entity.KindParticle,
		radius:   s.cfg.Radius,
		duration: s.cfg.Duration,
		max:      s.cfg.MaxActive,
		m:        s,
	}
	return s
}

func (s *Starfield) launch(p *particle, _ source.Event) {
	d := s.env.Layout.EffectiveDimensions()
	p.origin = render.Point{X: d.CenterX, Y: d.CenterY}
	p.angle = s.env.Rand.Float64() * 2 * math.Pi
	p.reach = s.cfg.MaxDistance
	if p.reach <= 0 {
		p.reach = reach(d)
	}
}

func (s *Starfield) pose(p *particle, now time.Time) pose {
	elapsed := now.Sub(p.born)
	prog := progress(now, p.born, s.cfg.Duration)
	dist := StarfieldDistance(elapsed, s.cfg.Duration, p.reach, s.cfg.Intensity)
	pos := polar(p.origin, p.angle, dist)
	return pose{
		pos:     pos,
		opacity: StarfieldOpacity(prog, s.cfg.FadeIn),
		scale:   StarfieldScale(dist/p.reach, s.cfg.MinScale, s.cfg.MaxScale),
		status:  entity.StatusAnimating,
		done:    prog >= 1 || !s.env.Layout.Contains(pos.X, pos.Y, s.cfg.Buffer),
	}
}
