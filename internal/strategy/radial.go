package strategy

import (
	"math"
	"time"

	"github.com/san-kum/msgviz/internal/entity"
	"github.com/san-kum/msgviz/internal/layout"
	"github.com/san-kum/msgviz/internal/render"
	"github.com/san-kum/msgviz/internal/source"
)

// RadialOpacity is 1 up to fadeStart, then falls linearly to 0 at progress 1.
func RadialOpacity(progress, fadeStart float64) float64 {
	if progress <= fadeStart {
		return 1
	}
	if progress >= 1 {
		return 0
	}
	return 1 - (progress-fadeStart)/(1-fadeStart)
}

// reach is the distance from the center to the farthest corner.
func reach(d layout.Dimensions) float64 {
	return math.Hypot(d.Width, d.Height) / 2
}

func polar(origin render.Point, angle, dist float64) render.Point {
	return render.Point{X: origin.X + math.Cos(angle)*dist, Y: origin.Y + math.Sin(angle)*dist}
}

// Radial bursts entities outward from the center at a constant speed.
type Radial struct {
	closedForm
	cfg RadialConfig
}

func NewRadial(env Env) *Radial {
	r := &Radial{cfg: env.Config.Radial}
	r.closedForm = closedForm{
		env:      env.withDefaults(),
		mode:     "radial",
		kind:     entity.KindParticle,
		radius:   r.cfg.Radius,
		duration: r.cfg.Duration,
		max:      r.cfg.MaxActive,
		m:        r,
	}
	return r
}

func (r *Radial) launch(p *particle, _ source.Event) {
	d := r.env.Layout.EffectiveDimensions()
	p.origin = render.Point{X: d.CenterX, Y: d.CenterY}
	p.angle = r.env.Rand.Float64() * 2 * math.Pi
	p.reach = r.cfg.MaxDistance
	if p.reach <= 0 {
		p.reach = reach(d)
	}
}

func (r *Radial) pose(p *particle, now time.Time) pose {
	prog := progress(now, p.born, r.cfg.Duration)
	pos := polar(p.origin, p.angle, p.reach*prog)
	opacity := RadialOpacity(prog, r.cfg.FadeStart)
	status := entity.StatusAnimating
	if prog > r.cfg.FadeStart {
		status = entity.StatusFading
	}
	return pose{
		pos:     pos,
		opacity: opacity,
		scale:   lerp(r.cfg.MinScale, r.cfg.MaxScale, prog),
		status:  status,
		done:    prog >= 1 || opacity <= 0 || !r.env.Layout.Contains(pos.X, pos.Y, r.cfg.Buffer),
	}
}
