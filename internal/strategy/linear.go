package strategy

import (
	"fmt"
	"time"

	"github.com/san-kum/msgviz/internal/entity"
	"github.com/san-kum/msgviz/internal/layout"
	"github.com/san-kum/msgviz/internal/render"
	"github.com/san-kum/msgviz/internal/source"
)

type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case Up, Down, Left, Right:
		return d, nil
	}
	return "", fmt.Errorf("unknown direction: %q", s)
}

// EaseCubicIn starts slow and finishes fast.
func EaseCubicIn(p float64) float64 {
	return p * p * p
}

// LinearPath returns the start and end of a linear journey. r in [0, 1)
// places the entity along the entry edge; the entry edge is the one opposite
// the direction of travel.
func LinearPath(dir Direction, d layout.Dimensions, margin, buffer, size, r float64) (render.Point, render.Point) {
	across := func(extent float64) float64 {
		return margin + r*(extent-2*margin-size)
	}
	var start, end render.Point
	switch dir {
	case Down:
		start = render.Point{X: across(d.Width), Y: -margin}
		end = render.Point{X: start.X, Y: start.Y + d.Height + 2*buffer}
	case Up:
		start = render.Point{X: across(d.Width), Y: d.Height + margin}
		end = render.Point{X: start.X, Y: start.Y - (d.Height + 2*buffer)}
	case Right:
		start = render.Point{X: -margin, Y: across(d.Height)}
		end = render.Point{X: start.X + d.Width + 2*buffer, Y: start.Y}
	case Left:
		start = render.Point{X: d.Width + margin, Y: across(d.Height)}
		end = render.Point{X: start.X - (d.Width + 2*buffer), Y: start.Y}
	}
	return start, end
}

// Linear moves entities across the canvas in one direction.
type Linear struct {
	closedForm
	cfg LinearConfig
	dir Direction
}

func NewLinear(env Env) *Linear {
	l := &Linear{cfg: env.Config.Linear}
	l.dir, _ = ParseDirection(l.cfg.Direction)
	l.closedForm = closedForm{
		env:      env.withDefaults(),
		mode:     "linear",
		kind:     entity.KindMessage,
		radius:   l.cfg.ElementSize / 2,
		duration: l.cfg.Duration,
		max:      l.cfg.MaxActive,
		m:        l,
	}
	return l
}

func (l *Linear) launch(p *particle, _ source.Event) {
	d := l.env.Layout.EffectiveDimensions()
	p.start, p.end = LinearPath(l.dir, d, l.cfg.Margin, l.cfg.Buffer, l.cfg.ElementSize, l.env.Rand.Float64())
}

func (l *Linear) pose(p *particle, now time.Time) pose {
	prog := progress(now, p.born, l.cfg.Duration)
	e := EaseCubicIn(prog)
	pos := render.Point{X: lerp(p.start.X, p.end.X, e), Y: lerp(p.start.Y, p.end.Y, e)}
	return pose{
		pos:     pos,
		opacity: 1,
		scale:   1,
		status:  entity.StatusAnimating,
		done:    prog >= 1 || !l.env.Layout.Contains(pos.X, pos.Y, l.cfg.Buffer),
	}
}
