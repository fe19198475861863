package strategy

import (
	"time"

	"github.com/san-kum/msgviz/internal/clock"
	"github.com/san-kum/msgviz/internal/entity"
	"github.com/san-kum/msgviz/internal/registry"
	"github.com/san-kum/msgviz/internal/render"
	"github.com/san-kum/msgviz/internal/source"
)

// particle is one closed-form entity.
type particle struct {
	id      entity.ID
	handle  render.Handle
	born    time.Time
	status  entity.Status
	timeout clock.TimerID

	start, end render.Point
	origin     render.Point
	angle      float64
	reach      float64
}

type pose struct {
	pos     render.Point
	opacity float64
	scale   float64
	status  entity.Status
	done    bool
}

// motion supplies a closed-form mode's geometry.
type motion interface {
	launch(p *particle, ev source.Event)
	pose(p *particle, now time.Time) pose
}

// closedForm runs the lifecycle shared by linear, radial and starfield.
type closedForm struct {
	env      Env
	mode     string
	kind     entity.Kind
	radius   float64
	duration time.Duration
	max      int
	m        motion

	live  map[entity.ID]*particle
	order fifo
}

func (c *closedForm) Name() string { return c.mode }

func (c *closedForm) Start() error {
	if err := c.env.Config.Validate(c.mode); err != nil {
		return err
	}
	c.live = make(map[entity.ID]*particle)
	c.env.Timers.OnFrame(clock.GuardFrame(c.env.Epoch, c.Tick))
	return nil
}

func (c *closedForm) alive(id entity.ID) bool {
	_, ok := c.live[id]
	return ok
}

func (c *closedForm) OnEvent(ev source.Event) (entity.ID, bool) {
	if c.live == nil {
		return 0, false
	}
	for c.max > 0 && len(c.live) >= c.max {
		id, ok := c.order.oldest(c.alive)
		if !ok {
			break
		}
		c.Remove(id)
	}

	now := c.env.Clock.Now()
	p := &particle{born: now, status: entity.StatusAnimating}
	c.m.launch(p, ev)
	ps := c.m.pose(p, now)

	p.handle = c.env.Sink.Create(c.kind, ps.pos, render.Style{
		Color:  source.TopicColor(ev.Topic),
		Radius: c.radius,
		Label:  ev.Topic,
	})
	p.id = c.env.Registry.Track(p.handle, registry.Meta{
		Type:   c.kind,
		Status: entity.StatusAnimating,
		X:      ps.pos.X,
		Y:      ps.pos.Y,
	})
	id := p.id
	p.timeout = c.env.Timers.After(c.duration+safetyGrace, c.env.Epoch.Guard(func() {
		c.Remove(id)
	}))

	c.live[id] = p
	c.order.push(id, c.alive)
	c.env.Sink.Update(p.handle, ps.pos, ps.opacity, ps.scale)
	return id, true
}

func (c *closedForm) Tick(now time.Time) {
	for id, p := range c.live {
		if !c.env.Sink.IsAttached(p.handle) {
			c.Remove(id)
			continue
		}
		ps := c.m.pose(p, now)
		if ps.done {
			c.Remove(id)
			continue
		}
		if ps.status != p.status {
			p.status = ps.status
			c.env.Registry.UpdateStatus(id, ps.status)
		}
		c.env.Sink.Update(p.handle, ps.pos, ps.opacity, ps.scale)
		c.env.Registry.SetPosition(id, ps.pos.X, ps.pos.Y)
	}
}

func (c *closedForm) Remove(id entity.ID) bool {
	p, ok := c.live[id]
	if !ok {
		return false
	}
	delete(c.live, id)
	c.env.Timers.Cancel(p.timeout)
	c.env.Sink.Remove(p.handle)
	c.env.Registry.Untrack(id)
	return true
}

func (c *closedForm) Teardown() {
	c.env.Timers.Stop()
	for id := range c.live {
		c.Remove(id)
	}
	c.order.reset()
}

// Len returns the number of live entities.
func (c *closedForm) Len() int { return len(c.live) }
