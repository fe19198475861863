package strategy

import (
	"cmp"
	"context"
	"math"
	"slices"
	"time"

	"github.com/san-kum/msgviz/internal/clock"
	"github.com/san-kum/msgviz/internal/entity"
	"github.com/san-kum/msgviz/internal/force"
	"github.com/san-kum/msgviz/internal/layout"
	"github.com/san-kum/msgviz/internal/logging"
	"github.com/san-kum/msgviz/internal/registry"
	"github.com/san-kum/msgviz/internal/render"
	"github.com/san-kum/msgviz/internal/source"
)

// GoldenAngle is 137.5° in radians.
const GoldenAngle = 137.5 * math.Pi / 180

// ClusterTarget places the index-th cluster on a golden-angle spiral around
// (cx, cy). With step > 0 the distance to the center strictly increases with
// index, so no two targets coincide.
//
// Live clusters hold distinct indexes. A new cluster takes the lowest index
// no live cluster holds, so indexes freed by idle clusters are reused before
// the spiral grows outward.
func ClusterTarget(index int, cx, cy, base, step float64) (float64, float64) {
	angle := float64(index) * GoldenAngle
	r := base + float64(index)*step
	return cx + math.Cos(angle)*r, cy + math.Sin(angle)*r
}

type Cluster struct {
	ID        string
	Index     int
	TargetX   float64
	TargetY   float64
	Color     string
	NodeCount int

	idle clock.TimerID
}

// ClusterAttraction pulls each node toward its group's target, scaled by
// alpha and by the node's radius relative to RefRadius.
type ClusterAttraction struct {
	Target    func(group string) (x, y float64, ok bool)
	Strength  float64
	RefRadius float64
}

func (f *ClusterAttraction) Apply(s *force.Simulation, alpha float64) {
	ref := f.RefRadius
	if ref <= 0 {
		ref = 1
	}
	s.EachNode(func(n *force.Node) {
		x, y, ok := f.Target(n.Group)
		if !ok {
			return
		}
		k := f.Strength * alpha * n.Radius / ref
		s.Nudge(n, (x-n.X)*k, (y-n.Y)*k)
	})
}

type clusterMsg struct {
	ent    entity.Entity
	handle render.Handle
	status entity.Status
	fadeAt time.Time
	timer  clock.TimerID
}

// Clusters shows each message as a short-lived particle drawn toward its
// customer's cluster.
type Clusters struct {
	env Env
	cfg ClustersConfig

	sim      *force.Simulation
	clusters map[string]*Cluster
	msgs     map[entity.ID]*clusterMsg
	order    fifo
}

func NewClusters(env Env) *Clusters {
	return &Clusters{env: env.withDefaults(), cfg: env.Config.Clusters}
}

func (c *Clusters) Name() string { return "clusters" }

func (c *Clusters) Start() error {
	if err := c.env.Config.Validate("clusters"); err != nil {
		return err
	}
	c.clusters = make(map[string]*Cluster)
	c.msgs = make(map[entity.ID]*clusterMsg)
	c.sim = force.New(c.env.Config.Force, c.env.Rand)

	lay := c.env.Layout
	boundary := force.NewBoundary(func() layout.Bounds { return lay.SafeBounds(c.cfg.BoundaryMargin) })
	c.sim.SetForce("cluster", &ClusterAttraction{Target: c.target, Strength: c.cfg.Attraction, RefRadius: c.cfg.Radius})
	c.sim.SetForce("collide", force.NewCollide())
	c.sim.SetForce("boundary", boundary)
	c.sim.AddConstraint(boundary)

	c.env.Timers.OnFrame(clock.GuardFrame(c.env.Epoch, c.Tick))
	return nil
}

func (c *Clusters) Alpha() float64 {
	if c.sim == nil {
		return 0
	}
	return c.sim.Alpha()
}

func (c *Clusters) target(group string) (float64, float64, bool) {
	cl, ok := c.clusters[group]
	if !ok {
		return 0, 0, false
	}
	return cl.TargetX, cl.TargetY, true
}

func (c *Clusters) cluster(customer string) *Cluster {
	if cl, ok := c.clusters[customer]; ok {
		c.env.Timers.Cancel(cl.idle)
		cl.idle = 0
		return cl
	}
	cx, cy := c.env.Layout.Center()
	idx := c.freeIndex()
	x, y := ClusterTarget(idx, cx, cy, c.cfg.RingBase, c.cfg.RingStep)
	cl := &Cluster{ID: customer, Index: idx, TargetX: x, TargetY: y, Color: source.TopicColor(customer)}
	c.clusters[customer] = cl
	c.env.Log.Debug(context.Background(), "cluster created",
		logging.String("customer", customer), logging.Int("index", idx))
	return cl
}

func (c *Clusters) freeIndex() int {
	used := make([]bool, len(c.clusters))
	for _, cl := range c.clusters {
		if cl.Index < len(used) {
			used[cl.Index] = true
		}
	}
	for i, taken := range used {
		if !taken {
			return i
		}
	}
	return len(used)
}

// release frees an empty cluster's index once it has stayed empty for the
// idle timeout.
func (c *Clusters) release(cl *Cluster) {
	if c.cfg.IdleTimeout <= 0 {
		c.prune(cl.ID)
		return
	}
	c.env.Timers.Cancel(cl.idle)
	id := cl.ID
	cl.idle = c.env.Timers.After(c.cfg.IdleTimeout, c.env.Epoch.Guard(func() { c.prune(id) }))
}

func (c *Clusters) prune(customer string) {
	cl, ok := c.clusters[customer]
	if !ok || cl.NodeCount > 0 {
		return
	}
	delete(c.clusters, customer)
	c.env.Log.Debug(context.Background(), "cluster released",
		logging.String("customer", customer), logging.Int("index", cl.Index))
}

func (c *Clusters) alive(id entity.ID) bool {
	_, ok := c.msgs[id]
	return ok
}

func (c *Clusters) OnEvent(ev source.Event) (entity.ID, bool) {
	if c.sim == nil {
		return 0, false
	}
	for c.cfg.MaxActive > 0 && len(c.msgs) >= c.cfg.MaxActive {
		id, ok := c.order.oldest(c.alive)
		if !ok {
			break
		}
		c.Remove(id)
	}

	cl := c.cluster(CustomerOf(ev.Topic))
	now := c.env.Clock.Now()
	angle := c.env.Rand.Float64() * 2 * math.Pi
	jitter := c.env.Rand.Float64() * c.cfg.Spawn
	ent, err := entity.New(0, entity.Spec{
		Kind:       entity.KindMessage,
		X:          cl.TargetX + math.Cos(angle)*jitter,
		Y:          cl.TargetY + math.Sin(angle)*jitter,
		BaseRadius: c.cfg.Radius,
		Color:      cl.Color,
		ClusterID:  cl.ID,
	}, now)
	if err != nil {
		return 0, false
	}

	pos := render.Point{X: ent.X, Y: ent.Y}
	h := c.env.Sink.Create(entity.KindMessage, pos, render.Style{Color: cl.Color, Radius: ent.Radius(), Label: ev.Topic})
	ent.ID = c.env.Registry.Track(h, registry.Meta{Type: entity.KindMessage, Status: entity.StatusAnimating, X: ent.X, Y: ent.Y})
	if err := c.sim.AddNode(force.Node{ID: ent.ID, X: ent.X, Y: ent.Y, Radius: ent.Radius(), Group: cl.ID}); err != nil {
		c.env.Sink.Remove(h)
		c.env.Registry.Untrack(ent.ID)
		return 0, false
	}

	id := ent.ID
	m := &clusterMsg{ent: ent, handle: h, status: entity.StatusAnimating}
	m.timer = c.env.Timers.After(c.cfg.DisplayDuration, c.env.Epoch.Guard(func() { c.fade(id) }))
	c.msgs[id] = m
	c.order.push(id, c.alive)
	cl.NodeCount++
	return id, true
}

func (c *Clusters) fade(id entity.ID) {
	m, ok := c.msgs[id]
	if !ok {
		return
	}
	m.status = entity.StatusFading
	m.fadeAt = c.env.Clock.Now()
	c.env.Registry.UpdateStatus(id, entity.StatusFading)
	m.timer = c.env.Timers.After(c.cfg.FadeDuration, c.env.Epoch.Guard(func() { c.expire(id) }))
}

func (c *Clusters) expire(id entity.ID) {
	if c.Remove(id) {
		c.sim.Restart(math.Max(c.sim.Alpha(), c.sim.Config().ReheatAlpha))
	}
}

func (c *Clusters) opacity(m *clusterMsg, now time.Time) float64 {
	if m.status != entity.StatusFading {
		return 1
	}
	return 1 - progress(now, m.fadeAt, c.cfg.FadeDuration)
}

func (c *Clusters) Tick(now time.Time) {
	if c.sim == nil {
		return
	}
	c.sim.Tick()
	for id, m := range c.msgs {
		if !c.env.Sink.IsAttached(m.handle) {
			c.Remove(id)
			continue
		}
		sn, ok := c.sim.Node(id)
		if !ok {
			continue
		}
		m.ent.X, m.ent.Y = sn.X, sn.Y
		c.env.Sink.Update(m.handle, render.Point{X: sn.X, Y: sn.Y}, c.opacity(m, now), 1)
		c.env.Registry.SetPosition(id, sn.X, sn.Y)
	}
}

func (c *Clusters) Remove(id entity.ID) bool {
	m, ok := c.msgs[id]
	if !ok {
		return false
	}
	delete(c.msgs, id)
	c.env.Timers.Cancel(m.timer)
	c.sim.RemoveNode(id)
	c.env.Sink.Remove(m.handle)
	c.env.Registry.Untrack(id)
	if cl, ok := c.clusters[m.ent.ClusterID]; ok && cl.NodeCount > 0 {
		cl.NodeCount--
		if cl.NodeCount == 0 {
			c.release(cl)
		}
	}
	return true
}

func (c *Clusters) Teardown() {
	c.env.Timers.Stop()
	clear(c.clusters)
	for id := range c.msgs {
		c.Remove(id)
	}
	if c.sim != nil {
		c.sim.Clear()
	}
	c.order.reset()
}

// Clusters returns a copy of every live cluster ordered by index.
func (c *Clusters) Clusters() []Cluster {
	out := make([]Cluster, 0, len(c.clusters))
	for _, cl := range c.clusters {
		out = append(out, *cl)
	}
	slices.SortFunc(out, func(a, b Cluster) int { return cmp.Compare(a.Index, b.Index) })
	return out
}
