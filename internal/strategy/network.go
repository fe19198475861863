package strategy

import (
	"context"
	"math"
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

type netNode struct {
	ent    entity.Entity
	handle render.Handle
	key    string
}

// Network lays out a broker → customer → device graph. Activity brightens a
// node; idle nodes decay toward their floors after a grace period.
type Network struct {
	env Env
	cfg NetworkConfig

	sim    *force.Simulation
	smooth *force.Smoother

	nodes  map[entity.ID]*netNode
	byKey  map[string]entity.ID
	broker entity.ID
}

func NewNetwork(env Env) *Network {
	return &Network{env: env.withDefaults(), cfg: env.Config.Network}
}

func (n *Network) Name() string { return "network" }

func (n *Network) Start() error {
	if err := n.env.Config.Validate("network"); err != nil {
		return err
	}
	n.nodes = make(map[entity.ID]*netNode)
	n.byKey = make(map[string]entity.ID)
	n.smooth = force.NewSmoother()
	n.sim = force.New(n.env.Config.Force, n.env.Rand)

	lay := n.env.Layout
	charge := force.NewManyBody()
	charge.Strength = n.cfg.Charge
	charge.DistanceMax = n.cfg.ChargeDistMax
	boundary := force.NewBoundary(func() layout.Bounds { return lay.SafeBounds(n.cfg.BoundaryMargin) })

	n.sim.SetForce("link", force.NewLinkForce())
	n.sim.SetForce("charge", charge)
	n.sim.SetForce("center", &force.Center{Target: lay.Center, Strength: n.cfg.CenterStrength})
	n.sim.SetForce("collide", force.NewCollide())
	n.sim.SetForce("boundary", boundary)
	n.sim.AddConstraint(boundary)

	n.env.Timers.Every(n.cfg.DecayInterval, n.env.Epoch.Guard(n.decay))
	n.env.Timers.OnFrame(clock.GuardFrame(n.env.Epoch, n.Tick))
	return nil
}

func (n *Network) Alpha() float64 {
	if n.sim == nil {
		return 0
	}
	return n.sim.Alpha()
}

// ensureBroker creates the broker on first use so a fresh mode starts empty.
func (n *Network) ensureBroker() (entity.ID, error) {
	if n.broker != 0 {
		return n.broker, nil
	}
	cx, cy := n.env.Layout.Center()
	id, err := n.spawn("broker", entity.Spec{
		Kind:       entity.KindBroker,
		X:          cx,
		Y:          cy,
		BaseRadius: n.cfg.BrokerRadius,
		Color:      "#ffffff",
		Fixed:      true,
	}, "broker", "")
	if err != nil {
		return 0, err
	}
	n.broker = id
	for cid, nd := range n.nodes {
		if nd.ent.Kind == entity.KindCustomer {
			n.sim.AddLink(force.Link{Source: id, Target: cid, Kind: force.LinkBrokerCustomer, Distance: n.cfg.CustomerDist, Strength: 1})
		}
	}
	return id, nil
}

// spawn creates a node, registers it everywhere and returns its id.
func (n *Network) spawn(key string, spec entity.Spec, label, group string) (entity.ID, error) {
	now := n.env.Clock.Now()
	if spec.Kind != entity.KindBroker {
		spec.MinScale = n.cfg.MinScale
		spec.MinBrightness = n.cfg.MinBrightness
	}
	ent, err := entity.New(0, spec, now)
	if err != nil {
		return 0, err
	}
	pos := render.Point{X: ent.X, Y: ent.Y}
	h := n.env.Sink.Create(spec.Kind, pos, render.Style{Color: spec.Color, Radius: ent.Radius(), Label: label})
	ent.ID = n.env.Registry.Track(h, registry.Meta{
		Type:   spec.Kind,
		Status: entity.StatusAnimating,
		X:      ent.X,
		Y:      ent.Y,
		Pinned: spec.Kind == entity.KindBroker,
	})
	if err := n.sim.AddNode(force.Node{
		ID:     ent.ID,
		X:      ent.X,
		Y:      ent.Y,
		Radius: ent.Radius(),
		Group:  group,
		Fixed:  ent.Fixed,
	}); err != nil {
		n.env.Sink.Remove(h)
		n.env.Registry.Untrack(ent.ID)
		return 0, err
	}
	n.nodes[ent.ID] = &netNode{ent: ent, handle: h, key: key}
	n.byKey[key] = ent.ID
	return ent.ID, nil
}

// ensureChild returns the node for key, creating it next to parent and
// linking the two when absent.
func (n *Network) ensureChild(key string, kind entity.Kind, parent entity.ID, link force.LinkKind, dist, radius float64, label, group, color string) (entity.ID, error) {
	if id, ok := n.byKey[key]; ok {
		return id, nil
	}
	p := n.nodes[parent]
	angle := n.env.Rand.Float64() * 2 * math.Pi
	id, err := n.spawn(key, entity.Spec{
		Kind:       kind,
		X:          p.ent.X + math.Cos(angle)*dist,
		Y:          p.ent.Y + math.Sin(angle)*dist,
		BaseRadius: radius,
		Color:      color,
		ClusterID:  group,
	}, label, group)
	if err != nil {
		return 0, err
	}
	if err := n.sim.AddLink(force.Link{Source: parent, Target: id, Kind: link, Distance: dist, Strength: 1}); err != nil {
		n.Remove(id)
		return 0, err
	}
	return id, nil
}

func (n *Network) OnEvent(ev source.Event) (entity.ID, bool) {
	if n.sim == nil {
		return 0, false
	}
	broker, err := n.ensureBroker()
	if err != nil {
		n.env.Log.Warn(context.Background(), "broker unavailable", logging.Err(err))
		return 0, false
	}
	customer, device := CustomerOf(ev.Topic), DeviceOf(ev.Topic)
	color := source.TopicColor(customer)

	c, err := n.ensureChild("c:"+customer, entity.KindCustomer, broker, force.LinkBrokerCustomer,
		n.cfg.CustomerDist, n.cfg.CustomerRadius, customer, customer, color)
	if err != nil {
		return 0, false
	}
	d, err := n.ensureChild("d:"+customer+"/"+device, entity.KindDevice, c, force.LinkCustomerTopic,
		n.cfg.DeviceDist, n.cfg.DeviceRadius, device, customer, source.TopicColor(ev.Topic))
	if err != nil {
		return 0, false
	}

	now := n.env.Clock.Now()
	for _, id := range []entity.ID{c, d} {
		nd := n.nodes[id]
		nd.ent.Touch(now)
		if sn, ok := n.sim.Node(id); ok {
			sn.Radius = nd.ent.Radius()
		}
		n.env.Registry.UpdateStatus(id, entity.StatusAnimating)
	}
	return d, true
}

// blend moves v toward target by rate.
func blend(v, target, rate float64) float64 {
	return target + (v-target)*(1-rate)
}

func (n *Network) decay() {
	now := n.env.Clock.Now()
	for id, nd := range n.nodes {
		if id == n.broker {
			continue
		}
		e := &nd.ent
		if e.Idle(now) > n.cfg.GracePeriod {
			e.SetBrightness(blend(e.Brightness, e.MinBrightness, n.cfg.DecayRate))
			e.SetScale(blend(e.SizeScale, e.MinScale, n.cfg.DecayRate))
			n.env.Registry.UpdateStatus(id, entity.StatusFading)
		} else {
			e.SetBrightness(blend(e.Brightness, 1, n.cfg.RecoverRate))
			e.SetScale(blend(e.SizeScale, 1, n.cfg.RecoverRate))
		}
		if sn, ok := n.sim.Node(id); ok {
			sn.Radius = e.Radius()
		}
	}
}

func (n *Network) Tick(now time.Time) {
	if n.sim == nil {
		return
	}
	if b, ok := n.sim.Node(n.broker); ok {
		b.X, b.Y = n.env.Layout.Center()
	}
	n.sim.Tick()

	for id, nd := range n.nodes {
		if !n.env.Sink.IsAttached(nd.handle) {
			n.Remove(id)
			continue
		}
		sn, ok := n.sim.Node(id)
		if !ok {
			continue
		}
		x, y := sn.X, sn.Y
		if !n.cfg.NoSmoothing {
			x, y, _ = n.smooth.Smooth(id, x, y)
		}
		nd.ent.X, nd.ent.Y = x, y
		n.env.Sink.Update(nd.handle, render.Point{X: x, Y: y}, nd.ent.Brightness, nd.ent.SizeScale)
		n.env.Registry.SetPosition(id, x, y)
	}
}

// Remove deletes a node. Removing a customer also removes its devices.
func (n *Network) Remove(id entity.ID) bool {
	nd, ok := n.nodes[id]
	if !ok {
		return false
	}
	if nd.ent.Kind == entity.KindCustomer {
		for _, l := range n.sim.Links() {
			if l.Source == id && l.Kind == force.LinkCustomerTopic {
				n.Remove(l.Target)
			}
		}
	}
	delete(n.nodes, id)
	delete(n.byKey, nd.key)
	n.sim.RemoveNode(id)
	n.smooth.Forget(id)
	n.env.Sink.Remove(nd.handle)
	n.env.Registry.Untrack(id)
	if id == n.broker {
		n.broker = 0
	}
	return true
}

func (n *Network) Teardown() {
	n.env.Timers.Stop()
	for id := range n.nodes {
		n.Remove(id)
	}
	if n.sim != nil {
		n.sim.Clear()
	}
	if n.smooth != nil {
		n.smooth.Reset()
	}
	n.broker = 0
}

// Node returns a copy of a node's entity state.
func (n *Network) Node(id entity.ID) (entity.Entity, bool) {
	nd, ok := n.nodes[id]
	if !ok {
		return entity.Entity{}, false
	}
	return nd.ent, true
}

// Lookup returns the id of the node for a customer, or a customer's device
// when device is non-empty.
func (n *Network) Lookup(customer, device string) (entity.ID, bool) {
	key := "c:" + customer
	if device != "" {
		key = "d:" + customer + "/" + device
	}
	id, ok := n.byKey[key]
	return id, ok
}

func (n *Network) Broker() entity.ID { return n.broker }

func (n *Network) Simulation() *force.Simulation { return n.sim }
