package force

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/msgviz/internal/entity"
)

type Node struct {
	ID     entity.ID
	X, Y   float64
	VX, VY float64
	Radius float64
	Group  string
	Fixed  bool

	// previous position, used by Verlet
	px, py float64
}

type LinkKind string

const (
	LinkBrokerCustomer LinkKind = "broker-customer"
	LinkCustomerTopic  LinkKind = "customer-topic"
)

type Link struct {
	Source, Target entity.ID
	Kind           LinkKind
	Distance       float64
	Strength       float64
}

// Force accumulates velocity deltas for one tick.
type Force interface {
	Apply(s *Simulation, alpha float64)
}

// ForceFunc adapts a function into a Force.
type ForceFunc func(s *Simulation, alpha float64)

func (f ForceFunc) Apply(s *Simulation, alpha float64) { f(s, alpha) }

// Constraint runs after integration and may move nodes directly.
type Constraint interface {
	Constrain(s *Simulation)
}

type Config struct {
	AlphaDecay    float64 `yaml:"alpha_decay" toml:"alpha_decay"`
	AlphaMin      float64 `yaml:"alpha_min" toml:"alpha_min"`
	VelocityDecay float64 `yaml:"velocity_decay" toml:"velocity_decay"`
	ReheatAlpha   float64 `yaml:"reheat_alpha" toml:"reheat_alpha"`
	Integrator    string  `yaml:"integrator" toml:"integrator"`
}

// DefaultConfig settles in roughly 300 ticks, like d3-force.
func DefaultConfig() Config {
	return Config{
		AlphaDecay:    1 - math.Pow(0.001, 1.0/300),
		AlphaMin:      0.001,
		VelocityDecay: 0.4,
		ReheatAlpha:   0.3,
		Integrator:    "euler",
	}
}

type namedForce struct {
	name  string
	force Force
}

type Simulation struct {
	cfg Config

	nodes []Node
	index map[entity.ID]int
	links []Link

	forces      []namedForce
	constraints []Constraint

	integrator Integrator

	alpha   float64
	onTick  func()
	rng     *rand.Rand
	ticks   uint64
	dropped uint64
}

func New(cfg Config, rng *rand.Rand) *Simulation {
	def := DefaultConfig()
	if cfg.AlphaDecay <= 0 || cfg.AlphaDecay >= 1 {
		cfg.AlphaDecay = def.AlphaDecay
	}
	if cfg.AlphaMin <= 0 {
		cfg.AlphaMin = def.AlphaMin
	}
	if cfg.VelocityDecay < 0 || cfg.VelocityDecay >= 1 {
		cfg.VelocityDecay = def.VelocityDecay
	}
	if cfg.ReheatAlpha <= 0 {
		cfg.ReheatAlpha = def.ReheatAlpha
	}
	integ, err := GetIntegrator(cfg.Integrator)
	if err != nil {
		cfg.Integrator = def.Integrator
		integ = NewEuler()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Simulation{
		cfg:        cfg,
		index:      make(map[entity.ID]int),
		integrator: integ,
		alpha:      1,
		rng:        rng,
	}
}

func (s *Simulation) Config() Config { return s.cfg }

// AddNode inserts n and reheats the layout.
func (s *Simulation) AddNode(n Node) error {
	if _, ok := s.index[n.ID]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateNode, n.ID)
	}
	if !entity.Finite(n.X) || !entity.Finite(n.Y) {
		n.X, n.Y = 0, 0
	}
	if n.Fixed {
		n.VX, n.VY = 0, 0
	}
	n.px, n.py = n.X-n.VX, n.Y-n.VY
	s.index[n.ID] = len(s.nodes)
	s.nodes = append(s.nodes, n)
	s.reheat()
	return nil
}

// RemoveNode deletes a node and every link touching it.
func (s *Simulation) RemoveNode(id entity.ID) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	last := len(s.nodes) - 1
	if i != last {
		s.nodes[i] = s.nodes[last]
		s.index[s.nodes[i].ID] = i
	}
	s.nodes = s.nodes[:last]
	delete(s.index, id)

	kept := s.links[:0]
	for _, l := range s.links {
		if l.Source != id && l.Target != id {
			kept = append(kept, l)
		}
	}
	for i := len(kept); i < len(s.links); i++ {
		s.links[i] = Link{}
	}
	s.links = kept
	return true
}

// Node returns a pointer into the arena. It is invalidated by AddNode and
// RemoveNode.
func (s *Simulation) Node(id entity.ID) (*Node, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return &s.nodes[i], true
}

func (s *Simulation) Len() int { return len(s.nodes) }

// Nodes returns a copy of the arena.
func (s *Simulation) Nodes() []Node {
	out := make([]Node, len(s.nodes))
	copy(out, s.nodes)
	return out
}

// EachNode visits arena nodes in place.
func (s *Simulation) EachNode(fn func(*Node)) {
	for i := range s.nodes {
		fn(&s.nodes[i])
	}
}

// AddLink connects two existing nodes and reheats the layout.
func (s *Simulation) AddLink(l Link) error {
	if _, ok := s.index[l.Source]; !ok {
		return fmt.Errorf("%w: source %d", ErrMissingEndpoint, l.Source)
	}
	if _, ok := s.index[l.Target]; !ok {
		return fmt.Errorf("%w: target %d", ErrMissingEndpoint, l.Target)
	}
	s.links = append(s.links, l)
	s.reheat()
	return nil
}

func (s *Simulation) Links() []Link {
	out := make([]Link, len(s.links))
	copy(out, s.links)
	return out
}

// SetForce registers f under name, replacing any force with the same name.
// A nil force removes it.
func (s *Simulation) SetForce(name string, f Force) {
	for i, nf := range s.forces {
		if nf.name == name {
			if f == nil {
				s.forces = append(s.forces[:i], s.forces[i+1:]...)
			} else {
				s.forces[i].force = f
			}
			return
		}
	}
	if f != nil {
		s.forces = append(s.forces, namedForce{name: name, force: f})
	}
}

func (s *Simulation) AddConstraint(c Constraint) {
	s.constraints = append(s.constraints, c)
}

// OnTick sets the callback invoked at the end of every tick.
func (s *Simulation) OnTick(fn func()) { s.onTick = fn }

func (s *Simulation) Alpha() float64 { return s.alpha }

// Settled reports whether alpha has reached its floor.
func (s *Simulation) Settled() bool { return s.alpha <= s.cfg.AlphaMin }

// Restart sets alpha, clamped into [AlphaMin, 1].
func (s *Simulation) Restart(alpha float64) {
	if !entity.Finite(alpha) {
		return
	}
	s.alpha = entity.Clamp(alpha, s.cfg.AlphaMin, 1)
}

func (s *Simulation) reheat() {
	if s.alpha < s.cfg.ReheatAlpha {
		s.alpha = s.cfg.ReheatAlpha
	}
}

func (s *Simulation) Ticks() uint64 { return s.ticks }

// Dropped returns how many non-finite updates were discarded.
func (s *Simulation) Dropped() uint64 { return s.dropped }

// Clear empties the arena and the link list.
func (s *Simulation) Clear() {
	s.nodes = nil
	s.links = nil
	s.index = make(map[entity.ID]int)
}

// Nudge adds a velocity delta to n unless n is fixed or the result would not
// be finite.
func (s *Simulation) Nudge(n *Node, dvx, dvy float64) {
	if n.Fixed {
		return
	}
	vx, vy := n.VX+dvx, n.VY+dvy
	if !entity.Finite(vx) || !entity.Finite(vy) {
		s.dropped++
		return
	}
	n.VX, n.VY = vx, vy
}

// jiggle returns a tiny random offset used to separate coincident nodes.
func (s *Simulation) jiggle() float64 {
	return (s.rng.Float64() - 0.5) * 1e-6
}

// Tick advances the simulation by one step.
func (s *Simulation) Tick() {
	s.alpha *= 1 - s.cfg.AlphaDecay
	if s.alpha < s.cfg.AlphaMin {
		s.alpha = s.cfg.AlphaMin
	}

	for i := range s.nodes {
		if !s.nodes[i].Fixed {
			s.integrator.Prepare(&s.nodes[i])
		}
	}

	for _, nf := range s.forces {
		nf.force.Apply(s, s.alpha)
	}

	keep := 1 - s.cfg.VelocityDecay
	for i := range s.nodes {
		n := &s.nodes[i]
		if n.Fixed {
			n.VX, n.VY = 0, 0
			n.px, n.py = n.X, n.Y
			continue
		}
		if !s.integrator.Step(n, keep) {
			s.dropped++
		}
	}

	for _, c := range s.constraints {
		c.Constrain(s)
	}

	s.ticks++
	if s.onTick != nil {
		s.onTick()
	}
}
