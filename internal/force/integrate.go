package force

import (
	"fmt"

	"github.com/san-kum/msgviz/internal/entity"
)

// Integrator turns accumulated velocity into position for one node.
type Integrator interface {
	// Prepare runs before forces are applied.
	Prepare(n *Node)
	// Step integrates n with the given velocity retention and reports whether
	// the result was finite. On false n must be left at its previous position.
	Step(n *Node, keep float64) bool
}

// Euler is semi-implicit Euler: decay velocity, then move by it.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Prepare(n *Node) {}

func (e *Euler) Step(n *Node, keep float64) bool {
	vx, vy := n.VX*keep, n.VY*keep
	x, y := n.X+vx, n.Y+vy
	if !entity.Finite(x) || !entity.Finite(y) {
		n.VX, n.VY = 0, 0
		return false
	}
	n.X, n.Y = x, y
	n.VX, n.VY = vx, vy
	return true
}

// Verlet is position Verlet. Velocity is rebuilt from the last two positions
// each tick, so constraints that move a node also cancel its momentum.
type Verlet struct{}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) Prepare(n *Node) {
	n.VX, n.VY = n.X-n.px, n.Y-n.py
}

func (v *Verlet) Step(n *Node, keep float64) bool {
	x, y := n.X+n.VX*keep, n.Y+n.VY*keep
	if !entity.Finite(x) || !entity.Finite(y) {
		n.VX, n.VY = 0, 0
		n.px, n.py = n.X, n.Y
		return false
	}
	n.px, n.py = n.X, n.Y
	n.X, n.Y = x, y
	n.VX, n.VY = n.X-n.px, n.Y-n.py
	return true
}

var integrators = map[string]func() Integrator{
	"euler":  func() Integrator { return NewEuler() },
	"verlet": func() Integrator { return NewVerlet() },
}

// GetIntegrator returns the named integrator; "" selects euler.
func GetIntegrator(name string) (Integrator, error) {
	if name == "" {
		name = "euler"
	}
	f, ok := integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return f(), nil
}
