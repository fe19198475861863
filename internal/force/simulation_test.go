package force

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/msgviz/internal/entity"
	"github.com/san-kum/msgviz/internal/layout"
)

func distance(a, b *Node) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func TestAlphaDecaysToFloor(t *testing.T) {
	s := New(DefaultConfig(), nil)
	prev := s.Alpha()
	for i := 0; i < 500; i++ {
		s.Tick()
		if s.Alpha() > prev {
			t.Fatalf("alpha increased at tick %d: %f > %f", i, s.Alpha(), prev)
		}
		if s.Alpha() < s.Config().AlphaMin {
			t.Fatalf("alpha %f below floor", s.Alpha())
		}
		prev = s.Alpha()
	}
	if !s.Settled() {
		t.Errorf("expected settled after 500 ticks, alpha %f", s.Alpha())
	}

	s.Tick()
	if s.Alpha() != s.Config().AlphaMin {
		t.Errorf("expected alpha to stay at floor, got %f", s.Alpha())
	}
}

func TestAddNodeReheats(t *testing.T) {
	s := New(DefaultConfig(), nil)
	for i := 0; i < 500; i++ {
		s.Tick()
	}
	if err := s.AddNode(Node{ID: 1}); err != nil {
		t.Fatal(err)
	}
	if s.Alpha() < 0.3 {
		t.Errorf("expected reheat to 0.3, got %f", s.Alpha())
	}
	if s.Settled() {
		t.Error("should not be settled after reheat")
	}
}

func TestAddNodeDuplicate(t *testing.T) {
	s := New(DefaultConfig(), nil)
	if err := s.AddNode(Node{ID: 1}); err != nil {
		t.Fatal(err)
	}
	if err := s.AddNode(Node{ID: 1}); !errors.Is(err, ErrDuplicateNode) {
		t.Errorf("expected ErrDuplicateNode, got %v", err)
	}
}

func TestAddLinkMissingEndpoint(t *testing.T) {
	s := New(DefaultConfig(), nil)
	s.AddNode(Node{ID: 1})
	err := s.AddLink(Link{Source: 1, Target: 2})
	if !errors.Is(err, ErrMissingEndpoint) {
		t.Errorf("expected ErrMissingEndpoint, got %v", err)
	}
	if len(s.Links()) != 0 {
		t.Error("link should not be added")
	}
}

func TestRemoveNodeDropsLinks(t *testing.T) {
	s := New(DefaultConfig(), nil)
	for id := entity.ID(1); id <= 3; id++ {
		s.AddNode(Node{ID: id, X: float64(id) * 10})
	}
	s.AddLink(Link{Source: 1, Target: 2, Kind: LinkBrokerCustomer})
	s.AddLink(Link{Source: 2, Target: 3, Kind: LinkCustomerTopic})
	s.AddLink(Link{Source: 1, Target: 3, Kind: LinkBrokerCustomer})

	if !s.RemoveNode(2) {
		t.Fatal("expected removal")
	}
	if s.RemoveNode(2) {
		t.Error("second removal should report false")
	}

	links := s.Links()
	if len(links) != 1 || links[0].Source != 1 || links[0].Target != 3 {
		t.Errorf("unexpected links %+v", links)
	}
	if _, ok := s.Node(2); ok {
		t.Error("node 2 still present")
	}
	n3, ok := s.Node(3)
	if !ok || n3.X != 30 {
		t.Errorf("swap-remove corrupted node 3: %+v", n3)
	}
	if s.Len() != 2 {
		t.Errorf("expected 2 nodes, got %d", s.Len())
	}
}

func TestFixedNodeNeverMoves(t *testing.T) {
	for _, integ := range []string{"euler", "verlet"} {
		t.Run(integ, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Integrator = integ
			s := New(cfg, nil)
			s.AddNode(Node{ID: 1, X: 100, Y: 100, Fixed: true, Radius: 10})
			s.AddNode(Node{ID: 2, X: 105, Y: 100, Radius: 5})
			s.AddNode(Node{ID: 3, X: 400, Y: 100, Radius: 5})
			s.AddLink(Link{Source: 1, Target: 3, Distance: 80})
			s.SetForce("link", NewLinkForce())
			s.SetForce("charge", NewManyBody())
			s.SetForce("collide", NewCollide())

			for i := 0; i < 200; i++ {
				s.Tick()
			}
			n, _ := s.Node(1)
			if n.X != 100 || n.Y != 100 || n.VX != 0 || n.VY != 0 {
				t.Errorf("fixed node moved: %+v", n)
			}
			other, _ := s.Node(3)
			if d := distance(n, other); math.Abs(d-80) > 15 {
				t.Errorf("free end should settle near link distance, got %f", d)
			}
		})
	}
}

func TestNonFiniteUpdatesDropped(t *testing.T) {
	s := New(DefaultConfig(), nil)
	s.AddNode(Node{ID: 1, X: 10, Y: 20})
	s.AddNode(Node{ID: 2, X: 30, Y: 40})
	s.SetForce("broken", ForceFunc(func(s *Simulation, alpha float64) {
		s.EachNode(func(n *Node) {
			if n.ID == 1 {
				s.Nudge(n, math.NaN(), 0)
			} else {
				s.Nudge(n, math.Inf(1), 1)
			}
		})
	}))

	for i := 0; i < 10; i++ {
		s.Tick()
	}
	for _, n := range s.Nodes() {
		if !entity.Finite(n.X) || !entity.Finite(n.Y) || !entity.Finite(n.VX) || !entity.Finite(n.VY) {
			t.Fatalf("non-finite state leaked: %+v", n)
		}
	}
	n1, _ := s.Node(1)
	if n1.X != 10 || n1.Y != 20 {
		t.Errorf("node 1 should not move, got (%f, %f)", n1.X, n1.Y)
	}
	if s.Dropped() != 20 {
		t.Errorf("expected 20 dropped updates, got %d", s.Dropped())
	}
}

func TestLinkConvergesToDistance(t *testing.T) {
	s := New(DefaultConfig(), nil)
	s.AddNode(Node{ID: 1, X: 0, Y: 0})
	s.AddNode(Node{ID: 2, X: 200, Y: 0})
	s.AddLink(Link{Source: 1, Target: 2, Distance: 50, Strength: 1})
	s.SetForce("link", NewLinkForce())

	for i := 0; i < 300; i++ {
		s.Tick()
	}
	a, _ := s.Node(1)
	b, _ := s.Node(2)
	if d := distance(a, b); math.Abs(d-50) > 2 {
		t.Errorf("expected distance near 50, got %f", d)
	}
}

func TestManyBodyDistanceMax(t *testing.T) {
	tests := []struct {
		name     string
		gap      float64
		repelled bool
	}{
		{"within range", 100, true},
		{"beyond range", 500, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(DefaultConfig(), nil)
			s.AddNode(Node{ID: 1, X: 0})
			s.AddNode(Node{ID: 2, X: tt.gap})
			f := &ManyBody{Strength: -100, DistanceMin: 1, DistanceMax: 300}
			f.Apply(s, 1)

			a, _ := s.Node(1)
			b, _ := s.Node(2)
			if tt.repelled {
				if a.VX >= 0 || b.VX <= 0 {
					t.Errorf("expected repulsion, got va=%f vb=%f", a.VX, b.VX)
				}
			} else if a.VX != 0 || b.VX != 0 {
				t.Errorf("expected no force beyond DistanceMax, got va=%f vb=%f", a.VX, b.VX)
			}
		})
	}
}

func TestCollideSeparates(t *testing.T) {
	s := New(DefaultConfig(), nil)
	s.AddNode(Node{ID: 1, X: 0, Y: 0, Radius: 10, Group: "a"})
	s.AddNode(Node{ID: 2, X: 5, Y: 0, Radius: 10, Group: "b"})
	s.SetForce("collide", NewCollide())

	for i := 0; i < 100; i++ {
		s.Tick()
	}
	a, _ := s.Node(1)
	b, _ := s.Node(2)
	if d := distance(a, b); d < 19 {
		t.Errorf("expected circles separated, distance %f", d)
	}
}

func TestCollideCoincidentNodes(t *testing.T) {
	s := New(DefaultConfig(), nil)
	s.AddNode(Node{ID: 1, Radius: 5})
	s.AddNode(Node{ID: 2, Radius: 5})
	s.SetForce("collide", NewCollide())
	for i := 0; i < 100; i++ {
		s.Tick()
	}
	a, _ := s.Node(1)
	b, _ := s.Node(2)
	if distance(a, b) < 9 {
		t.Errorf("coincident nodes should separate, distance %f", distance(a, b))
	}
}

func TestBoundaryContains(t *testing.T) {
	bounds := layout.Bounds{MinX: 0, MaxX: 200, MinY: 0, MaxY: 100}
	boundary := NewBoundary(func() layout.Bounds { return bounds })

	s := New(DefaultConfig(), nil)
	s.AddNode(Node{ID: 1, X: -50, Y: 500, Radius: 5})
	s.AddNode(Node{ID: 2, X: 100, Y: 50, Radius: 5, VX: 1000})
	s.SetForce("boundary", boundary)
	s.SetForce("charge", &ManyBody{Strength: -500, DistanceMin: 1, DistanceMax: math.Inf(1)})
	s.AddConstraint(boundary)

	for i := 0; i < 100; i++ {
		s.Tick()
		for _, n := range s.Nodes() {
			if n.X < bounds.MinX+n.Radius || n.X > bounds.MaxX-n.Radius ||
				n.Y < bounds.MinY+n.Radius || n.Y > bounds.MaxY-n.Radius {
				t.Fatalf("tick %d: node %d escaped to (%f, %f)", i, n.ID, n.X, n.Y)
			}
		}
	}
}

func TestBoundaryPushGrowsWithPenetration(t *testing.T) {
	b := &Boundary{Zone: 50, Strength: 1}
	shallow := b.push(0, 1000, 40, 0)
	deep := b.push(0, 1000, 10, 0)
	if shallow <= 0 || deep <= shallow {
		t.Errorf("expected growing push, shallow=%f deep=%f", shallow, deep)
	}
	if got := b.push(0, 1000, 500, 0); got != 0 {
		t.Errorf("expected no push in the interior, got %f", got)
	}
	if got := b.push(0, 1000, 990, 0); got >= 0 {
		t.Errorf("expected inward push at the far edge, got %f", got)
	}
}

func TestBoundaryCollapsedClampsToCenter(t *testing.T) {
	x, moved := clampAxis(0, 10, 3, 20)
	if x != 5 || !moved {
		t.Errorf("expected center 5, got %f moved=%v", x, moved)
	}
}

func TestCenterPullsTowardTarget(t *testing.T) {
	s := New(DefaultConfig(), nil)
	s.AddNode(Node{ID: 1, X: 100, Y: -40})
	s.SetForce("center", &Center{Target: func() (float64, float64) { return 0, 0 }, Strength: 0.1})
	for i := 0; i < 300; i++ {
		s.Tick()
	}
	n, _ := s.Node(1)
	if math.Hypot(n.X, n.Y) > 5 {
		t.Errorf("expected node near target, got (%f, %f)", n.X, n.Y)
	}
}

func TestOnTickCallback(t *testing.T) {
	s := New(DefaultConfig(), nil)
	calls := 0
	s.OnTick(func() { calls++ })
	s.Tick()
	s.Tick()
	if calls != 2 || s.Ticks() != 2 {
		t.Errorf("expected 2 callbacks and ticks, got %d and %d", calls, s.Ticks())
	}
}

func TestSetForceReplaceAndRemove(t *testing.T) {
	s := New(DefaultConfig(), nil)
	s.AddNode(Node{ID: 1})
	hits := map[string]int{}
	s.SetForce("a", ForceFunc(func(*Simulation, float64) { hits["first"]++ }))
	s.SetForce("a", ForceFunc(func(*Simulation, float64) { hits["second"]++ }))
	s.Tick()
	s.SetForce("a", nil)
	s.Tick()
	if hits["first"] != 0 || hits["second"] != 1 {
		t.Errorf("unexpected force calls %v", hits)
	}
}

func TestGetIntegrator(t *testing.T) {
	if _, err := GetIntegrator("verlet"); err != nil {
		t.Error(err)
	}
	if _, err := GetIntegrator("rk4"); err == nil {
		t.Error("expected error for unknown integrator")
	}
	cfg := DefaultConfig()
	cfg.Integrator = "bogus"
	if s := New(cfg, nil); s.Config().Integrator != "euler" {
		t.Errorf("expected fallback to euler, got %s", s.Config().Integrator)
	}
}
