package strategy

import (
	"math"
	"testing"
	"time"

	"github.com/san-kum/msgviz/internal/entity"
	"github.com/san-kum/msgviz/internal/force"
)

func startNetwork(t *testing.T) (*harness, *Network) {
	t.Helper()
	h := newHarness()
	n := NewNetwork(h.env)
	if err := n.Start(); err != nil {
		t.Fatal(err)
	}
	return h, n
}

func TestNetworkBuildsGraph(t *testing.T) {
	h, n := startNetwork(t)
	if h.reg.Len() != 0 {
		t.Fatalf("expected no entities on start, got %d", h.reg.Len())
	}

	dev, ok := n.OnEvent(event("acme/thermostat/temp"))
	if !ok {
		t.Fatal("expected event to be routed")
	}
	counts := h.reg.Counts()
	if counts.Total != 3 || counts.ByType[entity.KindBroker] != 1 ||
		counts.ByType[entity.KindCustomer] != 1 || counts.ByType[entity.KindDevice] != 1 {
		t.Fatalf("unexpected counts %+v", counts)
	}
	if got, _ := n.Lookup("acme", "thermostat"); got != dev {
		t.Errorf("event should return the device node, got %d want %d", dev, got)
	}

	again, _ := n.OnEvent(event("acme/thermostat/humidity"))
	if again != dev || h.reg.Len() != 3 {
		t.Errorf("repeated device should reuse its node, got %d and %d tracked", again, h.reg.Len())
	}
	n.OnEvent(event("acme/lock/state"))
	n.OnEvent(event("globex/meter"))
	if h.reg.Len() != 6 {
		t.Errorf("expected 6 nodes, got %d", h.reg.Len())
	}

	links := n.Simulation().Links()
	if len(links) != 5 {
		t.Errorf("expected 5 links, got %d", len(links))
	}
	el, _ := h.reg.Get(n.Broker())
	if !el.Pinned {
		t.Error("broker should be pinned")
	}
}

func TestNetworkMalformedTopic(t *testing.T) {
	_, n := startNetwork(t)
	if _, ok := n.OnEvent(event("")); !ok {
		t.Fatal("malformed topic should still be routed")
	}
	if _, ok := n.Lookup("unknown", "device"); !ok {
		t.Error("expected fallback customer and device nodes")
	}
}

func TestNetworkDecay(t *testing.T) {
	h, n := startNetwork(t)
	dev, _ := n.OnEvent(event("acme/thermostat"))
	cfg := h.env.Config.Network

	h.run(cfg.GracePeriod - 100*time.Millisecond)
	if e, _ := n.Node(dev); e.Brightness != 1 || e.SizeScale != 1 {
		t.Fatalf("no decay expected within grace period, got %+v", e)
	}

	prevB, prevS := 1.0, 1.0
	for i := 0; i < 300; i++ {
		h.run(100 * time.Millisecond)
		e, _ := n.Node(dev)
		if e.Brightness > prevB || e.SizeScale > prevS {
			t.Fatalf("decay increased at step %d: %v/%v", i, e.Brightness, e.SizeScale)
		}
		if e.Brightness < cfg.MinBrightness || e.SizeScale < cfg.MinScale {
			t.Fatalf("decay crossed floor: %v/%v", e.Brightness, e.SizeScale)
		}
		if e.Radius() <= 0 {
			t.Fatalf("radius must stay positive, got %v", e.Radius())
		}
		prevB, prevS = e.Brightness, e.SizeScale
	}
	if prevB > cfg.MinBrightness+0.01 || prevS > cfg.MinScale+0.01 {
		t.Errorf("expected values near floors after 30s, got %v/%v", prevB, prevS)
	}

	broker, _ := n.Node(n.Broker())
	if broker.Brightness != 1 || broker.SizeScale != 1 {
		t.Errorf("broker must not decay, got %+v", broker)
	}

	n.OnEvent(event("acme/thermostat"))
	if e, _ := n.Node(dev); e.Brightness != 1 || e.SizeScale != 1 {
		t.Errorf("activity should restore full values, got %v/%v", e.Brightness, e.SizeScale)
	}
}

func TestNetworkLayoutStaysInBounds(t *testing.T) {
	h, n := startNetwork(t)
	for c := 0; c < 6; c++ {
		for d := 0; d < 5; d++ {
			n.OnEvent(event("customer-" + string(rune('a'+c)) + "/device-" + string(rune('a'+d))))
		}
	}
	h.run(5 * time.Second)

	dims := h.env.Layout.EffectiveDimensions()
	cx, cy := h.env.Layout.Center()
	for _, el := range h.reg.Snapshot() {
		if el.X < 0 || el.X > dims.Width || el.Y < 0 || el.Y > dims.Height {
			t.Errorf("%s %d out of bounds at (%v, %v)", el.Type, el.ID, el.X, el.Y)
		}
		if math.IsNaN(el.X) || math.IsNaN(el.Y) {
			t.Fatalf("non-finite position for %d", el.ID)
		}
	}
	b, _ := h.reg.Get(n.Broker())
	if b.X != cx || b.Y != cy {
		t.Errorf("broker should stay at center, got (%v, %v)", b.X, b.Y)
	}
	if n.Alpha() >= 1 {
		t.Errorf("alpha should have decayed, got %v", n.Alpha())
	}
}

func TestNetworkRemoveCustomerCascades(t *testing.T) {
	h, n := startNetwork(t)
	n.OnEvent(event("acme/a"))
	n.OnEvent(event("acme/b"))
	n.OnEvent(event("globex/a"))
	c, _ := n.Lookup("acme", "")

	if !n.Remove(c) {
		t.Fatal("expected removal")
	}
	if h.reg.Len() != 3 {
		t.Errorf("expected broker and globex nodes only, got %d", h.reg.Len())
	}
	if _, ok := n.Lookup("acme", "a"); ok {
		t.Error("device of removed customer should be gone")
	}
	if len(n.Simulation().Links()) != 2 {
		t.Errorf("expected 2 links left, got %d", len(n.Simulation().Links()))
	}

	n.OnEvent(event("acme/a"))
	if h.reg.Len() != 5 {
		t.Errorf("customer should be recreated on the next event, got %d", h.reg.Len())
	}
}

func TestNetworkBrokerRecreatedAfterDetach(t *testing.T) {
	h, n := startNetwork(t)
	n.OnEvent(event("acme/a"))
	n.OnEvent(event("globex/a"))
	old := n.Broker()
	if old == 0 {
		t.Fatal("first event should create the broker")
	}
	el, ok := h.reg.Get(old)
	if !ok {
		t.Fatal("broker should be tracked")
	}
	h.sink.Detach(el.Handle)
	h.run(frame)
	if n.Broker() != 0 {
		t.Fatal("detached broker should be dropped")
	}
	if _, ok := h.reg.Get(old); ok {
		t.Fatal("detached broker should be untracked")
	}

	n.OnEvent(event("acme/b"))
	broker := n.Broker()
	if broker == 0 || broker == old {
		t.Fatalf("expected a new broker, got %d (old %d)", broker, old)
	}
	linked := map[entity.ID]bool{}
	for _, l := range n.Simulation().Links() {
		if l.Kind == force.LinkBrokerCustomer && l.Source == broker {
			linked[l.Target] = true
		}
	}
	for _, customer := range []string{"acme", "globex"} {
		id, ok := n.Lookup(customer, "")
		if !ok {
			t.Fatalf("customer %s should survive the broker", customer)
		}
		if !linked[id] {
			t.Errorf("customer %s should be linked to the new broker", customer)
		}
	}
}

func TestNetworkTeardown(t *testing.T) {
	h, n := startNetwork(t)
	for i := 0; i < 10; i++ {
		n.OnEvent(event("acme/device-" + string(rune('0'+i))))
	}
	h.run(time.Second)

	h.epoch.Bump()
	n.Teardown()
	if h.reg.Len() != 0 || h.sink.Len() != 0 {
		t.Errorf("teardown left %d tracked, %d visuals", h.reg.Len(), h.sink.Len())
	}
	if h.sched.Pending() != 0 {
		t.Errorf("teardown left %d timers", h.sched.Pending())
	}
	if n.Simulation().Len() != 0 {
		t.Error("simulation arena should be empty")
	}
}
