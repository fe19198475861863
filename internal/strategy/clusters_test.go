package strategy

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/san-kum/msgviz/internal/entity"
)

func startClusters(t *testing.T) (*harness, *Clusters) {
	t.Helper()
	h := newHarness()
	c := NewClusters(h.env)
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	return h, c
}

func TestClustersAssignedLazily(t *testing.T) {
	_, c := startClusters(t)
	if len(c.Clusters()) != 0 {
		t.Fatal("no clusters before events")
	}
	c.OnEvent(event("acme/a"))
	c.OnEvent(event("acme/b"))
	c.OnEvent(event("globex/a"))

	cl := c.Clusters()
	if len(cl) != 2 || cl[0].ID != "acme" || cl[1].ID != "globex" {
		t.Fatalf("unexpected clusters %+v", cl)
	}
	if cl[0].NodeCount != 2 || cl[1].NodeCount != 1 {
		t.Errorf("unexpected node counts %d, %d", cl[0].NodeCount, cl[1].NodeCount)
	}
	if cl[0].TargetX == cl[1].TargetX && cl[0].TargetY == cl[1].TargetY {
		t.Error("cluster targets must differ")
	}
}

func TestClustersMessageLifecycle(t *testing.T) {
	h, c := startClusters(t)
	cfg := h.env.Config.Clusters
	id, _ := c.OnEvent(event("acme/a"))
	el, _ := h.reg.Get(id)

	h.run(cfg.DisplayDuration - frame)
	if got := h.reg.Counts().ByStatus[entity.StatusAnimating]; got != 1 {
		t.Fatalf("expected animating during display, got %d", got)
	}

	h.run(frame + cfg.FadeDuration/2)
	if got := h.reg.Counts().ByStatus[entity.StatusFading]; got != 1 {
		t.Fatalf("expected fading, got %d", got)
	}
	v, _ := h.sink.Get(el.Handle)
	if v.Opacity <= 0.3 || v.Opacity >= 0.7 {
		t.Errorf("expected opacity near 0.5 halfway through fade, got %v", v.Opacity)
	}

	h.run(cfg.FadeDuration)
	if h.reg.Len() != 0 || h.sink.Len() != 0 {
		t.Errorf("expected message removed, got %d / %d", h.reg.Len(), h.sink.Len())
	}
	if c.Clusters()[0].NodeCount != 0 {
		t.Error("cluster node count should drop to zero")
	}
}

func TestClustersReheatOnExpire(t *testing.T) {
	h, c := startClusters(t)
	id, _ := c.OnEvent(event("acme/a"))
	h.run(3900 * time.Millisecond)
	if c.Alpha() >= h.env.Config.Force.ReheatAlpha {
		t.Fatalf("expected a cooled simulation, alpha %v", c.Alpha())
	}

	c.expire(id)
	if got := c.Alpha(); got != h.env.Config.Force.ReheatAlpha {
		t.Errorf("expected alpha %v after expiry, got %v", h.env.Config.Force.ReheatAlpha, got)
	}
}

func TestClustersAttraction(t *testing.T) {
	h, c := startClusters(t)
	for i := 0; i < 8; i++ {
		c.OnEvent(event("acme/a"))
		c.OnEvent(event("globex/a"))
	}
	h.run(2 * time.Second)

	cl := c.Clusters()
	for _, el := range h.reg.Snapshot() {
		e, ok := c.msgs[el.ID]
		if !ok {
			t.Fatalf("unknown message %d", el.ID)
		}
		own, other := cl[0], cl[1]
		if e.ent.ClusterID == other.ID {
			own, other = other, own
		}
		dOwn := math.Hypot(el.X-own.TargetX, el.Y-own.TargetY)
		dOther := math.Hypot(el.X-other.TargetX, el.Y-other.TargetY)
		if dOwn >= dOther {
			t.Errorf("message %d is closer to %s than to its own cluster %s", el.ID, other.ID, own.ID)
		}
	}
}

func TestClustersMaxActive(t *testing.T) {
	h := newHarness()
	h.env.Config.Clusters.MaxActive = 5
	c := NewClusters(h.env)
	c.Start()
	for i := 0; i < 12; i++ {
		c.OnEvent(event("acme/a"))
	}
	if h.reg.Len() != 5 {
		t.Errorf("expected cap of 5, got %d", h.reg.Len())
	}
}

func TestClustersTeardown(t *testing.T) {
	h, c := startClusters(t)
	for i := 0; i < 10; i++ {
		c.OnEvent(event("acme/a"))
	}
	h.run(3500 * time.Millisecond)

	h.epoch.Bump()
	c.Teardown()
	if h.reg.Len() != 0 || h.sink.Len() != 0 || h.sched.Pending() != 0 {
		t.Errorf("teardown left %d tracked, %d visuals, %d timers", h.reg.Len(), h.sink.Len(), h.sched.Pending())
	}
	if len(c.Clusters()) != 0 {
		t.Error("clusters should be cleared")
	}
}

func TestClustersEvictionQueueStaysBounded(t *testing.T) {
	h, c := startClusters(t)
	for i := 0; i < 3000; i++ {
		c.OnEvent(event("acme/a"))
		h.run(100 * time.Millisecond)
	}
	if got, limit := c.order.Len(), 2*len(c.msgs)+fifoMinPrune; got > limit {
		t.Errorf("eviction queue holds %d ids for %d live messages, want at most %d", got, len(c.msgs), limit)
	}
}

func TestClustersReleasedWhenIdle(t *testing.T) {
	h, c := startClusters(t)
	cfg := h.env.Config.Clusters
	lifetime := cfg.DisplayDuration + cfg.FadeDuration + frame

	c.OnEvent(event("acme/a"))
	c.OnEvent(event("globex/a"))
	h.run(lifetime)
	if len(c.Clusters()) != 2 {
		t.Fatalf("empty clusters should wait out the idle timeout, got %d", len(c.Clusters()))
	}

	c.OnEvent(event("globex/b"))
	h.run(cfg.IdleTimeout)
	cl := c.Clusters()
	if len(cl) != 1 || cl[0].ID != "globex" || cl[0].Index != 1 {
		t.Fatalf("expected only globex to survive, got %+v", cl)
	}

	c.OnEvent(event("initech/a"))
	cl = c.Clusters()
	if len(cl) != 2 || cl[0].ID != "initech" || cl[0].Index != 0 {
		t.Fatalf("expected initech to take the freed index, got %+v", cl)
	}
	if cl[0].TargetX == cl[1].TargetX && cl[0].TargetY == cl[1].TargetY {
		t.Error("live cluster targets must differ")
	}
}

func TestClustersStayNearCenterUnderChurn(t *testing.T) {
	h := newHarness()
	h.env.Config.Clusters.IdleTimeout = 0
	c := NewClusters(h.env)
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	cfg := h.env.Config.Clusters
	for i := 0; i < 500; i++ {
		c.OnEvent(event(fmt.Sprintf("customer-%d/a", i)))
		h.run(time.Second)
	}
	live := len(c.Clusters())
	if live > 8 {
		t.Errorf("expected a handful of live clusters, got %d", live)
	}
	for _, cl := range c.Clusters() {
		if cl.Index >= live+1 {
			t.Errorf("cluster %s index %d should be reused below %d", cl.ID, cl.Index, live+1)
		}
		cx, cy := h.env.Layout.Center()
		if d := math.Hypot(cl.TargetX-cx, cl.TargetY-cy); d > cfg.RingBase+float64(live)*cfg.RingStep+1e-9 {
			t.Errorf("cluster %s target %v from center", cl.ID, d)
		}
	}
}
