package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/san-kum/msgviz/internal/engine"
	"github.com/san-kum/msgviz/internal/registry"
)

var t0 = time.Unix(1_700_000_000, 0)

func stats(total int, events, dropped uint64) engine.Stats {
	return engine.Stats{
		Entities: registry.Counts{Total: total},
		Events:   events,
		Dropped:  dropped,
	}
}

func TestEventRate(t *testing.T) {
	m := NewEventRate(10 * time.Second)

	for i := 0; i <= 20; i++ {
		m.Observe(stats(0, uint64(i*5), 0), t0.Add(time.Duration(i)*time.Second))
	}

	if math.Abs(m.Value()-5) > 1e-9 {
		t.Errorf("expected 5 events/s, got %f", m.Value())
	}
	if len(m.samples) > 12 {
		t.Errorf("window should drop old samples, holding %d", len(m.samples))
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected 0 after reset")
	}
}

func TestEventRateWindow(t *testing.T) {
	m := NewEventRate(5 * time.Second)
	m.Observe(stats(0, 0, 0), t0)
	m.Observe(stats(0, 1000, 0), t0.Add(time.Second))
	for i := 2; i <= 20; i++ {
		m.Observe(stats(0, 1000, 0), t0.Add(time.Duration(i)*time.Second))
	}
	if m.Value() != 0 {
		t.Errorf("burst outside the window should not count, got %f", m.Value())
	}
}

func TestPeak(t *testing.T) {
	m := NewPeak()
	for _, n := range []int{3, 9, 4, 7} {
		m.Observe(stats(n, 0, 0), t0)
	}
	if m.Value() != 9 {
		t.Errorf("expected peak 9, got %f", m.Value())
	}
	m.Reset()
	if m.Value() != 0 {
		t.Error("expected 0 after reset")
	}
}

func TestMeanEntities(t *testing.T) {
	m := NewMeanEntities()
	if m.Value() != 0 {
		t.Error("expected 0 with no samples")
	}
	for _, n := range []int{2, 4, 6} {
		m.Observe(stats(n, 0, 0), t0)
	}
	if m.Value() != 4 {
		t.Errorf("expected mean 4, got %f", m.Value())
	}
}

func TestDropRatio(t *testing.T) {
	m := NewDropRatio()
	m.Observe(stats(0, 10, 1), t0)
	m.Observe(stats(0, 40, 10), t0)
	if m.Value() != 0.25 {
		t.Errorf("expected 0.25, got %f", m.Value())
	}
}

func TestTopicCounter(t *testing.T) {
	c := NewTopicCounter()
	for _, topic := range []string{"a/1", "b/1", "a/1", "c/1", "b/1", "a/1"} {
		c.Add(topic)
	}

	top := c.Top(2)
	if len(top) != 2 {
		t.Fatalf("expected 2 topics, got %d", len(top))
	}
	if top[0].Topic != "a/1" || top[0].Count != 3 || top[1].Topic != "b/1" {
		t.Errorf("unexpected ranking %v", top)
	}
	if c.Len() != 3 {
		t.Errorf("expected 3 topics, got %d", c.Len())
	}
	if all := c.Top(-1); len(all) != 3 {
		t.Errorf("negative n should return all, got %d", len(all))
	}

	c.Reset()
	if c.Len() != 0 {
		t.Error("expected empty after reset")
	}
}

func TestDefaultsHaveUniqueNames(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range Defaults() {
		if seen[m.Name()] {
			t.Errorf("duplicate metric %s", m.Name())
		}
		seen[m.Name()] = true
	}
}
