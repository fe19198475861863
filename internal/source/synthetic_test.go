package source

import (
	"strings"
	"testing"
	"time"
)

var t0 = time.Unix(1_700_000_000, 0)

func drain(s *Synthetic, steps int, step time.Duration) []Event {
	var all []Event
	for i := 0; i <= steps; i++ {
		all = append(all, s.Emit(t0.Add(time.Duration(i)*step))...)
	}
	return all
}

func TestSyntheticSteadyRate(t *testing.T) {
	s := NewSynthetic(SyntheticConfig{Customers: 3, Devices: 2, Rate: 20, Burstiness: 0, Seed: 1})
	events := drain(s, 100, 100*time.Millisecond)
	if n := len(events); n < 199 || n > 200 {
		t.Errorf("expected ~200 events in 10s at 20/s, got %d", n)
	}
}

func TestSyntheticDeterministic(t *testing.T) {
	cfg := SyntheticConfig{Customers: 5, Devices: 5, Rate: 50, Burstiness: 0.8, Seed: 7}
	a := drain(NewSynthetic(cfg), 50, 50*time.Millisecond)
	b := drain(NewSynthetic(cfg), 50, 50*time.Millisecond)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Topic != b[i].Topic || a[i].Payload != b[i].Payload {
			t.Fatalf("event %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestSyntheticTopics(t *testing.T) {
	s := NewSynthetic(SyntheticConfig{Customers: 2, Devices: 3, Rate: 100, Seed: 3})
	for _, ev := range drain(s, 20, 100*time.Millisecond) {
		if err := ValidateTopic(ev.Topic); err != nil {
			t.Fatal(err)
		}
		parts := strings.Split(ev.Topic, "/")
		if len(parts) != 3 || !strings.HasPrefix(parts[0], "customer-") || !strings.HasPrefix(parts[1], "device-") {
			t.Fatalf("unexpected topic %q", ev.Topic)
		}
		if ev.QoS > 2 {
			t.Fatalf("invalid qos %d", ev.QoS)
		}
	}
}

func TestSyntheticBursty(t *testing.T) {
	s := NewSynthetic(SyntheticConfig{Rate: 10, Burstiness: 1, Seed: 11})
	lo, hi := s.Rate(0), s.Rate(0)
	for i := 0; i < 600; i++ {
		r := s.Rate(time.Duration(i) * 100 * time.Millisecond)
		if r < 0 {
			t.Fatalf("negative rate %f", r)
		}
		lo, hi = min(lo, r), max(hi, r)
	}
	if hi-lo < 5 {
		t.Errorf("expected varying rate, range [%f, %f]", lo, hi)
	}
}

func TestSyntheticBatchCap(t *testing.T) {
	s := NewSynthetic(SyntheticConfig{Rate: 20, Seed: 1})
	s.Emit(t0)
	if n := len(s.Emit(t0.Add(time.Hour))); n != maxBatch {
		t.Errorf("expected batch capped at %d, got %d", maxBatch, n)
	}
}

func TestSyntheticSetRate(t *testing.T) {
	s := NewSynthetic(SyntheticConfig{Rate: 20, Seed: 1})
	s.SetRate(0)
	s.Emit(t0)
	if n := len(s.Emit(t0.Add(10 * time.Second))); n != 0 {
		t.Errorf("expected silence at rate 0, got %d events", n)
	}
	s.SetRate(-5)
	if s.BaseRate() != 0 {
		t.Errorf("negative rate should clamp to 0, got %f", s.BaseRate())
	}
}
