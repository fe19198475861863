package source

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/ojrac/opensimplex-go"
)

type SyntheticConfig struct {
	Customers  int     `yaml:"customers" toml:"customers"`
	Devices    int     `yaml:"devices" toml:"devices"`
	Rate       float64 `yaml:"rate" toml:"rate"`
	Burstiness float64 `yaml:"burstiness" toml:"burstiness"`
	Seed       int64   `yaml:"seed" toml:"seed"`
}

func DefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		Customers:  6,
		Devices:    4,
		Rate:       20,
		Burstiness: 0.6,
		Seed:       42,
	}
}

// maxBatch bounds a single Emit after a long pause.
const maxBatch = 1000

// Synthetic generates traffic for a fixed population of customer/device
// topics. The arrival rate drifts with simplex noise so the stream has bursts
// and quiet gaps.
type Synthetic struct {
	cfg   SyntheticConfig
	noise opensimplex.Noise
	rng   *rand.Rand

	start time.Time
	last  time.Time
	carry float64
	seq   uint64
}

func NewSynthetic(cfg SyntheticConfig) *Synthetic {
	def := DefaultSyntheticConfig()
	if cfg.Customers <= 0 {
		cfg.Customers = def.Customers
	}
	if cfg.Devices <= 0 {
		cfg.Devices = def.Devices
	}
	if cfg.Rate < 0 {
		cfg.Rate = 0
	}
	cfg.Burstiness = math.Max(0, math.Min(cfg.Burstiness, 1))
	return &Synthetic{
		cfg:   cfg,
		noise: opensimplex.New(cfg.Seed),
		rng:   rand.New(rand.NewSource(cfg.Seed)),
	}
}

// SetRate changes the base arrival rate for subsequent Emit calls.
func (s *Synthetic) SetRate(rate float64) {
	s.cfg.Rate = math.Max(0, rate)
}

// BaseRate returns the configured mean rate in events per second.
func (s *Synthetic) BaseRate() float64 { return s.cfg.Rate }

// Rate returns the instantaneous arrival rate in events per second.
func (s *Synthetic) Rate(elapsed time.Duration) float64 {
	n := s.noise.Eval2(elapsed.Seconds()*0.25, 0)
	return math.Max(0, s.cfg.Rate*(1+2*s.cfg.Burstiness*n))
}

func (s *Synthetic) Emit(now time.Time) []Event {
	if s.start.IsZero() {
		s.start, s.last = now, now
		return nil
	}
	dt := now.Sub(s.last)
	if dt <= 0 {
		return nil
	}
	s.last = now

	expected := s.carry + s.Rate(now.Sub(s.start))*dt.Seconds()
	n := int(expected)
	s.carry = expected - float64(n)
	if n > maxBatch {
		n = maxBatch
		s.carry = 0
	}

	out := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, s.next(now))
	}
	return out
}

func (s *Synthetic) next(now time.Time) Event {
	s.seq++
	c := s.rng.Intn(s.cfg.Customers)
	d := s.rng.Intn(s.cfg.Devices)
	return Event{
		Topic:     fmt.Sprintf("customer-%02d/device-%02d/telemetry", c+1, d+1),
		Payload:   fmt.Sprintf(`{"seq":%d,"value":%.3f}`, s.seq, s.rng.NormFloat64()*10+50),
		Timestamp: now,
		QoS:       byte(s.rng.Intn(3)),
	}
}
