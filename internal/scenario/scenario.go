// Package scenario scripts a bench run as a sequence of timed phases, each
// selecting a mode and an arrival rate.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/san-kum/msgviz/internal/engine"
	"github.com/san-kum/msgviz/internal/sim"
	"github.com/san-kum/msgviz/internal/strategy"
	"gopkg.in/yaml.v3"
)

var ErrEmpty = errors.New("scenario: no phases")

// Scenario defines a scripted run.
type Scenario struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Phases      []Phase `yaml:"phases"`
}

// Phase is one segment of a scenario. A zero Rate keeps the current rate.
type Phase struct {
	Mode     string        `yaml:"mode"`
	Duration time.Duration `yaml:"duration"`
	Rate     float64       `yaml:"rate"`
}

// RateSetter is implemented by sources whose arrival rate can change mid-run.
type RateSetter interface {
	SetRate(rate float64)
}

// Load reads a scenario from a YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (s *Scenario) Validate() error {
	if len(s.Phases) == 0 {
		return ErrEmpty
	}
	for i, p := range s.Phases {
		if _, err := strategy.Lookup(p.Mode); err != nil {
			return fmt.Errorf("scenario: phase %d: %w", i+1, err)
		}
		if p.Duration <= 0 {
			return fmt.Errorf("scenario: phase %d: duration must be positive", i+1)
		}
		if p.Rate < 0 {
			return fmt.Errorf("scenario: phase %d: rate must not be negative", i+1)
		}
	}
	return nil
}

// Duration is the total length of all phases.
func (s *Scenario) Duration() time.Duration {
	var total time.Duration
	for _, p := range s.Phases {
		total += p.Duration
	}
	return total
}

// PhaseAt returns the index of the phase running at offset, or -1 past the
// end.
func (s *Scenario) PhaseAt(offset time.Duration) int {
	var start time.Duration
	for i, p := range s.Phases {
		if offset >= start && offset < start+p.Duration {
			return i
		}
		start += p.Duration
	}
	return -1
}

// Install schedules every phase on the simulator. rates may be nil.
func (s *Scenario) Install(sm *sim.Simulator, rates RateSetter) {
	var start time.Duration
	for i, p := range s.Phases {
		i, p := i, p
		sm.At(start, func(eng *engine.Engine) error {
			if p.Rate > 0 && rates != nil {
				rates.SetRate(p.Rate)
			}
			if !eng.SwitchMode(p.Mode) {
				return fmt.Errorf("phase %d: switch to %s rejected", i+1, p.Mode)
			}
			return nil
		})
		start += p.Duration
	}
}

// Tour visits every mode for d each.
func Tour(d time.Duration, rate float64) *Scenario {
	sc := &Scenario{
		Name:        "tour",
		Description: "every mode in menu order",
	}
	for _, mode := range strategy.Names() {
		sc.Phases = append(sc.Phases, Phase{Mode: mode, Duration: d, Rate: rate})
	}
	return sc
}
