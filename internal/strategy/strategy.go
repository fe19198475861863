// Package strategy implements the visualization modes.
//
// Each mode is a [Strategy] selected once per mode switch. Linear, radial and
// starfield are closed-form: every entity's pose is a pure function of its
// age. Network and clusters are backed by a [force.Simulation].
//
// A strategy is the sole mutator of the entities it creates. Every timer and
// frame callback it registers goes through Env.Timers and is wrapped by the
// Env.Epoch guard, so Teardown (or a later epoch bump) leaves nothing that can
// touch state after the switch.
package strategy

import (
	"errors"
	"math/rand"
	"time"

	"github.com/san-kum/msgviz/internal/clock"
	"github.com/san-kum/msgviz/internal/entity"
	"github.com/san-kum/msgviz/internal/layout"
	"github.com/san-kum/msgviz/internal/logging"
	"github.com/san-kum/msgviz/internal/registry"
	"github.com/san-kum/msgviz/internal/render"
	"github.com/san-kum/msgviz/internal/source"
)

type Strategy interface {
	Name() string
	// Start validates configuration and registers timers.
	Start() error
	// OnEvent routes one event and returns the entity it created or touched.
	OnEvent(ev source.Event) (entity.ID, bool)
	// Tick advances every owned entity to now and pushes it to the sink.
	Tick(now time.Time)
	// Remove deletes one owned entity. It reports false for unknown ids.
	Remove(id entity.ID) bool
	// Teardown stops every owned timer and removes every owned entity.
	Teardown()
}

// AlphaReporter is implemented by force-backed strategies.
type AlphaReporter interface {
	Alpha() float64
}

// Env holds the services a strategy is constructed with.
type Env struct {
	Registry *registry.Registry
	Sink     render.Sink
	Layout   *layout.Calculator
	Timers   *clock.Group
	Clock    clock.Clock
	Epoch    *clock.Epoch
	Rand     *rand.Rand
	Log      logging.Logger
	Config   Config
}

// withDefaults fills optional services.
func (e Env) withDefaults() Env {
	if e.Log == nil {
		e.Log = logging.Noop()
	}
	if e.Rand == nil {
		e.Rand = rand.New(rand.NewSource(1))
	}
	if e.Epoch == nil {
		e.Epoch = &clock.Epoch{}
	}
	return e
}

var ErrInvalidConfig = errors.New("strategy: invalid config")

// safetyGrace is added to a closed-form entity's duration for its one-shot
// removal timeout.
const safetyGrace = time.Second

func progress(now, born time.Time, d time.Duration) float64 {
	if d <= 0 {
		return 1
	}
	return entity.Clamp(float64(now.Sub(born))/float64(d), 0, 1)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
