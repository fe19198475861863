package strategy

import (
	"math/rand"
	"time"

	"github.com/san-kum/msgviz/internal/clock"
	"github.com/san-kum/msgviz/internal/layout"
	"github.com/san-kum/msgviz/internal/logging"
	"github.com/san-kum/msgviz/internal/registry"
	"github.com/san-kum/msgviz/internal/render"
	"github.com/san-kum/msgviz/internal/source"
)

var t0 = time.Unix(1_700_000_000, 0)

const frame = 16 * time.Millisecond

type harness struct {
	sched *clock.Scheduler
	host  *layout.StaticHost
	reg   *registry.Registry
	sink  *render.MemorySink
	epoch *clock.Epoch
	env   Env
}

func newHarness() *harness {
	sched := clock.NewScheduler(t0)
	host := layout.NewStaticHost(800, 600)
	h := &harness{
		sched: sched,
		host:  host,
		reg:   registry.New(sched),
		sink:  render.NewMemorySink(),
		epoch: &clock.Epoch{},
	}
	h.env = Env{
		Registry: h.reg,
		Sink:     h.sink,
		Layout:   layout.NewCalculator(host),
		Timers:   sched.NewGroup(),
		Clock:    sched,
		Epoch:    h.epoch,
		Rand:     rand.New(rand.NewSource(1)),
		Log:      logging.Noop(),
		Config:   DefaultConfig(),
	}
	return h
}

// run advances virtual time frame by frame.
func (h *harness) run(d time.Duration) {
	end := h.sched.Now().Add(d)
	for h.sched.Now().Before(end) {
		next := h.sched.Now().Add(frame)
		if next.After(end) {
			next = end
		}
		h.sched.Advance(next)
	}
}

func event(topic string) source.Event {
	return source.Event{Topic: topic, Payload: "{}", Timestamp: t0}
}
