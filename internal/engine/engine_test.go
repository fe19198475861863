package engine_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/msgviz/internal/clock"
	"github.com/san-kum/msgviz/internal/config"
	"github.com/san-kum/msgviz/internal/engine"
	"github.com/san-kum/msgviz/internal/entity"
	"github.com/san-kum/msgviz/internal/layout"
	"github.com/san-kum/msgviz/internal/render"
	"github.com/san-kum/msgviz/internal/source"
	"github.com/san-kum/msgviz/internal/strategy"
)

var t0 = time.Unix(1_700_000_000, 0)

type stub struct {
	start    func() error
	torn     int
	received int
}

func (s *stub) Name() string { return "stub" }
func (s *stub) Start() error {
	if s.start != nil {
		return s.start()
	}
	return nil
}
func (s *stub) OnEvent(source.Event) (entity.ID, bool) { s.received++; return 0, false }
func (s *stub) Tick(time.Time)                         {}
func (s *stub) Remove(entity.ID) bool                  { return false }
func (s *stub) Teardown()                              { s.torn++ }

func msg(topic string) source.Event {
	return source.Event{Topic: topic, Payload: "{}", Timestamp: t0}
}

var _ = Describe("Engine", func() {
	var (
		cfg   *config.Config
		sched *clock.Scheduler
		sink  *render.MemorySink
		host  *layout.StaticHost
		modes map[string]strategy.Factory
		eng   *engine.Engine
	)

	build := func() {
		var err error
		eng, err = engine.New(cfg, engine.Options{
			Host:  host,
			Sink:  sink,
			Clock: sched,
			Modes: modes,
		})
		Expect(err).NotTo(HaveOccurred())
	}

	BeforeEach(func() {
		cfg = config.DefaultConfig()
		sched = clock.NewScheduler(t0)
		sink = render.NewMemorySink()
		host = layout.NewStaticHost(800, 600)
		modes = map[string]strategy.Factory{}
		eng = nil
	})

	AfterEach(func() {
		if eng != nil {
			Expect(eng.Close()).To(Succeed())
		}
	})

	Describe("construction", func() {
		It("starts in the configured mode with no entities", func() {
			build()
			stats := eng.Stats()
			Expect(stats.Mode).To(Equal("radial"))
			Expect(stats.Entities.Total).To(BeZero())
			Expect(stats.Epoch).To(BeNumerically("==", 1))
		})

		It("rejects an invalid configuration", func() {
			cfg.Mode = "spiral"
			_, err := engine.New(cfg, engine.Options{Clock: sched})
			Expect(err).To(MatchError(config.ErrInvalid))
		})

		It("fails when the initial strategy cannot start", func() {
			cfg.Mode = "radial"
			modes["radial"] = func(strategy.Env) strategy.Strategy {
				return &stub{start: func() error { return errors.New("boom") }}
			}
			_, err := engine.New(cfg, engine.Options{Clock: sched, Modes: modes})
			Expect(errors.Is(err, engine.ErrStartFailed)).To(BeTrue())
		})
	})

	Describe("routing events", func() {
		BeforeEach(build)

		It("creates one entity per event in closed-form modes", func() {
			for i := 0; i < 5; i++ {
				_, ok := eng.OnEvent(msg("acme/sensor-1/temp"))
				Expect(ok).To(BeTrue())
			}
			stats := eng.Stats()
			Expect(stats.Entities.Total).To(Equal(5))
			Expect(stats.Events).To(BeNumerically("==", 5))
			Expect(sink.Len()).To(Equal(5))
		})

		It("removes closed-form entities once their animation completes", func() {
			eng.OnEvent(msg("acme/sensor-1/temp"))
			for i := 0; i < 300; i++ {
				eng.Step(16 * time.Millisecond)
			}
			Expect(eng.Stats().Entities.Total).To(BeZero())
			Expect(sink.Len()).To(BeZero())
		})

		It("builds the broker graph in network mode", func() {
			Expect(eng.SwitchMode("network")).To(BeTrue())
			eng.OnEvent(msg("acme/sensor-1/temp"))
			eng.OnEvent(msg("acme/sensor-2/temp"))
			eng.Step(16 * time.Millisecond)

			stats := eng.Stats()
			Expect(stats.Entities.ByType).To(HaveKeyWithValue(entity.KindBroker, 1))
			Expect(stats.Entities.ByType).To(HaveKeyWithValue(entity.KindCustomer, 1))
			Expect(stats.Entities.ByType).To(HaveKeyWithValue(entity.KindDevice, 2))
			Expect(stats.Alpha).To(BeNumerically(">", 0))
		})
	})

	Describe("switching modes", func() {
		BeforeEach(build)

		It("clears every visual from the previous mode", func() {
			for i := 0; i < 10; i++ {
				eng.OnEvent(msg("acme/sensor-1/temp"))
			}
			before := eng.Stats().Epoch

			Expect(eng.SwitchMode("linear")).To(BeTrue())
			stats := eng.Stats()
			Expect(stats.Mode).To(Equal("linear"))
			Expect(stats.Entities.Total).To(BeZero())
			Expect(sink.Len()).To(BeZero())
			Expect(stats.Epoch).To(BeNumerically(">", before))
			Expect(eng.Transitioning()).To(BeFalse())
		})

		It("leaves the network mode empty until the first event", func() {
			Expect(eng.SwitchMode("network")).To(BeTrue())
			Expect(eng.Stats().Entities.Total).To(BeZero())
		})

		It("treats the active mode as a no-op", func() {
			eng.OnEvent(msg("acme/sensor-1/temp"))
			epoch := eng.Stats().Epoch

			Expect(eng.SwitchMode("radial")).To(BeTrue())
			Expect(eng.Stats().Entities.Total).To(Equal(1))
			Expect(eng.Stats().Epoch).To(Equal(epoch))
		})

		It("rejects unknown modes before tearing anything down", func() {
			eng.OnEvent(msg("acme/sensor-1/temp"))

			Expect(eng.SwitchMode("spiral")).To(BeFalse())
			Expect(eng.Mode()).To(Equal("radial"))
			Expect(eng.Stats().Entities.Total).To(Equal(1))
		})

		It("does not fire timers from a previous mode", func() {
			for i := 0; i < 10; i++ {
				eng.OnEvent(msg("acme/sensor-1/temp"))
			}
			Expect(eng.SwitchMode("network")).To(BeTrue())
			created, _, _ := sink.Totals()

			for i := 0; i < 600; i++ {
				eng.Step(16 * time.Millisecond)
			}
			after, _, _ := sink.Totals()
			Expect(after).To(Equal(created))
			Expect(eng.Stats().Entities.Total).To(BeZero())
		})

		It("survives many consecutive switches", func() {
			for _, mode := range []string{"linear", "starfield", "network", "clusters", "radial", "network", "linear"} {
				eng.OnEvent(msg("acme/sensor-1/temp"))
				eng.Step(100 * time.Millisecond)
				Expect(eng.SwitchMode(mode)).To(BeTrue())
				Expect(eng.Stats().Entities.Total).To(BeZero())
			}
		})
	})

	Describe("switch coordination", func() {
		It("rejects a switch requested during a transition", func() {
			inner := true
			modes["reentrant"] = func(strategy.Env) strategy.Strategy {
				return &stub{start: func() error {
					inner = eng.SwitchMode("linear")
					return nil
				}}
			}
			build()

			Expect(eng.SwitchMode("reentrant")).To(BeTrue())
			Expect(inner).To(BeFalse())
			Expect(eng.Mode()).To(Equal("reentrant"))
			Expect(eng.Transitioning()).To(BeFalse())
		})

		It("leaves no active mode when Start fails", func() {
			modes["broken"] = func(strategy.Env) strategy.Strategy {
				return &stub{start: func() error { return errors.New("no canvas") }}
			}
			build()
			eng.OnEvent(msg("acme/sensor-1/temp"))

			Expect(eng.SwitchMode("broken")).To(BeFalse())
			Expect(eng.Mode()).To(BeEmpty())
			Expect(eng.Stats().Entities.Total).To(BeZero())

			_, ok := eng.OnEvent(msg("acme/sensor-1/temp"))
			Expect(ok).To(BeFalse())
			Expect(eng.Stats().Dropped).To(BeNumerically("==", 1))

			Expect(eng.SwitchMode("radial")).To(BeTrue())
		})

		It("returns to idle after a panicking Start", func() {
			modes["panics"] = func(strategy.Env) strategy.Strategy {
				return &stub{start: func() error { panic("bad state") }}
			}
			build()

			Expect(eng.SwitchMode("panics")).To(BeFalse())
			Expect(eng.Transitioning()).To(BeFalse())
			Expect(eng.SwitchMode("starfield")).To(BeTrue())
		})

		It("tears down the previous strategy exactly once", func() {
			s := &stub{}
			modes["stub"] = func(strategy.Env) strategy.Strategy { return s }
			build()

			Expect(eng.SwitchMode("stub")).To(BeTrue())
			Expect(eng.SwitchMode("radial")).To(BeTrue())
			Expect(s.torn).To(Equal(1))
		})
	})

	Describe("cleanup", func() {
		It("removes detached visuals on the next sweep", func() {
			build()
			eng.OnEvent(msg("acme/sensor-1/temp"))
			sink.Each(func(h render.Handle, _ render.Visual) { sink.Detach(h) })

			eng.Step(time.Second)
			Expect(eng.Stats().Entities.Total).To(BeZero())
		})

		It("runs an aggressive sweep after a resize", func() {
			cfg.CleanupOverrides = nil
			build()
			Expect(eng.SwitchMode("network")).To(BeTrue())
			eng.OnEvent(msg("acme/sensor-1/temp"))
			eng.OnEvent(msg("acme/sensor-2/temp"))
			for i := 0; i < 11; i++ {
				eng.Step(time.Second)
			}
			Expect(eng.Stats().Entities.Total).To(Equal(4))

			host.SetPanelCollapsed(false)
			eng.NotifyResize()
			eng.Step(400 * time.Millisecond)

			stats := eng.Stats()
			Expect(stats.Entities.Total).To(Equal(1))
			Expect(stats.Entities.ByType).To(HaveKeyWithValue(entity.KindBroker, 1))
		})
	})

	Describe("closing", func() {
		It("drops events and rejects switches afterwards", func() {
			build()
			eng.OnEvent(msg("acme/sensor-1/temp"))
			Expect(eng.Close()).To(Succeed())
			Expect(eng.Close()).To(Succeed())

			Expect(sink.Len()).To(BeZero())
			_, ok := eng.OnEvent(msg("acme/sensor-1/temp"))
			Expect(ok).To(BeFalse())
			Expect(eng.SwitchMode("linear")).To(BeFalse())
		})
	})

	Describe("running in real time", func() {
		It("routes events until the context ends", func() {
			build()
			events := make(chan source.Event, 3)
			for i := 0; i < 3; i++ {
				events <- msg("acme/sensor-1/temp")
			}
			close(events)

			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			err := eng.Run(ctx, events)

			Expect(err).To(MatchError(context.DeadlineExceeded))
			Expect(eng.Stats().Events).To(BeNumerically("==", 3))
			Expect(eng.Stats().Frames).To(BeNumerically(">", 0))
		})
	})
})
