// Package observability exposes engine activity as Prometheus metrics.
package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/san-kum/msgviz/internal/cleanup"
	"github.com/san-kum/msgviz/internal/engine"
	"github.com/san-kum/msgviz/internal/entity"
)

// Collector bundles the engine metrics. It implements engine.Recorder.
type Collector struct {
	gatherer prometheus.Gatherer

	Events       *prometheus.CounterVec
	ModeSwitches *prometheus.CounterVec
	Sweeps       prometheus.Counter
	Removals     *prometheus.CounterVec
	SweepRemoved prometheus.Histogram

	Entities *prometheus.GaugeVec
	Alpha    prometheus.Gauge
	Epoch    prometheus.Gauge
}

var _ engine.Recorder = (*Collector)(nil)

// NewCollector registers the metrics against reg, defaulting to the global
// registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	events, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "msgviz_events_total",
		Help: "Events received, labeled by active mode and outcome.",
	}, []string{"mode", "outcome"}), "msgviz_events_total")
	if err != nil {
		return nil, err
	}

	switches, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "msgviz_mode_switches_total",
		Help: "Mode switch requests, labeled by target mode and result.",
	}, []string{"mode", "result"}), "msgviz_mode_switches_total")
	if err != nil {
		return nil, err
	}

	sweeps, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "msgviz_cleanup_sweeps_total",
		Help: "Completed cleanup sweeps.",
	}), "msgviz_cleanup_sweeps_total")
	if err != nil {
		return nil, err
	}

	removals, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "msgviz_cleanup_removals_total",
		Help: "Elements removed by cleanup, labeled by reason.",
	}, []string{"reason"}), "msgviz_cleanup_removals_total")
	if err != nil {
		return nil, err
	}

	removed, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "msgviz_cleanup_sweep_removed",
		Help:    "Elements removed per cleanup sweep.",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 200},
	}), "msgviz_cleanup_sweep_removed")
	if err != nil {
		return nil, err
	}

	entities, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "msgviz_entities",
		Help: "Live entities, labeled by type.",
	}, []string{"type"}), "msgviz_entities")
	if err != nil {
		return nil, err
	}

	alpha, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "msgviz_force_alpha",
		Help: "Current alpha of the force simulation, zero for closed-form modes.",
	}), "msgviz_force_alpha")
	if err != nil {
		return nil, err
	}

	epoch, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "msgviz_epoch",
		Help: "Mode generation; increments on every mode switch.",
	}), "msgviz_epoch")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:     gatherer,
		Events:       events,
		ModeSwitches: switches,
		Sweeps:       sweeps,
		Removals:     removals,
		SweepRemoved: removed,
		Entities:     entities,
		Alpha:        alpha,
		Epoch:        epoch,
	}, nil
}

func (c *Collector) EventRouted(mode string, ok bool) {
	if c == nil {
		return
	}
	outcome := "routed"
	if !ok {
		outcome = "dropped"
	}
	if mode == "" {
		mode = "none"
	}
	c.Events.WithLabelValues(mode, outcome).Inc()
}

func (c *Collector) ModeSwitched(_, to string, ok bool) {
	if c == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "rejected"
	}
	c.ModeSwitches.WithLabelValues(to, result).Inc()
}

func (c *Collector) Swept(res cleanup.SweepResult) {
	if c == nil {
		return
	}
	c.Sweeps.Inc()
	c.SweepRemoved.Observe(float64(res.Removed))
	for reason, n := range res.ByReason {
		c.Removals.WithLabelValues(string(reason)).Add(float64(n))
	}
}

// ObserveStats copies an engine snapshot into the gauges.
func (c *Collector) ObserveStats(s engine.Stats) {
	if c == nil {
		return
	}
	for _, kind := range entity.Kinds() {
		c.Entities.WithLabelValues(string(kind)).Set(float64(s.Entities.ByType[kind]))
	}
	c.Alpha.Set(s.Alpha)
	c.Epoch.Set(float64(s.Epoch))
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func alreadyRegistered[T any](reg prometheus.Registerer, c prometheus.Collector, name string) (T, error) {
	var zero T
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return zero, err
	}
	return c.(T), nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	return alreadyRegistered[*prometheus.CounterVec](reg, vec, name)
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	return alreadyRegistered[*prometheus.GaugeVec](reg, vec, name)
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	return alreadyRegistered[prometheus.Counter](reg, counter, name)
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	return alreadyRegistered[prometheus.Gauge](reg, gauge, name)
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	return alreadyRegistered[prometheus.Histogram](reg, h, name)
}
