package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/msgviz/internal/clock"
	"github.com/san-kum/msgviz/internal/config"
	"github.com/san-kum/msgviz/internal/engine"
	"github.com/san-kum/msgviz/internal/entity"
	"github.com/san-kum/msgviz/internal/export"
	"github.com/san-kum/msgviz/internal/logging"
	"github.com/san-kum/msgviz/internal/metrics"
	"github.com/san-kum/msgviz/internal/render"
	"github.com/san-kum/msgviz/internal/scenario"
	"github.com/san-kum/msgviz/internal/sim"
	"github.com/san-kum/msgviz/internal/source"
	"github.com/san-kum/msgviz/internal/store"
	"github.com/san-kum/msgviz/internal/strategy"
	"github.com/san-kum/msgviz/internal/viz"
	"github.com/spf13/cobra"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	log, closer, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()
	if cfg.Log.File == "" {
		// stderr shares the terminal with the view
		log = logging.Noop()
	}

	ctx, stop := signalContext()
	defer stop()

	collector, err := startMetrics(ctx, cfg.MetricsAddr, log)
	if err != nil {
		return err
	}
	src, _, err := buildSource(cfg)
	if err != nil {
		return err
	}

	host := viz.NewTermHost(120, 40, cfg.Layout.PanelCollapsed)
	sink := render.NewMemorySink()
	eng, err := engine.New(cfg, engine.Options{
		Host:     host,
		Sink:     sink,
		Log:      log,
		Recorder: recorder(collector),
	})
	if err != nil {
		return err
	}
	defer eng.Close()
	go observeStats(ctx, collector, eng)

	m, err := viz.NewModel(viz.Options{
		Engine: eng,
		Sink:   sink,
		Host:   host,
		Source: src,
		Frame:  cfg.FrameInterval(),
		Theme:  theme,
		Log:    log,
	})
	if err != nil {
		return err
	}
	return viz.Run(ctx, m)
}

// newSimulator builds an engine on a virtual clock plus its source.
func newSimulator(cfg *config.Config, log logging.Logger, rec engine.Recorder) (*sim.Simulator, *source.Synthetic, error) {
	src, syn, err := buildSource(cfg)
	if err != nil {
		return nil, nil, err
	}
	eng, err := engine.New(cfg, engine.Options{
		Clock:    clock.NewScheduler(time.Now()),
		Log:      log,
		Recorder: rec,
	})
	if err != nil {
		return nil, nil, err
	}
	sm := sim.New(eng, src)
	for _, m := range metrics.Defaults() {
		sm.AddMetric(m)
	}
	return sm, syn, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	log, closer, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signalContext()
	defer stop()

	collector, err := startMetrics(ctx, cfg.MetricsAddr, log)
	if err != nil {
		return err
	}

	var sc *scenario.Scenario
	switch {
	case scenarioPath != "":
		if sc, err = scenario.Load(scenarioPath); err != nil {
			return err
		}
	case tour > 0:
		sc = scenario.Tour(tour, cfg.Source.Synthetic.Rate)
	}

	sm, syn, err := newSimulator(cfg, log, recorder(collector))
	if err != nil {
		return err
	}
	defer sm.Engine().Close()

	runFor := duration
	info := store.RunInfo{
		Mode:   cfg.Mode,
		Source: sourceLabel(cfg),
		Seed:   cfg.Seed,
		Frame:  simFrame(cfg),
	}
	if sc != nil {
		sc.Install(sm, rateSetter(syn))
		if !cmd.Flags().Changed("time") {
			runFor = sc.Duration()
		}
		info.Scenario = sc.Name
	}
	info.Duration = runFor

	brand.Printf("running %s for %v...\n", cfg.Mode, runFor)
	start := time.Now()
	result, err := sm.Run(ctx, sim.Config{
		Frame:       info.Frame,
		Duration:    runFor,
		SampleEvery: sampleEvery,
	})
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	if collector != nil {
		collector.ObserveStats(sm.Engine().Stats())
	}
	if svgOut != "" {
		if err := saveFrame(sm.Engine(), svgOut); err != nil {
			return err
		}
	}

	st := store.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(info, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", good.Sprint(runID))
	fmt.Printf("frames: %d  events: %d\n", result.Frames, result.Events)
	printMetrics(result.Metrics)
	for _, e := range result.Errors {
		fmt.Println(bad.Sprint("  ! ") + e.Error())
	}
	if totals := result.Totals(); len(totals) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(totals,
			asciigraph.Height(8),
			asciigraph.Width(70),
			asciigraph.Caption("live entities")))
	}
	return nil
}

func saveFrame(eng *engine.Engine, path string) error {
	sink, ok := eng.Sink().(*render.MemorySink)
	if !ok {
		return fmt.Errorf("sink cannot be exported")
	}
	dims := eng.Layout().EffectiveDimensions()
	if err := export.FrameFile(path, sink, dims.Width, dims.Height, viz.ThemeNeon.KindColor); err != nil {
		return err
	}
	fmt.Printf("frame: %s\n", path)
	return nil
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s %.4f\n", subtle.Sprintf("%-14s", name), m[name])
	}
}

func benchMode(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if numSeeds < 1 {
		return fmt.Errorf("seeds must be positive, got %d", numSeeds)
	}

	ctx, stop := signalContext()
	defer stop()

	build := func(s int64) (*sim.Simulator, error) {
		c := *cfg
		c.Seed = s
		c.Source.Synthetic.Seed = s
		sm, _, err := newSimulator(&c, logging.Noop(), nil)
		return sm, err
	}

	simCfg := sim.Config{Frame: simFrame(cfg), Duration: duration, SampleEvery: sampleEvery}
	brand.Printf("benchmarking %s: %d seeds x %v\n\n", cfg.Mode, numSeeds, duration)

	start := time.Now()
	results, err := sim.NewEnsemble(build, numSeeds, cfg.Seed).Run(ctx, simCfg)
	elapsed := time.Since(start)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tFRAMES\tEVENTS\tPEAK\tMEAN\tDROPPED")
	var frames int
	for i, r := range results {
		if r == nil {
			continue
		}
		frames += r.Frames
		fmt.Fprintf(w, "%d\t%d\t%d\t%.0f\t%.1f\t%.2f%%\n",
			cfg.Seed+int64(i), r.Frames, r.Events,
			r.Metrics["peak_entities"], r.Metrics["mean_entities"], 100*r.Metrics["drop_ratio"])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d frames in %v (%s frames/sec)\n", frames, elapsed.Round(time.Millisecond),
		good.Sprintf("%.0f", float64(frames)/elapsed.Seconds()))
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	log, closer, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signalContext()
	defer stop()
	if serveFor > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, serveFor)
		defer cancel()
	}

	collector, err := startMetrics(ctx, cfg.MetricsAddr, log)
	if err != nil {
		return err
	}
	src, _, err := buildSource(cfg)
	if err != nil {
		return err
	}
	eng, err := engine.New(cfg, engine.Options{Log: log, Recorder: recorder(collector)})
	if err != nil {
		return err
	}
	defer eng.Close()
	go observeStats(ctx, collector, eng)

	events := make(chan source.Event, 256)
	go source.Pump(ctx, src, cfg.Source.Interval, events)

	log.Info(ctx, "engine running", logging.String("mode", cfg.Mode), logging.String("source", sourceLabel(cfg)))
	err = eng.Run(ctx, events)
	stats := eng.Stats()
	log.Info(context.Background(), "engine stopped",
		logging.Uint64("events", stats.Events),
		logging.Uint64("dropped", stats.Dropped),
		logging.Uint64("frames", stats.Frames))
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func recordTraffic(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig().Source.Synthetic
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("rate") {
		cfg.Rate = rate
	}
	syn := source.NewSynthetic(cfg)

	const step = 10 * time.Millisecond
	now := time.Now()
	var events []source.Event
	for t := time.Duration(0); t <= captureFor; t += step {
		events = append(events, syn.Emit(now.Add(t))...)
	}

	f, err := os.Create(args[0])
	if err != nil {
		return err
	}
	if err := source.WriteJSONL(f, events); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("wrote %s events to %s\n", good.Sprint(len(events)), args[0])
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODE\tSCENARIO\tTIME\tDURATION\tFRAMES\tEVENTS\tSOURCE")
	for _, run := range runs {
		sc := run.Scenario
		if sc == "" {
			sc = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\t%d\t%d\t%s\n",
			run.ID,
			run.Mode,
			sc,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Frames,
			run.Events,
			run.Source,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadCounts(args[0])
	if err != nil {
		return err
	}
	if len(samples) < 2 {
		return fmt.Errorf("not enough samples to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("mode: %s\n", meta.Mode)
	fmt.Printf("samples: %d\n\n", len(samples))

	series := map[string][]float64{"total": make([]float64, len(samples))}
	for _, kind := range entity.Kinds() {
		series[string(kind)] = make([]float64, len(samples))
	}
	for i, s := range samples {
		series["total"][i] = float64(s.Total)
		for kind, n := range s.ByType {
			series[string(kind)][i] = float64(n)
		}
	}

	order := []string{"total"}
	for _, kind := range entity.Kinds() {
		order = append(order, string(kind))
	}
	for _, name := range order {
		data := series[name]
		if isFlatZero(data) {
			continue
		}
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(8),
			asciigraph.Width(80),
			asciigraph.Caption(name)))
		fmt.Println()
	}

	if svgOut != "" {
		f, err := os.Create(svgOut)
		if err != nil {
			return err
		}
		if err := export.Series(f, series["total"], 800, 240, string(viz.ThemeNeon.Accent)); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgOut)
	}
	return nil
}

func isFlatZero(data []float64) bool {
	for _, v := range data {
		if v != 0 {
			return false
		}
	}
	return true
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadCounts(args[0])
	if err != nil {
		return err
	}
	result := &sim.Result{
		Samples: samples,
		Metrics: meta.Metrics,
		Frames:  meta.Frames,
		Events:  meta.Events,
	}
	if jsonOut != "" {
		if err := store.ExportJSON(jsonOut, meta.RunInfo, result); err != nil {
			return err
		}
		fmt.Printf("exported %s to %s\n", meta.ID, jsonOut)
		return nil
	}
	return store.WriteJSON(os.Stdout, meta.RunInfo, result)
}

func listModes(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tMODE\tPRESETS")
	for i, name := range strategy.Names() {
		presets := config.ListPresets(name)
		list := "-"
		if len(presets) > 0 {
			list = fmt.Sprint(presets)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, name, list)
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	presets := config.ListPresets(args[0])
	if len(presets) == 0 {
		fmt.Printf("no presets for mode: %s\n", args[0])
		return nil
	}
	fmt.Printf("presets for %s:\n", brand.Sprint(args[0]))
	for _, p := range presets {
		fmt.Printf("  %s\n", p)
	}
	return nil
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args[0])
	return nil
}
