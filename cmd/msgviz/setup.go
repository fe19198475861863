package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/san-kum/msgviz/internal/config"
	"github.com/san-kum/msgviz/internal/engine"
	"github.com/san-kum/msgviz/internal/logging"
	"github.com/san-kum/msgviz/internal/observability"
	"github.com/san-kum/msgviz/internal/scenario"
	"github.com/san-kum/msgviz/internal/source"
	"github.com/spf13/cobra"
)

// loadConfig resolves the configuration for a command: defaults, then the
// config file, then the preset, then any flag the user set explicitly.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if len(args) > 0 {
		cfg.Mode = args[0]
	}

	if preset != "" {
		if !config.ApplyPreset(cfg, cfg.Mode, preset) {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Mode))
		}
	}

	if flagSet(cmd, "seed") {
		cfg.Seed = seed
		cfg.Source.Synthetic.Seed = seed
	}
	if flagSet(cmd, "rate") {
		cfg.Source.Synthetic.Rate = rate
	}
	if flagSet(cmd, "replay") {
		cfg.Source.Kind = "replay"
		cfg.Source.Path = replayPath
	}
	if flagSet(cmd, "speed") {
		cfg.Source.Speed = speed
	}
	if flagSet(cmd, "fps") {
		cfg.FPS = fps
	}
	if flagSet(cmd, "metrics-addr") {
		cfg.MetricsAddr = metricsAddr
	}
	if flagSet(cmd, "log-level") {
		cfg.Log.Level = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func flagSet(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

// buildSource returns the configured emitter. The synthetic source is also
// returned on its own so callers can tune its rate; it is nil for replays.
func buildSource(cfg *config.Config) (source.Emitter, *source.Synthetic, error) {
	switch cfg.Source.Kind {
	case "replay":
		f, err := os.Open(cfg.Source.Path)
		if err != nil {
			return nil, nil, err
		}
		defer f.Close()
		events, skipped, err := source.ReadJSONL(f)
		if err != nil {
			return nil, nil, fmt.Errorf("read capture %s: %w", cfg.Source.Path, err)
		}
		if skipped > 0 {
			fmt.Fprintln(os.Stderr, subtle.Sprintf("skipped %d malformed lines in %s", skipped, cfg.Source.Path))
		}
		return source.NewReplay(events, cfg.Source.Speed), nil, nil
	default:
		syn := source.NewSynthetic(cfg.Source.Synthetic)
		return syn, syn, nil
	}
}

func sourceLabel(cfg *config.Config) string {
	if cfg.Source.Kind == "replay" {
		return "replay:" + cfg.Source.Path
	}
	return "synthetic"
}

func rateSetter(syn *source.Synthetic) scenario.RateSetter {
	if syn == nil {
		return nil
	}
	return syn
}

func openLogger(cfg *config.Config) (logging.Logger, io.Closer, error) {
	log, closer, err := logging.Open(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	return log, closer, nil
}

// startMetrics registers the collector and serves it on addr until ctx is
// done. It returns nil when addr is empty.
func startMetrics(ctx context.Context, addr string, log logging.Logger) (*observability.Collector, error) {
	if addr == "" {
		return nil, nil
	}
	c, err := observability.NewCollector(nil)
	if err != nil {
		return nil, err
	}
	go func() {
		if err := c.Serve(ctx, addr); err != nil {
			log.Error(ctx, "metrics server stopped", logging.Err(err))
		}
	}()
	log.Info(ctx, "serving metrics", logging.String("addr", addr))
	return c, nil
}

func recorder(c *observability.Collector) engine.Recorder {
	if c == nil {
		return nil
	}
	return c
}

// observeStats copies engine stats into the collector gauges every second.
func observeStats(ctx context.Context, c *observability.Collector, eng *engine.Engine) {
	if c == nil {
		return
	}
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.ObserveStats(eng.Stats())
		}
	}
}

func simFrame(cfg *config.Config) time.Duration {
	if frame > 0 {
		return frame
	}
	return cfg.FrameInterval()
}
