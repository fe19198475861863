package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/san-kum/msgviz/internal/cleanup"
	"github.com/san-kum/msgviz/internal/force"
	"github.com/san-kum/msgviz/internal/logging"
	"github.com/san-kum/msgviz/internal/source"
	"github.com/san-kum/msgviz/internal/strategy"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMode   = "radial"
	DefaultFPS    = 60
	DefaultWidth  = 1280.0
	DefaultHeight = 800.0
	DefaultSpeed  = 1.0
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Mode             string                    `yaml:"mode" toml:"mode"`
	Seed             int64                     `yaml:"seed" toml:"seed"`
	FPS              int                       `yaml:"fps" toml:"fps"`
	Layout           LayoutConfig              `yaml:"layout" toml:"layout"`
	Force            force.Config              `yaml:"force" toml:"force"`
	Cleanup          cleanup.Config            `yaml:"cleanup" toml:"cleanup"`
	CleanupOverrides map[string]cleanup.Config `yaml:"cleanup_overrides,omitempty" toml:"cleanup_overrides,omitempty"`

	Linear    strategy.LinearConfig    `yaml:"linear" toml:"linear"`
	Radial    strategy.RadialConfig    `yaml:"radial" toml:"radial"`
	Starfield strategy.StarfieldConfig `yaml:"starfield" toml:"starfield"`
	Network   strategy.NetworkConfig   `yaml:"network" toml:"network"`
	Clusters  strategy.ClustersConfig  `yaml:"clusters" toml:"clusters"`

	Source      SourceConfig   `yaml:"source" toml:"source"`
	Log         logging.Config `yaml:"log" toml:"log"`
	MetricsAddr string         `yaml:"metrics_addr,omitempty" toml:"metrics_addr,omitempty"`
}

// LayoutConfig sizes the headless canvas. The live view replaces it with the
// terminal size.
type LayoutConfig struct {
	Width          float64 `yaml:"width" toml:"width"`
	Height         float64 `yaml:"height" toml:"height"`
	PanelCollapsed bool    `yaml:"panel_collapsed" toml:"panel_collapsed"`
	CollapsedPanel float64 `yaml:"collapsed_panel" toml:"collapsed_panel"`
	ExpandedPanel  float64 `yaml:"expanded_panel" toml:"expanded_panel"`
}

type SourceConfig struct {
	Kind      string                 `yaml:"kind" toml:"kind"` // synthetic or replay
	Path      string                 `yaml:"path,omitempty" toml:"path,omitempty"`
	Speed     float64                `yaml:"speed" toml:"speed"`
	Interval  time.Duration          `yaml:"interval" toml:"interval"`
	Synthetic source.SyntheticConfig `yaml:"synthetic" toml:"synthetic"`
}

func DefaultConfig() *Config {
	strat := strategy.DefaultConfig()
	return &Config{
		Mode: DefaultMode,
		FPS:  DefaultFPS,
		Layout: LayoutConfig{
			Width:          DefaultWidth,
			Height:         DefaultHeight,
			PanelCollapsed: true,
			CollapsedPanel: 60,
			ExpandedPanel:  320,
		},
		Force:   strat.Force,
		Cleanup: cleanup.DefaultConfig(),
		CleanupOverrides: map[string]cleanup.Config{
			"network": {MaxAge: 5 * time.Minute, AggressiveAge: time.Minute},
		},
		Linear:    strat.Linear,
		Radial:    strat.Radial,
		Starfield: strat.Starfield,
		Network:   strat.Network,
		Clusters:  strat.Clusters,
		Source: SourceConfig{
			Kind:      "synthetic",
			Speed:     DefaultSpeed,
			Interval:  50 * time.Millisecond,
			Synthetic: source.DefaultSyntheticConfig(),
		},
		Log: logging.Config{Level: "info", Format: "text"},
	}
}

// Load reads a yaml file, or toml when the extension is .toml. Missing keys
// keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if isTOML(path) {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		var sb strings.Builder
		err = toml.NewEncoder(&sb).Encode(cfg)
		data = []byte(sb.String())
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Strategies returns the per-mode settings handed to strategies.
func (c *Config) Strategies() strategy.Config {
	return strategy.Config{
		Linear:    c.Linear,
		Radial:    c.Radial,
		Starfield: c.Starfield,
		Network:   c.Network,
		Clusters:  c.Clusters,
		Force:     c.Force,
	}
}

// CleanupFor returns the cleanup settings for mode. Non-zero override fields
// replace the base values.
func (c *Config) CleanupFor(mode string) cleanup.Config {
	out := c.Cleanup
	o, ok := c.CleanupOverrides[mode]
	if !ok {
		return out
	}
	if o.CheckInterval > 0 {
		out.CheckInterval = o.CheckInterval
	}
	if o.BufferZone > 0 {
		out.BufferZone = o.BufferZone
	}
	if o.MaxAge > 0 {
		out.MaxAge = o.MaxAge
	}
	if o.MaxElements > 0 {
		out.MaxElements = o.MaxElements
	}
	if o.AggressiveAge > 0 {
		out.AggressiveAge = o.AggressiveAge
	}
	if o.ResizeDebounce > 0 {
		out.ResizeDebounce = o.ResizeDebounce
	}
	return out
}

// FrameInterval is the real-time frame period.
func (c *Config) FrameInterval() time.Duration {
	if c.FPS <= 0 {
		return time.Second / DefaultFPS
	}
	return time.Second / time.Duration(c.FPS)
}

func (c *Config) Validate() error {
	if _, err := strategy.Lookup(c.Mode); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("%w: fps must be positive", ErrInvalid)
	}
	if c.Layout.Width <= 0 || c.Layout.Height <= 0 {
		return fmt.Errorf("%w: layout size must be positive", ErrInvalid)
	}
	if c.Cleanup.CheckInterval <= 0 || c.Cleanup.MaxAge <= 0 || c.Cleanup.MaxElements <= 0 {
		return fmt.Errorf("%w: cleanup interval, max age and max elements must be positive", ErrInvalid)
	}
	for mode := range c.CleanupOverrides {
		if _, err := strategy.Lookup(mode); err != nil {
			return fmt.Errorf("%w: cleanup override: %v", ErrInvalid, err)
		}
	}
	if _, err := force.GetIntegrator(c.Force.Integrator); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	strat := c.Strategies()
	for _, mode := range strategy.Names() {
		if err := strat.Validate(mode); err != nil {
			return err
		}
	}
	switch c.Source.Kind {
	case "synthetic":
	case "replay":
		if c.Source.Path == "" {
			return fmt.Errorf("%w: replay source needs a path", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown source kind %q", ErrInvalid, c.Source.Kind)
	}
	if c.Source.Speed <= 0 {
		return fmt.Errorf("%w: source speed must be positive", ErrInvalid)
	}
	return nil
}
