package strategy

import (
	"fmt"
	"time"

	"github.com/san-kum/msgviz/internal/force"
)

type LinearConfig struct {
	Direction   string        `yaml:"direction" toml:"direction"`
	Duration    time.Duration `yaml:"duration" toml:"duration"`
	Margin      float64       `yaml:"margin" toml:"margin"`
	Buffer      float64       `yaml:"buffer" toml:"buffer"`
	ElementSize float64       `yaml:"element_size" toml:"element_size"`
	MaxActive   int           `yaml:"max_active" toml:"max_active"`
}

type RadialConfig struct {
	Duration    time.Duration `yaml:"duration" toml:"duration"`
	FadeStart   float64       `yaml:"fade_start" toml:"fade_start"`
	MaxDistance float64       `yaml:"max_distance" toml:"max_distance"` // 0 reaches the farthest corner
	MinScale    float64       `yaml:"min_scale" toml:"min_scale"`
	MaxScale    float64       `yaml:"max_scale" toml:"max_scale"`
	Radius      float64       `yaml:"radius" toml:"radius"`
	Buffer      float64       `yaml:"buffer" toml:"buffer"`
	MaxActive   int           `yaml:"max_active" toml:"max_active"`
}

type StarfieldConfig struct {
	Duration    time.Duration `yaml:"duration" toml:"duration"`
	Intensity   float64       `yaml:"intensity" toml:"intensity"`
	FadeIn      float64       `yaml:"fade_in" toml:"fade_in"`
	MaxDistance float64       `yaml:"max_distance" toml:"max_distance"`
	MinScale    float64       `yaml:"min_scale" toml:"min_scale"`
	MaxScale    float64       `yaml:"max_scale" toml:"max_scale"`
	Radius      float64       `yaml:"radius" toml:"radius"`
	Buffer      float64       `yaml:"buffer" toml:"buffer"`
	MaxActive   int           `yaml:"max_active" toml:"max_active"`
}

type NetworkConfig struct {
	DecayInterval  time.Duration `yaml:"decay_interval" toml:"decay_interval"`
	GracePeriod    time.Duration `yaml:"grace_period" toml:"grace_period"`
	DecayRate      float64       `yaml:"decay_rate" toml:"decay_rate"`
	RecoverRate    float64       `yaml:"recover_rate" toml:"recover_rate"`
	MinBrightness  float64       `yaml:"min_brightness" toml:"min_brightness"`
	MinScale       float64       `yaml:"min_scale" toml:"min_scale"`
	BrokerRadius   float64       `yaml:"broker_radius" toml:"broker_radius"`
	CustomerRadius float64       `yaml:"customer_radius" toml:"customer_radius"`
	DeviceRadius   float64       `yaml:"device_radius" toml:"device_radius"`
	CustomerDist   float64       `yaml:"customer_distance" toml:"customer_distance"`
	DeviceDist     float64       `yaml:"device_distance" toml:"device_distance"`
	Charge         float64       `yaml:"charge" toml:"charge"`
	ChargeDistMax  float64       `yaml:"charge_distance_max" toml:"charge_distance_max"`
	CenterStrength float64       `yaml:"center_strength" toml:"center_strength"`
	BoundaryMargin float64       `yaml:"boundary_margin" toml:"boundary_margin"`
	NoSmoothing    bool          `yaml:"no_smoothing" toml:"no_smoothing"`
}

type ClustersConfig struct {
	DisplayDuration time.Duration `yaml:"display_duration" toml:"display_duration"`
	FadeDuration    time.Duration `yaml:"fade_duration" toml:"fade_duration"`
	Radius          float64       `yaml:"radius" toml:"radius"`
	RingBase        float64       `yaml:"ring_base" toml:"ring_base"`
	RingStep        float64       `yaml:"ring_step" toml:"ring_step"`
	Attraction      float64       `yaml:"attraction" toml:"attraction"`
	Spawn           float64       `yaml:"spawn_jitter" toml:"spawn_jitter"`
	BoundaryMargin  float64       `yaml:"boundary_margin" toml:"boundary_margin"`
	MaxActive       int           `yaml:"max_active" toml:"max_active"`

	// IdleTimeout is how long an empty cluster keeps its slot. Zero frees it
	// as soon as its last message is removed.
	IdleTimeout time.Duration `yaml:"idle_timeout" toml:"idle_timeout"`
}

// Config carries every mode's settings; each strategy reads its own section.
type Config struct {
	Linear    LinearConfig    `yaml:"linear" toml:"linear"`
	Radial    RadialConfig    `yaml:"radial" toml:"radial"`
	Starfield StarfieldConfig `yaml:"starfield" toml:"starfield"`
	Network   NetworkConfig   `yaml:"network" toml:"network"`
	Clusters  ClustersConfig  `yaml:"clusters" toml:"clusters"`
	Force     force.Config    `yaml:"force" toml:"force"`
}

func DefaultConfig() Config {
	return Config{
		Linear: LinearConfig{
			Direction:   "down",
			Duration:    5 * time.Second,
			Margin:      100,
			Buffer:      200,
			ElementSize: 50,
			MaxActive:   100,
		},
		Radial: RadialConfig{
			Duration:  3 * time.Second,
			FadeStart: 0.2,
			MinScale:  0.5,
			MaxScale:  1.5,
			Radius:    6,
			Buffer:    50,
			MaxActive: 150,
		},
		Starfield: StarfieldConfig{
			Duration:  4 * time.Second,
			Intensity: 8,
			FadeIn:    0.02,
			MinScale:  0.2,
			MaxScale:  2.5,
			Radius:    4,
			Buffer:    50,
			MaxActive: 200,
		},
		Network: NetworkConfig{
			DecayInterval:  100 * time.Millisecond,
			GracePeriod:    3 * time.Second,
			DecayRate:      0.05,
			RecoverRate:    0.2,
			MinBrightness:  0.3,
			MinScale:       0.33,
			BrokerRadius:   24,
			CustomerRadius: 14,
			DeviceRadius:   8,
			CustomerDist:   120,
			DeviceDist:     50,
			Charge:         -200,
			ChargeDistMax:  300,
			CenterStrength: 0.02,
			BoundaryMargin: 20,
		},
		Clusters: ClustersConfig{
			DisplayDuration: 3 * time.Second,
			FadeDuration:    time.Second,
			Radius:          6,
			RingBase:        60,
			RingStep:        35,
			Attraction:      0.1,
			Spawn:           20,
			BoundaryMargin:  20,
			MaxActive:       300,
			IdleTimeout:     10 * time.Second,
		},
		Force: force.DefaultConfig(),
	}
}

func scaleRange(mode string, lo, hi float64) error {
	if !(lo > 0) || hi < lo {
		return invalid(mode, "scale range [%v, %v] must be positive and ordered", lo, hi)
	}
	return nil
}

func invalid(mode, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, mode, fmt.Sprintf(format, args...))
}

// Validate checks the section used by mode.
func (c Config) Validate(mode string) error {
	switch mode {
	case "linear":
		if _, err := ParseDirection(c.Linear.Direction); err != nil {
			return invalid(mode, "%v", err)
		}
		if c.Linear.Duration <= 0 {
			return invalid(mode, "duration must be positive")
		}
		if c.Linear.ElementSize <= 0 {
			return invalid(mode, "element size must be positive")
		}
	case "radial":
		if c.Radial.Duration <= 0 || c.Radial.Radius <= 0 {
			return invalid(mode, "duration and radius must be positive")
		}
		if c.Radial.FadeStart < 0 || c.Radial.FadeStart >= 1 {
			return invalid(mode, "fade start must be in [0, 1)")
		}
		if err := scaleRange(mode, c.Radial.MinScale, c.Radial.MaxScale); err != nil {
			return err
		}
	case "starfield":
		if c.Starfield.Duration <= 0 || c.Starfield.Radius <= 0 {
			return invalid(mode, "duration and radius must be positive")
		}
		if c.Starfield.Intensity <= 0 {
			return invalid(mode, "intensity must be positive")
		}
		if err := scaleRange(mode, c.Starfield.MinScale, c.Starfield.MaxScale); err != nil {
			return err
		}
	case "network":
		n := c.Network
		if n.DecayInterval <= 0 {
			return invalid(mode, "decay interval must be positive")
		}
		if n.BrokerRadius <= 0 || n.CustomerRadius <= 0 || n.DeviceRadius <= 0 {
			return invalid(mode, "radii must be positive")
		}
		if n.DecayRate <= 0 || n.DecayRate > 1 {
			return invalid(mode, "decay rate must be in (0, 1]")
		}
		if n.RecoverRate <= 0 || n.RecoverRate > 1 {
			return invalid(mode, "recover rate must be in (0, 1]")
		}
		// Zero means no floor.
		if n.MinBrightness < 0 || n.MinBrightness > 1 || n.MinScale < 0 || n.MinScale > 1 {
			return invalid(mode, "brightness and scale floors must be in [0, 1]")
		}
	case "clusters":
		k := c.Clusters
		if k.DisplayDuration <= 0 || k.FadeDuration <= 0 {
			return invalid(mode, "durations must be positive")
		}
		if k.Radius <= 0 || k.RingStep <= 0 {
			return invalid(mode, "radius and ring step must be positive")
		}
		if k.IdleTimeout < 0 {
			return invalid(mode, "idle timeout must not be negative")
		}
	}
	return nil
}
