package config

import (
	"sort"
	"time"
)

// Presets maps mode to named variations of the default configuration.
var Presets = map[string]map[string]func(*Config){
	"linear": {
		"rain": func(c *Config) {
			c.Linear.Direction = "down"
			c.Linear.Duration = 3 * time.Second
		},
		"ticker": func(c *Config) {
			c.Linear.Direction = "left"
			c.Linear.Duration = 8 * time.Second
			c.Linear.ElementSize = 30
		},
		"rise": func(c *Config) {
			c.Linear.Direction = "up"
		},
	},
	"radial": {
		"burst": func(c *Config) {
			c.Radial.Duration = 1500 * time.Millisecond
			c.Radial.MaxScale = 2
		},
		"ripple": func(c *Config) {
			c.Radial.Duration = 5 * time.Second
			c.Radial.FadeStart = 0.6
		},
	},
	"starfield": {
		"warp": func(c *Config) {
			c.Starfield.Duration = 2 * time.Second
			c.Starfield.Intensity = 12
			c.Starfield.MaxScale = 4
		},
		"drift": func(c *Config) {
			c.Starfield.Duration = 8 * time.Second
			c.Starfield.Intensity = 3
		},
	},
	"network": {
		"dense": func(c *Config) {
			c.Network.CustomerDist = 80
			c.Network.DeviceDist = 30
			c.Network.Charge = -120
			c.Source.Synthetic.Customers = 12
			c.Source.Synthetic.Devices = 8
		},
		"calm": func(c *Config) {
			c.Network.GracePeriod = 10 * time.Second
			c.Network.DecayRate = 0.02
			c.Source.Synthetic.Rate = 5
		},
	},
	"clusters": {
		"tight": func(c *Config) {
			c.Clusters.Attraction = 0.3
			c.Clusters.RingBase = 40
			c.Clusters.RingStep = 25
		},
		"loose": func(c *Config) {
			c.Clusters.Attraction = 0.05
			c.Clusters.DisplayDuration = 6 * time.Second
		},
	},
}

// GetPreset returns a default configuration for mode with the named preset
// applied, or nil when either is unknown.
func GetPreset(mode, preset string) *Config {
	cfg := DefaultConfig()
	cfg.Mode = mode
	if !ApplyPreset(cfg, mode, preset) {
		return nil
	}
	return cfg
}

// ApplyPreset applies the named preset for mode on top of c. It reports
// false when the preset does not exist.
func ApplyPreset(c *Config, mode, preset string) bool {
	apply, ok := Presets[mode][preset]
	if !ok {
		return false
	}
	apply(c)
	return true
}

func ListPresets(mode string) []string {
	modePresets, ok := Presets[mode]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modePresets))
	for name := range modePresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
