package viz

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/msgviz/internal/entity"
)

// Theme colors the panel and the entity kinds that have no color of their
// own. Messages keep their topic color.
type Theme struct {
	Name    string
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Border  lipgloss.Color
	Warning lipgloss.Color

	Broker   lipgloss.Color
	Customer lipgloss.Color
	Device   lipgloss.Color
	Particle lipgloss.Color
}

var (
	ThemeNeon = Theme{
		Name:     "neon",
		Accent:   lipgloss.Color("#00ffff"),
		Text:     lipgloss.Color("#ffffff"),
		Muted:    lipgloss.Color("#666666"),
		Border:   lipgloss.Color("#444466"),
		Warning:  lipgloss.Color("#ff8800"),
		Broker:   lipgloss.Color("#ff00ff"),
		Customer: lipgloss.Color("#ffff00"),
		Device:   lipgloss.Color("#00ff88"),
		Particle: lipgloss.Color("#8888ff"),
	}

	ThemeRetro = Theme{
		Name:     "retro",
		Accent:   lipgloss.Color("#88ff88"),
		Text:     lipgloss.Color("#00ff00"),
		Muted:    lipgloss.Color("#005500"),
		Border:   lipgloss.Color("#007700"),
		Warning:  lipgloss.Color("#ffff00"),
		Broker:   lipgloss.Color("#00ff00"),
		Customer: lipgloss.Color("#66ff66"),
		Device:   lipgloss.Color("#00cc00"),
		Particle: lipgloss.Color("#339933"),
	}

	ThemeMinimal = Theme{
		Name:     "minimal",
		Accent:   lipgloss.Color("#0088ff"),
		Text:     lipgloss.Color("#ffffff"),
		Muted:    lipgloss.Color("#888888"),
		Border:   lipgloss.Color("#444444"),
		Warning:  lipgloss.Color("#ffaa00"),
		Broker:   lipgloss.Color("#ffffff"),
		Customer: lipgloss.Color("#cccccc"),
		Device:   lipgloss.Color("#aaaaaa"),
		Particle: lipgloss.Color("#777777"),
	}

	ThemeOcean = Theme{
		Name:     "ocean",
		Accent:   lipgloss.Color("#ffd700"),
		Text:     lipgloss.Color("#e0f0ff"),
		Muted:    lipgloss.Color("#4488aa"),
		Border:   lipgloss.Color("#0077be"),
		Warning:  lipgloss.Color("#ffcc00"),
		Broker:   lipgloss.Color("#0077be"),
		Customer: lipgloss.Color("#00a8cc"),
		Device:   lipgloss.Color("#00ff88"),
		Particle: lipgloss.Color("#88ccff"),
	}

	Themes = []Theme{ThemeNeon, ThemeRetro, ThemeMinimal, ThemeOcean}
)

// GetTheme returns the named theme, falling back to neon.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeNeon
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// NextTheme cycles to the theme after t.
func NextTheme(t Theme) Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

// KindColor returns the color for kind. An explicit visual color wins.
func (t Theme) KindColor(kind entity.Kind, visual string) string {
	if visual != "" && kind == entity.KindMessage {
		return visual
	}
	switch kind {
	case entity.KindBroker:
		return string(t.Broker)
	case entity.KindCustomer:
		return string(t.Customer)
	case entity.KindDevice:
		return string(t.Device)
	case entity.KindParticle:
		return string(t.Particle)
	}
	if visual != "" {
		return visual
	}
	return string(t.Text)
}
