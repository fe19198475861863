package viz

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/msgviz/internal/engine"
	"github.com/san-kum/msgviz/internal/entity"
	"github.com/san-kum/msgviz/internal/export"
	"github.com/san-kum/msgviz/internal/logging"
	"github.com/san-kum/msgviz/internal/metrics"
	"github.com/san-kum/msgviz/internal/render"
	"github.com/san-kum/msgviz/internal/source"
)

const (
	historyCapacity = 600
	minOpacity      = 0.15
	rateFactor      = 1.25
	topTopics       = 5
)

// RateSetter is implemented by sources whose arrival rate can be tuned.
type RateSetter interface {
	SetRate(rate float64)
	BaseRate() float64
}

type frameMsg time.Time

type Options struct {
	Engine *engine.Engine
	// Sink must be the sink the engine draws to.
	Sink   *render.MemorySink
	Host   *TermHost
	Source source.Emitter
	Frame  time.Duration
	Theme  string
	Log    logging.Logger
	// SnapshotDir receives SVG frames saved with the s key.
	SnapshotDir string
}

// Model is the live terminal view. Each frame it pulls due events from the
// source, routes them through the engine and redraws the sink.
type Model struct {
	eng    *engine.Engine
	sink   *render.MemorySink
	host   *TermHost
	src    source.Emitter
	frame  time.Duration
	log    logging.Logger
	snaps  string
	theme  Theme
	styles styles

	topics  *metrics.TopicCounter
	rate    *metrics.EventRate
	history []float64
	stats   engine.Stats

	running bool
	status  string
}

func NewModel(opts Options) (Model, error) {
	if opts.Engine == nil || opts.Sink == nil || opts.Host == nil {
		return Model{}, errors.New("viz: engine, sink and host are required")
	}
	if opts.Frame <= 0 {
		opts.Frame = time.Second / 60
	}
	if opts.Log == nil {
		opts.Log = logging.Noop()
	}
	theme := GetTheme(opts.Theme)
	return Model{
		eng:     opts.Engine,
		sink:    opts.Sink,
		host:    opts.Host,
		src:     opts.Source,
		frame:   opts.Frame,
		log:     opts.Log,
		snaps:   opts.SnapshotDir,
		theme:   theme,
		styles:  newStyles(theme),
		topics:  metrics.NewTopicCounter(),
		rate:    metrics.NewEventRate(5 * time.Second),
		history: make([]float64, 0, historyCapacity),
		stats:   opts.Engine.Stats(),
		running: true,
	}, nil
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.frame, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m Model) Init() tea.Cmd { return m.tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.host.Resize(msg.Width, msg.Height)
		m.eng.NotifyResize()
	case tea.KeyMsg:
		return m.handleKey(msg.String())
	case frameMsg:
		if m.running {
			m.Step()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		m.running = !m.running
	case "p":
		m.host.TogglePanel()
		m.eng.NotifyResize()
	case "t":
		m.theme = NextTheme(m.theme)
		m.styles = newStyles(m.theme)
	case "tab":
		m.switchTo(m.nextMode())
	case "c":
		res := m.eng.Sweep(true)
		m.status = fmt.Sprintf("swept %d", res.Removed)
	case "s":
		m.snapshot()
	case "+", "=":
		m.scaleRate(rateFactor)
	case "-", "_":
		m.scaleRate(1 / rateFactor)
	default:
		if n, err := strconv.Atoi(key); err == nil {
			modes := m.eng.Modes()
			if n >= 1 && n <= len(modes) {
				m.switchTo(modes[n-1])
			}
		}
	}
	return m, nil
}

func (m *Model) switchTo(mode string) {
	if !m.eng.SwitchMode(mode) {
		m.log.Warn(context.Background(), "mode switch rejected", logging.String("mode", mode))
		m.status = "switch to " + mode + " rejected"
		return
	}
	m.topics.Reset()
	m.history = m.history[:0]
	m.stats = m.eng.Stats()
	m.status = ""
}

func (m Model) nextMode() string {
	modes := m.eng.Modes()
	current := m.eng.Mode()
	for i, name := range modes {
		if name == current {
			return modes[(i+1)%len(modes)]
		}
	}
	return modes[0]
}

func (m *Model) scaleRate(factor float64) {
	rs, ok := m.src.(RateSetter)
	if !ok {
		return
	}
	rs.SetRate(rs.BaseRate() * factor)
	m.status = fmt.Sprintf("rate %.1f/s", rs.BaseRate())
}

func (m *Model) snapshot() {
	dims := m.eng.Layout().EffectiveDimensions()
	name := fmt.Sprintf("msgviz-%s-%d.svg", m.stats.Mode, m.eng.Now().UnixMilli())
	path := filepath.Join(m.snaps, name)
	if err := export.FrameFile(path, m.sink, dims.Width, dims.Height, m.theme.KindColor); err != nil {
		m.log.Error(context.Background(), "snapshot failed", logging.Err(err))
		m.status = "snapshot failed"
		return
	}
	m.status = "saved " + name
}

// Step runs one frame: route due events, advance the engine and sample.
func (m *Model) Step() {
	if m.src != nil {
		for _, ev := range m.src.Emit(m.eng.Now()) {
			m.topics.Add(ev.Topic)
			m.eng.OnEvent(ev)
		}
	}
	m.eng.Step(m.frame)

	m.stats = m.eng.Stats()
	m.rate.Observe(m.stats, m.eng.Now())
	if len(m.history) == historyCapacity {
		m.history = append(m.history[:0], m.history[1:]...)
	}
	m.history = append(m.history, float64(m.stats.Entities.Total))
}

func (m Model) Running() bool                { return m.running }
func (m Model) Theme() Theme                 { return m.theme }
func (m Model) Stats() engine.Stats          { return m.stats }
func (m Model) Status() string               { return m.status }
func (m Model) History() []float64           { return m.history }
func (m Model) Topics() []metrics.TopicCount { return m.topics.Top(topTopics) }

// Draw paints every visible visual onto a canvas of cols x rows cells.
func (m Model) Draw(cols, rows int) *Canvas {
	c := NewCanvas(cols, rows)
	dims := m.eng.Layout().EffectiveDimensions()
	if dims.Width <= 0 || dims.Height <= 0 {
		return c
	}
	dotW, dotH := c.DotSize()
	sx, sy := float64(dotW)/dims.Width, float64(dotH)/dims.Height

	m.sink.Each(func(_ render.Handle, v render.Visual) {
		if v.Opacity < minOpacity || !entity.Finite(v.Pos.X) || !entity.Finite(v.Pos.Y) {
			return
		}
		x, y := int(v.Pos.X*sx), int(v.Pos.Y*sy)
		r := int(v.Style.Radius * v.Scale * sx)
		c.Disc(x, y, r, m.theme.KindColor(v.Kind, v.Style.Color))
	})
	return c
}

func (m Model) View() string {
	cols, rows := m.host.Size()
	panelCols := m.panelCols()
	canvasCols := max(cols-panelCols, 1)
	bodyRows := rows - chromeRows

	canvas := m.Draw(canvasCols, bodyRows).String()
	panel := m.panel(panelCols, bodyRows)
	body := lipgloss.JoinHorizontal(lipgloss.Top, canvas, panel)

	return m.header() + "\n" + body + "\n" + m.footer()
}

func (m Model) panelCols() int {
	lay := m.eng.Layout()
	if m.host.PanelCollapsed() {
		return PanelCols(lay.CollapsedPanelWidth)
	}
	return PanelCols(lay.ExpandedPanelWidth)
}

func (m Model) header() string {
	state := m.styles.running.Render("● LIVE")
	if !m.running {
		state = m.styles.paused.Render("‖ PAUSED")
	}
	mode := m.stats.Mode
	if mode == "" {
		mode = "idle"
	}
	line := m.styles.title.Render("MSGVIZ") + "  " + m.styles.value.Render(strings.ToUpper(mode)) + "  " + state
	if m.status != "" {
		line += "  " + m.styles.warn.Render(m.status)
	}
	return line
}

func (m Model) footer() string {
	return m.styles.hint.Render("1-9 mode  tab next  p panel  space pause  +/- rate  c sweep  s snapshot  t theme  q quit")
}

func (m Model) panel(cols, rows int) string {
	inner := max(cols-4, 1)
	style := m.styles.panel.Width(max(cols-2, 1)).Height(max(rows-2, 1))
	if m.host.PanelCollapsed() {
		compact := m.styles.value.Render(strconv.Itoa(m.stats.Entities.Total))
		return style.Render(compact)
	}

	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(m.styles.label.Render(label) + m.styles.value.Render(value) + "\n")
	}

	b.WriteString(m.styles.title.Render("ENTITIES") + "\n")
	row("total", strconv.Itoa(m.stats.Entities.Total))
	for _, kind := range entity.Kinds() {
		if n := m.stats.Entities.ByType[kind]; n > 0 {
			dot := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.KindColor(kind, ""))).Render("● ")
			b.WriteString(dot + m.styles.label.Render(string(kind)) + m.styles.value.Render(strconv.Itoa(n)) + "\n")
		}
	}

	b.WriteString("\n" + m.styles.title.Render("TRAFFIC") + "\n")
	row("events", strconv.FormatUint(m.stats.Events, 10))
	row("dropped", strconv.FormatUint(m.stats.Dropped, 10))
	row("rate", fmt.Sprintf("%.1f/s", m.rate.Value()))
	row("sweeps", strconv.FormatUint(m.stats.Sweeps, 10))
	row("epoch", strconv.FormatUint(m.stats.Epoch, 10))
	if m.stats.Alpha > 0 {
		b.WriteString(m.styles.label.Render("alpha") + m.styles.graph.Render(ProgressBar(m.stats.Alpha, inner-10)) + "\n")
	}

	if len(m.history) > 1 {
		chart := asciigraph.Plot(m.history,
			asciigraph.Height(4),
			asciigraph.Width(max(inner-8, 8)),
			asciigraph.Caption("entities"))
		b.WriteString("\n" + m.styles.graph.Render(chart) + "\n")
	}

	if top := m.topics.Top(topTopics); len(top) > 0 {
		b.WriteString("\n" + m.styles.title.Render("TOP TOPICS") + "\n")
		for _, tc := range top {
			name := source.TruncatePayload(tc.Topic, max(inner-6, 4))
			color := lipgloss.NewStyle().Foreground(lipgloss.Color(source.TopicColor(tc.Topic)))
			b.WriteString(color.Render(name) + " " + m.styles.subtle.Render(strconv.Itoa(tc.Count)) + "\n")
		}
	}

	b.WriteString("\n" + m.styles.subtle.Render(Separator(inner)) + "\n")
	b.WriteString(m.styles.subtle.Render("theme " + m.theme.Name))
	return style.Render(b.String())
}

// Run shows the model full screen until the user quits or ctx is done.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
