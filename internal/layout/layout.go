// Package layout computes the drawable canvas area.
//
// The host owns a container and a collapsible side panel. The effective
// canvas is the container minus the panel width for the panel's current state.
package layout

import "sync"

const (
	DefaultCollapsedPanelWidth = 60.0
	DefaultExpandedPanelWidth  = 320.0
	DefaultWindowWidth         = 1280.0
	DefaultWindowHeight        = 800.0
)

// Host exposes the external layout state.
type Host interface {
	// ContainerSize reports the canvas container; ok is false when absent.
	ContainerSize() (w, h float64, ok bool)
	WindowSize() (w, h float64)
	PanelCollapsed() bool
}

type Dimensions struct {
	Width, Height    float64
	CenterX, CenterY float64
}

type Bounds struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// Calculator answers layout queries against a Host.
type Calculator struct {
	host Host

	CollapsedPanelWidth float64
	ExpandedPanelWidth  float64
}

func NewCalculator(host Host) *Calculator {
	return &Calculator{
		host:                host,
		CollapsedPanelWidth: DefaultCollapsedPanelWidth,
		ExpandedPanelWidth:  DefaultExpandedPanelWidth,
	}
}

// EffectiveDimensions returns the canvas size excluding the side panel.
// Without a container it falls back to the window size.
func (c *Calculator) EffectiveDimensions() Dimensions {
	w, h, ok := 0.0, 0.0, false
	if c.host != nil {
		w, h, ok = c.host.ContainerSize()
	}
	if !ok || w <= 0 || h <= 0 {
		w, h = c.window()
	}

	w -= c.panelWidth()
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return Dimensions{Width: w, Height: h, CenterX: w / 2, CenterY: h / 2}
}

func (c *Calculator) window() (float64, float64) {
	if c.host == nil {
		return DefaultWindowWidth, DefaultWindowHeight
	}
	w, h := c.host.WindowSize()
	if w <= 0 || h <= 0 {
		return DefaultWindowWidth, DefaultWindowHeight
	}
	return w, h
}

func (c *Calculator) panelWidth() float64 {
	if c.host == nil {
		return 0
	}
	if c.host.PanelCollapsed() {
		return c.CollapsedPanelWidth
	}
	return c.ExpandedPanelWidth
}

func (c *Calculator) Center() (float64, float64) {
	d := c.EffectiveDimensions()
	return d.CenterX, d.CenterY
}

// SafeBounds returns the canvas shrunk by margin on every side. A margin
// larger than half the canvas collapses the bounds onto the center.
func (c *Calculator) SafeBounds(margin float64) Bounds {
	d := c.EffectiveDimensions()
	b := Bounds{MinX: margin, MaxX: d.Width - margin, MinY: margin, MaxY: d.Height - margin}
	if b.MinX > b.MaxX {
		b.MinX, b.MaxX = d.CenterX, d.CenterX
	}
	if b.MinY > b.MaxY {
		b.MinY, b.MaxY = d.CenterY, d.CenterY
	}
	return b
}

// Contains reports whether (x, y) lies inside the canvas grown by buffer.
func (c *Calculator) Contains(x, y, buffer float64) bool {
	d := c.EffectiveDimensions()
	return x >= -buffer && x <= d.Width+buffer && y >= -buffer && y <= d.Height+buffer
}

// StaticHost is a Host whose state is set directly.
type StaticHost struct {
	mu sync.RWMutex

	containerW, containerH float64
	hasContainer           bool
	windowW, windowH       float64
	collapsed              bool
}

func NewStaticHost(w, h float64) *StaticHost {
	return &StaticHost{
		containerW:   w,
		containerH:   h,
		hasContainer: true,
		windowW:      w,
		windowH:      h,
		collapsed:    true,
	}
}

func (s *StaticHost) ContainerSize() (float64, float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.containerW, s.containerH, s.hasContainer
}

func (s *StaticHost) WindowSize() (float64, float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.windowW, s.windowH
}

func (s *StaticHost) PanelCollapsed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collapsed
}

func (s *StaticHost) SetContainer(w, h float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.containerW, s.containerH, s.hasContainer = w, h, true
}

func (s *StaticHost) RemoveContainer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasContainer = false
}

func (s *StaticHost) SetWindow(w, h float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windowW, s.windowH = w, h
}

func (s *StaticHost) SetPanelCollapsed(collapsed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collapsed = collapsed
}

// TogglePanel flips the panel state and returns the new collapsed value.
func (s *StaticHost) TogglePanel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collapsed = !s.collapsed
	return s.collapsed
}
