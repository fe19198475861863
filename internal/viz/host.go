package viz

import (
	"sync"

	"github.com/san-kum/msgviz/internal/layout"
)

// Terminal cells are mapped onto layout pixels at a fixed ratio so the
// strategies keep working in the same coordinate space as a graphical host.
const (
	PixelsPerCol = 8.0
	PixelsPerRow = 16.0

	// chromeRows are the terminal rows used by the header and footer.
	chromeRows = 3
)

// TermHost reports the terminal as a layout.Host. The side panel is part of
// the container, so the calculator subtracts it like any other host.
type TermHost struct {
	mu        sync.Mutex
	cols      int
	rows      int
	collapsed bool
}

var _ layout.Host = (*TermHost)(nil)

func NewTermHost(cols, rows int, collapsed bool) *TermHost {
	h := &TermHost{collapsed: collapsed}
	h.Resize(cols, rows)
	return h
}

// Resize records the terminal size in cells.
func (h *TermHost) Resize(cols, rows int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cols = max(cols, 1)
	h.rows = max(rows, chromeRows+1)
}

func (h *TermHost) Size() (cols, rows int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cols, h.rows
}

func (h *TermHost) ContainerSize() (float64, float64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return float64(h.cols) * PixelsPerCol, float64(h.rows-chromeRows) * PixelsPerRow, true
}

func (h *TermHost) WindowSize() (float64, float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return float64(h.cols) * PixelsPerCol, float64(h.rows) * PixelsPerRow
}

func (h *TermHost) PanelCollapsed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.collapsed
}

// TogglePanel flips the panel state and returns the new collapsed value.
func (h *TermHost) TogglePanel() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.collapsed = !h.collapsed
	return h.collapsed
}

// PanelCols converts a panel width in pixels to terminal columns.
func PanelCols(width float64) int {
	return int(width/PixelsPerCol + 0.5)
}
