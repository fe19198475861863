package render

import (
	"sort"
	"sync"

	"github.com/san-kum/msgviz/internal/entity"
)

// Visual is the last state pushed for a handle.
type Visual struct {
	Kind    entity.Kind
	Pos     Point
	Style   Style
	Opacity float64
	Scale   float64
}

// MemorySink keeps visuals in a map. It backs the headless bench and the
// terminal view, and doubles as the test sink.
type MemorySink struct {
	mu      sync.Mutex
	next    Handle
	visuals map[Handle]*Visual

	created int
	updated int
	removed int
}

func NewMemorySink() *MemorySink {
	return &MemorySink{visuals: make(map[Handle]*Visual)}
}

func (m *MemorySink) Create(kind entity.Kind, pos Point, style Style) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	m.visuals[m.next] = &Visual{Kind: kind, Pos: pos, Style: style, Opacity: 1, Scale: 1}
	m.created++
	return m.next
}

func (m *MemorySink) Update(h Handle, pos Point, opacity, scale float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.visuals[h]
	if !ok {
		return
	}
	v.Pos = pos
	v.Opacity = opacity
	v.Scale = scale
	m.updated++
}

func (m *MemorySink) Remove(h Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.visuals[h]; !ok {
		return
	}
	delete(m.visuals, h)
	m.removed++
}

func (m *MemorySink) IsAttached(h Handle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.visuals[h]
	return ok
}

// Detach drops a visual without going through Remove, the way a host may
// discard nodes behind the engine's back.
func (m *MemorySink) Detach(h Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.visuals, h)
}

func (m *MemorySink) Get(h Handle) (Visual, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.visuals[h]
	if !ok {
		return Visual{}, false
	}
	return *v, true
}

func (m *MemorySink) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.visuals)
}

// Each calls fn for every visual in handle order.
func (m *MemorySink) Each(fn func(Handle, Visual)) {
	m.mu.Lock()
	handles := make([]Handle, 0, len(m.visuals))
	for h := range m.visuals {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	snapshot := make([]Visual, len(handles))
	for i, h := range handles {
		snapshot[i] = *m.visuals[h]
	}
	m.mu.Unlock()

	for i, h := range handles {
		fn(h, snapshot[i])
	}
}

// Totals returns how many visuals were created, updated and removed.
func (m *MemorySink) Totals() (created, updated, removed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.created, m.updated, m.removed
}
