// Package registry tracks every live visual and keeps aggregate counters.
//
// Counters are maintained incrementally so Counts is O(kinds + statuses)
// regardless of how many elements are live. Counters always equal the live
// cardinality of the element map.
package registry

import (
	"sort"
	"time"

	"github.com/san-kum/msgviz/internal/entity"
	"github.com/san-kum/msgviz/internal/render"
)

// Clock supplies the registry's notion of now.
type Clock interface {
	Now() time.Time
}

// TrackedElement is one live visual.
type TrackedElement struct {
	ID        entity.ID
	Handle    render.Handle
	Type      entity.Kind
	Status    entity.Status
	CreatedAt time.Time

	// X, Y is the last rendered position.
	X, Y float64

	// Pinned elements (the broker) are only removed once detached.
	Pinned bool
}

// Age returns the element's age at now.
func (e TrackedElement) Age(now time.Time) time.Duration {
	return now.Sub(e.CreatedAt)
}

type Meta struct {
	Type   entity.Kind
	Status entity.Status
	X, Y   float64
	Pinned bool
}

type Counts struct {
	Total    int
	ByType   map[entity.Kind]int
	ByStatus map[entity.Status]int
}

type Registry struct {
	clock    Clock
	next     entity.ID
	elements map[entity.ID]*TrackedElement

	total    int
	byType   map[entity.Kind]int
	byStatus map[entity.Status]int
}

func New(clock Clock) *Registry {
	return &Registry{
		clock:    clock,
		elements: make(map[entity.ID]*TrackedElement),
		byType:   make(map[entity.Kind]int),
		byStatus: make(map[entity.Status]int),
	}
}

// Track records a new element and returns its id.
func (r *Registry) Track(h render.Handle, meta Meta) entity.ID {
	status := meta.Status
	if status == "" {
		status = entity.StatusAnimating
	}
	r.next++
	id := r.next
	r.elements[id] = &TrackedElement{
		ID:        id,
		Handle:    h,
		Type:      meta.Type,
		Status:    status,
		CreatedAt: r.clock.Now(),
		X:         meta.X,
		Y:         meta.Y,
		Pinned:    meta.Pinned,
	}
	r.total++
	r.byType[meta.Type]++
	r.byStatus[status]++
	return id
}

// UpdateStatus moves an element to a new status. Unknown ids are ignored.
func (r *Registry) UpdateStatus(id entity.ID, status entity.Status) {
	el, ok := r.elements[id]
	if !ok || el.Status == status {
		return
	}
	decrement(r.byStatus, el.Status)
	el.Status = status
	r.byStatus[status]++
}

// SetPosition records the last rendered position of an element.
func (r *Registry) SetPosition(id entity.ID, x, y float64) {
	if el, ok := r.elements[id]; ok {
		el.X, el.Y = x, y
	}
}

// SetHandle replaces the render handle of an element.
func (r *Registry) SetHandle(id entity.ID, h render.Handle) {
	if el, ok := r.elements[id]; ok {
		el.Handle = h
	}
}

// Untrack removes an element. Unknown ids are a no-op. It reports whether an
// element was removed.
func (r *Registry) Untrack(id entity.ID) bool {
	el, ok := r.elements[id]
	if !ok {
		return false
	}
	delete(r.elements, id)
	if r.total > 0 {
		r.total--
	}
	decrement(r.byType, el.Type)
	decrement(r.byStatus, el.Status)
	return true
}

func decrement[K comparable](m map[K]int, k K) {
	if m[k] <= 1 {
		delete(m, k)
		return
	}
	m[k]--
}

func (r *Registry) Get(id entity.ID) (TrackedElement, bool) {
	el, ok := r.elements[id]
	if !ok {
		return TrackedElement{}, false
	}
	return *el, true
}

func (r *Registry) Len() int { return r.total }

// ElementsOlderThan returns a copy of every element whose age is at least age.
func (r *Registry) ElementsOlderThan(age time.Duration) []TrackedElement {
	now := r.clock.Now()
	out := make([]TrackedElement, 0)
	for _, el := range r.elements {
		if el.Age(now) >= age {
			out = append(out, *el)
		}
	}
	sortByID(out)
	return out
}

// Snapshot returns a copy of every element ordered by id.
func (r *Registry) Snapshot() []TrackedElement {
	out := make([]TrackedElement, 0, len(r.elements))
	for _, el := range r.elements {
		out = append(out, *el)
	}
	sortByID(out)
	return out
}

func sortByID(els []TrackedElement) {
	sort.Slice(els, func(i, j int) bool { return els[i].ID < els[j].ID })
}

// Counts returns a copy of the aggregate counters.
func (r *Registry) Counts() Counts {
	c := Counts{
		Total:    r.total,
		ByType:   make(map[entity.Kind]int, len(r.byType)),
		ByStatus: make(map[entity.Status]int, len(r.byStatus)),
	}
	for k, v := range r.byType {
		c.ByType[k] = v
	}
	for k, v := range r.byStatus {
		c.ByStatus[k] = v
	}
	return c
}

// Clear drops every element and zeroes the counters. Ids keep increasing so
// late references to cleared elements never alias new ones.
func (r *Registry) Clear() {
	r.elements = make(map[entity.ID]*TrackedElement)
	r.byType = make(map[entity.Kind]int)
	r.byStatus = make(map[entity.Status]int)
	r.total = 0
}
