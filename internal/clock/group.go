package clock

import "time"

// Group schedules through a Scheduler and retains every handle so they can be
// cancelled together.
type Group struct {
	s   *Scheduler
	ids map[TimerID]struct{}
}

func (s *Scheduler) NewGroup() *Group {
	return &Group{s: s, ids: make(map[TimerID]struct{})}
}

func (g *Group) Now() time.Time { return g.s.Now() }

func (g *Group) After(d time.Duration, fn func()) TimerID {
	var id TimerID
	id = g.s.After(d, func() {
		delete(g.ids, id)
		fn()
	})
	g.ids[id] = struct{}{}
	return id
}

func (g *Group) Every(interval time.Duration, fn func()) TimerID {
	id := g.s.Every(interval, fn)
	g.ids[id] = struct{}{}
	return id
}

func (g *Group) OnFrame(fn func(time.Time)) TimerID {
	id := g.s.OnFrame(fn)
	g.ids[id] = struct{}{}
	return id
}

func (g *Group) Cancel(id TimerID) bool {
	if _, ok := g.ids[id]; !ok {
		return false
	}
	delete(g.ids, id)
	return g.s.Cancel(id)
}

// Len returns the number of handles still held.
func (g *Group) Len() int { return len(g.ids) }

// Stop cancels every handle held by the group and returns how many were live.
func (g *Group) Stop() int {
	n := 0
	for id := range g.ids {
		if g.s.Cancel(id) {
			n++
		}
	}
	g.ids = make(map[TimerID]struct{})
	return n
}
