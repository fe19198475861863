package clock

import (
	"container/heap"
	"time"
)

type Clock interface {
	Now() time.Time
}

// TimerID identifies a scheduled timer or frame callback. Zero is never used.
type TimerID uint64

type timer struct {
	id       TimerID
	deadline time.Time
	interval time.Duration
	seq      uint64
	fn       func()
	canceled bool
	index    int
}

type timerHeap []*timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].seq < h[j].seq
	}
	return h[i].deadline.Before(h[j].deadline)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	t.index = -1
	return t
}

type frame struct {
	id TimerID
	fn func(time.Time)
}

// Scheduler is a cooperative timer wheel over virtual time. It is NOT
// thread-safe; exactly one goroutine drives it.
type Scheduler struct {
	now    time.Time
	nextID TimerID
	seq    uint64

	queue  timerHeap
	timers map[TimerID]*timer
	frames []frame

	frameCount uint64
}

func NewScheduler(start time.Time) *Scheduler {
	return &Scheduler{
		now:    start,
		timers: make(map[TimerID]*timer),
	}
}

func (s *Scheduler) Now() time.Time { return s.now }

// Frames returns how many frames have been advanced.
func (s *Scheduler) Frames() uint64 { return s.frameCount }

// After runs fn once, d after now.
func (s *Scheduler) After(d time.Duration, fn func()) TimerID {
	return s.schedule(d, 0, fn)
}

// Every runs fn every interval, first at now+interval. A non-positive
// interval is treated as one nanosecond to keep the timer from spinning.
func (s *Scheduler) Every(interval time.Duration, fn func()) TimerID {
	if interval <= 0 {
		interval = time.Nanosecond
	}
	return s.schedule(interval, interval, fn)
}

func (s *Scheduler) schedule(d, interval time.Duration, fn func()) TimerID {
	if d < 0 {
		d = 0
	}
	s.nextID++
	s.seq++
	t := &timer{
		id:       s.nextID,
		deadline: s.now.Add(d),
		interval: interval,
		seq:      s.seq,
		fn:       fn,
	}
	s.timers[t.id] = t
	heap.Push(&s.queue, t)
	return t.id
}

// OnFrame runs fn once per Advance, after due timers.
func (s *Scheduler) OnFrame(fn func(now time.Time)) TimerID {
	s.nextID++
	s.frames = append(s.frames, frame{id: s.nextID, fn: fn})
	return s.nextID
}

// Cancel stops a timer or frame callback. It reports whether anything was
// pending under id.
func (s *Scheduler) Cancel(id TimerID) bool {
	if t, ok := s.timers[id]; ok {
		t.canceled = true
		delete(s.timers, id)
		if t.index >= 0 {
			heap.Remove(&s.queue, t.index)
		}
		return true
	}
	for i, f := range s.frames {
		if f.id == id {
			s.frames = append(s.frames[:i:i], s.frames[i+1:]...)
			return true
		}
	}
	return false
}

// Pending returns the number of live timers and frame callbacks.
func (s *Scheduler) Pending() int {
	return len(s.timers) + len(s.frames)
}

// Advance moves time forward to `to`, firing every timer due on the way in
// deadline order with Now set to each deadline, then runs frame callbacks
// once. Moving backwards only runs the frame callbacks.
func (s *Scheduler) Advance(to time.Time) {
	for len(s.queue) > 0 {
		t := s.queue[0]
		if t.deadline.After(to) {
			break
		}
		heap.Pop(&s.queue)
		if t.canceled {
			continue
		}
		if t.deadline.After(s.now) {
			s.now = t.deadline
		}
		if t.interval > 0 {
			s.seq++
			t.seq = s.seq
			t.deadline = t.deadline.Add(t.interval)
			heap.Push(&s.queue, t)
		} else {
			delete(s.timers, t.id)
		}
		t.fn()
	}
	if to.After(s.now) {
		s.now = to
	}

	s.frameCount++
	frames := make([]frame, len(s.frames))
	copy(frames, s.frames)
	for _, f := range frames {
		if s.frameLive(f.id) {
			f.fn(s.now)
		}
	}
}

func (s *Scheduler) frameLive(id TimerID) bool {
	for _, f := range s.frames {
		if f.id == id {
			return true
		}
	}
	return false
}

// Step advances by d.
func (s *Scheduler) Step(d time.Duration) {
	s.Advance(s.now.Add(d))
}
