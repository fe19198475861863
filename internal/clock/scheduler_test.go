package clock

import (
	"testing"
	"time"
)

var t0 = time.Unix(1_700_000_000, 0)

func TestAfterFiresOnceInOrder(t *testing.T) {
	s := NewScheduler(t0)
	var order []string
	var fired []time.Time

	s.After(30*time.Millisecond, func() { order = append(order, "c"); fired = append(fired, s.Now()) })
	s.After(10*time.Millisecond, func() { order = append(order, "a"); fired = append(fired, s.Now()) })
	s.After(20*time.Millisecond, func() { order = append(order, "b"); fired = append(fired, s.Now()) })

	s.Advance(t0.Add(25 * time.Millisecond))
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("unexpected order %v", order)
	}
	if !fired[0].Equal(t0.Add(10 * time.Millisecond)) {
		t.Errorf("Now during callback = %v, want deadline", fired[0])
	}

	s.Advance(t0.Add(time.Second))
	s.Advance(t0.Add(2 * time.Second))
	if len(order) != 3 || order[2] != "c" {
		t.Fatalf("unexpected order %v", order)
	}
	if s.Pending() != 0 {
		t.Errorf("expected no pending timers, got %d", s.Pending())
	}
}

func TestEveryRepeats(t *testing.T) {
	s := NewScheduler(t0)
	count := 0
	s.Every(100*time.Millisecond, func() { count++ })

	s.Advance(t0.Add(time.Second))
	if count != 10 {
		t.Errorf("expected 10 firings, got %d", count)
	}
}

func TestCancel(t *testing.T) {
	s := NewScheduler(t0)
	fired := false
	id := s.After(time.Millisecond, func() { fired = true })
	frameID := s.OnFrame(func(time.Time) { fired = true })

	if !s.Cancel(id) || !s.Cancel(frameID) {
		t.Fatal("cancel should report pending work")
	}
	if s.Cancel(id) {
		t.Error("second cancel should report false")
	}

	s.Step(time.Second)
	if fired {
		t.Error("cancelled callback fired")
	}
}

func TestCancelFromInsideCallback(t *testing.T) {
	s := NewScheduler(t0)
	count := 0
	var id TimerID
	id = s.Every(10*time.Millisecond, func() {
		count++
		s.Cancel(id)
	})
	s.Step(time.Second)
	if count != 1 {
		t.Errorf("interval kept firing after cancel: %d", count)
	}
}

func TestFramesRunAfterTimers(t *testing.T) {
	s := NewScheduler(t0)
	var seq []string
	s.OnFrame(func(now time.Time) {
		seq = append(seq, "frame")
		if !now.Equal(t0.Add(16 * time.Millisecond)) {
			t.Errorf("frame now = %v", now)
		}
	})
	s.After(5*time.Millisecond, func() { seq = append(seq, "timer") })

	s.Step(16 * time.Millisecond)
	if len(seq) != 2 || seq[0] != "timer" || seq[1] != "frame" {
		t.Errorf("unexpected sequence %v", seq)
	}
	if s.Frames() != 1 {
		t.Errorf("expected 1 frame, got %d", s.Frames())
	}
}

func TestFrameCancelledByEarlierFrame(t *testing.T) {
	s := NewScheduler(t0)
	ran := false
	var second TimerID
	s.OnFrame(func(time.Time) { s.Cancel(second) })
	second = s.OnFrame(func(time.Time) { ran = true })

	s.Step(time.Millisecond)
	if ran {
		t.Error("frame callback cancelled mid-frame still ran")
	}
}

func TestGroupStop(t *testing.T) {
	s := NewScheduler(t0)
	g := s.NewGroup()
	fired := 0

	g.After(time.Second, func() { fired++ })
	g.Every(100*time.Millisecond, func() { fired++ })
	g.OnFrame(func(time.Time) { fired++ })
	other := s.After(time.Second, func() {})

	if g.Len() != 3 {
		t.Fatalf("expected 3 handles, got %d", g.Len())
	}
	if n := g.Stop(); n != 3 {
		t.Errorf("Stop cancelled %d, want 3", n)
	}

	s.Step(2 * time.Second)
	if fired != 0 {
		t.Errorf("group callbacks fired %d times after Stop", fired)
	}
	if s.Cancel(other) {
		t.Error("timer outside the group should have fired normally")
	}
}

func TestGroupForgetsFiredOneShots(t *testing.T) {
	s := NewScheduler(t0)
	g := s.NewGroup()
	g.After(time.Millisecond, func() {})
	s.Step(time.Second)
	if g.Len() != 0 {
		t.Errorf("fired one-shot still held: %d", g.Len())
	}
}

func TestEpochGuard(t *testing.T) {
	var e Epoch
	calls := 0
	guarded := e.Guard(func() { calls++ })

	guarded()
	e.Bump()
	guarded()

	if calls != 1 {
		t.Errorf("guarded callback ran %d times, want 1", calls)
	}

	frames := 0
	gf := GuardFrame(&e, func(time.Time) { frames++ })
	gf(t0)
	e.Bump()
	gf(t0)
	if frames != 1 {
		t.Errorf("guarded frame ran %d times, want 1", frames)
	}
}

func TestLateCallbackAfterTeardown(t *testing.T) {
	s := NewScheduler(t0)
	var e Epoch
	mutated := false

	s.After(10*time.Millisecond, e.Guard(func() { mutated = true }))
	s.After(5*time.Millisecond, func() { e.Bump() })

	s.Step(time.Second)
	if mutated {
		t.Error("callback from a previous epoch mutated state")
	}
}
