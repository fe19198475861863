// Package clock provides the engine's single logical thread of time.
//
// A [Scheduler] owns virtual time. The driver (the real-time loop, the
// terminal view or a headless bench) calls [Scheduler.Advance] once per frame;
// due timers fire in deadline order and then every frame callback runs once.
// All callbacks run on the caller's goroutine, so between Advance calls the
// state they mutate is consistent and safe to inspect.
//
// A [Group] remembers every timer it schedules so an owner can cancel all of
// them at teardown. An [Epoch] invalidates callbacks that were already due
// when the owner was torn down.
package clock
