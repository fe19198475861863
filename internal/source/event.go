package source

import (
	"context"
	"time"
)

// Event is one message observed on the bus.
type Event struct {
	Topic     string
	Payload   string
	Timestamp time.Time
	QoS       byte
	Retain    bool
}

// Emitter yields the events that became due up to now. Implementations are
// driven either by a virtual clock (bench, tests) or by Pump in real time.
type Emitter interface {
	Emit(now time.Time) []Event
}

// Pump polls em every interval and forwards events to out until ctx is done
// or, when em reports Done, it is exhausted. out is closed on return.
func Pump(ctx context.Context, em Emitter, interval time.Duration, out chan<- Event) {
	defer close(out)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, ev := range em.Emit(now) {
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
			if d, ok := em.(interface{ Done() bool }); ok && d.Done() {
				return
			}
		}
	}
}
