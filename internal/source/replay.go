package source

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// record is one line of a JSONL capture. Timestamp is epoch seconds.
type record struct {
	Topic     string  `json:"topic"`
	Payload   string  `json:"payload"`
	Timestamp float64 `json:"timestamp"`
	QoS       byte    `json:"qos"`
	Retain    bool    `json:"retain"`
}

func toTime(sec float64) time.Time {
	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(frac*1e9))
}

func fromTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// ReadJSONL decodes a capture. Lines that do not parse or carry an empty
// topic are skipped and counted.
func ReadJSONL(r io.Reader) ([]Event, int, error) {
	var (
		events  []Event
		skipped int
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec record
		if err := jsoniter.ConfigFastest.Unmarshal(line, &rec); err != nil || rec.Topic == "" {
			skipped++
			continue
		}
		events = append(events, Event{
			Topic:     rec.Topic,
			Payload:   rec.Payload,
			Timestamp: toTime(rec.Timestamp),
			QoS:       rec.QoS,
			Retain:    rec.Retain,
		})
	}
	if err := sc.Err(); err != nil {
		return events, skipped, fmt.Errorf("read capture: %w", err)
	}
	return events, skipped, nil
}

// WriteJSONL encodes events one per line.
func WriteJSONL(w io.Writer, events []Event) error {
	stream := jsoniter.ConfigFastest.BorrowStream(w)
	defer jsoniter.ConfigFastest.ReturnStream(stream)

	for _, ev := range events {
		stream.WriteVal(record{
			Topic:     ev.Topic,
			Payload:   ev.Payload,
			Timestamp: fromTime(ev.Timestamp),
			QoS:       ev.QoS,
			Retain:    ev.Retain,
		})
		stream.WriteRaw("\n")
		if stream.Error != nil {
			return fmt.Errorf("write capture: %w", stream.Error)
		}
	}
	if err := stream.Flush(); err != nil {
		return fmt.Errorf("write capture: %w", err)
	}
	return nil
}

// Replay re-emits a capture preserving relative timing, scaled by Speed.
// The first Emit call anchors the capture's first event.
type Replay struct {
	events []Event
	speed  float64
	base   time.Time
	next   int
}

func NewReplay(events []Event, speed float64) *Replay {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	if speed <= 0 {
		speed = 1
	}
	return &Replay{events: sorted, speed: speed}
}

func (r *Replay) Emit(now time.Time) []Event {
	if r.Done() {
		return nil
	}
	if r.base.IsZero() {
		r.base = now
	}
	first := r.events[0].Timestamp
	offset := time.Duration(float64(now.Sub(r.base)) * r.speed)

	start := r.next
	for r.next < len(r.events) && r.events[r.next].Timestamp.Sub(first) <= offset {
		r.next++
	}
	if start == r.next {
		return nil
	}
	out := make([]Event, r.next-start)
	copy(out, r.events[start:r.next])
	return out
}

func (r *Replay) Done() bool { return r.next >= len(r.events) }

func (r *Replay) Len() int { return len(r.events) }
