package entity

import (
	"fmt"
	"math"
	"time"
)

// ID identifies a live entity. Zero is never assigned.
type ID uint64

type Kind string

const (
	KindCustomer Kind = "customer"
	KindDevice   Kind = "device"
	KindBroker   Kind = "broker"
	KindMessage  Kind = "message"
	KindParticle Kind = "particle"
)

// Kinds lists every known kind in display order.
func Kinds() []Kind {
	return []Kind{KindBroker, KindCustomer, KindDevice, KindMessage, KindParticle}
}

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

type Status string

const (
	StatusAnimating Status = "animating"
	StatusFading    Status = "fading"
	StatusCompleted Status = "completed"
)

// Entity is one simulated or animated visual unit.
type Entity struct {
	ID   ID
	Kind Kind

	X, Y   float64
	VX, VY float64

	BaseRadius    float64
	SizeScale     float64
	Brightness    float64
	MinScale      float64
	MinBrightness float64

	Color     string
	ClusterID string

	CreatedAt    time.Time
	LastActivity time.Time

	// Fixed entities are never moved by forces.
	Fixed bool
}

// Spec describes a new entity before it is assigned an id.
type Spec struct {
	Kind          Kind
	X, Y          float64
	BaseRadius    float64
	MinScale      float64
	MinBrightness float64
	Color         string
	ClusterID     string
	Fixed         bool
}

// New validates s and returns an entity at full size and brightness.
func New(id ID, s Spec, now time.Time) (Entity, error) {
	if !(s.BaseRadius > 0) || math.IsInf(s.BaseRadius, 0) {
		return Entity{}, ErrInvalidRadius
	}
	minScale, err := floor(s.MinScale)
	if err != nil {
		return Entity{}, fmt.Errorf("min scale %v: %w", s.MinScale, err)
	}
	minBright, err := floor(s.MinBrightness)
	if err != nil {
		return Entity{}, fmt.Errorf("min brightness %v: %w", s.MinBrightness, err)
	}
	return Entity{
		ID:            id,
		Kind:          s.Kind,
		X:             s.X,
		Y:             s.Y,
		BaseRadius:    s.BaseRadius,
		SizeScale:     1,
		Brightness:    1,
		MinScale:      minScale,
		MinBrightness: minBright,
		Color:         s.Color,
		ClusterID:     s.ClusterID,
		CreatedAt:     now,
		LastActivity:  now,
		Fixed:         s.Fixed,
	}, nil
}

// floor treats zero as "no floor" and maps it to the smallest usable value.
func floor(v float64) (float64, error) {
	if v == 0 {
		return minFloor, nil
	}
	if !(v > 0 && v <= 1) {
		return 0, ErrInvalidFloor
	}
	return v, nil
}

const minFloor = 0.01

// Radius returns BaseRadius × SizeScale.
func (e *Entity) Radius() float64 {
	return e.BaseRadius * e.SizeScale
}

// SetScale clamps s into [MinScale, 1]. Non-finite input is ignored.
func (e *Entity) SetScale(s float64) {
	if !Finite(s) {
		return
	}
	e.SizeScale = Clamp(s, e.MinScale, 1)
}

// SetBrightness clamps b into [MinBrightness, 1]. Non-finite input is ignored.
func (e *Entity) SetBrightness(b float64) {
	if !Finite(b) {
		return
	}
	e.Brightness = Clamp(b, e.MinBrightness, 1)
}

// Touch restores full size and brightness and records activity at now.
func (e *Entity) Touch(now time.Time) {
	e.SizeScale = 1
	e.Brightness = 1
	e.LastActivity = now
}

// Idle reports how long the entity has gone without activity.
func (e *Entity) Idle(now time.Time) time.Duration {
	return now.Sub(e.LastActivity)
}

func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
