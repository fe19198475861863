package force

import (
	"math"
	"testing"
)

func TestSmootherFactors(t *testing.T) {
	tests := []struct {
		name  string
		to    float64
		want  float64
		moved bool
	}{
		{"large", 20, 12, true},
		{"medium", 5, 1.5, true},
		{"sub-pixel", 0.5, 0.05, true},
		{"suppressed", 0.05, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSmoother()
			s.Smooth(1, 0, 0)
			x, y, moved := s.Smooth(1, tt.to, 0)
			if math.Abs(x-tt.want) > 1e-9 || y != 0 || moved != tt.moved {
				t.Errorf("got (%f, %f, %v), want (%f, 0, %v)", x, y, moved, tt.want, tt.moved)
			}
		})
	}
}

func TestSmootherFirstSampleAndForget(t *testing.T) {
	s := NewSmoother()
	if x, y, moved := s.Smooth(7, 30, 40); x != 30 || y != 40 || !moved {
		t.Errorf("first sample should pass through, got (%f, %f, %v)", x, y, moved)
	}
	s.Forget(7)
	if x, _, _ := s.Smooth(7, 100, 40); x != 100 {
		t.Errorf("forgotten id should pass through, got %f", x)
	}
}

func TestSmootherConverges(t *testing.T) {
	s := NewSmoother()
	s.Smooth(1, 0, 0)
	var x float64
	for i := 0; i < 200; i++ {
		x, _, _ = s.Smooth(1, 100, 0)
	}
	if math.Abs(x-100) > s.MinMovement*2 {
		t.Errorf("expected convergence near 100, got %f", x)
	}
}
