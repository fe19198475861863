package sim

import "testing"

func TestResultTotals(t *testing.T) {
	r := &Result{Samples: []Sample{{Total: 3}, {Total: 7}, {Total: 0}}}
	got := r.Totals()
	want := []float64{3, 7, 0}
	if len(got) != len(want) {
		t.Fatalf("expected %d totals, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("totals[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
