package refstats

import (
	"math"
	"testing"
)

func TestQuantile_LinearInterpolation(t *testing.T) {
	xs := []float64{5, 1, 3, 2, 4} // unsorted on purpose
	cases := []struct {
		q    float64
		want float64
	}{
		{0, 1},
		{50, 3},
		{90, 4.6}, // h = 3.6 between the 4th and 5th order statistic
		{97.5, 4.9},
		{100, 5},
	}
	for _, c := range cases {
		if got := Quantile(xs, c.q); math.Abs(got-c.want) > 1e-12 {
			t.Errorf("Quantile(%g) = %g, want %g", c.q, got, c.want)
		}
	}
}

func TestQuantile_Empty(t *testing.T) {
	if got := Quantile(nil, 50); !math.IsNaN(got) {
		t.Errorf("Quantile(nil) = %g, want NaN", got)
	}
}

func TestMAD(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 100}
	if got := MAD(xs); got != 1 {
		t.Errorf("MAD = %g, want 1 (robust to the outlier)", got)
	}
	if got := MAD([]float64{7, 7, 7}); got != 0 {
		t.Errorf("MAD of constants = %g, want 0", got)
	}
}

func TestSummarize_Ordering(t *testing.T) {
	s := Summarize([]float64{3.2, 1.1, 4.8, 2.0, 9.5, 0.4, 2.2})
	if err := s.Validate(); err != nil {
		t.Fatalf("summarized stats invalid: %v", err)
	}
	if s.MAD < 0 {
		t.Errorf("MAD = %g, want >= 0", s.MAD)
	}
	if s.P5 > s.P50 || s.P50 > s.P95 {
		t.Errorf("percentiles out of order: %+v", s)
	}
}

func TestSummarize_Deterministic(t *testing.T) {
	xs := []float64{0.3, 0.9, 0.12, 0.44, 0.5}
	a, b := Summarize(xs), Summarize(xs)
	if a != b {
		t.Errorf("same input produced different stats: %+v vs %+v", a, b)
	}
}

func BenchmarkQuantile(b *testing.B) {
	xs := make([]float64, 1000)
	for i := range xs {
		xs[i] = float64(i%97) * 0.13
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Quantile(xs, 97.5)
	}
}
