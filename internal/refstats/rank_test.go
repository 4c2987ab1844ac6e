package refstats

import (
	"math"
	"testing"
)

var testAnchors = Anchors{P50: 0.01, P90: 0.05, P975: 0.10}

func TestRank_AnchorsMapToTheirPercentiles(t *testing.T) {
	cases := []struct {
		value float64
		want  float64
	}{
		{0, 0},
		{0.01, 50},
		{0.03, 70}, // midway through the p50–p90 segment
		{0.05, 90},
		{0.10, 97.5},
		{0.11, 99},  // p90–p97.5 slope continuation
		{0.20, 100}, // clipped
	}
	for _, c := range cases {
		if got := Rank(c.value, testAnchors); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("Rank(%g) = %g, want %g", c.value, got, c.want)
		}
	}
}

func TestRank_Monotonic(t *testing.T) {
	prev := -1.0
	for v := 0.0; v <= 0.3; v += 0.0005 {
		got := Rank(v, testAnchors)
		if got < prev {
			t.Fatalf("Rank not monotonic at %g: %g < %g", v, got, prev)
		}
		prev = got
	}
}

func TestRank_ZeroAnchorMedian(t *testing.T) {
	// Half the healthy cohort at zero: any positive observation ranks >= 50.
	a := Anchors{P50: 0, P90: 0.02, P975: 0.05}
	if got := Rank(0.001, a); got < 50 {
		t.Errorf("Rank above a zero median = %g, want >= 50", got)
	}
	if got := Rank(0, a); got != 0 {
		t.Errorf("Rank(0) = %g, want 0", got)
	}
}

func TestRankWithTail_ExplicitSlope(t *testing.T) {
	got := RankWithTail(0.11, testAnchors, 10)
	want := 97.5 + 10*0.01
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("RankWithTail = %g, want %g", got, want)
	}
}

func TestRobustPercentile(t *testing.T) {
	s := MetricStats{Median: 2.0, MAD: 0.5, Mean: 2.0, Std: 0.7}
	if got := RobustPercentile(2.0, s); math.Abs(got-50) > 1e-9 {
		t.Errorf("at the median: %g, want 50", got)
	}
	if got := RobustPercentile(100, s); got != 100 {
		t.Errorf("far above: %g, want clipped 100", got)
	}
	if got := RobustPercentile(-100, s); got != 0 {
		t.Errorf("far below: %g, want clipped 0", got)
	}
}

func TestRobustPercentile_ZeroSpread(t *testing.T) {
	// MAD 0 falls back to mean/std, then to the minimum-spread constant.
	s := MetricStats{Median: 1, MAD: 0, Mean: 1, Std: 0.5}
	if got := RobustPercentile(1, s); math.Abs(got-50) > 1e-9 {
		t.Errorf("std fallback at mean: %g, want 50", got)
	}
	flat := MetricStats{Median: 1, MAD: 0, Mean: 1, Std: 0}
	if got := RobustPercentile(1, flat); math.IsNaN(got) {
		t.Error("zero-spread reference produced NaN")
	}
	if got := RobustPercentile(2, flat); got != 100 {
		t.Errorf("any deviation on a zero-spread reference should saturate, got %g", got)
	}
}

func TestAnchorsValidate(t *testing.T) {
	if err := (Anchors{P50: 2, P90: 1, P975: 3}).Validate(); err == nil {
		t.Error("out-of-order anchors accepted")
	}
	if err := testAnchors.Validate(); err != nil {
		t.Errorf("valid anchors rejected: %v", err)
	}
}
