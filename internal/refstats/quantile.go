package refstats

import (
	"math"
	"sort"
)

// Quantile computes the q-th percentile (q in [0,100]) of xs using linear
// interpolation between order statistics, matching the numpy default so
// artifacts rebuilt from the same cohort are bit-for-bit identical. Returns
// NaN on empty input.
func Quantile(xs []float64, q float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	if q <= 0 {
		return sorted[0]
	}
	if q >= 100 {
		return sorted[len(sorted)-1]
	}
	h := float64(len(sorted)-1) * q / 100
	lo := int(math.Floor(h))
	frac := h - float64(lo)
	if lo+1 >= len(sorted) {
		return sorted[lo]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// Median is the 50th percentile.
func Median(xs []float64) float64 { return Quantile(xs, 50) }

// MAD is the Median Absolute Deviation around the median. Robust spread used
// instead of standard deviation because cohort metrics are heavy-tailed.
func MAD(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	med := Median(xs)
	dev := make([]float64, len(xs))
	for i, x := range xs {
		dev[i] = math.Abs(x - med)
	}
	return Median(dev)
}

// Mean of xs. NaN on empty input.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Std is the sample standard deviation (ddof=1). Returns 1 for fewer than two
// values, matching the historical artifact builder.
func Std(xs []float64) float64 {
	if len(xs) < 2 {
		return 1
	}
	mean := Mean(xs)
	ss := 0.0
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// Summarize computes the full MetricStats block for one metric's healthy
// distribution.
func Summarize(xs []float64) MetricStats {
	return MetricStats{
		Mean:   Mean(xs),
		Std:    Std(xs),
		Median: Median(xs),
		MAD:    MAD(xs),
		P5:     Quantile(xs, 5),
		P50:    Quantile(xs, 50),
		P95:    Quantile(xs, 95),
	}
}
