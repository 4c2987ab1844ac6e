package refstats

import "math"

// scale factor turning a MAD into a consistent estimator of the standard
// deviation under normality.
const madScale = 0.6745

// minSpread guards the robust percentile against zero-spread references.
const minSpread = 1e-12

// RobustPercentile positions x inside a healthy metric distribution using
// median/MAD scaling, clipped to [0,100]. When MAD collapses to zero the
// classical mean/std block is used, and as a last resort a minimum-spread
// constant keeps the division defined.
func RobustPercentile(x float64, s MetricStats) float64 {
	var z float64
	switch {
	case s.MAD > 0:
		z = madScale * (x - s.Median) / s.MAD
	case s.Std > 0:
		z = (x - s.Mean) / s.Std
	default:
		z = madScale * (x - s.Median) / minSpread
	}
	p := 50 * (1 + math.Erf(z/math.Sqrt2))
	return clip(p, 0, 100)
}

// Rank positions a single observation against the three genus percentile
// anchors. Piecewise linear through (0,0) (p50,50) (p90,90) (p97.5,97.5);
// above p97.5 the p90–p97.5 slope continues (the documented extrapolation for
// the unbounded upper tail), clipped at 100. Monotonic in value.
func Rank(value float64, a Anchors) float64 {
	return RankWithTail(value, a, 0)
}

// RankWithTail is Rank with an explicit upper-tail slope in rank units per
// abundance unit. tailSlope <= 0 selects the continuation of the p90–p97.5
// segment slope.
func RankWithTail(value float64, a Anchors, tailSlope float64) float64 {
	if value <= 0 {
		return 0
	}
	switch {
	case value <= a.P50:
		return interp(value, 0, a.P50, 0, 50)
	case value <= a.P90:
		return interp(value, a.P50, a.P90, 50, 90)
	case value <= a.P975:
		return interp(value, a.P90, a.P975, 90, 97.5)
	}
	slope := tailSlope
	if slope <= 0 {
		if a.P975 <= a.P90 {
			return 100
		}
		slope = (97.5 - 90) / (a.P975 - a.P90)
	}
	return clip(97.5+slope*(value-a.P975), 0, 100)
}

// interp maps value from [x0,x1] onto [y0,y1]; degenerate segments jump to
// the upper bound so ordering stays monotone.
func interp(value, x0, x1, y0, y1 float64) float64 {
	if x1 <= x0 {
		return y1
	}
	return y0 + (value-x0)/(x1-x0)*(y1-y0)
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
