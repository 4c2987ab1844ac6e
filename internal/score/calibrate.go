package score

import (
	"fmt"

	"github.com/akashsingh918/medNova-pipeline-salivary-microbiome/internal/refstats"
)

// Calibration maps a raw composite through the cohort composite anchors
// (p5/p50/p95) into a bounded index. Between the shoulders the mapping is
// linear and centered on p50; beyond them a shallow tail slope applies,
// clamped to the output range, so a sample far outside the cohort's observed
// range cannot produce an overconfident extreme.
type Calibration struct {
	OutMin     float64 `json:"out_min"`
	OutMax     float64 `json:"out_max"`
	LowAnchor  float64 `json:"low_anchor"`  // output at cohort p5
	HighAnchor float64 `json:"high_anchor"` // output at cohort p95
	TailSlope  float64 `json:"tail_slope"`  // index units per composite unit beyond the shoulders
}

// DefaultCalibration maps into 0–100 with shoulders at 15/85.
func DefaultCalibration() Calibration {
	return Calibration{OutMin: 0, OutMax: 100, LowAnchor: 15, HighAnchor: 85, TailSlope: 0.5}
}

// Midpoint is the output value a composite exactly at cohort p50 maps to.
func (c Calibration) Midpoint() float64 { return (c.OutMin + c.OutMax) / 2 }

// Validate checks internal consistency: breakpoints must be monotonic and the
// shoulders must leave room for the tails.
func (c Calibration) Validate() error {
	mid := c.Midpoint()
	if !(c.OutMin <= c.LowAnchor && c.LowAnchor < mid && mid < c.HighAnchor && c.HighAnchor <= c.OutMax) {
		return fmt.Errorf("calibration anchors not monotonic: min=%g low=%g mid=%g high=%g max=%g: %w",
			c.OutMin, c.LowAnchor, mid, c.HighAnchor, c.OutMax, refstats.ErrReferenceArtifact)
	}
	if c.TailSlope < 0 {
		return fmt.Errorf("negative tail slope %g: %w", c.TailSlope, refstats.ErrReferenceArtifact)
	}
	return nil
}

// Apply maps a raw composite to the calibrated index using the cohort
// composite anchors. Monotonic, continuous at every breakpoint, and always
// inside [OutMin, OutMax].
func (c Calibration) Apply(composite float64, anchors refstats.MetricStats) float64 {
	mid := c.Midpoint()
	switch {
	case composite < anchors.P5:
		return clampf(c.LowAnchor-c.TailSlope*(anchors.P5-composite), c.OutMin, c.OutMax)
	case composite <= anchors.P50:
		return piecewise(composite, anchors.P5, anchors.P50, c.LowAnchor, mid)
	case composite <= anchors.P95:
		return piecewise(composite, anchors.P50, anchors.P95, mid, c.HighAnchor)
	default:
		return clampf(c.HighAnchor+c.TailSlope*(composite-anchors.P95), c.OutMin, c.OutMax)
	}
}

// Category is the human-facing band a calibrated index falls into.
type Category struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// band fractions of the output range, from the top down.
var categoryBands = []struct {
	frac  float64
	label string
	color string
}{
	{0.65, "Excellent", "green"},
	{0.55, "Good", "green"},
	{0.45, "Average", "yellow"},
	{0.35, "Below Average", "red"},
}

// Categorize assigns the category band for a calibrated index.
func (c Calibration) Categorize(chi float64) Category {
	span := c.OutMax - c.OutMin
	for _, b := range categoryBands {
		if chi >= c.OutMin+b.frac*span {
			return Category{Label: b.label, Color: b.color}
		}
	}
	return Category{Label: "Non-Ideal", Color: "red"}
}

// piecewise maps value from [x0,x1] onto [y0,y1]; a degenerate segment jumps
// to its upper output so the mapping stays monotone.
func piecewise(value, x0, x1, y0, y1 float64) float64 {
	if x1 <= x0 {
		return y1
	}
	return y0 + (value-x0)/(x1-x0)*(y1-y0)
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
