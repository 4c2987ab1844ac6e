package score

import (
	"fmt"
	"math"

	"github.com/akashsingh918/medNova-pipeline-salivary-microbiome/internal/refstats"
)

// Weights is the configured composite blend over the four component scores.
// Must sum to 1.
type Weights struct {
	Diversity float64 `json:"diversity"`
	Ratio     float64 `json:"ratio"`
	SCFA      float64 `json:"scfa"`
	Pathogen  float64 `json:"pathogen"`
}

// DefaultWeights is the production blend.
func DefaultWeights() Weights {
	return Weights{Diversity: 0.25, Ratio: 0.30, SCFA: 0.20, Pathogen: 0.25}
}

// Validate checks every weight is non-negative and the blend sums to 1.
func (w Weights) Validate() error {
	for _, v := range []float64{w.Diversity, w.Ratio, w.SCFA, w.Pathogen} {
		if v < 0 {
			return fmt.Errorf("negative composite weight %g", v)
		}
	}
	sum := w.Diversity + w.Ratio + w.SCFA + w.Pathogen
	if math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("composite weights sum to %g, want 1", sum)
	}
	return nil
}

// Components are the four per-sample component percentiles, each oriented so
// that higher means healthier (pathogen load is already inverted).
type Components struct {
	Diversity float64 `json:"diversity"`
	Ratio     float64 `json:"ratio"`
	SCFA      float64 `json:"scfa"`
	Pathogen  float64 `json:"pathogen"`
}

// ComputeComponents positions each metric inside its healthy distribution.
// The pathogen-load percentile is inverted (100 − p): high pathogen load is
// unhealthy in the opposite direction of the other three metrics, and the
// inversion keeps "higher = healthier" uniform across components.
func ComputeComponents(m SampleMetrics, stats map[refstats.Metric]refstats.MetricStats) Components {
	return Components{
		Diversity: refstats.RobustPercentile(m.Shannon, stats[refstats.MetricShannon]),
		Ratio:     refstats.RobustPercentile(m.BPLogRatio, stats[refstats.MetricBPLogRatio]),
		SCFA:      refstats.RobustPercentile(m.SCFA, stats[refstats.MetricSCFA]),
		Pathogen:  100 - refstats.RobustPercentile(m.PathogenLoad, stats[refstats.MetricPathogenLoad]),
	}
}

// Composite blends the component scores into the raw composite.
func (w Weights) Composite(c Components) float64 {
	return w.Diversity*c.Diversity + w.Ratio*c.Ratio + w.SCFA*c.SCFA + w.Pathogen*c.Pathogen
}
