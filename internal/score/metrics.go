// Package score is the per-sample scoring engine: composite metrics, robust
// component percentiles, the calibrated Composite Health Index and the
// reference builder that derives cohort artifacts for all of the above.
package score

import (
	"math"
	"sort"

	"github.com/akashsingh918/medNova-pipeline-salivary-microbiome/internal/abundance"
	"github.com/akashsingh918/medNova-pipeline-salivary-microbiome/internal/refstats"
	"github.com/akashsingh918/medNova-pipeline-salivary-microbiome/internal/weights"
)

// logRatioEps keeps the beneficial/pathogen log-ratio defined when either
// side is zero.
const logRatioEps = 1e-6

// DefaultSCFAProducers is the fixed set of short-chain fatty acid producing
// genera tracked by the SCFA metric.
func DefaultSCFAProducers() map[string]struct{} {
	return map[string]struct{}{
		"Veillonella":       {},
		"Prevotella":        {},
		"Eubacterium":       {},
		"Propionibacterium": {},
		"Megasphaera":       {},
	}
}

// Sets are the genus groups feeding the composite metrics. Beneficial and
// pathogenic come from the health-weights sign; SCFA producers are fixed.
type Sets struct {
	Beneficial map[string]struct{}
	Pathogenic map[string]struct{}
	SCFA       map[string]struct{}
}

// SetsFromWeights derives metric sets from a health-weights table.
func SetsFromWeights(t weights.Table) Sets {
	return Sets{
		Beneficial: t.Beneficial(),
		Pathogenic: t.Pathogenic(),
		SCFA:       DefaultSCFAProducers(),
	}
}

// SampleMetrics are the four raw composite metrics of one sample.
type SampleMetrics struct {
	Shannon      float64 `json:"shannon_diversity"`
	BPLogRatio   float64 `json:"beneficial_pathogen_log_ratio"`
	SCFA         float64 `json:"scfa_producer_abundance"`
	PathogenLoad float64 `json:"pathogen_load"`
}

// ByMetric returns the value for a named metric.
func (m SampleMetrics) ByMetric(metric refstats.Metric) float64 {
	switch metric {
	case refstats.MetricShannon:
		return m.Shannon
	case refstats.MetricBPLogRatio:
		return m.BPLogRatio
	case refstats.MetricSCFA:
		return m.SCFA
	case refstats.MetricPathogenLoad:
		return m.PathogenLoad
	}
	return 0
}

// ComputeMetrics derives the four metrics from a genus vector: Shannon
// diversity over nonzero abundances, beneficial and pathogen sums, SCFA
// producer sum, and the eps-guarded beneficial/pathogen log-ratio.
// Accumulation runs in sorted genus order: float summation is order-dependent
// in the last ulp, and reference artifacts must be bit-identical across runs.
func ComputeMetrics(v abundance.Vector, sets Sets) SampleMetrics {
	genera := make([]string, 0, len(v))
	for genus := range v {
		genera = append(genera, genus)
	}
	sort.Strings(genera)

	var shannon, benef, patho, scfa float64
	for _, genus := range genera {
		p := v[genus]
		if p > 0 {
			shannon -= p * math.Log(p)
		}
		if _, ok := sets.Beneficial[genus]; ok {
			benef += p
		}
		if _, ok := sets.Pathogenic[genus]; ok {
			patho += p
		}
		if _, ok := sets.SCFA[genus]; ok {
			scfa += p
		}
	}
	return SampleMetrics{
		Shannon:      shannon,
		BPLogRatio:   math.Log((benef + logRatioEps) / (patho + logRatioEps)),
		SCFA:         scfa,
		PathogenLoad: patho,
	}
}
