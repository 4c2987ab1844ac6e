package score

import (
	"fmt"
	"log/slog"

	"github.com/akashsingh918/medNova-pipeline-salivary-microbiome/internal/abundance"
	"github.com/akashsingh918/medNova-pipeline-salivary-microbiome/internal/refstats"
	"github.com/akashsingh918/medNova-pipeline-salivary-microbiome/internal/weights"
)

// DefaultMinEvidence is the healthy-sample count a genus needs before it earns
// a percentile entry.
const DefaultMinEvidence = 3

// BuildOptions configure a reference build.
type BuildOptions struct {
	// HealthyIDs restricts the cohort to the healthy subset. Empty or
	// non-matching selections fall back to the full cohort (degraded mode).
	HealthyIDs map[string]struct{}
	// MinEvidence defaults to DefaultMinEvidence when zero.
	MinEvidence int
	// Weights defines the beneficial/pathogenic sets via its sign.
	Weights weights.Table
	// CompositeWeights defaults to DefaultWeights when zero-valued.
	CompositeWeights Weights
}

// BuildReference derives the full reference artifact bundle from a cohort
// genus table: per-genus percentile anchors, robust global stats for the four
// metrics, and the composite anchors the calibrator needs. Deterministic for
// identical inputs.
func BuildReference(t *abundance.Table, opts BuildOptions) (*refstats.Reference, error) {
	minEvidence := opts.MinEvidence
	if minEvidence == 0 {
		minEvidence = DefaultMinEvidence
	}
	compW := opts.CompositeWeights
	if compW == (Weights{}) {
		compW = DefaultWeights()
	}
	if err := compW.Validate(); err != nil {
		return nil, err
	}

	healthy, matched := t.Select(opts.HealthyIDs)
	degraded := matched == 0
	if degraded {
		if len(opts.HealthyIDs) == 0 {
			slog.Warn("no healthy-id set supplied, using full cohort as reference", "samples", len(t.Samples()))
		} else {
			slog.Warn("healthy-id set matched no samples, falling back to full cohort", "samples", len(t.Samples()))
		}
	}

	ref := &refstats.Reference{
		Genera:   refstats.BuildPercentileTable(healthy, minEvidence),
		Metrics:  make(map[refstats.Metric]refstats.MetricStats, len(refstats.Metrics)),
		HealthyN: len(healthy.Samples()),
		Degraded: degraded,
	}
	if len(ref.Genera) == 0 {
		return nil, fmt.Errorf("no genus observed in %d or more of %d healthy samples: %w",
			minEvidence, ref.HealthyN, refstats.ErrInsufficientEvidence)
	}

	sets := SetsFromWeights(opts.Weights)
	samples := healthy.Samples()
	perSample := make([]SampleMetrics, 0, len(samples))
	values := make(map[refstats.Metric][]float64, len(refstats.Metrics))
	for _, id := range samples {
		v, err := healthy.Vector(id)
		if err != nil {
			return nil, err
		}
		m := ComputeMetrics(v, sets)
		perSample = append(perSample, m)
		for _, metric := range refstats.Metrics {
			values[metric] = append(values[metric], m.ByMetric(metric))
		}
	}
	for _, metric := range refstats.Metrics {
		ref.Metrics[metric] = refstats.Summarize(values[metric])
	}

	// Composite anchors: score every healthy sample against the stats just
	// built, then summarize the resulting composite distribution.
	composites := make([]float64, len(perSample))
	for i, m := range perSample {
		composites[i] = compW.Composite(ComputeComponents(m, ref.Metrics))
	}
	ref.Composite = refstats.Summarize(composites)

	if err := ref.Validate(); err != nil {
		return nil, fmt.Errorf("built reference failed validation: %w", err)
	}
	return ref, nil
}
