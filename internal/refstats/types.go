// Package refstats holds the Empirical Reference Range primitives: cohort
// quantiles, robust spread statistics, genus percentile anchors and the rank
// interpolation used by panel gating. Everything here is pure computation over
// in-memory slices; artifacts built once are treated as immutable afterwards.
package refstats

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientEvidence reports a cohort too thin to build a reference
	// from: no genus reaches the evidence threshold. Per-genus shortfalls are
	// absorbed by omitting the genus; this fires only when nothing survives.
	ErrInsufficientEvidence = errors.New("insufficient reference evidence")
	// ErrReferenceArtifact reports a structurally invalid reference artifact
	// (missing anchors, non-monotonic percentiles, negative spread).
	ErrReferenceArtifact = errors.New("invalid reference artifact")
)

// Anchors are the per-genus percentile anchors over the healthy cohort.
type Anchors struct {
	P50  float64 `json:"p50"`
	P90  float64 `json:"p90"`
	P975 float64 `json:"p97_5"`
}

// Validate enforces anchor ordering.
func (a Anchors) Validate() error {
	if a.P50 < 0 || a.P50 > a.P90 || a.P90 > a.P975 {
		return fmt.Errorf("anchors p50=%g p90=%g p97.5=%g out of order: %w", a.P50, a.P90, a.P975, ErrReferenceArtifact)
	}
	return nil
}

// PercentileTable maps genus → percentile anchors. Genera below the evidence
// threshold have no entry and must never be gated against.
type PercentileTable map[string]Anchors

// Validate checks every entry.
func (t PercentileTable) Validate() error {
	for genus, a := range t {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("genus %s: %w", genus, err)
		}
	}
	return nil
}

// Metric names the four composite metrics tracked per cohort.
type Metric string

const (
	MetricShannon      Metric = "shannon"
	MetricBPLogRatio   Metric = "bp_log_ratio"
	MetricSCFA         Metric = "scfa"
	MetricPathogenLoad Metric = "pathogen_load"
)

// Metrics lists all composite metrics in canonical order.
var Metrics = []Metric{MetricShannon, MetricBPLogRatio, MetricSCFA, MetricPathogenLoad}

// MetricStats holds the robust healthy-cohort distribution summary of one
// metric. Mean/Std are kept alongside median/MAD for compatibility with the
// historical artifact layout; scoring uses median/MAD.
type MetricStats struct {
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Median float64 `json:"median"`
	MAD    float64 `json:"mad"`
	P5     float64 `json:"p5"`
	P50    float64 `json:"p50"`
	P95    float64 `json:"p95"`
}

// Validate enforces MAD ≥ 0 and percentile ordering.
func (s MetricStats) Validate() error {
	if s.MAD < 0 {
		return fmt.Errorf("negative mad %g: %w", s.MAD, ErrReferenceArtifact)
	}
	if s.P5 > s.P50 || s.P50 > s.P95 {
		return fmt.Errorf("percentiles p5=%g p50=%g p95=%g out of order: %w", s.P5, s.P50, s.P95, ErrReferenceArtifact)
	}
	return nil
}

// Reference bundles the artifacts built once per cohort version. Read-only
// input to all scoring calls; never mutated during scoring. Deliberately
// timestamp-free so the same cohort always produces bit-identical artifacts.
type Reference struct {
	Genera    PercentileTable        `json:"genus_percentiles"`
	Metrics   map[Metric]MetricStats `json:"metrics"`
	Composite MetricStats            `json:"composite"`
	HealthyN  int                    `json:"healthy_n"`
	Degraded  bool                   `json:"degraded"`
}

// Validate checks the whole artifact bundle, including that every composite
// metric has an entry.
func (r *Reference) Validate() error {
	if err := r.Genera.Validate(); err != nil {
		return err
	}
	for _, m := range Metrics {
		s, ok := r.Metrics[m]
		if !ok {
			return fmt.Errorf("missing stats for metric %s: %w", m, ErrReferenceArtifact)
		}
		if err := s.Validate(); err != nil {
			return fmt.Errorf("metric %s: %w", m, err)
		}
	}
	if err := r.Composite.Validate(); err != nil {
		return fmt.Errorf("composite: %w", err)
	}
	return nil
}
