package score

import (
	"fmt"
	"math"

	"github.com/akashsingh918/medNova-pipeline-salivary-microbiome/internal/abundance"
	"github.com/akashsingh918/medNova-pipeline-salivary-microbiome/internal/panel"
	"github.com/akashsingh918/medNova-pipeline-salivary-microbiome/internal/refstats"
	"github.com/akashsingh918/medNova-pipeline-salivary-microbiome/internal/weights"
)

// Result is the complete structured output of one scoring call. It is the
// sole surface the report assembler consumes.
type Result struct {
	SampleID   string           `json:"sample_id"`
	CHI        float64          `json:"composite_health_index"`
	Category   Category         `json:"health_category"`
	Composite  float64          `json:"composite_score"`
	Components Components       `json:"component_percentiles"`
	Metrics    SampleMetrics    `json:"key_metrics"`
	Panels     []panel.Result   `json:"panel_results"`
	Abundances abundance.Vector `json:"raw_abundances"`
}

// FiredPanels counts panels that fired, for instrumentation.
func (r *Result) FiredPanels() int {
	n := 0
	for _, p := range r.Panels {
		if p.Fired {
			n++
		}
	}
	return n
}

// Engine scores samples against one immutable reference version. All fields
// are read-only after construction, so a single Engine may score samples
// concurrently; a call for one sample can never observe another call's state.
type Engine struct {
	ref    *refstats.Reference
	panels *panel.Engine
	sets   Sets
	blend  Weights
	cal    Calibration
}

// NewEngine validates the artifacts and wires the scoring pipeline.
func NewEngine(ref *refstats.Reference, panelCfg panel.Config, wt weights.Table, blend Weights, cal Calibration) (*Engine, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if blend == (Weights{}) {
		blend = DefaultWeights()
	}
	if err := blend.Validate(); err != nil {
		return nil, err
	}
	if err := cal.Validate(); err != nil {
		return nil, err
	}
	pe, err := panel.NewEngine(panelCfg, ref.Genera)
	if err != nil {
		return nil, err
	}
	return &Engine{ref: ref, panels: pe, sets: SetsFromWeights(wt), blend: blend, cal: cal}, nil
}

// Reference exposes the engine's immutable reference bundle.
func (e *Engine) Reference() *refstats.Reference { return e.ref }

// Score runs the full pipeline for one pre-normalized sample vector.
// All-or-nothing: a malformed vector returns an error and no partial result.
func (e *Engine) Score(sampleID string, v abundance.Vector) (*Result, error) {
	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("sample %s: %w", sampleID, err)
	}

	metrics := ComputeMetrics(v, e.sets)
	components := ComputeComponents(metrics, e.ref.Metrics)
	composite := e.blend.Composite(components)
	chi := e.cal.Apply(composite, e.ref.Composite)

	res := &Result{
		SampleID:  sampleID,
		CHI:       round(chi, 2),
		Category:  e.cal.Categorize(chi),
		Composite: round(composite, 1),
		Components: Components{
			Diversity: round(components.Diversity, 1),
			Ratio:     round(components.Ratio, 1),
			SCFA:      round(components.SCFA, 1),
			Pathogen:  round(components.Pathogen, 1),
		},
		Metrics: SampleMetrics{
			Shannon:      round(metrics.Shannon, 3),
			BPLogRatio:   round(metrics.BPLogRatio, 3),
			SCFA:         round(metrics.SCFA, 4),
			PathogenLoad: round(metrics.PathogenLoad, 4),
		},
		Panels:     e.panels.Evaluate(v),
		Abundances: v,
	}
	return res, nil
}

// round to n decimal places; report fields carry a few digits, artifacts keep
// full precision.
func round(v float64, n int) float64 {
	pow := math.Pow(10, float64(n))
	return math.Round(v*pow) / pow
}
