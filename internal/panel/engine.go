package panel

import (
	"github.com/akashsingh918/medNova-pipeline-salivary-microbiome/internal/abundance"
	"github.com/akashsingh918/medNova-pipeline-salivary-microbiome/internal/refstats"
)

// MarkerResult is one marker's outcome within a panel evaluation.
type MarkerResult struct {
	Genus     string  `json:"genus"`
	Rank      float64 `json:"percentile_rank"`
	Exceeded  bool    `json:"exceeded"`
	Evaluable bool    `json:"evaluable"`
}

// Result is the outcome of evaluating one panel against one sample.
type Result struct {
	Name     string         `json:"name"`
	Fired    bool           `json:"fired"`
	SubScore float64        `json:"sub_score"`
	Markers  []MarkerResult `json:"markers"`
}

// Engine evaluates panels against sample vectors. The percentile table is
// read-only shared state, so one Engine is safe for concurrent use.
type Engine struct {
	cfg   Config
	table refstats.PercentileTable
}

// NewEngine validates the configuration against the table and returns an
// evaluator.
func NewEngine(cfg Config, table refstats.PercentileTable) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, table: table}, nil
}

// Evaluate runs every panel against the sample vector.
func (e *Engine) Evaluate(v abundance.Vector) []Result {
	out := make([]Result, 0, len(e.cfg.Panels))
	for _, p := range e.cfg.Panels {
		out = append(out, e.evaluatePanel(p, v))
	}
	return out
}

// evaluatePanel applies the gate and combination logic for one panel. A genus
// with no percentile entry is non-evaluable: it can never exceed its gate and
// stays out of both the rule and the weighted sum, so low-evidence genera
// cannot cause a false fire.
func (e *Engine) evaluatePanel(p Panel, v abundance.Vector) Result {
	res := Result{Name: p.Name, Markers: make([]MarkerResult, 0, len(p.Markers))}

	evaluable, exceeded := 0, 0
	var hitSum, totalWeight float64
	for _, m := range p.Markers {
		mr := MarkerResult{Genus: m.Genus}
		anchors, ok := e.table[m.Genus]
		if ok {
			mr.Evaluable = true
			evaluable++
			obs := v[m.Genus]
			mr.Rank = refstats.RankWithTail(obs, anchors, e.cfg.TailSlope)
			gateValue, _ := m.Gate.Anchor(anchors)
			// "at or above" the gate; a zero observation never exceeds,
			// even when the whole healthy cohort sits at zero.
			if obs > 0 && obs >= gateValue {
				mr.Exceeded = true
				exceeded++
				hitSum += m.Weight * mr.Rank
			}
			totalWeight += m.Weight
		}
		res.Markers = append(res.Markers, mr)
	}

	if evaluable == 0 {
		return res // never fires, sub-score 0
	}
	if totalWeight > 0 {
		res.SubScore = hitSum / totalWeight
	}

	switch p.Rule {
	case RuleAny:
		res.Fired = exceeded >= 1
	case RuleAll:
		res.Fired = exceeded == evaluable
	case RuleAtLeastK:
		res.Fired = exceeded >= p.K
	}
	return res
}
