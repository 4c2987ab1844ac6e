// Package panel implements the percentile-gated marker panels: named genus
// sets with a firing rule, evaluated against a sample's abundances using the
// cohort percentile table as the gate reference.
package panel

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/akashsingh918/medNova-pipeline-salivary-microbiome/internal/refstats"
)

// Rule is a panel combination rule.
type Rule string

const (
	RuleAny      Rule = "any"        // fires when ≥1 evaluable marker exceeds its gate
	RuleAll      Rule = "all"        // fires when every evaluable marker exceeds its gate
	RuleAtLeastK Rule = "at_least_k" // fires when ≥ K markers exceed their gates
)

// Gate selects which percentile anchor a marker must reach.
type Gate string

const (
	GateP50  Gate = "p50"
	GateP90  Gate = "p90"
	GateP975 Gate = "p97_5"
)

// Anchor resolves the gate to its numeric threshold within a.
func (g Gate) Anchor(a refstats.Anchors) (float64, error) {
	switch g {
	case GateP50:
		return a.P50, nil
	case GateP90:
		return a.P90, nil
	case GateP975:
		return a.P975, nil
	}
	return 0, fmt.Errorf("unknown gate %q", g)
}

// Marker is one (genus, gate) pair with its sub-score weight.
type Marker struct {
	Genus  string  `json:"genus"`
	Gate   Gate    `json:"gate"`
	Weight float64 `json:"weight"`
}

// Panel is a named marker set with a combination rule.
type Panel struct {
	Name    string   `json:"name"`
	Rule    Rule     `json:"rule"`
	K       int      `json:"k,omitempty"`
	Markers []Marker `json:"markers"`
}

// Validate checks the panel definition.
func (p Panel) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("panel with empty name")
	}
	if len(p.Markers) == 0 {
		return fmt.Errorf("panel %s has no markers", p.Name)
	}
	switch p.Rule {
	case RuleAny, RuleAll:
	case RuleAtLeastK:
		if p.K < 1 {
			return fmt.Errorf("panel %s: at_least_k needs k >= 1, got %d", p.Name, p.K)
		}
	default:
		return fmt.Errorf("panel %s: unknown rule %q", p.Name, p.Rule)
	}
	for _, m := range p.Markers {
		if m.Genus == "" {
			return fmt.Errorf("panel %s has a marker with empty genus", p.Name)
		}
		if m.Weight < 0 {
			return fmt.Errorf("panel %s marker %s: negative weight", p.Name, m.Genus)
		}
		if _, err := m.Gate.Anchor(refstats.Anchors{}); err != nil {
			return fmt.Errorf("panel %s marker %s: %w", p.Name, m.Genus, err)
		}
	}
	return nil
}

// Config is the panels definition file: the panel list plus the upper-tail
// slope used when ranking observations beyond the p97.5 anchor (0 selects the
// p90–p97.5 slope continuation).
type Config struct {
	TailSlope float64 `json:"tail_slope,omitempty"`
	Panels    []Panel `json:"panels"`
}

// Validate checks every panel.
func (c Config) Validate() error {
	if len(c.Panels) == 0 {
		return fmt.Errorf("no panels defined")
	}
	for _, p := range c.Panels {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Load reads and validates a panels JSON file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read panels: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse panels: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultConfig returns the built-in clinical panels.
func DefaultConfig() Config {
	return Config{
		Panels: []Panel{
			{
				Name: "Oral Cancer (OSCC)",
				Rule: RuleAll,
				Markers: []Marker{
					{Genus: "Fusobacterium", Gate: GateP975, Weight: 1.0},
					{Genus: "Peptostreptococcus", Gate: GateP90, Weight: 0.3},
				},
			},
			{
				Name: "Periodontitis (Red Complex)",
				Rule: RuleAtLeastK,
				K:    2,
				Markers: []Marker{
					{Genus: "Porphyromonas", Gate: GateP90, Weight: 0.5},
					{Genus: "Tannerella", Gate: GateP90, Weight: 0.5},
					{Genus: "Treponema", Gate: GateP90, Weight: 0.5},
				},
			},
			{
				Name: "Halitosis (VSC)",
				Rule: RuleAny,
				Markers: []Marker{
					{Genus: "Solobacterium", Gate: GateP90, Weight: 1.0},
					{Genus: "Fusobacterium", Gate: GateP90, Weight: 0.5},
				},
			},
		},
	}
}
