// Package artifact handles persistence of reference artifacts: flat JSON
// files for interchange with the rest of the lab pipeline, and a versioned
// BoltDB store for pipelines that keep several cohort versions around.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/akashsingh918/medNova-pipeline-salivary-microbiome/internal/refstats"
)

// statsFile is the on-disk layout of the global-stats artifact.
type statsFile struct {
	Metrics   map[refstats.Metric]refstats.MetricStats `json:"metrics"`
	Composite refstats.MetricStats                     `json:"composite"`
	HealthyN  int                                      `json:"healthy_n"`
	Degraded  bool                                     `json:"degraded"`
}

// SavePercentiles writes the genus percentile table as flat JSON keyed by
// genus. Map keys marshal sorted, so identical tables produce identical bytes.
func SavePercentiles(path string, t refstats.PercentileTable) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write percentiles: %w", err)
	}
	return nil
}

// LoadPercentiles reads and validates a genus percentile table.
func LoadPercentiles(path string) (refstats.PercentileTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read percentiles: %w", err)
	}
	var t refstats.PercentileTable
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse percentiles: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// SaveReference writes the artifact bundle as its two interchange files.
func SaveReference(percPath, statsPath string, ref *refstats.Reference) error {
	if err := SavePercentiles(percPath, ref.Genera); err != nil {
		return err
	}
	sf := statsFile{Metrics: ref.Metrics, Composite: ref.Composite, HealthyN: ref.HealthyN, Degraded: ref.Degraded}
	data, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(statsPath, data, 0o644); err != nil {
		return fmt.Errorf("write reference stats: %w", err)
	}
	return nil
}

// LoadReference reassembles and validates a Reference from its two files.
func LoadReference(percPath, statsPath string) (*refstats.Reference, error) {
	genera, err := LoadPercentiles(percPath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(statsPath)
	if err != nil {
		return nil, fmt.Errorf("read reference stats: %w", err)
	}
	var sf statsFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse reference stats: %w", err)
	}
	ref := &refstats.Reference{
		Genera:    genera,
		Metrics:   sf.Metrics,
		Composite: sf.Composite,
		HealthyN:  sf.HealthyN,
		Degraded:  sf.Degraded,
	}
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	return ref, nil
}
