package abundance

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/akashsingh918/medNova-pipeline-salivary-microbiome/internal/taxa"
)

// Mapper resolves ASV/OTU ids to cleaned genus names.
type Mapper struct {
	byASV    map[string]string
	fallback bool
}

// NewMapper builds a Mapper from an ASV→taxon map. When fallback is true,
// unmapped ASVs land in the taxa.Unknown bucket instead of failing.
func NewMapper(m map[string]string, fallback bool) *Mapper {
	cleaned := make(map[string]string, len(m))
	for asv, label := range m {
		cleaned[asv] = taxa.Clean(label)
	}
	return &Mapper{byASV: cleaned, fallback: fallback}
}

// LoadMapper reads an ASV→genus JSON map from disk.
func LoadMapper(path string, fallback bool) (*Mapper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read asv map: %w", err)
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse asv map: %w", err)
	}
	return NewMapper(m, fallback), nil
}

// Genus returns the genus bucket for an ASV id.
func (m *Mapper) Genus(asv string) (string, error) {
	if g, ok := m.byASV[asv]; ok {
		return g, nil
	}
	if m.fallback {
		return taxa.Unknown, nil
	}
	return "", fmt.Errorf("asv %q: %w", asv, ErrMapping)
}
