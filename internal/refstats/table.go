package refstats

import (
	"github.com/akashsingh918/medNova-pipeline-salivary-microbiome/internal/abundance"
)

// BuildPercentileTable computes per-genus anchors over a healthy-subset
// abundance table. A genus earns an entry only when it is observed (nonzero)
// in at least minEvidence samples; anything below that threshold is omitted
// entirely so single-sample evidence can never drive a gate.
func BuildPercentileTable(t *abundance.Table, minEvidence int) PercentileTable {
	if minEvidence < 1 {
		minEvidence = 1
	}
	out := make(PercentileTable)
	for _, genus := range t.Genera() {
		row := t.Row(genus)
		observed := 0
		for _, v := range row {
			if v > 0 {
				observed++
			}
		}
		if observed < minEvidence {
			continue
		}
		out[genus] = Anchors{
			P50:  Quantile(row, 50),
			P90:  Quantile(row, 90),
			P975: Quantile(row, 97.5),
		}
	}
	return out
}
