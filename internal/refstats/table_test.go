package refstats

import (
	"strings"
	"testing"

	"github.com/akashsingh918/medNova-pipeline-salivary-microbiome/internal/abundance"
)

func cohortTable(t *testing.T) *abundance.Table {
	t.Helper()
	tsv := "#OTU ID\tA\tB\tC\tD\n" +
		"ASV1\t10\t20\t30\t40\n" + // Streptococcus, everywhere
		"ASV2\t5\t5\t0\t0\n" + // Tannerella, only 2 samples
		"ASV3\t85\t75\t70\t60\n" // Veillonella, everywhere
	rt, err := abundance.ParseTSV(strings.NewReader(tsv))
	if err != nil {
		t.Fatal(err)
	}
	table, err := rt.ToGenus(abundance.NewMapper(map[string]string{
		"ASV1": "Streptococcus",
		"ASV2": "Tannerella",
		"ASV3": "Veillonella",
	}, false))
	if err != nil {
		t.Fatal(err)
	}
	return table
}

func TestBuildPercentileTable_EvidenceThreshold(t *testing.T) {
	table := cohortTable(t)

	pt := BuildPercentileTable(table, 3)
	if _, ok := pt["Tannerella"]; ok {
		t.Error("genus observed in 2 samples earned an entry at min_evidence 3")
	}
	if _, ok := pt["Streptococcus"]; !ok {
		t.Error("genus observed in all samples missing an entry")
	}

	// Lowering the threshold admits it.
	pt = BuildPercentileTable(table, 2)
	if _, ok := pt["Tannerella"]; !ok {
		t.Error("genus observed in 2 samples missing at min_evidence 2")
	}
}

func TestBuildPercentileTable_AnchorsOrdered(t *testing.T) {
	pt := BuildPercentileTable(cohortTable(t), 1)
	if err := pt.Validate(); err != nil {
		t.Fatalf("built table invalid: %v", err)
	}
	for genus, a := range pt {
		if a.P50 > a.P90 || a.P90 > a.P975 {
			t.Errorf("%s anchors out of order: %+v", genus, a)
		}
	}
}
