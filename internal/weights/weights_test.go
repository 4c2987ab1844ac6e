package weights

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const biomarkerCSV = `Biomarker ID,Biomarker Name,Regulation,Disease
SB001,Streptococcus salivarius,Downregulated,OSCC
SB002,Streptococcus mitis,Downregulated,Periodontitis
SB003,Streptococcus anginosus,Upregulated,OSCC
SB004,Fusobacterium nucleatum,Upregulated,OSCC
SB005,Fusobacterium periodonticum,Upregulated,OSCC
SB006,Fusobacterium nucleatum,Upregulated,Periodontitis
SB007,Porphyromonas gingivalis,Upregulated,Periodontitis
SB008,Firmicutes,Upregulated,OSCC
SB009,F. nucleatum,Upregulated,OSCC
SB010,g__Rothia,Downregulated,Caries
SB011,Rothia mucilaginosa,Downregulated,Caries
SB012,Rothia dentocariosa,Upregulated,OSCC
`

func TestBuild(t *testing.T) {
	tab, err := Build(strings.NewReader(biomarkerCSV), 3)
	if err != nil {
		t.Fatal(err)
	}

	// Streptococcus: 2 healthy, 1 disease over 3 records.
	if w, ok := tab["Streptococcus"]; !ok || math.Abs(w-1.0/3) > 1e-12 {
		t.Errorf("Streptococcus weight = %v (present=%v), want 1/3", w, ok)
	}
	// Fusobacterium: 3 disease records, all upregulated.
	if w, ok := tab["Fusobacterium"]; !ok || w != -1 {
		t.Errorf("Fusobacterium weight = %v (present=%v), want -1", w, ok)
	}
	// Rothia: 2 healthy, 1 disease.
	if w, ok := tab["Rothia"]; !ok || math.Abs(w-1.0/3) > 1e-12 {
		t.Errorf("Rothia weight = %v (present=%v), want 1/3", w, ok)
	}
	// Porphyromonas has a single record, below the evidence threshold.
	if _, ok := tab["Porphyromonas"]; ok {
		t.Error("Porphyromonas emitted with 1 record at min evidence 3")
	}
	// Phylum labels and unresolved abbreviations never become genera.
	for _, g := range []string{"Firmicutes", "Unknown", "F."} {
		if _, ok := tab[g]; ok {
			t.Errorf("%q emitted as a genus", g)
		}
	}
}

func TestBuild_IgnoresUnknownRegulation(t *testing.T) {
	// A row with an unrecognized regulation state must not create a genus
	// entry; at min evidence 0 it would otherwise divide zero by zero.
	csv := "Biomarker ID,Biomarker Name,Regulation,Disease\n" +
		"SB001,Rothia mucilaginosa,Deregulated,Caries\n" +
		"SB002,Streptococcus mitis,Downregulated,Caries\n"
	tab, err := Build(strings.NewReader(csv), 0)
	if err != nil {
		t.Fatal(err)
	}
	if w, ok := tab["Rothia"]; ok {
		t.Errorf("Deregulated-only genus emitted with weight %v", w)
	}
	for g, w := range tab {
		if math.IsNaN(w) {
			t.Errorf("%s has NaN weight", g)
		}
	}
	if w := tab["Streptococcus"]; w != 1 {
		t.Errorf("Streptococcus weight = %v, want 1", w)
	}
}

func TestBuildFile_MetaBasename(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "salivadb_export.csv")
	if err := os.WriteFile(src, []byte(biomarkerCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	_, meta, err := BuildFile(src, filepath.Join(dir, "weights.csv"), 3)
	if err != nil {
		t.Fatal(err)
	}
	// Provenance records the file name only, never a machine-local path.
	if meta.SourceCSV != "salivadb_export.csv" {
		t.Errorf("SourceCSV = %q, want bare basename", meta.SourceCSV)
	}
}

func TestBuild_BadInput(t *testing.T) {
	if _, err := Build(strings.NewReader("Name,Direction\nX,Up\n"), 1); err == nil {
		t.Error("csv without expected columns accepted")
	}
	if _, err := Build(strings.NewReader(biomarkerCSV), 100); err == nil {
		t.Error("impossible evidence threshold produced a table")
	}
}

func TestTableSets(t *testing.T) {
	tab := Table{"Rothia": 0.5, "Porphyromonas": -1, "Neisseria": 0}
	if _, ok := tab.Beneficial()["Rothia"]; !ok {
		t.Error("positive weight missing from beneficial set")
	}
	if _, ok := tab.Pathogenic()["Porphyromonas"]; !ok {
		t.Error("negative weight missing from pathogenic set")
	}
	if _, ok := tab.Beneficial()["Neisseria"]; ok {
		t.Error("zero weight counted as beneficial")
	}
	if _, ok := tab.Pathogenic()["Neisseria"]; ok {
		t.Error("zero weight counted as pathogenic")
	}
}

func TestWriteRead_RoundTrip(t *testing.T) {
	tab := Table{"Streptococcus": 1.0 / 3, "Fusobacterium": -1, "Veillonella": 0.25}

	var buf bytes.Buffer
	if err := tab.Write(&buf); err != nil {
		t.Fatal(err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(tab) {
		t.Fatalf("round trip lost entries: %d vs %d", len(got), len(tab))
	}
	for g, w := range tab {
		if got[g] != w {
			t.Errorf("%s: %v != %v", g, got[g], w)
		}
	}
}

func TestWrite_Deterministic(t *testing.T) {
	tab := Table{"B": 1, "A": -1, "C": 0.5}
	var a, b bytes.Buffer
	if err := tab.Write(&a); err != nil {
		t.Fatal(err)
	}
	if err := tab.Write(&b); err != nil {
		t.Fatal(err)
	}
	if a.String() != b.String() {
		t.Error("two writes of the same table differ")
	}
	if !strings.HasPrefix(a.String(), "Genus,HealthWeight\nA,") {
		t.Errorf("output not sorted by genus:\n%s", a.String())
	}
}
