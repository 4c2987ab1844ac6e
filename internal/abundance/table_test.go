package abundance

import (
	"errors"
	"math"
	"strings"
	"testing"
)

const sampleTSV = "# Constructed from biom file\n" +
	"#OTU ID\tS1\tS2\n" +
	"ASV1\t10\t0\n" +
	"ASV2\t30\t50\n" +
	"ASV3\t60\t50\n"

var sampleMap = map[string]string{
	"ASV1": "g__Porphyromonas",
	"ASV2": "Streptococcus",
	// ASV3 deliberately unmapped
}

func TestParseTSV(t *testing.T) {
	rt, err := ParseTSV(strings.NewReader(sampleTSV))
	if err != nil {
		t.Fatalf("ParseTSV: %v", err)
	}
	if len(rt.Samples) != 2 || rt.Samples[0] != "S1" || rt.Samples[1] != "S2" {
		t.Fatalf("samples = %v", rt.Samples)
	}
	if len(rt.IDs) != 3 {
		t.Fatalf("got %d rows, want 3", len(rt.IDs))
	}
}

func TestParseTSV_Malformed(t *testing.T) {
	cases := map[string]string{
		"negative":   "#OTU ID\tS1\nASV1\t-3\n",
		"ragged row": "#OTU ID\tS1\tS2\nASV1\t1\n",
		"no rows":    "#OTU ID\tS1\tS2\n",
		"non-number": "#OTU ID\tS1\nASV1\tabc\n",
	}
	for name, tsv := range cases {
		if _, err := ParseTSV(strings.NewReader(tsv)); !errors.Is(err, ErrMalformedInput) {
			t.Errorf("%s: err = %v, want ErrMalformedInput", name, err)
		}
	}
}

func TestToGenus_NormalizesAndBuckets(t *testing.T) {
	rt, err := ParseTSV(strings.NewReader(sampleTSV))
	if err != nil {
		t.Fatal(err)
	}
	table, err := rt.ToGenus(NewMapper(sampleMap, true))
	if err != nil {
		t.Fatalf("ToGenus: %v", err)
	}

	v, err := table.Vector("S1")
	if err != nil {
		t.Fatal(err)
	}
	if err := v.Validate(); err != nil {
		t.Fatalf("vector failed its own contract: %v", err)
	}
	if got := v["Porphyromonas"]; math.Abs(got-0.1) > 1e-12 {
		t.Errorf("Porphyromonas = %g, want 0.1", got)
	}
	if got := v["Streptococcus"]; math.Abs(got-0.3) > 1e-12 {
		t.Errorf("Streptococcus = %g, want 0.3", got)
	}
	if got := v["Unknown"]; math.Abs(got-0.6) > 1e-12 {
		t.Errorf("Unknown = %g, want 0.6", got)
	}

	// S2 has a zero count for ASV1: the genus drops out of the vector.
	v2, err := table.Vector("S2")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := v2["Porphyromonas"]; ok {
		t.Error("zero-abundance genus should be absent from the vector")
	}
}

func TestToGenus_MappingError(t *testing.T) {
	rt, err := ParseTSV(strings.NewReader(sampleTSV))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := rt.ToGenus(NewMapper(sampleMap, false)); !errors.Is(err, ErrMapping) {
		t.Fatalf("err = %v, want ErrMapping", err)
	}
}

func TestVectorValidate(t *testing.T) {
	if err := (Vector{"A": 0.4, "B": 0.6}).Validate(); err != nil {
		t.Errorf("valid vector rejected: %v", err)
	}
	if err := (Vector{"A": -0.1, "B": 1.1}).Validate(); !errors.Is(err, ErrMalformedInput) {
		t.Errorf("negative abundance accepted: %v", err)
	}
	if err := (Vector{"A": 0.4}).Validate(); !errors.Is(err, ErrMalformedInput) {
		t.Errorf("bad sum accepted: %v", err)
	}
	if err := (Vector{}).Validate(); !errors.Is(err, ErrMalformedInput) {
		t.Errorf("empty vector accepted: %v", err)
	}
}

func TestSelect(t *testing.T) {
	rt, err := ParseTSV(strings.NewReader(sampleTSV))
	if err != nil {
		t.Fatal(err)
	}
	table, err := rt.ToGenus(NewMapper(sampleMap, true))
	if err != nil {
		t.Fatal(err)
	}

	sub, matched := table.Select(map[string]struct{}{"S2": {}})
	if matched != 1 || len(sub.Samples()) != 1 || sub.Samples()[0] != "S2" {
		t.Fatalf("Select: matched=%d samples=%v", matched, sub.Samples())
	}

	// No match falls back to the full table with matched 0.
	sub, matched = table.Select(map[string]struct{}{"nope": {}})
	if matched != 0 || len(sub.Samples()) != 2 {
		t.Fatalf("fallback: matched=%d samples=%v", matched, sub.Samples())
	}
}
