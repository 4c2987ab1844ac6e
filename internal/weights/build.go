package weights

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/akashsingh918/medNova-pipeline-salivary-microbiome/internal/taxa"
)

// Meta is the provenance sidecar emitted next to a generated weights CSV.
type Meta struct {
	SourceCSV   string    `json:"source_csv"`
	GeneratedAt time.Time `json:"generated_at"`
	MinEvidence int       `json:"min_evidence"`
	NGenera     int       `json:"n_genera"`
}

// Build derives genus health weights from a SalivaDB biomarker export. Rows
// need "Biomarker Name" and "Regulation" columns; Downregulated counts as
// healthy evidence, Upregulated as disease evidence. Weight is the signed
// evidence fraction (N_healthy − N_disease)/(N_healthy + N_disease); only
// genera with at least minEvidence total records are emitted.
func Build(r io.Reader, minEvidence int) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read biomarker csv header: %w", err)
	}
	nameIdx, regIdx := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(col) {
		case "Biomarker Name":
			nameIdx = i
		case "Regulation":
			regIdx = i
		}
	}
	if nameIdx < 0 || regIdx < 0 {
		return nil, fmt.Errorf("biomarker csv missing Biomarker Name / Regulation columns")
	}

	type counts struct{ healthy, disease int }
	byGenus := make(map[string]*counts)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read biomarker csv: %w", err)
		}
		if len(row) <= nameIdx || len(row) <= regIdx {
			continue
		}
		reg := row[regIdx]
		if reg != "Downregulated" && reg != "Upregulated" {
			continue // other regulation states carry no health direction
		}
		genus := taxa.Clean(row[nameIdx])
		if taxa.IsHigherRank(genus) {
			continue
		}
		c, ok := byGenus[genus]
		if !ok {
			c = &counts{}
			byGenus[genus] = c
		}
		if reg == "Downregulated" {
			c.healthy++
		} else {
			c.disease++
		}
	}

	t := make(Table)
	for genus, c := range byGenus {
		total := c.healthy + c.disease
		if total < minEvidence {
			continue
		}
		t[genus] = float64(c.healthy-c.disease) / float64(total)
	}
	if len(t) == 0 {
		return nil, fmt.Errorf("no genera meet evidence threshold %d", minEvidence)
	}
	return t, nil
}

// BuildFile runs Build over csvPath and writes the weights CSV plus its
// .meta.json provenance sidecar.
func BuildFile(csvPath, outCSV string, minEvidence int) (Table, Meta, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("open biomarker csv: %w", err)
	}
	defer f.Close()

	t, err := Build(f, minEvidence)
	if err != nil {
		return nil, Meta{}, err
	}
	if err := t.Save(outCSV); err != nil {
		return nil, Meta{}, err
	}
	meta := Meta{
		SourceCSV:   filepath.Base(csvPath),
		GeneratedAt: time.Now().UTC(),
		MinEvidence: minEvidence,
		NGenera:     len(t),
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, Meta{}, err
	}
	metaPath := strings.TrimSuffix(outCSV, ".csv") + ".meta.json"
	if err := os.WriteFile(metaPath, data, 0o644); err != nil {
		return nil, Meta{}, fmt.Errorf("write weights meta: %w", err)
	}
	return t, meta, nil
}
