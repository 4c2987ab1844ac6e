// Package weights handles the literature-derived genus health weights. The
// table is a soft prior: it defines the beneficial and pathogenic genus sets
// used by the composite metrics, but it never overrides an empirical
// reference-range gate decision.
package weights

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
)

// Table maps genus → HealthWeight in [-1,1]. Positive weights mark genera
// enriched in healthy subjects, negative weights genera enriched in disease.
type Table map[string]float64

// Beneficial returns the set of genera with positive weight.
func (t Table) Beneficial() map[string]struct{} {
	out := make(map[string]struct{})
	for g, w := range t {
		if w > 0 {
			out[g] = struct{}{}
		}
	}
	return out
}

// Pathogenic returns the set of genera with negative weight.
func (t Table) Pathogenic() map[string]struct{} {
	out := make(map[string]struct{})
	for g, w := range t {
		if w < 0 {
			out[g] = struct{}{}
		}
	}
	return out
}

// Load reads a weights CSV with a Genus,HealthWeight header.
func Load(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open weights: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses a weights CSV from r.
func Read(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse weights csv: %w", err)
	}
	if len(rows) < 2 || len(rows[0]) < 2 {
		return nil, fmt.Errorf("weights csv has no data rows")
	}
	t := make(Table, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < 2 {
			continue
		}
		w, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("weight for %s: %w", row[0], err)
		}
		t[row[0]] = w
	}
	return t, nil
}

// Save writes the table as CSV in sorted genus order (deterministic output).
func (t Table) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create weights csv: %w", err)
	}
	defer f.Close()
	return t.Write(f)
}

// Write emits the table as CSV to w.
func (t Table) Write(w io.Writer) error {
	genera := make([]string, 0, len(t))
	for g := range t {
		genera = append(genera, g)
	}
	sort.Strings(genera)
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Genus", "HealthWeight"}); err != nil {
		return err
	}
	for _, g := range genera {
		if err := cw.Write([]string{g, strconv.FormatFloat(t[g], 'g', -1, 64)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
