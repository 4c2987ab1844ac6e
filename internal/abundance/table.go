package abundance

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// RawTable holds an ASV-level count matrix: one row per ASV, one column per
// sample, as read from a BIOM-style TSV export.
type RawTable struct {
	Samples []string
	IDs     []string
	Counts  [][]float64 // Counts[i][j] = count of IDs[i] in Samples[j]
}

// Table is a genus-level relative-abundance matrix. Rows are genus buckets,
// columns are samples; every column sums to 1.
type Table struct {
	samples []string
	colIdx  map[string]int
	rows    map[string][]float64
}

// ParseTSV reads a feature table: an optional leading '#' comment line, a
// header row (first cell is a label, remaining cells are sample ids), then one
// row per ASV with counts.
func ParseTSV(r io.Reader) (*RawTable, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var header []string
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "#") && !strings.Contains(line, "\t") {
			continue // BIOM comment line
		}
		header = strings.Split(line, "\t")
		break
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("feature table has no sample columns: %w", ErrMalformedInput)
	}
	rt := &RawTable{Samples: header[1:]}

	for sc.Scan() {
		fields := strings.Split(sc.Text(), "\t")
		if len(fields) == 1 && fields[0] == "" {
			continue
		}
		if len(fields) != len(header) {
			return nil, fmt.Errorf("row %q has %d columns, want %d: %w", fields[0], len(fields), len(header), ErrMalformedInput)
		}
		counts := make([]float64, len(rt.Samples))
		for j, cell := range fields[1:] {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("row %q column %s: %w", fields[0], rt.Samples[j], ErrMalformedInput)
			}
			if v < 0 {
				return nil, fmt.Errorf("negative count %g in row %q: %w", v, fields[0], ErrMalformedInput)
			}
			counts[j] = v
		}
		rt.IDs = append(rt.IDs, fields[0])
		rt.Counts = append(rt.Counts, counts)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read feature table: %w", err)
	}
	if len(rt.IDs) == 0 {
		return nil, fmt.Errorf("feature table has no rows: %w", ErrMalformedInput)
	}
	return rt, nil
}

// ParseTSVFile is ParseTSV over a file path.
func ParseTSVFile(path string) (*RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feature table: %w", err)
	}
	defer f.Close()
	return ParseTSV(f)
}

// ToGenus collapses the raw count matrix to a genus-level relative-abundance
// table in one pass: column totals once, then every ASV row is normalized and
// accumulated into its genus bucket.
func (rt *RawTable) ToGenus(m *Mapper) (*Table, error) {
	totals := make([]float64, len(rt.Samples))
	for _, row := range rt.Counts {
		for j, v := range row {
			totals[j] += v
		}
	}
	for j, t := range totals {
		if t == 0 {
			return nil, fmt.Errorf("sample %s has zero total count: %w", rt.Samples[j], ErrMalformedInput)
		}
	}

	t := &Table{
		samples: append([]string(nil), rt.Samples...),
		colIdx:  make(map[string]int, len(rt.Samples)),
		rows:    make(map[string][]float64),
	}
	for j, s := range t.samples {
		t.colIdx[s] = j
	}
	for i, asv := range rt.IDs {
		genus, err := m.Genus(asv)
		if err != nil {
			return nil, err
		}
		row, ok := t.rows[genus]
		if !ok {
			row = make([]float64, len(t.samples))
			t.rows[genus] = row
		}
		for j, v := range rt.Counts[i] {
			row[j] += v / totals[j]
		}
	}
	return t, nil
}

// Samples returns the sample ids in table order.
func (t *Table) Samples() []string { return t.samples }

// Genera returns the genus buckets present in the table.
func (t *Table) Genera() []string {
	out := make([]string, 0, len(t.rows))
	for g := range t.rows {
		out = append(out, g)
	}
	return out
}

// Row returns the per-sample abundances of one genus (nil if absent).
func (t *Table) Row(genus string) []float64 { return t.rows[genus] }

// Vector extracts one sample as an immutable genus vector.
func (t *Table) Vector(sample string) (Vector, error) {
	j, ok := t.colIdx[sample]
	if !ok {
		return nil, fmt.Errorf("sample %q not in table: %w", sample, ErrMalformedInput)
	}
	v := make(Vector, len(t.rows))
	for genus, row := range t.rows {
		if row[j] > 0 {
			v[genus] = row[j]
		}
	}
	return v, nil
}

// Select restricts the table to the given sample ids, returning the subset and
// how many ids matched. An empty or non-matching selection returns the table
// unchanged with matched 0 so callers can apply their fallback policy.
func (t *Table) Select(ids map[string]struct{}) (sub *Table, matched int) {
	if len(ids) == 0 {
		return t, 0
	}
	var keep []int
	var names []string
	for j, s := range t.samples {
		if _, ok := ids[s]; ok {
			keep = append(keep, j)
			names = append(names, s)
		}
	}
	if len(keep) == 0 {
		return t, 0
	}
	sub = &Table{samples: names, colIdx: make(map[string]int, len(names)), rows: make(map[string][]float64, len(t.rows))}
	for j, s := range names {
		sub.colIdx[s] = j
	}
	for genus, row := range t.rows {
		nr := make([]float64, len(keep))
		for j, src := range keep {
			nr[j] = row[src]
		}
		sub.rows[genus] = nr
	}
	return sub, len(keep)
}
