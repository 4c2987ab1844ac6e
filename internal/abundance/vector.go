// Package abundance turns raw ASV-level count tables into genus-level relative
// abundance vectors. Normalization runs once over the whole table; downstream
// scoring only ever sees per-sample Vector values that sum to 1.
package abundance

import "fmt"

// SumTolerance is the accepted deviation of a relative-abundance vector from 1.
const SumTolerance = 1e-3

// Vector maps genus name to relative abundance for one sample.
// Values are in [0,1] and sum to 1 within SumTolerance. Treated as immutable
// once produced.
type Vector map[string]float64

// Validate checks the Vector contract. Empty vectors and vectors produced by
// anything other than this package should be validated before scoring.
func (v Vector) Validate() error {
	if len(v) == 0 {
		return fmt.Errorf("empty vector: %w", ErrMalformedInput)
	}
	sum := 0.0
	for genus, a := range v {
		if a < 0 {
			return fmt.Errorf("negative abundance %g for %s: %w", a, genus, ErrMalformedInput)
		}
		sum += a
	}
	if sum < 1-SumTolerance || sum > 1+SumTolerance {
		return fmt.Errorf("abundances sum to %g, want ~1: %w", sum, ErrMalformedInput)
	}
	return nil
}
