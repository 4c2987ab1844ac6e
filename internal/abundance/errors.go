package abundance

import "errors"

var (
	// ErrMapping reports an ASV with no genus mapping and no fallback bucket.
	ErrMapping = errors.New("asv has no genus mapping")
	// ErrMalformedInput reports structurally invalid abundance data: negative
	// values, empty tables, or vectors that do not sum to ~1.
	ErrMalformedInput = errors.New("malformed abundance input")
)
