// Package taxa normalizes genus labels coming out of amplicon pipelines and
// biomarker databases. Labels arrive with rank prefixes ("f__", "[" brackets),
// "Candidatus" markers and ambiguous abbreviations ("F. nucleatum" style);
// everything that cannot be resolved to a proper genus collapses into Unknown.
package taxa

import (
	"regexp"
	"strings"
)

// Unknown is the fallback bucket for labels that cannot be resolved to a genus.
const Unknown = "Unknown"

var (
	rankPrefixRE   = regexp.MustCompile(`\[|\]|[a-z]__`)
	abbrevRE       = regexp.MustCompile(`^[A-Z]\.$`)
	genusTokenRE   = regexp.MustCompile(`^[A-Z][a-z]+$`)
	singleLetterRE = regexp.MustCompile(`^[A-Z]$`)
)

// higherRank lists phylum/class/order labels that show up where a genus is
// expected. They never identify a genus and must not earn a reference entry.
var higherRank = map[string]struct{}{
	"Bacteria": {}, "Eubacteria": {}, "Proteobacteria": {}, "Firmicutes": {},
	"Actinobacteria": {}, "Bacteroidetes": {}, "Fusobacteria": {}, "Spirochaetes": {},
	"Cyanobacteria": {}, "Tenericutes": {},
	"Bacteroidia": {}, "Flavobacteria": {}, "Betaproteobacteria": {},
	"Gammaproteobacteria": {}, "Deltaproteobacteria": {},
	"Flavobacteriales": {}, "Spirochaetales": {}, "Bacteroidales": {}, "Clostridiales": {},
	Unknown: {}, "Unclassified": {}, "": {},
}

// Clean resolves a raw taxon label to a genus name, or Unknown.
func Clean(name string) string {
	s := strings.TrimSpace(strings.ReplaceAll(name, "Candidatus ", ""))
	s = rankPrefixRE.ReplaceAllString(s, "")
	tokens := strings.Fields(s)
	if len(tokens) == 0 {
		return Unknown
	}
	// "F." style abbreviations are ambiguous across genera.
	if abbrevRE.MatchString(tokens[0]) {
		return Unknown
	}
	for _, t := range tokens {
		if genusTokenRE.MatchString(t) {
			return t
		}
	}
	return Unknown
}

// IsHigherRank reports whether a cleaned label names a rank above genus (or an
// unresolved bucket) and therefore must be excluded from genus-level evidence.
func IsHigherRank(name string) bool {
	if _, ok := higherRank[name]; ok {
		return true
	}
	return singleLetterRE.MatchString(name)
}
