package ledger

import (
	"strings"
	"unicode"

	"github.com/ppiankov/corroborate/internal/model"
)

// Similarity weights
const (
	weightType     = 0.3
	weightText     = 0.5
	weightCitation = 0.2
)

// crossTypeCeiling is the best score two claims of different types can reach
const crossTypeCeiling = (weightText + weightCitation) / (weightType + weightText + weightCitation)

// phraseSynonyms are rewritten before tokenizing
var phraseSynonyms = []struct{ from, to string }{
	{"year over year", "yoy"},
	{"year-over-year", "yoy"},
	{"y/y", "yoy"},
	{"month over month", "mom"},
	{"month-over-month", "mom"},
	{"series-a", "series a"},
	{"series-b", "series b"},
	{"head count", "headcount"},
}

// wordSynonyms map a token onto its canonical form
var wordSynonyms = map[string]string{
	"grew":         "increase",
	"grow":         "increase",
	"grows":        "increase",
	"growth":       "increase",
	"increased":    "increase",
	"increases":    "increase",
	"rose":         "increase",
	"risen":        "increase",
	"declined":     "decrease",
	"decreased":    "decrease",
	"fell":         "decrease",
	"dropped":      "decrease",
	"shrank":       "decrease",
	"raised":       "raise",
	"secured":      "raise",
	"closed":       "raise",
	"revenues":     "revenue",
	"sales":        "revenue",
	"employees":    "headcount",
	"staff":        "headcount",
	"employs":      "headcount",
	"founded":      "found",
	"established":  "found",
	"incorporated": "found",
	"million":      "m",
	"mn":           "m",
	"billion":      "b",
	"bn":           "b",
	"percent":      "%",
}

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "in": true, "on": true,
	"at": true, "to": true, "for": true, "by": true, "with": true, "and": true,
	"or": true, "is": true, "was": true, "were": true, "are": true, "be": true,
	"been": true, "has": true, "have": true, "had": true, "its": true, "it": true,
	"as": true, "from": true, "that": true, "this": true, "which": true, "per": true,
	"about": true, "approximately": true, "around": true, "roughly": true,
}

// Normalize reduces claim text to its canonical token set
func Normalize(text string) map[string]bool {
	lowered := strings.ToLower(text)
	for _, ps := range phraseSynonyms {
		lowered = strings.ReplaceAll(lowered, ps.from, ps.to)
	}

	tokens := strings.FieldsFunc(lowered, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '%' || r == '$' || r == '.')
	})

	set := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		// Dots survive only inside numbers like 12.5
		tok = strings.Trim(tok, ".")
		if tok == "" || stopWords[tok] {
			continue
		}
		if canon, ok := wordSynonyms[tok]; ok {
			tok = canon
		}
		set[tok] = true
	}
	return set
}

// Jaccard is |a∩b| / |a∪b|, zero when both sets are empty
func Jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for tok := range a {
		if b[tok] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// Similarity scores two claims in [0,1]. It is symmetric in its arguments.
func Similarity(a, b model.Claim) float64 {
	score := 0.0
	if a.ClaimType == b.ClaimType {
		score += weightType
	}
	score += weightText * Jaccard(Normalize(a.ClaimText), Normalize(b.ClaimText))

	total := weightType + weightText
	if citationsOverlap(a.Citations, b.Citations) {
		score += weightCitation
		total += weightCitation
	}
	return score / total
}

func citationsOverlap(a, b []model.SourceCitation) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	urls := make(map[string]bool, len(a))
	for _, c := range a {
		urls[c.URL] = true
	}
	for _, c := range b {
		if urls[c.URL] {
			return true
		}
	}
	return false
}
