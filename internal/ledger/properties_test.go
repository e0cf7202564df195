package ledger

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/ppiankov/corroborate/internal/model"
)

var vocabulary = []string{
	"revenue", "grew", "increased", "40%", "yoy", "year", "over", "raised",
	"$12.5m", "series", "a", "founded", "2019", "employees", "staff", "berlin",
}

var claimTypes = []any{model.ClaimTypeRevenue, model.ClaimTypeFunding, model.ClaimTypeTeam}

func genClaimText() gopter.Gen {
	return gen.SliceOfN(5, gen.IntRange(0, len(vocabulary)-1)).Map(func(idx []int) string {
		parts := make([]string, len(idx))
		for i, n := range idx {
			parts[i] = vocabulary[n]
		}
		return strings.Join(parts, " ")
	})
}

func TestLedgerProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("similarity is symmetric", prop.ForAll(
		func(textA, textB string, typeA, typeB model.ClaimType, shared bool) bool {
			a := model.Claim{ClaimText: textA, ClaimType: typeA}
			b := model.Claim{ClaimText: textB, ClaimType: typeB}
			if shared {
				a.Citations = []model.SourceCitation{{URL: "https://www.sec.gov/x"}}
				b.Citations = []model.SourceCitation{{URL: "https://www.sec.gov/x"}}
			}
			return Similarity(a, b) == Similarity(b, a)
		},
		genClaimText(),
		genClaimText(),
		gen.OneConstOf(claimTypes...),
		gen.OneConstOf(claimTypes...),
		gen.Bool(),
	))

	properties.Property("similarity stays within 0..1", prop.ForAll(
		func(textA, textB string) bool {
			s := Similarity(model.Claim{ClaimText: textA}, model.Claim{ClaimText: textB})
			return s >= 0 && s <= 1
		},
		genClaimText(),
		genClaimText(),
	))

	properties.Property("deduplicate is idempotent", prop.ForAll(
		func(texts []string) bool {
			// Inserting with a threshold above 1 disables the add-time merge
			cfg := model.DefaultConfig().Ledger
			cfg.SimilarityThreshold = 1.1
			l := New("Acme", "company", &cfg, nil)
			for i, text := range texts {
				l.AddClaim(model.Claim{
					ClaimText:  text,
					ClaimType:  model.ClaimTypeGeneral,
					Confidence: float64(i%5) / 5,
				}, nil)
			}

			cfg.SimilarityThreshold = 0.6
			if _, err := l.Deduplicate(); err != nil {
				return false
			}
			again, err := l.Deduplicate()
			return err == nil && len(again.Merges) == 0
		},
		gen.SliceOfN(12, genClaimText()),
	))

	properties.TestingRun(t)
}
