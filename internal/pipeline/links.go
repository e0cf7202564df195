package pipeline

import (
	"fmt"

	"github.com/ppiankov/corroborate/internal/ledger"
	"github.com/ppiankov/corroborate/internal/model"
)

// fieldClaimTypes maps cross-check fields onto the claims they speak about
var fieldClaimTypes = map[string]model.ClaimType{
	"foundedYear":   model.ClaimTypeFounding,
	"employeeCount": model.ClaimTypeTeam,
	"teamSize":      model.ClaimTypeTeam,
	"founders":      model.ClaimTypeTeam,
	"ceo":           model.ClaimTypeTeam,
	"cto":           model.ClaimTypeTeam,
	"advisors":      model.ClaimTypeTeam,
	"boardMembers":  model.ClaimTypeTeam,
	"totalRaised":   model.ClaimTypeFunding,
	"fundingStage":  model.ClaimTypeFunding,
	"valuation":     model.ClaimTypeFunding,
	"investors":     model.ClaimTypeFunding,
	"leadInvestor":  model.ClaimTypeFunding,
	"lastRoundDate": model.ClaimTypeFunding,
	"revenue":       model.ClaimTypeRevenue,
	"marketSize":    model.ClaimTypeMarket,
	"competitors":   model.ClaimTypeMarket,
	"targetMarket":  model.ClaimTypeMarket,
	"businessModel": model.ClaimTypeMarket,
	"sectors":       model.ClaimTypeMarket,
	"products":      model.ClaimTypeProduct,
	"techStack":     model.ClaimTypeProduct,
	"legalName":     model.ClaimTypeRegulatory,
	"jurisdiction":  model.ClaimTypeRegulatory,
	"licenses":      model.ClaimTypeRegulatory,
	"filings":       model.ClaimTypeRegulatory,
}

// contradictionNote renders a disagreement as a human-readable claim note
func contradictionNote(c model.Contradiction) string {
	return fmt.Sprintf("%s: %s reports %v, %s reports %v (%s)",
		c.Field, c.SourceA, c.ValueA, c.SourceB, c.ValueB, c.ResolutionReason)
}

// linkContradictions attaches each unresolved disagreement to the live claims
// of the matching type. Fields with no claim type stay on the suite only.
func (p *Pipeline) linkContradictions(l *ledger.Ledger, open []model.Contradiction, report *model.RunReport) {
	if len(open) == 0 {
		return
	}
	notes := make(map[model.ClaimType][]string)
	for _, c := range open {
		if ct, ok := fieldClaimTypes[c.Field]; ok {
			notes[ct] = append(notes[ct], contradictionNote(c))
		}
	}

	for _, vc := range l.Claims() {
		add := notes[vc.ClaimType]
		if vc.Archived || len(add) == 0 {
			continue
		}
		_, err := l.UpdateClaim(vc.ID, ledger.ClaimUpdate{
			AddContradictions: add,
			Reason:            fmt.Sprintf("%d unresolved branch disagreement(s)", len(add)),
			TriggeredBy:       model.TriggerContradiction,
		})
		if err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("link contradictions to %s: %v", vc.ID, err))
		}
	}
}
