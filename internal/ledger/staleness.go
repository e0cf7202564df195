package ledger

import (
	"fmt"
	"time"

	"github.com/ppiankov/corroborate/internal/model"
	"github.com/ppiankov/corroborate/internal/score"
)

// Freshness buckets
const (
	currentWindow    = 30 * 24 * time.Hour
	historicalWindow = 180 * 24 * time.Hour
)

// Freshness buckets an age into current (<30d), stale (30-180d) or historical
func Freshness(age time.Duration) model.Freshness {
	switch {
	case age < currentWindow:
		return model.FreshnessCurrent
	case age <= historicalWindow:
		return model.FreshnessStale
	default:
		return model.FreshnessHistorical
	}
}

// CheckStaleness evaluates one claim against the max-age window
func (l *Ledger) CheckStaleness(id string, now time.Time) (model.StalenessResult, error) {
	e, err := l.lookup(id)
	if err != nil {
		return model.StalenessResult{}, err
	}
	return l.staleness(e.claim, now), nil
}

// CheckAllStaleness evaluates every live, unarchived claim in insertion order
func (l *Ledger) CheckAllStaleness(now time.Time) []model.StalenessResult {
	var results []model.StalenessResult
	for _, e := range l.slots {
		if e == nil || e.claim.Archived {
			continue
		}
		results = append(results, l.staleness(e.claim, now))
	}
	return results
}

// ArchiveStale archives every claim whose recommended action is archive and
// returns their new ids
func (l *Ledger) ArchiveStale(now time.Time) ([]string, error) {
	var archived []string
	for _, result := range l.CheckAllStaleness(now) {
		if result.RecommendedAction != model.ActionArchive {
			continue
		}
		updated, err := l.UpdateClaim(result.ClaimID, ClaimUpdate{
			Archive:     true,
			Reason:      result.Reason,
			TriggeredBy: model.TriggerStaleness,
		})
		if err != nil {
			return archived, err
		}
		archived = append(archived, updated.ID)
	}
	return archived, nil
}

func (l *Ledger) staleness(vc *model.VersionedClaim, now time.Time) model.StalenessResult {
	maxAge := l.config.MaxAge
	age := now.Sub(vc.UpdatedAt)

	result := model.StalenessResult{
		ClaimID:      vc.ID,
		IsStale:      age > maxAge,
		Age:          age,
		TotalSources: len(vc.Citations),
	}
	for _, c := range vc.Citations {
		if now.Sub(c.AccessedAt) > maxAge {
			result.StaleSources++
		}
	}
	days := age.Hours() / 24

	switch {
	case result.IsStale && vc.Verdict == model.VerdictUnverifiable:
		result.RecommendedAction = model.ActionArchive
		result.Reason = fmt.Sprintf("unverifiable for %.0f days", days)
	case result.IsStale:
		result.RecommendedAction = model.ActionRefresh
		result.Reason = fmt.Sprintf("%s verdict not re-checked for %.0f days", vc.Verdict, days)
	case result.StaleSources*2 > result.TotalSources:
		result.RecommendedAction = model.ActionRefresh
		result.Reason = fmt.Sprintf("%d of %d sources older than %.0f days",
			result.StaleSources, result.TotalSources, maxAge.Hours()/24)
	default:
		result.RecommendedAction = model.ActionKeep
		result.Reason = "within freshness window"
	}
	return result
}

// Snapshot exports the public, history-stripped view of every unarchived claim
func (l *Ledger) Snapshot(now time.Time) model.LedgerSnapshot {
	snap := model.LedgerSnapshot{
		EntityName:  l.entityName,
		EntityType:  l.entityType,
		Claims:      []model.Claim{},
		LastUpdated: now,
	}

	// one disagreement may be noted on several claims; count it once
	notes := map[string]bool{}
	for _, e := range l.slots {
		if e == nil || e.claim.Archived {
			continue
		}
		vc := clone(e.claim)
		claim := vc.Claim
		claim.Freshness = Freshness(now.Sub(vc.UpdatedAt))
		snap.Claims = append(snap.Claims, claim)

		for _, n := range claim.Contradictions {
			notes[n] = true
		}
		if claim.Verdict == model.VerdictUnverifiable {
			snap.UnverifiableCount++
		}
	}

	snap.ContradictionCount = len(notes)
	snap.OverallIntegrity = score.Integrity(len(snap.Claims), snap.UnverifiableCount, snap.ContradictionCount)
	return snap
}
