package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/domain/ports"
	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/domain/types"
	"github.com/jacksonlee411/governance-adjudicator/pkg/httperr"
)

const ReuseMethod = "reuse"

// ReuseMatcher finds existing evidence that can satisfy a profile field
// without a new submission. It only reads from the store.
type ReuseMatcher struct {
	evidence ports.EvidenceStore
}

func NewReuseMatcher(evidence ports.EvidenceStore) ReuseMatcher {
	return ReuseMatcher{evidence: evidence}
}

func (m ReuseMatcher) FindReuseCandidate(ctx context.Context, q types.ReuseQuery) (types.ReuseCandidate, bool, error) {
	q.AppID = strings.TrimSpace(q.AppID)
	q.ProfileField = strings.TrimSpace(q.ProfileField)
	if q.AppID == "" || q.ProfileField == "" {
		return types.ReuseCandidate{}, false, httperr.NewBadRequest("app_id/profile_field required")
	}
	if q.MaxAgeDays != nil && *q.MaxAgeDays < 0 {
		return types.ReuseCandidate{}, false, httperr.NewBadRequest("max_age_days must be >= 0")
	}
	if q.AsOf.IsZero() {
		q.AsOf = time.Now().UTC()
	}

	items, err := m.evidence.ListEvidenceForField(ctx, q.AppID, q.ProfileField)
	if err != nil {
		return types.ReuseCandidate{}, false, fmt.Errorf("list evidence: %w", err)
	}
	best, ok := SelectReusable(items, q)
	if !ok {
		return types.ReuseCandidate{}, false, nil
	}
	return toReuseCandidate(best), true, nil
}

// SelectReusable applies the eligibility predicate and returns the freshest
// eligible record: newest created_at, then newest valid_from, then the
// greatest evidence id.
func SelectReusable(items []types.Evidence, q types.ReuseQuery) (types.Evidence, bool) {
	var best types.Evidence
	found := false
	for _, ev := range items {
		if !eligibleForReuse(ev, q) {
			continue
		}
		if !found || fresher(ev, best) {
			best = ev
			found = true
		}
	}
	return best, found
}

func eligibleForReuse(ev types.Evidence, q types.ReuseQuery) bool {
	if ev.AppID != q.AppID || ev.ProfileFieldKey != q.ProfileField {
		return false
	}
	if ev.Status != types.EvidenceStatusActive || ev.RevokedAt != nil {
		return false
	}
	if ev.ValidFrom.After(q.AsOf) {
		return false
	}
	if ev.ValidUntil != nil && ev.ValidUntil.Before(q.AsOf) {
		return false
	}
	// Limits too large for a Duration are unbounded.
	if q.MaxAgeDays != nil && int64(*q.MaxAgeDays) <= maxDurationDays {
		maxAge := time.Duration(*q.MaxAgeDays) * day
		if q.AsOf.Sub(ev.AgeAnchor()) > maxAge {
			return false
		}
	}
	return true
}

func fresher(a types.Evidence, b types.Evidence) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	if !a.ValidFrom.Equal(b.ValidFrom) {
		return a.ValidFrom.After(b.ValidFrom)
	}
	return a.EvidenceID > b.EvidenceID
}

// Reused evidence carries no submission method of its own: evidence that
// came from a source system is treated as imported, anything else as manual.
func toReuseCandidate(ev types.Evidence) types.ReuseCandidate {
	origin := types.ClaimMethodManual
	if strings.TrimSpace(ev.SourceSystem) != "" {
		origin = types.ClaimMethodImported
	}
	return types.ReuseCandidate{
		EvidenceID:   ev.EvidenceID,
		URI:          ev.URI,
		Type:         ev.Type,
		SHA256:       ev.SHA256,
		SourceSystem: ev.SourceSystem,
		ValidFrom:    ev.ValidFrom,
		ValidUntil:   ev.ValidUntil,
		Confidence:   ConfidenceFor(origin),
		Method:       ReuseMethod,
		CreatedAt:    ev.CreatedAt,
	}
}
