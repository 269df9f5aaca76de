package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/domain/ports"
	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/domain/types"
	"github.com/jacksonlee411/governance-adjudicator/pkg/httperr"
	"github.com/jacksonlee411/governance-adjudicator/pkg/uuidv7"
)

const (
	ReasonEvidenceNotFound = "evidence_not_found"
	reasonWrongApp         = "wrong_app"
	reasonFieldMismatch    = "field_mismatch"
	reasonTypeMismatch     = "type_mismatch"
	reasonRevokedAt        = "revoked_at"
	reasonNotYetValid      = "not_yet_valid"
	reasonExpired          = "expired"
)

const (
	checkResolve   = "resolve"
	checkOwnership = "ownership"
	checkField     = "field"
	checkType      = "type"
	checkRevoked   = "revocation"
	checkNotBefore = "not_yet_valid"
	checkExpiry    = "expiry"
)

type ClaimAdjudicator struct {
	evidence ports.EvidenceStore
	claims   ports.ClaimStore
	now      func() time.Time
	newID    func() (string, error)
}

func NewClaimAdjudicator(evidence ports.EvidenceStore, claims ports.ClaimStore) *ClaimAdjudicator {
	return &ClaimAdjudicator{
		evidence: evidence,
		claims:   claims,
		now:      time.Now,
		newID:    uuidv7.NewString,
	}
}

// Adjudicate evaluates one evidence-to-requirement claim and appends it to
// the claim log. Failed checks are recorded on the claim; only collaborator
// failures are returned as errors. A replayed idempotency key returns the
// stored claim when it names the same requirement and evidence, and a
// conflict otherwise.
func (a *ClaimAdjudicator) Adjudicate(ctx context.Context, req types.ClaimRequest) (types.Claim, error) {
	req.AppID = strings.TrimSpace(req.AppID)
	req.RequirementID = strings.TrimSpace(req.RequirementID)
	req.ReleaseID = strings.TrimSpace(req.ReleaseID)
	req.EvidenceID = strings.TrimSpace(req.EvidenceID)
	req.IdempotencyKey = strings.TrimSpace(req.IdempotencyKey)
	if req.AppID == "" || req.RequirementID == "" || req.EvidenceID == "" {
		return types.Claim{}, httperr.NewBadRequest("app_id/requirement_id/evidence_id required")
	}

	if req.IdempotencyKey != "" {
		existing, found, err := a.claims.FindClaimByIdempotencyKey(ctx, req.AppID, req.IdempotencyKey)
		if err != nil {
			return types.Claim{}, fmt.Errorf("claim lookup: %w", err)
		}
		if found {
			if existing.RequirementID != req.RequirementID || existing.EvidenceID != req.EvidenceID {
				return types.Claim{}, httperr.NewConflict(fmt.Sprintf("idempotency_key %s already used for requirement %s evidence %s", req.IdempotencyKey, existing.RequirementID, existing.EvidenceID))
			}
			return existing, nil
		}
	}

	evaluatedAt := a.now().UTC()
	ref := evaluatedAt
	if !req.ReleaseWindowStart.IsZero() {
		ref = req.ReleaseWindowStart.UTC()
	}

	ev, found, err := a.evidence.FindEvidenceForClaim(ctx, req.EvidenceID)
	if err != nil {
		return types.Claim{}, fmt.Errorf("resolve evidence %s: %w", req.EvidenceID, err)
	}
	var resolved *types.Evidence
	if found {
		resolved = &ev
	}

	method := NormalizeMethod(req.Method)
	confidence := ConfidenceFor(method)
	reasons, checks := EvaluateClaim(resolved, req, ref)

	record := types.DecisionRecord{
		EvaluatedAt:   evaluatedAt,
		ReferenceTime: ref,
		Method:        method,
		Confidence:    confidence,
		Expected: types.ClaimExpectations{
			AppID:        req.AppID,
			ProfileField: strings.TrimSpace(req.ProfileFieldExpected),
			Type:         strings.TrimSpace(req.TypeExpected),
		},
		Checks: checks,
	}
	if resolved != nil {
		record.Evidence = types.SnapshotOf(*resolved)
	}

	id, err := a.newID()
	if err != nil {
		return types.Claim{}, err
	}
	claim := types.Claim{
		ClaimID:        id,
		AppID:          req.AppID,
		RequirementID:  req.RequirementID,
		ReleaseID:      req.ReleaseID,
		EvidenceID:     req.EvidenceID,
		Method:         method,
		Acceptable:     len(reasons) == 0,
		Reasons:        reasons,
		Confidence:     confidence,
		Status:         types.ClaimStatusSubmitted,
		DecisionRecord: record,
		IdempotencyKey: req.IdempotencyKey,
		CreatedAt:      evaluatedAt,
	}
	if err := a.claims.InsertClaim(ctx, claim); err != nil {
		return types.Claim{}, fmt.Errorf("insert claim: %w", err)
	}
	return claim, nil
}

func (a *ClaimAdjudicator) ListClaims(ctx context.Context, appID string, requirementID string) ([]types.Claim, error) {
	appID = strings.TrimSpace(appID)
	if appID == "" {
		return nil, httperr.NewBadRequest("app_id required")
	}
	return a.claims.ListClaims(ctx, appID, strings.TrimSpace(requirementID))
}

// EvaluateClaim runs every check in order without short-circuiting, so the
// reason list is complete. A nil evidence yields only evidence_not_found.
func EvaluateClaim(ev *types.Evidence, req types.ClaimRequest, ref time.Time) ([]string, []types.CheckOutcome) {
	reasons := []string{}
	var checks []types.CheckOutcome
	record := func(check string, reason string) {
		checks = append(checks, types.CheckOutcome{Check: check, Passed: reason == "", Reason: reason})
		if reason != "" {
			reasons = append(reasons, reason)
		}
	}

	if ev == nil {
		record(checkResolve, ReasonEvidenceNotFound)
		return reasons, checks
	}
	record(checkResolve, "")

	appID := strings.TrimSpace(req.AppID)
	if ev.AppID != appID {
		record(checkOwnership, fmt.Sprintf("%s:expected=%s,actual=%s", reasonWrongApp, appID, ev.AppID))
	} else {
		record(checkOwnership, "")
	}

	if want := strings.TrimSpace(req.ProfileFieldExpected); want != "" {
		if ev.ProfileFieldKey != want {
			record(checkField, fmt.Sprintf("%s:expected=%s,actual=%s", reasonFieldMismatch, want, ev.ProfileFieldKey))
		} else {
			record(checkField, "")
		}
	}

	if want := strings.TrimSpace(req.TypeExpected); want != "" {
		if !strings.EqualFold(ev.Type, want) {
			record(checkType, fmt.Sprintf("%s:expected=%s,actual=%s", reasonTypeMismatch, want, ev.Type))
		} else {
			record(checkType, "")
		}
	}

	if ev.RevokedAt != nil {
		record(checkRevoked, fmt.Sprintf("%s=%s", reasonRevokedAt, formatInstant(*ev.RevokedAt)))
	} else {
		record(checkRevoked, "")
	}

	if ev.ValidFrom.After(ref) {
		record(checkNotBefore, fmt.Sprintf("%s:valid_from=%s,ref=%s", reasonNotYetValid, formatInstant(ev.ValidFrom), formatInstant(ref)))
	} else {
		record(checkNotBefore, "")
	}

	if ev.ValidUntil != nil && ev.ValidUntil.Before(ref) {
		record(checkExpiry, fmt.Sprintf("%s:valid_until=%s,ref=%s", reasonExpired, formatInstant(*ev.ValidUntil), formatInstant(ref)))
	} else {
		record(checkExpiry, "")
	}

	return reasons, checks
}

func formatInstant(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
