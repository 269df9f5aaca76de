package services

import (
	"context"
	"time"

	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/domain/types"
)

type evidenceStoreStub struct {
	findFn   func(ctx context.Context, evidenceID string) (types.Evidence, bool, error)
	listFn   func(ctx context.Context, appID string, fieldKey string) ([]types.Evidence, error)
	insertFn func(ctx context.Context, ev types.Evidence) ([]string, error)
	revokeFn func(ctx context.Context, evidenceID string, at time.Time) (types.Evidence, error)
}

func (s evidenceStoreStub) FindEvidenceForClaim(ctx context.Context, evidenceID string) (types.Evidence, bool, error) {
	if s.findFn == nil {
		return types.Evidence{}, false, nil
	}
	return s.findFn(ctx, evidenceID)
}

func (s evidenceStoreStub) ListEvidenceForField(ctx context.Context, appID string, fieldKey string) ([]types.Evidence, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, appID, fieldKey)
}

func (s evidenceStoreStub) InsertEvidence(ctx context.Context, ev types.Evidence) ([]string, error) {
	if s.insertFn == nil {
		return nil, nil
	}
	return s.insertFn(ctx, ev)
}

func (s evidenceStoreStub) RevokeEvidence(ctx context.Context, evidenceID string, at time.Time) (types.Evidence, error) {
	if s.revokeFn == nil {
		return types.Evidence{}, nil
	}
	return s.revokeFn(ctx, evidenceID, at)
}

type claimStoreStub struct {
	inserted []types.Claim
	insertFn func(ctx context.Context, c types.Claim) error
	findFn   func(ctx context.Context, appID string, key string) (types.Claim, bool, error)
	listFn   func(ctx context.Context, appID string, requirementID string) ([]types.Claim, error)
}

func (s *claimStoreStub) InsertClaim(ctx context.Context, c types.Claim) error {
	if s.insertFn != nil {
		if err := s.insertFn(ctx, c); err != nil {
			return err
		}
	}
	s.inserted = append(s.inserted, c)
	return nil
}

func (s *claimStoreStub) FindClaimByIdempotencyKey(ctx context.Context, appID string, key string) (types.Claim, bool, error) {
	if s.findFn == nil {
		return types.Claim{}, false, nil
	}
	return s.findFn(ctx, appID, key)
}

func (s *claimStoreStub) ListClaims(ctx context.Context, appID string, requirementID string) ([]types.Claim, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, appID, requirementID)
}

type profileReaderStub struct {
	readFn func(ctx context.Context, appID string) (map[string]any, error)
}

func (s profileReaderStub) ReadPolicyContext(ctx context.Context, appID string) (map[string]any, error) {
	if s.readFn == nil {
		return map[string]any{}, nil
	}
	return s.readFn(ctx, appID)
}

type policyStub struct {
	evalFn func(ctx context.Context, in types.PolicyInput) (types.PolicyDecision, error)
}

func (s policyStub) Evaluate(ctx context.Context, in types.PolicyInput) (types.PolicyDecision, error) {
	return s.evalFn(ctx, in)
}

type reuseFinderStub struct {
	findFn func(ctx context.Context, q types.ReuseQuery) (types.ReuseCandidate, bool, error)
}

func (s reuseFinderStub) FindReuseCandidate(ctx context.Context, q types.ReuseQuery) (types.ReuseCandidate, bool, error) {
	return s.findFn(ctx, q)
}

type registryStub map[string]types.FieldRiskConfig

func (r registryStub) GetFieldRiskConfig(fieldKey string) (types.FieldRiskConfig, bool) {
	cfg, ok := r[fieldKey]
	return cfg, ok
}

type conditionStub struct {
	evalFn func(expr string, facts map[string]string) (bool, error)
}

func (s conditionStub) Eval(expr string, facts map[string]string) (bool, error) {
	return s.evalFn(expr, facts)
}

type riskOpenerStub struct {
	opened []types.OpenRiskRequest
	openFn func(ctx context.Context, req types.OpenRiskRequest) (types.RiskItem, error)
}

func (s *riskOpenerStub) OpenRisk(ctx context.Context, req types.OpenRiskRequest) (types.RiskItem, error) {
	s.opened = append(s.opened, req)
	if s.openFn != nil {
		return s.openFn(ctx, req)
	}
	return types.RiskItem{
		RiskID:            "risk-1",
		AppID:             req.AppID,
		FieldKey:          req.FieldKey,
		TriggerEvidenceID: req.TriggerEvidenceID,
		AssignedSME:       req.AssignedSME,
		Priority:          req.Priority,
		TTL:               req.TTL,
		AssignedAt:        req.AssignedAt,
		DueAt:             req.DueAt,
		Status:            types.RiskStatusOpen,
	}, nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func timePtr(t time.Time) *time.Time { return &t }

func intPtr(n int) *int { return &n }
