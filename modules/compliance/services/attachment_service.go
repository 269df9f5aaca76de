package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/domain/ports"
	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/domain/types"
	"github.com/jacksonlee411/governance-adjudicator/pkg/httperr"
)

type AttachRequest struct {
	AppID          string            `json:"app_id"`
	FieldKey       string            `json:"field_key"`
	EvidenceID     string            `json:"evidence_id"`
	AppCriticality string            `json:"app_criticality"`
	Facts          map[string]string `json:"facts"`
}

type AttachResult struct {
	Evaluation types.RiskEvaluation `json:"evaluation"`
	Risk       *types.RiskItem      `json:"risk,omitempty"`
}

// AttachmentService links evidence to a profile field and opens a review
// risk when the field's rule for the app tier demands one.
type AttachmentService struct {
	evidence  ports.EvidenceStore
	profiles  ports.ProfileContextReader
	evaluator RiskRuleEvaluator
	smes      ports.SMEResolver
	risks     ports.RiskOpener
	ttl       TTLPolicy
	now       func() time.Time
}

func NewAttachmentService(evidence ports.EvidenceStore, profiles ports.ProfileContextReader, evaluator RiskRuleEvaluator, smes ports.SMEResolver, risks ports.RiskOpener, ttl TTLPolicy) *AttachmentService {
	return &AttachmentService{
		evidence:  evidence,
		profiles:  profiles,
		evaluator: evaluator,
		smes:      smes,
		risks:     risks,
		ttl:       ttl,
		now:       time.Now,
	}
}

func (s *AttachmentService) AttachEvidence(ctx context.Context, req AttachRequest) (AttachResult, error) {
	req.AppID = strings.TrimSpace(req.AppID)
	req.FieldKey = strings.TrimSpace(req.FieldKey)
	req.EvidenceID = strings.TrimSpace(req.EvidenceID)
	if req.AppID == "" || req.FieldKey == "" || req.EvidenceID == "" {
		return AttachResult{}, httperr.NewBadRequest("app_id/field_key/evidence_id required")
	}

	ev, found, err := s.evidence.FindEvidenceForClaim(ctx, req.EvidenceID)
	if err != nil {
		return AttachResult{}, fmt.Errorf("resolve evidence %s: %w", req.EvidenceID, err)
	}
	if !found {
		return AttachResult{}, httperr.NewNotFound("evidence not found")
	}
	if ev.AppID != req.AppID || ev.ProfileFieldKey != req.FieldKey {
		return AttachResult{}, httperr.NewBadRequest("evidence does not belong to app field")
	}

	tier := strings.TrimSpace(req.AppCriticality)
	if tier == "" {
		profile, err := s.profiles.ReadPolicyContext(ctx, req.AppID)
		if err != nil {
			return AttachResult{}, fmt.Errorf("read policy context: %w", err)
		}
		tier = stringOrDefault(profile, types.ProfileKeyCriticality, defaultCriticality)
	}

	eval := s.evaluator.Evaluate(RiskRuleInput{
		FieldKey:       req.FieldKey,
		AppID:          req.AppID,
		AppCriticality: tier,
		Facts:          req.Facts,
	})
	out := AttachResult{Evaluation: eval}
	if !eval.OpensRisk() {
		return out, nil
	}

	sme, err := s.smes.ResolveSME(ctx, req.AppID, req.FieldKey)
	if err != nil {
		return AttachResult{}, fmt.Errorf("resolve sme: %w", err)
	}
	assignedAt := s.now().UTC()
	dueAt, fallback := s.ttl.DueAt(assignedAt, eval.Rule.TTL)
	if fallback {
		log.Printf("field risk: ttl %q unparseable, using fallback field=%s", eval.Rule.TTL, req.FieldKey)
	}

	item, err := s.risks.OpenRisk(ctx, types.OpenRiskRequest{
		AppID:             req.AppID,
		FieldKey:          req.FieldKey,
		TriggerEvidenceID: ev.EvidenceID,
		Priority:          eval.Rule.Priority,
		TTL:               eval.Rule.TTL,
		AssignedSME:       sme,
		AssignedAt:        assignedAt,
		DueAt:             dueAt,
	})
	if err != nil {
		return AttachResult{}, fmt.Errorf("open risk: %w", err)
	}
	log.Printf("risk opened id=%s app=%s field=%s priority=%s due=%s", item.RiskID, item.AppID, item.FieldKey, item.Priority, item.DueAt.Format(time.RFC3339))
	out.Risk = &item
	return out, nil
}

// PreviewRisk runs the evaluator without opening anything.
func (s *AttachmentService) PreviewRisk(fieldKey string, appID string, tier string, facts map[string]string) types.RiskEvaluation {
	return s.evaluator.Evaluate(RiskRuleInput{FieldKey: fieldKey, AppID: appID, AppCriticality: tier, Facts: facts})
}

// StaticSMEResolver assigns reviewers from a field-keyed table with a
// default fallback.
type StaticSMEResolver struct {
	ByField map[string]string
	Default string
}

func (r StaticSMEResolver) ResolveSME(_ context.Context, _ string, fieldKey string) (string, error) {
	if sme, ok := r.ByField[strings.TrimSpace(fieldKey)]; ok && sme != "" {
		return sme, nil
	}
	return r.Default, nil
}

// ParseSMEAssignments reads "field=sme,field=sme".
func ParseSMEAssignments(raw string) (map[string]string, error) {
	out := map[string]string{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return out, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		field, sme, ok := strings.Cut(strings.TrimSpace(pair), "=")
		field = strings.TrimSpace(field)
		sme = strings.TrimSpace(sme)
		if !ok || field == "" || sme == "" {
			return nil, fmt.Errorf("sme assignments: invalid pair %q", pair)
		}
		out[field] = sme
	}
	return out, nil
}
