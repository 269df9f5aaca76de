package types

import (
	"strings"
	"time"
)

type RiskPriority string

const (
	RiskPriorityCritical RiskPriority = "CRITICAL"
	RiskPriorityHigh     RiskPriority = "HIGH"
	RiskPriorityMedium   RiskPriority = "MEDIUM"
	RiskPriorityLow      RiskPriority = "LOW"
)

// ParseRiskPriority falls back to LOW for blank or unknown labels.
func ParseRiskPriority(raw string) RiskPriority {
	switch p := RiskPriority(strings.ToUpper(strings.TrimSpace(raw))); p {
	case RiskPriorityCritical, RiskPriorityHigh, RiskPriorityMedium, RiskPriorityLow:
		return p
	default:
		return RiskPriorityLow
	}
}

type RiskCreationRule struct {
	Value          string       `json:"value" yaml:"value"`
	Label          string       `json:"label,omitempty" yaml:"label"`
	TTL            string       `json:"ttl,omitempty" yaml:"ttl"`
	RequiresReview bool         `json:"requires_review" yaml:"requires_review"`
	Priority       RiskPriority `json:"priority" yaml:"priority"`
	When           string       `json:"when,omitempty" yaml:"when"`
}

type RuleValueKind int

const (
	RuleValueScalar RuleValueKind = iota + 1
	RuleValueStructured
)

// RuleValue is a registry rule entry, written either as a bare scalar
// ("A1") or as a structured mapping.
type RuleValue struct {
	Kind       RuleValueKind
	Scalar     string
	Structured RiskCreationRule
}

func ScalarRule(v string) RuleValue {
	return RuleValue{Kind: RuleValueScalar, Scalar: v}
}

func StructuredRule(r RiskCreationRule) RuleValue {
	return RuleValue{Kind: RuleValueStructured, Structured: r}
}

// Rule normalizes both variants to a RiskCreationRule. A scalar never
// requires review.
func (v RuleValue) Rule() RiskCreationRule {
	if v.Kind == RuleValueScalar {
		return RiskCreationRule{Value: v.Scalar, Priority: RiskPriorityLow}
	}
	r := v.Structured
	r.Priority = ParseRiskPriority(string(r.Priority))
	return r
}

type FieldRiskConfig struct {
	FieldKey    string               `json:"field_key"`
	Label       string               `json:"label,omitempty"`
	DerivedFrom string               `json:"derived_from,omitempty"`
	Rules       map[string]RuleValue `json:"-"`
}

func NormalizeTier(tier string) string {
	return strings.ToUpper(strings.TrimSpace(tier))
}

func (c FieldRiskConfig) RuleFor(tier string) (RiskCreationRule, bool) {
	v, ok := c.Rules[NormalizeTier(tier)]
	if !ok {
		return RiskCreationRule{}, false
	}
	return v.Rule(), true
}

type RiskOutcome string

const (
	RiskRequired    RiskOutcome = "RISK_REQUIRED"
	RiskNotNeeded   RiskOutcome = "NO_RISK_NEEDED"
	RiskNoRuleFound RiskOutcome = "NO_RULE_FOUND"
)

const (
	ReasonNoConfig   = "no_config_for_field"
	ReasonNoTierRule = "no_rule_for_tier"
	ReasonNoReview   = "review_not_required"
	ReasonReview     = "review_required"
	ReasonCondition  = "condition_not_met"
)

type RiskEvaluation struct {
	Outcome     RiskOutcome       `json:"outcome"`
	FieldKey    string            `json:"field_key"`
	AppID       string            `json:"app_id"`
	Criticality string            `json:"criticality"`
	Reason      string            `json:"reason"`
	Rule        *RiskCreationRule `json:"rule,omitempty"`
}

func (e RiskEvaluation) OpensRisk() bool { return e.Outcome == RiskRequired }

const RiskStatusOpen = "open"

type RiskItem struct {
	RiskID            string       `json:"risk_id"`
	AppID             string       `json:"app_id"`
	FieldKey          string       `json:"field_key"`
	TriggerEvidenceID string       `json:"triggering_evidence_id"`
	AssignedSME       string       `json:"assigned_sme,omitempty"`
	Priority          RiskPriority `json:"priority"`
	TTL               string       `json:"ttl,omitempty"`
	AssignedAt        time.Time    `json:"assigned_at"`
	DueAt             time.Time    `json:"due_at"`
	Status            string       `json:"status"`
}

type OpenRiskRequest struct {
	AppID             string
	FieldKey          string
	TriggerEvidenceID string
	Priority          RiskPriority
	TTL               string
	AssignedSME       string
	AssignedAt        time.Time
	DueAt             time.Time
}
