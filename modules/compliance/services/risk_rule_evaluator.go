package services

import (
	"log"
	"strings"

	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/domain/ports"
	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/domain/types"
)

// RuleCondition evaluates the optional `when` guard of a rule against app
// facts. Implementations must be safe for concurrent use.
type RuleCondition interface {
	Eval(expr string, facts map[string]string) (bool, error)
}

type RiskRuleEvaluator struct {
	registry   ports.FieldRiskRegistry
	conditions RuleCondition
}

func NewRiskRuleEvaluator(registry ports.FieldRiskRegistry, conditions RuleCondition) RiskRuleEvaluator {
	return RiskRuleEvaluator{registry: registry, conditions: conditions}
}

type RiskRuleInput struct {
	FieldKey       string
	AppID          string
	AppCriticality string
	Facts          map[string]string
}

// Evaluate decides whether linking evidence to a field must open a risk
// item. Registry gaps are reported as NO_RULE_FOUND, never as errors.
func (e RiskRuleEvaluator) Evaluate(in RiskRuleInput) types.RiskEvaluation {
	fieldKey := strings.TrimSpace(in.FieldKey)
	tier := types.NormalizeTier(in.AppCriticality)
	out := types.RiskEvaluation{
		FieldKey:    fieldKey,
		AppID:       strings.TrimSpace(in.AppID),
		Criticality: tier,
	}

	cfg, ok := e.registry.GetFieldRiskConfig(fieldKey)
	if !ok {
		out.Outcome = types.RiskNoRuleFound
		out.Reason = types.ReasonNoConfig
		log.Printf("field risk: no config field=%s app=%s", fieldKey, out.AppID)
		return out
	}
	rule, ok := cfg.RuleFor(tier)
	if !ok {
		out.Outcome = types.RiskNoRuleFound
		out.Reason = types.ReasonNoTierRule
		log.Printf("field risk: no rule field=%s tier=%s app=%s", fieldKey, tier, out.AppID)
		return out
	}
	out.Rule = &rule

	if !e.conditionMet(rule, fieldKey, in) {
		out.Outcome = types.RiskNotNeeded
		out.Reason = types.ReasonCondition
		return out
	}
	if rule.RequiresReview {
		out.Outcome = types.RiskRequired
		out.Reason = types.ReasonReview
		return out
	}
	out.Outcome = types.RiskNotNeeded
	out.Reason = types.ReasonNoReview
	return out
}

// A guard that cannot be evaluated counts as met, so the rule still applies.
func (e RiskRuleEvaluator) conditionMet(rule types.RiskCreationRule, fieldKey string, in RiskRuleInput) bool {
	expr := strings.TrimSpace(rule.When)
	if expr == "" || e.conditions == nil {
		return true
	}
	facts := make(map[string]string, len(in.Facts)+3)
	for k, v := range in.Facts {
		facts[k] = v
	}
	facts["app_id"] = strings.TrimSpace(in.AppID)
	facts["field_key"] = fieldKey
	facts["criticality"] = types.NormalizeTier(in.AppCriticality)

	met, err := e.conditions.Eval(expr, facts)
	if err != nil {
		log.Printf("field risk: condition error field=%s expr=%q err=%v", fieldKey, expr, err)
		return true
	}
	return met
}
