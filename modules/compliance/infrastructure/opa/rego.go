package opa

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/open-policy-agent/opa/v1/rego"

	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/domain/types"
)

// RegoEvaluator evaluates the decision document in-process. The query is
// prepared once and reused across requests.
type RegoEvaluator struct {
	query rego.PreparedEvalQuery
}

func NewRegoEvaluatorFromDir(ctx context.Context, decisionPath string, dir string) (*RegoEvaluator, error) {
	return newRegoEvaluator(ctx, decisionPath, rego.Load([]string{dir}, nil))
}

// NewRegoEvaluatorFromModules compiles rego sources keyed by file name.
func NewRegoEvaluatorFromModules(ctx context.Context, decisionPath string, modules map[string]string) (*RegoEvaluator, error) {
	opts := make([]func(*rego.Rego), 0, len(modules))
	for name, src := range modules {
		opts = append(opts, rego.Module(name, src))
	}
	return newRegoEvaluator(ctx, decisionPath, opts...)
}

func newRegoEvaluator(ctx context.Context, decisionPath string, opts ...func(*rego.Rego)) (*RegoEvaluator, error) {
	query := "data." + strings.ReplaceAll(normalizePath(decisionPath), "/", ".")
	opts = append(opts, rego.Query(query))
	pq, err := rego.New(opts...).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("opa: prepare %s: %w", query, err)
	}
	return &RegoEvaluator{query: pq}, nil
}

func (e *RegoEvaluator) Evaluate(ctx context.Context, input types.PolicyInput) (types.PolicyDecision, error) {
	doc, err := toDocument(input)
	if err != nil {
		return types.PolicyDecision{}, err
	}
	rs, err := e.query.Eval(ctx, rego.EvalInput(doc))
	if err != nil {
		return types.PolicyDecision{}, fmt.Errorf("opa: eval: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return types.PolicyDecision{}, errUndefinedDecision
	}

	b, err := json.Marshal(rs[0].Expressions[0].Value)
	if err != nil {
		return types.PolicyDecision{}, err
	}
	var out types.PolicyDecision
	if err := json.Unmarshal(b, &out); err != nil {
		return types.PolicyDecision{}, fmt.Errorf("opa: decode decision: %w", err)
	}
	return out, nil
}

func toDocument(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
