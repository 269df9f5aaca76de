package ports

import (
	"context"

	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/domain/types"
)

// PolicyDecisionService is the external rule engine. Its rule language is
// opaque to this service.
type PolicyDecisionService interface {
	Evaluate(ctx context.Context, input types.PolicyInput) (types.PolicyDecision, error)
}

type ProfileContextReader interface {
	ReadPolicyContext(ctx context.Context, appID string) (map[string]any, error)
}
