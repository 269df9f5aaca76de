package ports

import (
	"context"

	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/domain/types"
)

type ClaimStore interface {
	InsertClaim(ctx context.Context, c types.Claim) error
	FindClaimByIdempotencyKey(ctx context.Context, appID string, key string) (c types.Claim, found bool, err error)
	ListClaims(ctx context.Context, appID string, requirementID string) ([]types.Claim, error)
}
