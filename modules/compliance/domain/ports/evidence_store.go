package ports

import (
	"context"
	"time"

	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/domain/types"
)

type EvidenceStore interface {
	// FindEvidenceForClaim reports found=false when no evidence carries the id.
	FindEvidenceForClaim(ctx context.Context, evidenceID string) (ev types.Evidence, found bool, err error)
	ListEvidenceForField(ctx context.Context, appID string, profileFieldKey string) ([]types.Evidence, error)
	// InsertEvidence stores ev and supersedes older active evidence on the same app field.
	InsertEvidence(ctx context.Context, ev types.Evidence) (superseded []string, err error)
	RevokeEvidence(ctx context.Context, evidenceID string, at time.Time) (types.Evidence, error)
}
