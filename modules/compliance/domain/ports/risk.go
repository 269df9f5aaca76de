package ports

import (
	"context"

	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/domain/types"
)

// FieldRiskRegistry is loaded once at start-up and read concurrently.
type FieldRiskRegistry interface {
	GetFieldRiskConfig(fieldKey string) (types.FieldRiskConfig, bool)
}

type RiskOpener interface {
	OpenRisk(ctx context.Context, req types.OpenRiskRequest) (types.RiskItem, error)
}

type SMEResolver interface {
	ResolveSME(ctx context.Context, appID string, fieldKey string) (string, error)
}
