package persistence

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/domain/ports"
	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/domain/types"
)

type RiskPGStore struct {
	pool pgBeginner
}

func NewRiskPGStore(pool pgBeginner) ports.RiskOpener {
	return &RiskPGStore{pool: pool}
}

// OpenRisk inserts the risk unless one already exists for the same
// attachment, and returns the stored row either way.
func (s *RiskPGStore) OpenRisk(ctx context.Context, req types.OpenRiskRequest) (types.RiskItem, error) {
	riskID := RiskIDFor(req.AppID, req.FieldKey, req.TriggerEvidenceID)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return types.RiskItem{}, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `
INSERT INTO compliance.risk_items (
  risk_id,
  app_id,
  field_key,
  triggering_evidence_id,
  assigned_sme,
  priority,
  ttl,
  assigned_at,
  due_at,
  status
) VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (risk_id) DO NOTHING
`, riskID, req.AppID, req.FieldKey, req.TriggerEvidenceID, req.AssignedSME, string(req.Priority), req.TTL,
		req.AssignedAt, req.DueAt, types.RiskStatusOpen); err != nil {
		return types.RiskItem{}, err
	}

	item, err := scanRisk(tx.QueryRow(ctx, `
SELECT
  risk_id::text,
  app_id,
  field_key,
  triggering_evidence_id,
  assigned_sme,
  priority,
  ttl,
  assigned_at,
  due_at,
  status
FROM compliance.risk_items
WHERE risk_id = $1::uuid
`, riskID))
	if err != nil {
		return types.RiskItem{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return types.RiskItem{}, err
	}
	return item, nil
}

func scanRisk(row pgx.Row) (types.RiskItem, error) {
	var r types.RiskItem
	var priority string
	if err := row.Scan(
		&r.RiskID,
		&r.AppID,
		&r.FieldKey,
		&r.TriggerEvidenceID,
		&r.AssignedSME,
		&priority,
		&r.TTL,
		&r.AssignedAt,
		&r.DueAt,
		&r.Status,
	); err != nil {
		return types.RiskItem{}, err
	}
	r.Priority = types.RiskPriority(priority)
	r.AssignedAt = r.AssignedAt.UTC()
	r.DueAt = r.DueAt.UTC()
	return r, nil
}
