package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/domain/ports"
	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/domain/types"
)

const claimColumns = `
  claim_id::text,
  app_id,
  requirement_id,
  release_id,
  evidence_id,
  method,
  acceptable,
  reasons,
  confidence,
  status,
  decision,
  idempotency_key,
  created_at`

type ClaimPGStore struct {
	pool pgBeginner
}

func NewClaimPGStore(pool pgBeginner) ports.ClaimStore {
	return &ClaimPGStore{pool: pool}
}

func (s *ClaimPGStore) InsertClaim(ctx context.Context, c types.Claim) error {
	decision, err := json.Marshal(c.DecisionRecord)
	if err != nil {
		return err
	}
	reasons := c.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	var idemKey any
	if k := strings.TrimSpace(c.IdempotencyKey); k != "" {
		idemKey = k
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `
INSERT INTO compliance.claims (
  claim_id,
  app_id,
  requirement_id,
  release_id,
  evidence_id,
  method,
  acceptable,
  reasons,
  confidence,
  status,
  decision,
  idempotency_key,
  created_at
) VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8::text[], $9, $10, $11::jsonb, $12, $13)
`, c.ClaimID, c.AppID, c.RequirementID, c.ReleaseID, c.EvidenceID, string(c.Method), c.Acceptable, reasons,
		string(c.Confidence), c.Status, decision, idemKey, c.CreatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *ClaimPGStore) FindClaimByIdempotencyKey(ctx context.Context, appID string, key string) (types.Claim, bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return types.Claim{}, false, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	c, err := scanClaim(tx.QueryRow(ctx, `SELECT`+claimColumns+`
FROM compliance.claims
WHERE app_id = $1 AND idempotency_key = $2
`, appID, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return types.Claim{}, false, nil
	}
	if err != nil {
		return types.Claim{}, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return types.Claim{}, false, err
	}
	return c, true, nil
}

func (s *ClaimPGStore) ListClaims(ctx context.Context, appID string, requirementID string) ([]types.Claim, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	rows, err := tx.Query(ctx, `SELECT`+claimColumns+`
FROM compliance.claims
WHERE app_id = $1 AND ($2 = '' OR requirement_id = $2)
ORDER BY created_at, claim_id
`, appID, requirementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []types.Claim{}
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func scanClaim(row pgx.Row) (types.Claim, error) {
	var c types.Claim
	var method, confidence string
	var decision []byte
	var idemKey *string
	if err := row.Scan(
		&c.ClaimID,
		&c.AppID,
		&c.RequirementID,
		&c.ReleaseID,
		&c.EvidenceID,
		&method,
		&c.Acceptable,
		&c.Reasons,
		&confidence,
		&c.Status,
		&decision,
		&idemKey,
		&c.CreatedAt,
	); err != nil {
		return types.Claim{}, err
	}
	if err := json.Unmarshal(decision, &c.DecisionRecord); err != nil {
		return types.Claim{}, err
	}
	c.Method = types.ClaimMethod(method)
	c.Confidence = types.Confidence(confidence)
	if c.Reasons == nil {
		c.Reasons = []string{}
	}
	if idemKey != nil {
		c.IdempotencyKey = *idemKey
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return c, nil
}

func parseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(s))
}
