package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/domain/ports"
	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/domain/types"
)

type pgBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

const evidenceColumns = `
  evidence_id::text,
  app_id,
  profile_field_id,
  profile_field_key,
  evidence_type,
  uri,
  sha256,
  source_system,
  submitted_by,
  valid_from,
  valid_until,
  revoked_at,
  status,
  created_at`

type EvidencePGStore struct {
	pool pgBeginner
}

func NewEvidencePGStore(pool pgBeginner) ports.EvidenceStore {
	return &EvidencePGStore{pool: pool}
}

func (s *EvidencePGStore) FindEvidenceForClaim(ctx context.Context, evidenceID string) (types.Evidence, bool, error) {
	if _, err := parseUUID(evidenceID); err != nil {
		return types.Evidence{}, false, nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return types.Evidence{}, false, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	ev, err := scanEvidence(tx.QueryRow(ctx, `SELECT`+evidenceColumns+`
FROM compliance.evidence
WHERE evidence_id = $1::uuid
`, evidenceID))
	if errors.Is(err, pgx.ErrNoRows) {
		return types.Evidence{}, false, nil
	}
	if err != nil {
		return types.Evidence{}, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return types.Evidence{}, false, err
	}
	return ev, true, nil
}

func (s *EvidencePGStore) ListEvidenceForField(ctx context.Context, appID string, profileFieldKey string) ([]types.Evidence, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	rows, err := tx.Query(ctx, `SELECT`+evidenceColumns+`
FROM compliance.evidence
WHERE app_id = $1 AND profile_field_key = $2
ORDER BY created_at DESC, evidence_id DESC
`, appID, profileFieldKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []types.Evidence{}
	for rows.Next() {
		ev, err := scanEvidence(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *EvidencePGStore) InsertEvidence(ctx context.Context, ev types.Evidence) ([]string, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	rows, err := tx.Query(ctx, `
UPDATE compliance.evidence
SET status = 'superseded'
WHERE app_id = $1 AND profile_field_key = $2 AND status = 'active'
RETURNING evidence_id::text
`, ev.AppID, ev.ProfileFieldKey)
	if err != nil {
		return nil, err
	}
	superseded, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO compliance.evidence (
  evidence_id,
  app_id,
  profile_field_id,
  profile_field_key,
  evidence_type,
  uri,
  sha256,
  source_system,
  submitted_by,
  valid_from,
  valid_until,
  revoked_at,
  status,
  created_at
) VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
`, ev.EvidenceID, ev.AppID, ev.ProfileFieldID, ev.ProfileFieldKey, ev.Type, ev.URI, ev.SHA256, ev.SourceSystem, ev.SubmittedBy,
		ev.ValidFrom, ev.ValidUntil, ev.RevokedAt, string(ev.Status), ev.CreatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return superseded, nil
}

// RevokeEvidence is idempotent: a second revoke returns the row unchanged
// with its original revocation time.
func (s *EvidencePGStore) RevokeEvidence(ctx context.Context, evidenceID string, at time.Time) (types.Evidence, error) {
	if _, err := parseUUID(evidenceID); err != nil {
		return types.Evidence{}, types.ErrEvidenceNotFound
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return types.Evidence{}, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	ev, err := scanEvidence(tx.QueryRow(ctx, `SELECT`+evidenceColumns+`
FROM compliance.evidence
WHERE evidence_id = $1::uuid
FOR UPDATE
`, evidenceID))
	if errors.Is(err, pgx.ErrNoRows) {
		return types.Evidence{}, types.ErrEvidenceNotFound
	}
	if err != nil {
		return types.Evidence{}, err
	}
	if ev.Status == types.EvidenceStatusRevoked {
		return ev, nil
	}

	if _, err := tx.Exec(ctx, `
UPDATE compliance.evidence
SET status = 'revoked', revoked_at = $2
WHERE evidence_id = $1::uuid
`, evidenceID, at); err != nil {
		return types.Evidence{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return types.Evidence{}, err
	}
	revokedAt := at
	ev.Status = types.EvidenceStatusRevoked
	ev.RevokedAt = &revokedAt
	return ev, nil
}

func scanEvidence(row pgx.Row) (types.Evidence, error) {
	var ev types.Evidence
	var status string
	if err := row.Scan(
		&ev.EvidenceID,
		&ev.AppID,
		&ev.ProfileFieldID,
		&ev.ProfileFieldKey,
		&ev.Type,
		&ev.URI,
		&ev.SHA256,
		&ev.SourceSystem,
		&ev.SubmittedBy,
		&ev.ValidFrom,
		&ev.ValidUntil,
		&ev.RevokedAt,
		&status,
		&ev.CreatedAt,
	); err != nil {
		return types.Evidence{}, err
	}
	ev.Status = types.EvidenceStatus(status)
	ev.ValidFrom = ev.ValidFrom.UTC()
	ev.CreatedAt = ev.CreatedAt.UTC()
	ev.ValidUntil = utcPtr(ev.ValidUntil)
	ev.RevokedAt = utcPtr(ev.RevokedAt)
	return ev, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
