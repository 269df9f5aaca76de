package persistence

import (
	"context"
	"errors"
	"strings"
)

var errProfileKey = errors.New("profile: app_id and field_key required")

// ProfilePGStore reads the app profile as flat field/value pairs.
type ProfilePGStore struct {
	pool pgBeginner
}

func NewProfilePGStore(pool pgBeginner) *ProfilePGStore {
	return &ProfilePGStore{pool: pool}
}

func (s *ProfilePGStore) ReadPolicyContext(ctx context.Context, appID string) (map[string]any, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	rows, err := tx.Query(ctx, `
SELECT field_key, value
FROM compliance.profile_fields
WHERE app_id = $1
`, appID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]any{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ProfilePGStore) UpsertProfileField(ctx context.Context, appID string, fieldKey string, value string) error {
	appID = strings.TrimSpace(appID)
	fieldKey = strings.TrimSpace(fieldKey)
	if appID == "" || fieldKey == "" {
		return errProfileKey
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `
INSERT INTO compliance.profile_fields (app_id, field_key, value, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (app_id, field_key) DO UPDATE
SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
`, appID, fieldKey, value); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
