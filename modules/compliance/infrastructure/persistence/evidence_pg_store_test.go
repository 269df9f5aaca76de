package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/domain/types"
)

const testEvidenceID = "01950f6e-3c00-7000-8000-000000000001"

func evidenceRow(id string, status string, revokedAt any) []any {
	return []any{
		id,
		"app-42",
		"",
		"encryption_at_rest",
		"document",
		"s3://bucket/enc.pdf",
		"abc",
		"",
		"alice",
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		nil,
		revokedAt,
		status,
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestEvidencePGStore_FindEvidenceForClaim(t *testing.T) {
	ctx := context.Background()

	store := NewEvidencePGStore(beginFunc(func(context.Context) (pgx.Tx, error) {
		t.Fatal("non-uuid ids must not reach the database")
		return nil, nil
	}))
	if _, found, err := store.FindEvidenceForClaim(ctx, "ev1"); err != nil || found {
		t.Fatalf("found=%v err=%v", found, err)
	}

	store = NewEvidencePGStore(beginFunc(func(context.Context) (pgx.Tx, error) {
		return nil, errors.New("begin")
	}))
	if _, _, err := store.FindEvidenceForClaim(ctx, testEvidenceID); err == nil {
		t.Fatal("expected begin error")
	}

	store = NewEvidencePGStore(beginTx(&txStub{row: stubRow{err: pgx.ErrNoRows}}))
	if _, found, err := store.FindEvidenceForClaim(ctx, testEvidenceID); err != nil || found {
		t.Fatalf("found=%v err=%v", found, err)
	}

	store = NewEvidencePGStore(beginTx(&txStub{row: stubRow{err: errors.New("row")}}))
	if _, _, err := store.FindEvidenceForClaim(ctx, testEvidenceID); err == nil {
		t.Fatal("expected row error")
	}

	store = NewEvidencePGStore(beginTx(&txStub{row: stubRow{vals: evidenceRow(testEvidenceID, "active", nil)}, commitErr: errors.New("commit")}))
	if _, _, err := store.FindEvidenceForClaim(ctx, testEvidenceID); err == nil {
		t.Fatal("expected commit error")
	}

	store = NewEvidencePGStore(beginTx(&txStub{row: stubRow{vals: evidenceRow(testEvidenceID, "active", nil)}}))
	ev, found, err := store.FindEvidenceForClaim(ctx, testEvidenceID)
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	if ev.EvidenceID != testEvidenceID || ev.Status != types.EvidenceStatusActive || ev.ValidUntil != nil {
		t.Fatalf("ev=%+v", ev)
	}
}

func TestEvidencePGStore_ListEvidenceForField(t *testing.T) {
	ctx := context.Background()

	store := NewEvidencePGStore(beginTx(&txStub{queryErr: errors.New("query")}))
	if _, err := store.ListEvidenceForField(ctx, "app-42", "encryption_at_rest"); err == nil {
		t.Fatal("expected query error")
	}

	store = NewEvidencePGStore(beginTx(&txStub{rows: &stubRows{err: errors.New("rows")}}))
	if _, err := store.ListEvidenceForField(ctx, "app-42", "encryption_at_rest"); err == nil {
		t.Fatal("expected rows error")
	}

	store = NewEvidencePGStore(beginTx(&txStub{rows: &stubRows{data: [][]any{
		evidenceRow(testEvidenceID, "active", nil),
		evidenceRow("01950f6e-3c00-7000-8000-000000000002", "superseded", nil),
	}}}))
	got, err := store.ListEvidenceForField(ctx, "app-42", "encryption_at_rest")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[1].Status != types.EvidenceStatusSuperseded {
		t.Fatalf("got=%+v", got)
	}
}

func TestEvidencePGStore_InsertEvidence(t *testing.T) {
	ctx := context.Background()
	ev := types.Evidence{
		EvidenceID:      testEvidenceID,
		AppID:           "app-42",
		ProfileFieldKey: "encryption_at_rest",
		Status:          types.EvidenceStatusActive,
	}

	store := NewEvidencePGStore(beginTx(&txStub{queryErr: errors.New("query")}))
	if _, err := store.InsertEvidence(ctx, ev); err == nil {
		t.Fatal("expected query error")
	}

	store = NewEvidencePGStore(beginTx(&txStub{execErr: errors.New("exec")}))
	if _, err := store.InsertEvidence(ctx, ev); err == nil {
		t.Fatal("expected exec error")
	}

	tx := &txStub{rows: &stubRows{data: [][]any{{"old-1"}, {"old-2"}}}}
	store = NewEvidencePGStore(beginTx(tx))
	superseded, err := store.InsertEvidence(ctx, ev)
	if err != nil {
		t.Fatal(err)
	}
	if len(superseded) != 2 || superseded[0] != "old-1" {
		t.Fatalf("superseded=%v", superseded)
	}
	if !tx.committed || len(tx.execArgs) != 1 || tx.execArgs[0][12] != "active" {
		t.Fatalf("tx=%+v", tx)
	}
}

func TestEvidencePGStore_RevokeEvidence(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	store := NewEvidencePGStore(beginTx(&txStub{}))
	if _, err := store.RevokeEvidence(ctx, "not-a-uuid", at); !errors.Is(err, types.ErrEvidenceNotFound) {
		t.Fatalf("err=%v", err)
	}

	store = NewEvidencePGStore(beginTx(&txStub{row: stubRow{err: pgx.ErrNoRows}}))
	if _, err := store.RevokeEvidence(ctx, testEvidenceID, at); !errors.Is(err, types.ErrEvidenceNotFound) {
		t.Fatalf("err=%v", err)
	}

	first := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	tx := &txStub{row: stubRow{vals: evidenceRow(testEvidenceID, "revoked", first)}}
	store = NewEvidencePGStore(beginTx(tx))
	ev, err := store.RevokeEvidence(ctx, testEvidenceID, at)
	if err != nil {
		t.Fatal(err)
	}
	if ev.RevokedAt == nil || !ev.RevokedAt.Equal(first) || len(tx.execSQL) != 0 {
		t.Fatalf("ev=%+v exec=%d", ev, len(tx.execSQL))
	}

	store = NewEvidencePGStore(beginTx(&txStub{row: stubRow{vals: evidenceRow(testEvidenceID, "active", nil)}, execErr: errors.New("exec")}))
	if _, err := store.RevokeEvidence(ctx, testEvidenceID, at); err == nil {
		t.Fatal("expected exec error")
	}

	tx = &txStub{row: stubRow{vals: evidenceRow(testEvidenceID, "active", nil)}}
	store = NewEvidencePGStore(beginTx(tx))
	ev, err = store.RevokeEvidence(ctx, testEvidenceID, at)
	if err != nil {
		t.Fatal(err)
	}
	if ev.Status != types.EvidenceStatusRevoked || ev.RevokedAt == nil || !ev.RevokedAt.Equal(at) || !tx.committed {
		t.Fatalf("ev=%+v", ev)
	}
}
