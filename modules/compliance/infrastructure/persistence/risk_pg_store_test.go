package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/domain/types"
)

func TestRiskIDFor(t *testing.T) {
	a := RiskIDFor("app-42", "encryption_at_rest", "ev1")
	if a != RiskIDFor(" app-42 ", "encryption_at_rest", "ev1") {
		t.Fatal("expected trimmed inputs to match")
	}
	if a == RiskIDFor("app-42", "encryption_at_rest", "ev2") {
		t.Fatal("expected distinct ids per evidence")
	}
	if a == RiskIDFor("app-4", "2encryption_at_rest", "ev1") {
		t.Fatal("expected separator to disambiguate")
	}
}

func TestRiskPGStore_OpenRisk(t *testing.T) {
	ctx := context.Background()
	assigned := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	req := types.OpenRiskRequest{
		AppID:             "app-42",
		FieldKey:          "confidentiality_level",
		TriggerEvidenceID: "ev1",
		Priority:          types.RiskPriorityCritical,
		TTL:               "7d",
		AssignedSME:       "sme-1",
		AssignedAt:        assigned,
		DueAt:             assigned.Add(7 * 24 * time.Hour),
	}

	store := NewRiskPGStore(beginTx(&txStub{execErr: errors.New("exec")}))
	if _, err := store.OpenRisk(ctx, req); err == nil {
		t.Fatal("expected exec error")
	}

	store = NewRiskPGStore(beginTx(&txStub{row: stubRow{err: errors.New("row")}}))
	if _, err := store.OpenRisk(ctx, req); err == nil {
		t.Fatal("expected row error")
	}

	id := RiskIDFor(req.AppID, req.FieldKey, req.TriggerEvidenceID)
	tx := &txStub{row: stubRow{vals: []any{id, "app-42", "confidentiality_level", "ev1", "sme-1", "CRITICAL", "7d", assigned, req.DueAt, "open"}}}
	store = NewRiskPGStore(beginTx(tx))
	item, err := store.OpenRisk(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if tx.execArgs[0][0] != id {
		t.Fatalf("risk_id arg=%v", tx.execArgs[0][0])
	}
	if item.RiskID != id || item.Priority != types.RiskPriorityCritical || !item.DueAt.Equal(req.DueAt) {
		t.Fatalf("item=%+v", item)
	}
}

func TestProfilePGStore(t *testing.T) {
	ctx := context.Background()

	store := NewProfilePGStore(beginTx(&txStub{rows: &stubRows{data: [][]any{{"criticality", "A"}, {"has_dependencies", "false"}}}}))
	got, err := store.ReadPolicyContext(ctx, "app-42")
	if err != nil {
		t.Fatal(err)
	}
	if got["criticality"] != "A" || got["has_dependencies"] != "false" {
		t.Fatalf("got=%v", got)
	}

	store = NewProfilePGStore(beginTx(&txStub{queryErr: errors.New("query")}))
	if _, err := store.ReadPolicyContext(ctx, "app-42"); err == nil {
		t.Fatal("expected query error")
	}

	if err := store.UpsertProfileField(ctx, " ", "criticality", "A"); err == nil {
		t.Fatal("expected key error")
	}
	tx := &txStub{}
	store = NewProfilePGStore(beginTx(tx))
	if err := store.UpsertProfileField(ctx, "app-42", "criticality", "A"); err != nil {
		t.Fatal(err)
	}
	if !tx.committed {
		t.Fatal("expected commit")
	}
}
