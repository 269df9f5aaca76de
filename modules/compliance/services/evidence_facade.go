package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/domain/ports"
	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/domain/types"
	"github.com/jacksonlee411/governance-adjudicator/pkg/httperr"
	"github.com/jacksonlee411/governance-adjudicator/pkg/uuidv7"
)

type EvidenceFacade struct {
	store ports.EvidenceStore
	now   func() time.Time
	newID func(time.Time) (string, error)
}

func NewEvidenceFacade(store ports.EvidenceStore) EvidenceFacade {
	return EvidenceFacade{store: store, now: time.Now, newID: uuidv7.NewStringAt}
}

// SubmitEvidence records new proof for an app field. Earlier active
// evidence on the same field is superseded, never deleted.
func (f EvidenceFacade) SubmitEvidence(ctx context.Context, in types.NewEvidence) (types.Evidence, error) {
	in.AppID = strings.TrimSpace(in.AppID)
	in.ProfileFieldKey = strings.TrimSpace(in.ProfileFieldKey)
	in.Type = strings.TrimSpace(in.Type)
	in.URI = strings.TrimSpace(in.URI)
	if in.AppID == "" || in.ProfileFieldKey == "" || in.Type == "" || in.URI == "" {
		return types.Evidence{}, httperr.NewBadRequest("app_id/profile_field_key/type/uri required")
	}

	now := f.now().UTC()
	validFrom := now
	if in.ValidFrom != nil && !in.ValidFrom.IsZero() {
		validFrom = in.ValidFrom.UTC()
	}
	var validUntil *time.Time
	if in.ValidUntil != nil && !in.ValidUntil.IsZero() {
		u := in.ValidUntil.UTC()
		validUntil = &u
	}

	id, err := f.newID(now)
	if err != nil {
		return types.Evidence{}, err
	}
	ev := types.Evidence{
		EvidenceID:      id,
		AppID:           in.AppID,
		ProfileFieldID:  strings.TrimSpace(in.ProfileFieldID),
		ProfileFieldKey: in.ProfileFieldKey,
		Type:            in.Type,
		URI:             in.URI,
		SHA256:          strings.ToLower(strings.TrimSpace(in.SHA256)),
		SourceSystem:    strings.TrimSpace(in.SourceSystem),
		SubmittedBy:     strings.TrimSpace(in.SubmittedBy),
		ValidFrom:       validFrom,
		ValidUntil:      validUntil,
		Status:          types.EvidenceStatusActive,
		CreatedAt:       now,
	}
	if err := ev.Validate(); err != nil {
		return types.Evidence{}, httperr.NewBadRequest(err.Error())
	}

	superseded, err := f.store.InsertEvidence(ctx, ev)
	if err != nil {
		return types.Evidence{}, fmt.Errorf("insert evidence: %w", err)
	}
	if len(superseded) > 0 {
		log.Printf("evidence %s superseded %d record(s) app=%s field=%s", ev.EvidenceID, len(superseded), ev.AppID, ev.ProfileFieldKey)
	}
	return ev, nil
}

func (f EvidenceFacade) RevokeEvidence(ctx context.Context, evidenceID string, at time.Time) (types.Evidence, error) {
	evidenceID = strings.TrimSpace(evidenceID)
	if evidenceID == "" {
		return types.Evidence{}, httperr.NewBadRequest("evidence_id required")
	}
	if at.IsZero() {
		at = f.now()
	}
	ev, err := f.store.RevokeEvidence(ctx, evidenceID, at.UTC())
	if errors.Is(err, types.ErrEvidenceNotFound) {
		return types.Evidence{}, httperr.NewNotFound("evidence not found")
	}
	if err != nil {
		return types.Evidence{}, err
	}
	return ev, nil
}

func (f EvidenceFacade) GetEvidence(ctx context.Context, evidenceID string) (types.Evidence, error) {
	evidenceID = strings.TrimSpace(evidenceID)
	if evidenceID == "" {
		return types.Evidence{}, httperr.NewBadRequest("evidence_id required")
	}
	ev, found, err := f.store.FindEvidenceForClaim(ctx, evidenceID)
	if err != nil {
		return types.Evidence{}, err
	}
	if !found {
		return types.Evidence{}, httperr.NewNotFound("evidence not found")
	}
	return ev, nil
}
