package types

import (
	"errors"
	"time"
)

type EvidenceStatus string

const (
	EvidenceStatusActive     EvidenceStatus = "active"
	EvidenceStatusSuperseded EvidenceStatus = "superseded"
	EvidenceStatusRevoked    EvidenceStatus = "revoked"
)

// Evidence is an immutable record of submitted proof. Only Status and
// RevokedAt change after creation.
type Evidence struct {
	EvidenceID      string         `json:"evidence_id"`
	AppID           string         `json:"app_id"`
	ProfileFieldID  string         `json:"profile_field_id,omitempty"`
	ProfileFieldKey string         `json:"profile_field_key"`
	Type            string         `json:"type"`
	URI             string         `json:"uri"`
	SHA256          string         `json:"sha256,omitempty"`
	SourceSystem    string         `json:"source_system,omitempty"`
	SubmittedBy     string         `json:"submitted_by,omitempty"`
	ValidFrom       time.Time      `json:"valid_from"`
	ValidUntil      *time.Time     `json:"valid_until,omitempty"`
	RevokedAt       *time.Time     `json:"revoked_at,omitempty"`
	Status          EvidenceStatus `json:"status"`
	CreatedAt       time.Time      `json:"created_at"`
}

var (
	ErrEvidenceRevokedStatus = errors.New("evidence: revoked_at set but status is not revoked")
	ErrEvidenceValidityRange = errors.New("evidence: valid_from is after valid_until")
	ErrEvidenceStatusUnknown = errors.New("evidence: unknown status")
	ErrEvidenceNotFound      = errors.New("evidence: not found")
)

func (e Evidence) Validate() error {
	switch e.Status {
	case EvidenceStatusActive, EvidenceStatusSuperseded, EvidenceStatusRevoked:
	default:
		return ErrEvidenceStatusUnknown
	}
	if e.RevokedAt != nil && e.Status != EvidenceStatusRevoked {
		return ErrEvidenceRevokedStatus
	}
	if e.ValidUntil != nil && e.ValidFrom.After(*e.ValidUntil) {
		return ErrEvidenceValidityRange
	}
	return nil
}

// AgeAnchor is the instant freshness is measured from.
func (e Evidence) AgeAnchor() time.Time {
	if !e.CreatedAt.IsZero() {
		return e.CreatedAt
	}
	return e.ValidFrom
}

type NewEvidence struct {
	AppID           string     `json:"app_id"`
	ProfileFieldID  string     `json:"profile_field_id"`
	ProfileFieldKey string     `json:"profile_field_key"`
	Type            string     `json:"type"`
	URI             string     `json:"uri"`
	SHA256          string     `json:"sha256"`
	SourceSystem    string     `json:"source_system"`
	SubmittedBy     string     `json:"submitted_by"`
	ValidFrom       *time.Time `json:"valid_from"`
	ValidUntil      *time.Time `json:"valid_until"`
}
