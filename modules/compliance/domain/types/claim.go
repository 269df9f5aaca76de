package types

import "time"

type ClaimMethod string

const (
	ClaimMethodManual   ClaimMethod = "manual"
	ClaimMethodAuto     ClaimMethod = "auto"
	ClaimMethodImported ClaimMethod = "imported"
)

type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

const ClaimStatusSubmitted = "submitted"

// Claim is one recorded adjudication. Claims are never updated; every
// adjudication appends a new one.
type Claim struct {
	ClaimID        string         `json:"claim_id"`
	AppID          string         `json:"app_id"`
	RequirementID  string         `json:"requirement_id"`
	ReleaseID      string         `json:"release_id"`
	EvidenceID     string         `json:"evidence_id"`
	Method         ClaimMethod    `json:"method"`
	Acceptable     bool           `json:"acceptable"`
	Reasons        []string       `json:"reasons"`
	Confidence     Confidence     `json:"confidence"`
	Status         string         `json:"status"`
	DecisionRecord DecisionRecord `json:"decision_record"`
	IdempotencyKey string         `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

type ClaimRequest struct {
	AppID                string    `json:"app_id"`
	RequirementID        string    `json:"requirement_id"`
	ReleaseID            string    `json:"release_id"`
	EvidenceID           string    `json:"evidence_id"`
	Method               string    `json:"method"`
	ProfileFieldExpected string    `json:"profile_field_expected"`
	TypeExpected         string    `json:"type_expected"`
	ReleaseWindowStart   time.Time `json:"release_window_start"`
	IdempotencyKey       string    `json:"idempotency_key"`
}

// DecisionRecord is the audit snapshot stored with a claim.
type DecisionRecord struct {
	EvaluatedAt   time.Time         `json:"evaluated_at"`
	ReferenceTime time.Time         `json:"reference_time"`
	Method        ClaimMethod       `json:"method"`
	Confidence    Confidence        `json:"confidence"`
	Expected      ClaimExpectations `json:"expected"`
	Checks        []CheckOutcome    `json:"checks"`
	Evidence      *EvidenceSnapshot `json:"evidence,omitempty"`
}

type ClaimExpectations struct {
	AppID        string `json:"app_id"`
	ProfileField string `json:"profile_field,omitempty"`
	Type         string `json:"type,omitempty"`
}

type CheckOutcome struct {
	Check  string `json:"check"`
	Passed bool   `json:"passed"`
	Reason string `json:"reason,omitempty"`
}

type EvidenceSnapshot struct {
	EvidenceID      string         `json:"evidence_id"`
	AppID           string         `json:"app_id"`
	ProfileFieldKey string         `json:"profile_field_key"`
	Type            string         `json:"type"`
	URI             string         `json:"uri"`
	SHA256          string         `json:"sha256,omitempty"`
	Status          EvidenceStatus `json:"status"`
	ValidFrom       time.Time      `json:"valid_from"`
	ValidUntil      *time.Time     `json:"valid_until,omitempty"`
	RevokedAt       *time.Time     `json:"revoked_at,omitempty"`
}

func SnapshotOf(e Evidence) *EvidenceSnapshot {
	return &EvidenceSnapshot{
		EvidenceID:      e.EvidenceID,
		AppID:           e.AppID,
		ProfileFieldKey: e.ProfileFieldKey,
		Type:            e.Type,
		URI:             e.URI,
		SHA256:          e.SHA256,
		Status:          e.Status,
		ValidFrom:       e.ValidFrom,
		ValidUntil:      e.ValidUntil,
		RevokedAt:       e.RevokedAt,
	}
}
