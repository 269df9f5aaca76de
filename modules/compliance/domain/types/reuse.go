package types

import "time"

// ReuseCandidate is a read-only projection of evidence that can stand in
// for a required profile field. It is computed on demand and never stored.
type ReuseCandidate struct {
	EvidenceID   string     `json:"evidence_id"`
	URI          string     `json:"uri"`
	Type         string     `json:"type"`
	SHA256       string     `json:"sha256,omitempty"`
	SourceSystem string     `json:"source_system,omitempty"`
	ValidFrom    time.Time  `json:"valid_from"`
	ValidUntil   *time.Time `json:"valid_until,omitempty"`
	Confidence   Confidence `json:"confidence"`
	Method       string     `json:"method"`
	CreatedAt    time.Time  `json:"created_at"`
}

type ReuseQuery struct {
	AppID        string
	ProfileField string
	MaxAgeDays   *int
	AsOf         time.Time
}
