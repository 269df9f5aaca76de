package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/domain/types"
	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/services"
)

type EvidenceService interface {
	SubmitEvidence(ctx context.Context, in types.NewEvidence) (types.Evidence, error)
	RevokeEvidence(ctx context.Context, evidenceID string, at time.Time) (types.Evidence, error)
	GetEvidence(ctx context.Context, evidenceID string) (types.Evidence, error)
}

type EvidenceAttacher interface {
	AttachEvidence(ctx context.Context, req services.AttachRequest) (services.AttachResult, error)
}

type EvidenceController struct {
	Evidence EvidenceService
	Attacher EvidenceAttacher
}

type evidenceRevokeAPIRequest struct {
	EvidenceID string     `json:"evidence_id"`
	RevokedAt  *time.Time `json:"revoked_at"`
}

func (c EvidenceController) HandleEvidenceAPI(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		evidenceID := strings.TrimSpace(r.URL.Query().Get("evidence_id"))
		if evidenceID == "" {
			writeError(w, r, http.StatusBadRequest, "missing_evidence_id", "evidence_id is required")
			return
		}
		ev, err := c.Evidence.GetEvidence(r.Context(), evidenceID)
		if err != nil {
			writeServiceError(w, r, err, "get failed")
			return
		}
		writeJSON(w, http.StatusOK, ev)
		return

	case http.MethodPost:
		var in types.NewEvidence
		if err := decodeBody(r, &in); err != nil {
			writeError(w, r, http.StatusBadRequest, "bad_json", "bad json")
			return
		}
		ev, err := c.Evidence.SubmitEvidence(r.Context(), in)
		if err != nil {
			writeServiceError(w, r, err, "submit failed")
			return
		}
		writeJSON(w, http.StatusCreated, ev)
		return

	default:
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
}

func (c EvidenceController) HandleEvidenceRevokeAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	var req evidenceRevokeAPIRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_json", "bad json")
		return
	}
	var at time.Time
	if req.RevokedAt != nil {
		at = *req.RevokedAt
	}
	ev, err := c.Evidence.RevokeEvidence(r.Context(), req.EvidenceID, at)
	if err != nil {
		writeServiceError(w, r, err, "revoke failed")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (c EvidenceController) HandleEvidenceAttachAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	var req services.AttachRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_json", "bad json")
		return
	}
	out, err := c.Attacher.AttachEvidence(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, "attach failed")
		return
	}
	status := http.StatusOK
	if out.Risk != nil {
		status = http.StatusCreated
	}
	writeJSON(w, status, out)
}
