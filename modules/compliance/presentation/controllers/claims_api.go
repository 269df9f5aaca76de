package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/domain/types"
	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/services"
)

type ClaimAdjudicator interface {
	Adjudicate(ctx context.Context, req types.ClaimRequest) (types.Claim, error)
	ListClaims(ctx context.Context, appID string, requirementID string) ([]types.Claim, error)
}

type ClaimsController struct {
	Adjudicator ClaimAdjudicator
}

type claimsAPIRequest struct {
	AppID                string `json:"app_id"`
	RequirementID        string `json:"requirement_id"`
	ReleaseID            string `json:"release_id"`
	EvidenceID           string `json:"evidence_id"`
	Method               string `json:"method"`
	ProfileFieldExpected string `json:"profile_field_expected"`
	TypeExpected         string `json:"type_expected"`
	ReleaseWindowStart   string `json:"release_window_start"`
	IdempotencyKey       string `json:"idempotency_key"`
}

func (c ClaimsController) HandleClaimsAPI(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		appID := strings.TrimSpace(r.URL.Query().Get("app_id"))
		if appID == "" {
			writeError(w, r, http.StatusBadRequest, "missing_app_id", "app_id is required")
			return
		}
		claims, err := c.Adjudicator.ListClaims(r.Context(), appID, r.URL.Query().Get("requirement_id"))
		if err != nil {
			writeServiceError(w, r, err, "list failed")
			return
		}
		if claims == nil {
			claims = make([]types.Claim, 0)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"app_id": appID,
			"claims": claims,
		})
		return

	case http.MethodPost:
		var req claimsAPIRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, "bad_json", "bad json")
			return
		}
		var window time.Time
		if raw := strings.TrimSpace(req.ReleaseWindowStart); raw != "" {
			t, ok := services.ParseWindowStart(raw)
			if !ok {
				writeError(w, r, http.StatusBadRequest, "invalid_release_window_start", "invalid release_window_start")
				return
			}
			window = t
		}

		claim, err := c.Adjudicator.Adjudicate(r.Context(), types.ClaimRequest{
			AppID:                req.AppID,
			RequirementID:        req.RequirementID,
			ReleaseID:            req.ReleaseID,
			EvidenceID:           req.EvidenceID,
			Method:               req.Method,
			ProfileFieldExpected: req.ProfileFieldExpected,
			TypeExpected:         req.TypeExpected,
			ReleaseWindowStart:   window,
			IdempotencyKey:       req.IdempotencyKey,
		})
		if err != nil {
			writeServiceError(w, r, err, "adjudicate failed")
			return
		}
		writeJSON(w, http.StatusCreated, claim)
		return

	default:
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
}
