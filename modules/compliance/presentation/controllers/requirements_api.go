package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/domain/types"
	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/services"
)

type RequirementsAssembler interface {
	Assemble(ctx context.Context, appID string, releaseID string, releaseWindowStartISO string) (types.RequirementsView, error)
}

type ReuseFinder interface {
	FindReuseCandidate(ctx context.Context, q types.ReuseQuery) (types.ReuseCandidate, bool, error)
}

type RiskPreviewer interface {
	PreviewRisk(fieldKey string, appID string, tier string, facts map[string]string) types.RiskEvaluation
}

type RequirementsController struct {
	NowUTC    func() time.Time
	Assembler RequirementsAssembler
	Reuse     ReuseFinder
	Risk      RiskPreviewer
}

func (c RequirementsController) HandleRequirementsAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	q := r.URL.Query()
	appID := strings.TrimSpace(q.Get("app_id"))
	if appID == "" {
		writeError(w, r, http.StatusBadRequest, "missing_app_id", "app_id is required")
		return
	}
	view, err := c.Assembler.Assemble(r.Context(), appID, q.Get("release_id"), q.Get("release_window_start"))
	if err != nil {
		writeServiceError(w, r, err, "assemble failed")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (c RequirementsController) HandleReuseAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	q := r.URL.Query()
	query := types.ReuseQuery{
		AppID:        strings.TrimSpace(q.Get("app_id")),
		ProfileField: strings.TrimSpace(q.Get("profile_field")),
	}
	if query.AppID == "" || query.ProfileField == "" {
		writeError(w, r, http.StatusBadRequest, "missing_params", "app_id and profile_field are required")
		return
	}
	if raw := strings.TrimSpace(q.Get("max_age_days")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, r, http.StatusBadRequest, "invalid_max_age_days", "invalid max_age_days")
			return
		}
		query.MaxAgeDays = &n
	}
	if raw := strings.TrimSpace(q.Get("as_of")); raw != "" {
		t, ok := services.ParseWindowStart(raw)
		if !ok {
			writeError(w, r, http.StatusBadRequest, "invalid_as_of", "invalid as_of")
			return
		}
		query.AsOf = t
	} else {
		now := time.Now
		if c.NowUTC != nil {
			now = c.NowUTC
		}
		query.AsOf = now().UTC()
	}

	candidate, found, err := c.Reuse.FindReuseCandidate(r.Context(), query)
	if err != nil {
		writeServiceError(w, r, err, "reuse lookup failed")
		return
	}
	var out *types.ReuseCandidate
	if found {
		out = &candidate
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"app_id":          query.AppID,
		"profile_field":   query.ProfileField,
		"as_of":           query.AsOf,
		"reuse_candidate": out,
	})
}

// HandleFieldRiskAPI previews the risk rule for a field without opening
// anything. Facts are passed as repeated fact=key=value parameters.
func (c RequirementsController) HandleFieldRiskAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	q := r.URL.Query()
	fieldKey := strings.TrimSpace(q.Get("field_key"))
	tier := strings.TrimSpace(q.Get("criticality"))
	if fieldKey == "" || tier == "" {
		writeError(w, r, http.StatusBadRequest, "missing_params", "field_key and criticality are required")
		return
	}
	facts := map[string]string{}
	for _, raw := range q["fact"] {
		k, v, ok := strings.Cut(raw, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			writeError(w, r, http.StatusBadRequest, "invalid_fact", "fact must be key=value")
			return
		}
		facts[k] = strings.TrimSpace(v)
	}
	writeJSON(w, http.StatusOK, c.Risk.PreviewRisk(fieldKey, q.Get("app_id"), tier, facts))
}
