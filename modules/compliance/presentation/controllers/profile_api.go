package controllers

import (
	"context"
	"net/http"
	"sort"
	"strings"
)

type ProfileStore interface {
	ReadPolicyContext(ctx context.Context, appID string) (map[string]any, error)
	UpsertProfileField(ctx context.Context, appID string, fieldKey string, value string) error
}

// ProfileController exposes the app profile attributes the requirements
// policy is evaluated against.
type ProfileController struct {
	Store ProfileStore
}

type profileAPIRequest struct {
	AppID  string            `json:"app_id"`
	Fields map[string]string `json:"fields"`
}

func (c ProfileController) HandleProfileAPI(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		appID := strings.TrimSpace(r.URL.Query().Get("app_id"))
		if appID == "" {
			writeError(w, r, http.StatusBadRequest, "missing_app_id", "app_id is required")
			return
		}
		c.writeProfile(w, r, appID)
		return

	case http.MethodPost:
		var req profileAPIRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, "bad_json", "bad json")
			return
		}
		appID := strings.TrimSpace(req.AppID)
		if appID == "" {
			writeError(w, r, http.StatusBadRequest, "missing_app_id", "app_id is required")
			return
		}
		if len(req.Fields) == 0 {
			writeError(w, r, http.StatusBadRequest, "missing_fields", "fields is required")
			return
		}
		keys := make([]string, 0, len(req.Fields))
		for k := range req.Fields {
			if strings.TrimSpace(k) == "" {
				writeError(w, r, http.StatusBadRequest, "invalid_field_key", "field keys must not be blank")
				return
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := c.Store.UpsertProfileField(r.Context(), appID, k, strings.TrimSpace(req.Fields[k])); err != nil {
				writeServiceError(w, r, err, "profile update failed")
				return
			}
		}
		c.writeProfile(w, r, appID)
		return

	default:
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
}

func (c ProfileController) writeProfile(w http.ResponseWriter, r *http.Request, appID string) {
	fields, err := c.Store.ReadPolicyContext(r.Context(), appID)
	if err != nil {
		writeServiceError(w, r, err, "profile read failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"app_id": appID,
		"fields": fields,
	})
}
