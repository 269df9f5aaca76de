package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type profileStoreStub struct {
	fields   map[string]string
	upserted []string
	readErr  error
	writeErr error
}

func (s *profileStoreStub) ReadPolicyContext(context.Context, string) (map[string]any, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	out := map[string]any{}
	for k, v := range s.fields {
		out[k] = v
	}
	return out, nil
}

func (s *profileStoreStub) UpsertProfileField(_ context.Context, _ string, key string, value string) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	if s.fields == nil {
		s.fields = map[string]string{}
	}
	s.fields[key] = value
	s.upserted = append(s.upserted, key)
	return nil
}

func TestProfileController(t *testing.T) {
	store := &profileStoreStub{}
	c := ProfileController{Store: store}

	rec := httptest.NewRecorder()
	c.HandleProfileAPI(rec, httptest.NewRequest(http.MethodPost, "/compliance/api/profile", strings.NewReader(`{"app_id":"app-42","fields":{"security":" A1 ","criticality":"A"}}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if len(store.upserted) != 2 || store.upserted[0] != "criticality" || store.fields["security"] != "A1" {
		t.Fatalf("store=%+v", store)
	}
	if !strings.Contains(rec.Body.String(), `"security":"A1"`) {
		t.Fatalf("body=%s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	c.HandleProfileAPI(rec, httptest.NewRequest(http.MethodGet, "/compliance/api/profile?app_id=app-42", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"criticality":"A"`) {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestProfileController_Errors(t *testing.T) {
	cases := []struct {
		name   string
		store  *profileStoreStub
		method string
		url    string
		body   string
		status int
	}{
		{name: "get missing app", store: &profileStoreStub{}, method: http.MethodGet, url: "/compliance/api/profile", status: http.StatusBadRequest},
		{name: "bad json", store: &profileStoreStub{}, method: http.MethodPost, url: "/compliance/api/profile", body: `{`, status: http.StatusBadRequest},
		{name: "unknown field", store: &profileStoreStub{}, method: http.MethodPost, url: "/compliance/api/profile", body: `{"app_id":"a","extra":1}`, status: http.StatusBadRequest},
		{name: "post missing app", store: &profileStoreStub{}, method: http.MethodPost, url: "/compliance/api/profile", body: `{"fields":{"a":"b"}}`, status: http.StatusBadRequest},
		{name: "no fields", store: &profileStoreStub{}, method: http.MethodPost, url: "/compliance/api/profile", body: `{"app_id":"a"}`, status: http.StatusBadRequest},
		{name: "blank key", store: &profileStoreStub{}, method: http.MethodPost, url: "/compliance/api/profile", body: `{"app_id":"a","fields":{" ":"b"}}`, status: http.StatusBadRequest},
		{name: "write error", store: &profileStoreStub{writeErr: errors.New("boom")}, method: http.MethodPost, url: "/compliance/api/profile", body: `{"app_id":"a","fields":{"k":"v"}}`, status: http.StatusInternalServerError},
		{name: "read error", store: &profileStoreStub{readErr: errors.New("boom")}, method: http.MethodGet, url: "/compliance/api/profile?app_id=a", status: http.StatusInternalServerError},
		{name: "method", store: &profileStoreStub{}, method: http.MethodDelete, url: "/compliance/api/profile", status: http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			ProfileController{Store: tc.store}.HandleProfileAPI(rec, httptest.NewRequest(tc.method, tc.url, strings.NewReader(tc.body)))
			if rec.Code != tc.status {
				t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
			}
		})
	}
}
