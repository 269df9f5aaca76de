package opa

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/domain/types"
)

type errRoundTripper struct{}

func (errRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("boom")
}

func TestNew(t *testing.T) {
	for _, base := range []string{"", "   ", "ftp://localhost:8181", "http://", "http://%zz"} {
		if _, err := New(base, "", 0); err == nil {
			t.Fatalf("base=%q expected error", base)
		}
	}
	c, err := New("http://localhost:8181/", "/a/b/", 0)
	if err != nil {
		t.Fatal(err)
	}
	if c.baseURL != "http://localhost:8181" || c.decisionPath != "a/b" {
		t.Fatalf("client=%+v", c)
	}
	if c.httpClient.Timeout != 5*time.Second {
		t.Fatalf("timeout=%s", c.httpClient.Timeout)
	}
	c, _ = New("http://localhost:8181", "", time.Second)
	if c.decisionPath != DefaultDecisionPath {
		t.Fatalf("path=%q", c.decisionPath)
	}
}

func TestClient_Evaluate_Success(t *testing.T) {
	var gotInput map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/data/compliance/requirements/decision", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method=%s", r.Method)
		}
		var body struct {
			Input map[string]any `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		gotInput = body.Input
		_ = json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{
				"policyVersion": "v9",
				"reviewMode":    "full",
				"domains":       []any{map[string]any{"key": "security", "title": "Security"}},
				"requirements": []any{map[string]any{
					"id":     "R1",
					"domain": "security",
					"allOf":  []any{map[string]any{"label": "enc", "profileField": "encryption_at_rest", "maxAgeDays": 30}},
				}},
			},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, "", time.Second)
	if err != nil {
		t.Fatal(err)
	}
	d, err := c.Evaluate(context.Background(), types.PolicyInput{AppID: "app-1", Criticality: "A", HasDependencies: true})
	if err != nil {
		t.Fatal(err)
	}
	if gotInput["appId"] != "app-1" || gotInput["criticality"] != "A" || gotInput["hasDependencies"] != true {
		t.Fatalf("input=%v", gotInput)
	}
	if d.PolicyVersion != "v9" || d.ReviewMode != "full" {
		t.Fatalf("decision=%+v", d)
	}
	if len(d.Requirements) != 1 || len(d.Requirements[0].AllOf) != 1 {
		t.Fatalf("requirements=%+v", d.Requirements)
	}
	part := d.Requirements[0].AllOf[0]
	if part.ProfileField != "encryption_at_rest" || part.MaxAgeDays == nil || *part.MaxAgeDays != 30 {
		t.Fatalf("part=%+v", part)
	}
}

func TestClient_Evaluate_Errors(t *testing.T) {
	t.Run("transport", func(t *testing.T) {
		c, _ := New("http://localhost:8181", "", time.Second)
		c.httpClient.Transport = errRoundTripper{}
		if _, err := c.Evaluate(context.Background(), types.PolicyInput{}); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("http_status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "policy broken", http.StatusInternalServerError)
		}))
		t.Cleanup(srv.Close)
		c, _ := New(srv.URL, "", time.Second)
		_, err := c.Evaluate(context.Background(), types.PolicyInput{})
		httpErr, ok := errors.AsType[*HTTPError](err)
		if !ok {
			t.Fatalf("err=%v", err)
		}
		if httpErr.StatusCode != http.StatusInternalServerError || !strings.Contains(httpErr.Error(), "policy broken") {
			t.Fatalf("err=%v", httpErr)
		}
	})

	t.Run("http_status_empty_body", func(t *testing.T) {
		e := &HTTPError{StatusCode: http.StatusBadGateway}
		if !strings.Contains(e.Error(), "Bad Gateway") {
			t.Fatalf("err=%v", e)
		}
	})

	t.Run("undefined", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		t.Cleanup(srv.Close)
		c, _ := New(srv.URL, "", time.Second)
		if _, err := c.Evaluate(context.Background(), types.PolicyInput{}); !errors.Is(err, errUndefinedDecision) {
			t.Fatalf("err=%v", err)
		}
	})

	t.Run("bad_json", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{`))
		}))
		t.Cleanup(srv.Close)
		c, _ := New(srv.URL, "", time.Second)
		if _, err := c.Evaluate(context.Background(), types.PolicyInput{}); err == nil {
			t.Fatal("expected error")
		}
	})
}
