package opa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jacksonlee411/governance-adjudicator/modules/compliance/domain/types"
)

const DefaultDecisionPath = "compliance/requirements/decision"

// Client queries a remote OPA server through its Data API.
type Client struct {
	baseURL      string
	decisionPath string
	httpClient   *http.Client
}

type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("opa: http %d: %s", e.StatusCode, msg)
}

var errUndefinedDecision = errors.New("opa: decision undefined")

func New(baseURL string, decisionPath string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("opa: missing base url")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.New("opa: invalid base url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.New("opa: invalid base url scheme")
	}
	if u.Host == "" {
		return nil, errors.New("opa: invalid base url host")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:      baseURL,
		decisionPath: normalizePath(decisionPath),
		httpClient:   &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) Evaluate(ctx context.Context, input types.PolicyInput) (types.PolicyDecision, error) {
	body, err := json.Marshal(map[string]any{"input": input})
	if err != nil {
		return types.PolicyDecision{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/data/"+c.decisionPath, bytes.NewReader(body))
	if err != nil {
		return types.PolicyDecision{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return types.PolicyDecision{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return types.PolicyDecision{}, readHTTPError(resp)
	}

	var out struct {
		Result *types.PolicyDecision `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return types.PolicyDecision{}, err
	}
	if out.Result == nil {
		return types.PolicyDecision{}, errUndefinedDecision
	}
	return *out.Result, nil
}

func normalizePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return DefaultDecisionPath
	}
	return p
}

func readHTTPError(resp *http.Response) error {
	const maxBody = 4096
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	return &HTTPError{
		StatusCode: resp.StatusCode,
		Message:    string(b),
	}
}
