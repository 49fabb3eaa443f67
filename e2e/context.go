package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	defaultBaseURL = "http://localhost:8080"
	requestTimeout = 10 * time.Second
)

// TestContext carries HTTP state across the steps of one scenario.
type TestContext struct {
	BaseURL string
	Token   string

	client      *http.Client
	lastStatus  int
	lastBody    []byte
	lastDecoded map[string]any
	remembered  map[string]string
}

// NewTestContext reads CLINIC_BASE_URL and CLINIC_TOKEN. An empty token
// targets a server started with AUTH_DISABLED.
func NewTestContext() *TestContext {
	base := os.Getenv("CLINIC_BASE_URL")
	if base == "" {
		base = defaultBaseURL
	}
	return &TestContext{
		BaseURL:    strings.TrimRight(base, "/"),
		Token:      os.Getenv("CLINIC_TOKEN"),
		client:     &http.Client{Timeout: requestTimeout},
		remembered: map[string]string{},
	}
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.lastDecoded = nil
	tc.remembered = map[string]string{}
}

func (tc *TestContext) GET(path string) error {
	return tc.do(http.MethodGet, path, nil)
}

func (tc *TestContext) POST(path string, body any) error {
	return tc.do(http.MethodPost, path, body)
}

func (tc *TestContext) PUT(path string, body any) error {
	return tc.do(http.MethodPut, path, body)
}

func (tc *TestContext) DELETE(path string) error {
	return tc.do(http.MethodDelete, path, nil)
}

func (tc *TestContext) do(method, path string, body any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, tc.BaseURL+tc.Expand(path), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tc.Token != "" {
		req.Header.Set("Authorization", "Bearer "+tc.Token)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	tc.lastDecoded = nil
	if len(tc.lastBody) > 0 {
		var decoded map[string]any
		if json.Unmarshal(tc.lastBody, &decoded) == nil {
			tc.lastDecoded = decoded
		}
	}
	return nil
}

func (tc *TestContext) GetLastStatusCode() int {
	return tc.lastStatus
}

func (tc *TestContext) GetLastResponseBody() []byte {
	return tc.lastBody
}

// GetResponseField returns a top-level field of the last JSON object response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	if tc.lastDecoded == nil {
		return nil, fmt.Errorf("last response is not a JSON object: %s", tc.lastBody)
	}
	v, ok := tc.lastDecoded[field]
	if !ok {
		return nil, fmt.Errorf("field %q not in response: %s", field, tc.lastBody)
	}
	return v, nil
}

// Remember stores a value that later paths can reference as {name}.
func (tc *TestContext) Remember(name, value string) {
	tc.remembered[name] = value
}

func (tc *TestContext) Recall(name string) (string, bool) {
	v, ok := tc.remembered[name]
	return v, ok
}

// Expand replaces {name} placeholders with remembered values.
func (tc *TestContext) Expand(s string) string {
	for k, v := range tc.remembered {
		s = strings.ReplaceAll(s, "{"+k+"}", v)
	}
	return s
}
