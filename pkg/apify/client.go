// Package apify is a client for running Apify actors and reading their
// dataset output.
package apify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.apify.com/v2"

// Run statuses reported by Apify.
const (
	StatusReady     = "READY"
	StatusRunning   = "RUNNING"
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
	StatusAborted   = "ABORTED"
	StatusTimedOut  = "TIMED-OUT"
)

// Client defines the Apify actor operations.
type Client interface {
	StartRun(ctx context.Context, actor string, input any) (*Run, error)
	GetRun(ctx context.Context, actor, runID string) (*Run, error)
	DatasetItems(ctx context.Context, actor, runID string) ([]Item, error)
}

// Run is an actor run.
type Run struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	DefaultDatasetID string `json:"defaultDatasetId"`
}

// Finished reports whether the run reached a terminal status.
func (r *Run) Finished() bool {
	switch r.Status {
	case StatusSucceeded, StatusFailed, StatusAborted, StatusTimedOut:
		return true
	}
	return false
}

// Item is one record of an actor's dataset. Shapes vary by actor.
type Item map[string]any

// String returns the first non-empty value among keys, formatted as text.
func (it Item) String(keys ...string) string {
	for _, k := range keys {
		switch v := it[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%g", v)
		}
	}
	return ""
}

// APIError is returned when Apify responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("apify: HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	token   string
	baseURL string
	http    *http.Client
}

// NewClient creates a new Apify client.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// actorPath converts "owner/name" to the "owner~name" form Apify expects in
// URL paths.
func actorPath(actor string) string {
	return url.PathEscape(strings.ReplaceAll(actor, "/", "~"))
}

func (c *httpClient) StartRun(ctx context.Context, actor string, input any) (*Run, error) {
	var env struct {
		Data Run `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/acts/"+actorPath(actor)+"/runs", input, &env); err != nil {
		return nil, eris.Wrapf(err, "apify: start %s", actor)
	}
	return &env.Data, nil
}

func (c *httpClient) GetRun(ctx context.Context, actor, runID string) (*Run, error) {
	var env struct {
		Data Run `json:"data"`
	}
	path := "/acts/" + actorPath(actor) + "/runs/" + url.PathEscape(runID)
	if err := c.do(ctx, http.MethodGet, path, nil, &env); err != nil {
		return nil, eris.Wrapf(err, "apify: get run %s", runID)
	}
	return &env.Data, nil
}

func (c *httpClient) DatasetItems(ctx context.Context, actor, runID string) ([]Item, error) {
	var items []Item
	path := "/acts/" + actorPath(actor) + "/runs/" + url.PathEscape(runID) + "/dataset/items"
	if err := c.do(ctx, http.MethodGet, path, nil, &items); err != nil {
		return nil, eris.Wrapf(err, "apify: dataset items %s", runID)
	}
	return items, nil
}

func (c *httpClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return eris.Wrap(err, "marshal request")
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response body")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrap(err, "decode response")
	}
	return nil
}
