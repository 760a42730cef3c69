// Package client is a typed REST client for the activation-code service.
// Every operation is a single HTTP round trip with no retries and no
// caching; retry policy belongs to the caller.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

type Client struct {
	baseURL string
	httpc   *http.Client
	apiKey  string
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client (30s timeout).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// WithAPIKey sends the key as a bearer token on every request. Required for
// everything except Verify.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// New builds a client for the given base URL, e.g. "https://api.example.com/api".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create asks the service to mint a new code. The service assigns id, code,
// createdAt and expiresAt.
func (c *Client) Create(ctx context.Context, req CreateRequest) (*ActivationCode, error) {
	var code ActivationCode
	if err := c.do(ctx, http.MethodPost, "/activation-codes", req, &code); err != nil {
		return nil, err
	}
	return &code, nil
}

// Verify redeems a code. The service enforces exactly-once redemption; an
// "already used" response is authoritative (IsAlreadyUsed), an expired code
// is rejected distinctly (IsExpired).
func (c *Client) Verify(ctx context.Context, code string) (*ActivationCode, error) {
	body := struct {
		Code string `json:"code"`
	}{Code: code}
	var out ActivationCode
	if err := c.do(ctx, http.MethodPost, "/activation-codes/verify", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List fetches one page of codes. The service filters by status; pagination
// reflects a snapshot at query time, not a consistent cursor.
func (c *Client) List(ctx context.Context, page, limit int, status ListStatus) (*CodeList, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	if status != "" {
		q.Set("status", string(status))
	}
	var out CodeList
	if err := c.do(ctx, http.MethodGet, "/activation-codes?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get fetches a single code by id.
func (c *Client) Get(ctx context.Context, id string) (*ActivationCode, error) {
	var out ActivationCode
	if err := c.do(ctx, http.MethodGet, "/activation-codes/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a code permanently and returns the confirmation message.
func (c *Client) Delete(ctx context.Context, id string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodDelete, "/activation-codes/"+url.PathEscape(id), nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// Stats fetches the aggregate counters.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var out Stats
	if err := c.do(ctx, http.MethodGet, "/activation-codes/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CleanupExpired bulk-deletes codes expired for longer than daysOld days.
// Zero applies the service default (30).
func (c *Client) CleanupExpired(ctx context.Context, daysOld int) (*ExpiredCleanupResult, error) {
	body := struct {
		DaysOld int `json:"daysOld,omitempty"`
	}{DaysOld: daysOld}
	var out ExpiredCleanupResult
	if err := c.do(ctx, http.MethodPost, "/activation-codes/cleanup", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CleanupUnused bulk-deletes never-verified codes created more than
// minutesOld minutes ago. Zero applies the service default (5).
func (c *Client) CleanupUnused(ctx context.Context, minutesOld int) (*UnusedCleanupResult, error) {
	body := struct {
		MinutesOld int `json:"minutesOld,omitempty"`
	}{MinutesOld: minutesOld}
	var out UnusedCleanupResult
	if err := c.do(ctx, http.MethodPost, "/activation-codes/cleanup-unused", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PreviewUnusedCleanup lists the codes CleanupUnused would delete without
// deleting anything.
func (c *Client) PreviewUnusedCleanup(ctx context.Context, minutesOld int) (*UnusedCleanupPreview, error) {
	path := fmt.Sprintf("/activation-codes/cleanup-unused?minutesOld=%d", minutesOld)
	var out UnusedCleanupPreview
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// envelope is the shared response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return networkError(err.Error())
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return networkError("unable to parse server response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Success {
		return newAPIError(resp.StatusCode, env.Error)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return networkError("unable to parse response payload")
		}
	}
	return nil
}
