// Package syncclient is a Go client for the tasksync HTTP API. It is used
// by the monitor dashboard and is importable by any Go program that wants
// to sync against a tasksyncd server.
package syncclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Sentinel errors for common HTTP error classes.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrRateLimited  = errors.New("rate limited")
)

// Client is an HTTP client for the tasksync server.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// New creates a new sync client. token may be empty for a client that only
// calls the public endpoints (health, register, login).
func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// --- Wire types (mirrors internal/api, independently defined) ---

// Task is a task record on the wire.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Notes       *string    `json:"notes"`
	DueDate     *time.Time `json:"due_date"`
	Priority    *string    `json:"priority"`
	CompletedAt *time.Time `json:"completed_at"`
	IsDeleted   bool       `json:"is_deleted"`
	Version     int64      `json:"version"`
}

// TokenResponse is returned by the auth endpoints.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	Tier        string `json:"tier"`
}

// PushRequest is the body for POST /v1/sync/push.
type PushRequest struct {
	Tasks      []Task     `json:"tasks"`
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
}

// PushResponse is the response from a push request.
type PushResponse struct {
	Success    bool      `json:"success"`
	Conflicts  []string  `json:"conflicts"`
	ServerTime time.Time `json:"server_time"`
}

// PullResponse is the response from a pull request.
type PullResponse struct {
	Tasks      []Task    `json:"tasks"`
	ServerTime time.Time `json:"server_time"`
}

// StatusResponse is the response from GET /v1/sync/status.
type StatusResponse struct {
	UserID         string     `json:"user_id"`
	TotalTasks     int64      `json:"total_tasks"`
	LastModifiedAt *time.Time `json:"last_modified_at"`
	ServerTime     time.Time  `json:"server_time"`
}

// HealthResponse is the response from GET /healthz.
type HealthResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}

// MetricsResponse is the response from GET /metricz.
type MetricsResponse struct {
	UptimeSeconds float64 `json:"uptime_seconds"`
	Requests      int64   `json:"requests"`
	ServerErrors  int64   `json:"server_errors"`
	ClientErrors  int64   `json:"client_errors"`
	PushRequests  int64   `json:"push_requests"`
	PullRequests  int64   `json:"pull_requests"`
	TasksApplied  int64   `json:"tasks_applied"`
	Conflicts     int64   `json:"conflicts"`
	ActiveUsers   int64   `json:"active_users"`
}

// --- Operational methods ---

// HealthCheck hits the /healthz endpoint to verify server reachability.
func (c *Client) HealthCheck() (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.doNoAuth("GET", "/healthz", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Metrics fetches the server's counter snapshot.
func (c *Client) Metrics() (*MetricsResponse, error) {
	var resp MetricsResponse
	if err := c.doNoAuth("GET", "/metricz", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- Auth methods ---

// Register creates an account and returns its first token.
func (c *Client) Register(email, password string) (*TokenResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var resp TokenResponse
	if err := c.doNoAuth("POST", "/v1/auth/register", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login exchanges credentials for a token.
func (c *Client) Login(email, password string) (*TokenResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var resp TokenResponse
	if err := c.doNoAuth("POST", "/v1/auth/login", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- Sync methods ---

// Push sends local task changes to the server.
func (c *Client) Push(req *PushRequest) (*PushResponse, error) {
	var resp PushResponse
	if err := c.do("POST", "/v1/sync/push", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Pull fetches task changes from the server. A nil since fetches everything;
// the caller should store the response's ServerTime as its next cursor.
func (c *Client) Pull(since *time.Time) (*PullResponse, error) {
	path := "/v1/sync/pull"
	if since != nil {
		params := url.Values{}
		params.Set("since", since.Format(time.RFC3339Nano))
		path += "?" + params.Encode()
	}

	var resp PullResponse
	if err := c.do("GET", path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status gets the sync summary for the authenticated user.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.do("GET", "/v1/sync/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- HTTP helpers ---

// apiError is the standard error body from the server.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

// do executes an authenticated HTTP request.
func (c *Client) do(method, path string, body, result any) error {
	return c.doRequest(method, path, body, result, true)
}

// doNoAuth executes an unauthenticated HTTP request.
func (c *Client) doNoAuth(method, path string, body, result any) error {
	return c.doRequest(method, path, body, result, false)
}

func (c *Client) doRequest(method, path string, body, result any, auth bool) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth && c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var envelope errorEnvelope
		if json.Unmarshal(respBody, &envelope) == nil && envelope.Error.Code != "" {
			switch resp.StatusCode {
			case http.StatusUnauthorized:
				return fmt.Errorf("%w: %s", ErrUnauthorized, envelope.Error.Message)
			case http.StatusForbidden:
				return fmt.Errorf("%w: %s", ErrForbidden, envelope.Error.Message)
			case http.StatusTooManyRequests:
				return fmt.Errorf("%w: %s", ErrRateLimited, envelope.Error.Message)
			default:
				return &envelope.Error
			}
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}
