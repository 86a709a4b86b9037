package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"memoboard/internal/domain"
	"memoboard/pkg/response"
)

// APIError is a non-2xx answer from the server, carrying the
// machine-readable code from the error body.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
}

// Client talks to a memoboard server. The bearer token is managed
// internally: Login seeds it, X-New-Token response headers replace it,
// and authenticated calls transparently refresh and retry once when
// the server reports an expired token.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Token returns the current bearer token, empty before Login.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Login authenticates against the admin credentials and stores the
// returned token for subsequent calls.
func (c *Client) Login(ctx context.Context, username, password string) error {
	var resp domain.TokenResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", domain.LoginRequest{
		Username: username,
		Password: password,
	}, false, &resp)
	if err != nil {
		return err
	}
	c.setToken(resp.Token)
	return nil
}

// Refresh exchanges the current token for a fresh one.
func (c *Client) Refresh(ctx context.Context) error {
	var resp domain.TokenResponse
	if err := c.doOnce(ctx, http.MethodPost, "/api/auth/refresh", nil, true, &resp); err != nil {
		return err
	}
	c.setToken(resp.Token)
	return nil
}

func (c *Client) CreateMemo(ctx context.Context, req domain.CreateMemoRequest) (*domain.Memo, error) {
	var memo domain.Memo
	if err := c.do(ctx, http.MethodPost, "/api/memos", req, false, &memo); err != nil {
		return nil, err
	}
	return &memo, nil
}

func (c *Client) UpdateMemo(ctx context.Context, id string, req domain.UpdateMemoRequest) (*domain.Memo, error) {
	var memo domain.Memo
	if err := c.do(ctx, http.MethodPut, "/api/memos/"+id, req, true, &memo); err != nil {
		return nil, err
	}
	return &memo, nil
}

func (c *Client) DeleteMemo(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/memos/"+id, nil, true, nil)
}

// Memos returns every memo, newest first.
func (c *Client) Memos(ctx context.Context) ([]*domain.Memo, error) {
	var memos []*domain.Memo
	if err := c.do(ctx, http.MethodGet, "/api/memos", nil, false, &memos); err != nil {
		return nil, err
	}
	return memos, nil
}

// MemosByDate returns the memos created on a YYYY-MM-DD day.
func (c *Client) MemosByDate(ctx context.Context, date string) ([]*domain.Memo, error) {
	var memos []*domain.Memo
	if err := c.do(ctx, http.MethodGet, "/api/memos/date/"+date, nil, false, &memos); err != nil {
		return nil, err
	}
	return memos, nil
}

func (c *Client) MonthlyStats(ctx context.Context, year, month int) (domain.MonthlyStats, error) {
	var stats domain.MonthlyStats
	path := fmt.Sprintf("/api/memos/stats/%d/%d", year, month)
	if err := c.do(ctx, http.MethodGet, path, nil, false, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// Upload sends a file as multipart form data and returns the stored
// resource descriptor.
func (c *Client) Upload(ctx context.Context, name string, r io.Reader) (*domain.Resource, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/resources", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var res domain.Resource
	if err := c.send(req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// do performs a request; on TOKEN_EXPIRED it refreshes and retries
// exactly once. A second failure is returned as-is.
func (c *Client) do(ctx context.Context, method, path string, payload interface{}, auth bool, out interface{}) error {
	err := c.doOnce(ctx, method, path, payload, auth, out)
	if err == nil || !auth {
		return err
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != response.CodeTokenExpired {
		return err
	}
	if refreshErr := c.Refresh(ctx); refreshErr != nil {
		return refreshErr
	}
	return c.doOnce(ctx, method, path, payload, auth, out)
}

func (c *Client) doOnce(ctx context.Context, method, path string, payload interface{}, auth bool, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+c.Token())
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if renewed := resp.Header.Get(response.NewTokenHeader); renewed != "" {
		c.setToken(renewed)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody response.ErrorBody
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errBody); decodeErr != nil {
			errBody.Error = resp.Status
		}
		return &APIError{Status: resp.StatusCode, Code: errBody.Code, Message: errBody.Error}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
