// Package restapi implements the service.Service interface against the
// task REST API using cookie-based session authentication.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"taskdeck/internal/config"
	"taskdeck/internal/service"
)

const (
	// APITimeout is the timeout for API calls.
	APITimeout = 5 * time.Second

	authBase = "/api/v1/auth"
	todoBase = "/api/v1/todos"
)

// Client implements service.Service over HTTP.
// All requests go through a cookie jar so the server can set and read the
// session cookie.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the configured API base URL. The session cookie
// is persisted under the config directory so it survives across invocations.
func New(cfg *config.Config) (*Client, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("api base url not configured (set %s)", config.EnvAPIURL)
	}
	if err := cfg.EnsureDir(); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	return &Client{
		baseURL: cfg.APIURL,
		http:    &http.Client{Jar: newFileJar(cfg.SessionPath())},
	}, nil
}

// NewEphemeral creates a client whose session cookie lives only in memory.
// Used by the tests and by short-lived tooling.
func NewEphemeral(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &Client{
		baseURL: config.NormalizeURL(baseURL),
		http:    &http.Client{Jar: jar},
	}, nil
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
// The caller is responsible for attaching a cookie jar if session state is
// needed.
func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{baseURL: config.NormalizeURL(baseURL), http: httpClient}
}

// Login implements service.Service.
func (c *Client) Login(ctx context.Context, email, password string) (service.LoginResult, error) {
	body := map[string]string{"email": email, "password": password}

	var result service.LoginResult
	resp, err := c.do(ctx, http.MethodPost, authBase+"/login", body)
	if err != nil {
		return result, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return result, apiError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return result, fmt.Errorf("invalid login response: %w", err)
	}
	return result, nil
}

// CurrentUser implements service.Service. A 401 means "no user" and is not
// an error; a transport failure is reported as such so the caller can apply
// its own policy.
func (c *Client) CurrentUser(ctx context.Context) (*service.User, error) {
	resp, err := c.do(ctx, http.MethodGet, authBase+"/me", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var user service.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("invalid user response: %w", err)
	}
	return &user, nil
}

// Logout implements service.Service.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodPost, authBase+"/logout", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return nil
}

// ListTasks implements service.Service.
func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	resp, err := c.doProtected(ctx, http.MethodGet, todoBase+"/", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var tasks []service.Task
	if err := json.NewDecoder(resp.Body).Decode(&tasks); err != nil {
		return nil, fmt.Errorf("invalid task list response: %w", err)
	}
	return tasks, nil
}

// CreateTask implements service.Service.
func (c *Client) CreateTask(ctx context.Context, draft service.TaskDraft) (service.Task, error) {
	return c.taskCall(ctx, http.MethodPost, todoBase+"/", draft)
}

// UpdateTask implements service.Service.
func (c *Client) UpdateTask(ctx context.Context, id string, draft service.TaskDraft) (service.Task, error) {
	return c.taskCall(ctx, http.MethodPut, todoBase+"/"+url.PathEscape(id), draft)
}

// ToggleTask implements service.Service.
func (c *Client) ToggleTask(ctx context.Context, id string) (service.Task, error) {
	return c.taskCall(ctx, http.MethodPost, todoBase+"/"+url.PathEscape(id)+"/toggle", nil)
}

// DeleteTask implements service.Service. The server may answer 204 with no
// body or 200 with a JSON body; both are accepted.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	resp, err := c.doProtected(ctx, http.MethodDelete, todoBase+"/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Drain any JSON body so the connection can be reused.
	io.Copy(io.Discard, resp.Body)
	return nil
}

// taskCall performs a protected call whose success body is a single Task.
func (c *Client) taskCall(ctx context.Context, method, path string, body any) (service.Task, error) {
	resp, err := c.doProtected(ctx, method, path, body)
	if err != nil {
		return service.Task{}, err
	}
	defer resp.Body.Close()

	var task service.Task
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return service.Task{}, fmt.Errorf("invalid task response: %w", err)
	}
	return task, nil
}

// doProtected performs a request that requires a live session. A 401 maps to
// service.ErrUnauthenticated, any other non-2xx to *service.APIError.
func (c *Client) doProtected(ctx context.Context, method, path string, body any) (*http.Response, error) {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		detail := errorDetail(resp)
		resp.Body.Close()
		if detail == "" {
			detail = "Session expired. Please log in again."
		}
		return nil, fmt.Errorf("%s: %w", detail, service.ErrUnauthenticated)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := apiError(resp)
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

// do builds and sends one request. Transport failures are wrapped in
// service.ErrNetwork with a user-legible message.
func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			cancel()
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		cancel()
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		cancel()
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: request timed out", service.ErrNetwork)
		}
		return nil, fmt.Errorf("%w: unable to connect to the server at %s", service.ErrNetwork, c.baseURL)
	}

	// Tie the body's lifetime to the per-call context.
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

// apiError converts a non-2xx response into *service.APIError, preferring the
// server-supplied detail or message field.
func apiError(resp *http.Response) error {
	return &service.APIError{Status: resp.StatusCode, Detail: errorDetail(resp)}
}

// errorDetail extracts the error text from a JSON error body, if any.
func errorDetail(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return ""
	}
	var payload struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	if payload.Detail != "" {
		return payload.Detail
	}
	return payload.Message
}
