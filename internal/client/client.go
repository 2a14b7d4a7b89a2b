// Package client is a Go client for the Velym HTTP API. It backs terminal
// and test clients and satisfies chatview.Backend and chatview.Subscriber.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	app_errors "velym/backend/internal/errors"
	"velym/backend/internal/model"
	"velym/backend/internal/service"
	"velym/backend/internal/session"
)

type Client struct {
	baseURL string
	http    *http.Client
	stream  *http.Client

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

// WithHTTPClient replaces the client used for JSON calls.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithToken starts the client with an existing session token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New returns a client for the server at baseURL, e.g. http://localhost:8000.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 2 * time.Minute},
		// Change streams stay open indefinitely.
		stream: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

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

// apiError is a non-2xx answer. It unwraps to the matching sentinel of the
// errors package so callers can use errors.Is as on the server.
type apiError struct {
	Status  int
	Message string
	kind    error
}

func (e *apiError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

func (e *apiError) Unwrap() error { return e.kind }

func errorKind(status int, message string) error {
	switch status {
	case http.StatusBadRequest:
		return app_errors.ErrValidation
	case http.StatusUnauthorized:
		if strings.HasPrefix(message, "Invalid login") {
			return app_errors.ErrInvalidCredentials
		}
		return app_errors.ErrUnauthorized
	case http.StatusForbidden:
		return app_errors.ErrPermission
	case http.StatusNotFound:
		return app_errors.ErrNotFound
	case http.StatusConflict:
		if strings.HasPrefix(message, "User already registered") {
			return app_errors.ErrAlreadyRegistered
		}
		return app_errors.ErrConflict
	case http.StatusTooManyRequests:
		return app_errors.ErrRateLimited
	case http.StatusBadGateway:
		return app_errors.ErrCompletion
	case http.StatusServiceUnavailable:
		return app_errors.ErrUnavailable
	case http.StatusInternalServerError:
		if strings.HasPrefix(message, "Failed to save") {
			return app_errors.ErrSaveFailed
		}
	}
	return app_errors.ErrInternal
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("could not marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("could not create http request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// do sends a JSON request and decodes a 2xx answer into out. For error
// answers the raw body is returned along with the error.
func (c *Client) do(ctx context.Context, method, path string, body, out any) ([]byte, error) {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}
	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &e)
		return data, &apiError{Status: resp.StatusCode, Message: e.Error, kind: errorKind(resp.StatusCode, e.Error)}
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return data, fmt.Errorf("could not decode response: %w", err)
		}
	}
	return data, nil
}

// SignUp creates an account and keeps its session token.
func (c *Client) SignUp(ctx context.Context, email, password, fullName string) (*service.AuthResult, error) {
	var res service.AuthResult
	body := map[string]string{"email": email, "password": password, "full_name": fullName}
	if _, err := c.do(ctx, http.MethodPost, "/api/v1/auth/signup", body, &res); err != nil {
		return nil, err
	}
	c.setToken(res.Token)
	return &res, nil
}

// SignIn authenticates and keeps the session token.
func (c *Client) SignIn(ctx context.Context, email, password string) (*service.AuthResult, error) {
	var res service.AuthResult
	body := map[string]string{"email": email, "password": password}
	if _, err := c.do(ctx, http.MethodPost, "/api/v1/auth/signin", body, &res); err != nil {
		return nil, err
	}
	c.setToken(res.Token)
	return &res, nil
}

// SignOut ends the session. The local token is dropped even when the server
// call fails.
func (c *Client) SignOut(ctx context.Context) error {
	defer c.setToken("")
	_, err := c.do(ctx, http.MethodPost, "/api/v1/auth/signout", nil, nil)
	return err
}

// ResolveSession implements session.Resolver against the server. The token
// argument overrides the client's own when set.
func (c *Client) ResolveSession(ctx context.Context, token string) (*session.Identity, error) {
	if token != "" && token != c.Token() {
		c.setToken(token)
	}
	if c.Token() == "" {
		return nil, app_errors.ErrUnauthorized
	}
	var cur service.CurrentSession
	if _, err := c.do(ctx, http.MethodGet, "/api/v1/auth/session", nil, &cur); err != nil {
		return nil, err
	}
	return &session.Identity{UserID: cur.UserID, SessionID: cur.SessionID, Email: cur.Email}, nil
}

// Session resolves the client's token into a gate signal.
func (c *Client) Session(ctx context.Context) *session.Signal {
	sig := session.NewSignal()
	id, err := c.ResolveSession(ctx, "")
	if err != nil {
		sig.Resolve(nil)
		return sig
	}
	sig.Resolve(id)
	return sig
}

func (c *Client) CreateConversation(ctx context.Context) (*model.FullConversation, error) {
	var full model.FullConversation
	if _, err := c.do(ctx, http.MethodPost, "/api/v1/conversations", nil, &full); err != nil {
		return nil, err
	}
	return &full, nil
}

func (c *Client) GetConversation(ctx context.Context, conversationID string) (*model.FullConversation, error) {
	var full model.FullConversation
	if _, err := c.do(ctx, http.MethodGet, "/api/v1/conversations/"+url.PathEscape(conversationID), nil, &full); err != nil {
		return nil, err
	}
	return &full, nil
}

func (c *Client) ListConversations(ctx context.Context) ([]model.ConversationSummary, error) {
	var list []model.ConversationSummary
	if _, err := c.do(ctx, http.MethodGet, "/api/v1/conversations", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SendMessage posts a user message. When only the assistant reply failed,
// the stored user message is returned together with an error wrapping
// ErrCompletion.
func (c *Client) SendMessage(ctx context.Context, conversationID string, req model.SendMessageRequest) (*model.SendResult, error) {
	var res model.SendResult
	path := "/api/v1/conversations/" + url.PathEscape(conversationID) + "/messages"
	data, err := c.do(ctx, http.MethodPost, path, req, &res)
	if err == nil {
		return &res, nil
	}
	var partial model.SendResult
	if jsonErr := json.Unmarshal(data, &partial); jsonErr == nil && partial.UserMessage != nil {
		return &partial, err
	}
	return nil, err
}

func (c *Client) Dashboard(ctx context.Context) (*service.DashboardView, error) {
	var view service.DashboardView
	if _, err := c.do(ctx, http.MethodGet, "/api/v1/dashboard", nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}
