// Package api is the HTTP client for the upstream Kindify platform API.
// It owns the wire contract only; all durable state lives upstream.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kindify/kindify-gateway/internal/domain"
	"github.com/kindify/kindify-gateway/pkg/logger"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Login verifies credentials for a role. Profile hydration is a separate
// round trip (Profile) so credential verification stays decoupled from the
// profile shape.
func (c *Client) Login(ctx context.Context, req domain.LoginRequest, role string) (LoginResult, error) {
	body := struct {
		domain.LoginRequest
		Role string `json:"role"`
	}{req, role}

	var out LoginResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", body, &out); err != nil {
		return LoginResult{}, err
	}
	return out, nil
}

func (c *Client) Signup(ctx context.Context, req domain.SignupRequest, role string) (Result, error) {
	body := struct {
		domain.SignupRequest
		Role string `json:"role"`
	}{req, role}

	var out Result
	if err := c.do(ctx, http.MethodPost, "/auth/signup", "", body, &out); err != nil {
		return Result{}, err
	}
	return out, nil
}

// Profile fetches the user entity for the session token issued by Login.
func (c *Client) Profile(ctx context.Context, token string) (ProfileResult, error) {
	var out ProfileResult
	if err := c.do(ctx, http.MethodGet, "/auth/profile", token, nil, &out); err != nil {
		return ProfileResult{}, err
	}
	return out, nil
}

// ForgotPassword triggers out-of-band delivery of a one-time code. It never
// mutates session state.
func (c *Client) ForgotPassword(ctx context.Context, email, role string) (Result, error) {
	body := map[string]string{"email": email, "role": role}

	var out Result
	if err := c.do(ctx, http.MethodPost, "/auth/forgot-password", "", body, &out); err != nil {
		return Result{}, err
	}
	return out, nil
}

// ResetPassword verifies the one-time code and completes the password reset.
func (c *Client) ResetPassword(ctx context.Context, req ResetPasswordRequest) (Result, error) {
	var out Result
	if err := c.do(ctx, http.MethodPost, "/auth/reset-password", "", req, &out); err != nil {
		return Result{}, err
	}
	return out, nil
}

func (c *Client) VerifyEmail(ctx context.Context, token string) (Result, error) {
	var out Result
	path := "/auth/verify-email?token=" + url.QueryEscape(token)
	if err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return Result{}, err
	}
	return out, nil
}

func (c *Client) Logout(ctx context.Context, token string) (Result, error) {
	var out Result
	if err := c.do(ctx, http.MethodPost, "/auth/logout", token, nil, &out); err != nil {
		return Result{}, err
	}
	return out, nil
}

// FilterNGOs runs the NGO search with an already-normalized query
// (see internal/filter.BuildQuery).
func (c *Client) FilterNGOs(ctx context.Context, params url.Values) (FilterNGOsResult, error) {
	path := "/ngos"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var out FilterNGOsResult
	if err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return FilterNGOsResult{}, err
	}
	return out, nil
}

// do issues one upstream request and decodes the envelope body. Any error it
// returns is a transport-level fault; expected failures come back inside the
// decoded envelope with Success=false.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	// Correlation headers for upstream tracing
	if requestID := ctx.Value(logger.RequestIDKey); requestID != nil {
		if id, ok := requestID.(string); ok {
			req.Header.Set("X-Request-ID", id)
		}
	}
	req.Header.Set("X-Gateway-Service", "kindify-gateway")

	logger.DebugContext(ctx, "Calling upstream API", "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode upstream response (status %d): %w", resp.StatusCode, err)
	}
	return nil
}
