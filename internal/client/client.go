// Package client talks to the account API and keeps the signed-in identity
// in an authstate.Store.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tourguide/internal/access"
	"tourguide/internal/authstate"
	"tourguide/internal/model"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
	Redirect   string `json:"redirect,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	state      *authstate.Store
	now        func() time.Time
}

type Option func(*Client)

// WithHTTPClient replaces the default client, which times out after 10 seconds.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(baseURL string, state *authstate.Store, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		state:      state,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the identity store the client writes to.
func (c *Client) State() *authstate.Store {
	return c.state
}

func (c *Client) Signup(ctx context.Context, req model.SignupRequest) (*model.Profile, error) {
	var out struct {
		User model.Profile `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/signup", req, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Signin authenticates and stores the resulting identity. role may be empty.
func (c *Client) Signin(ctx context.Context, email, password, role string) (*authstate.Identity, error) {
	var out struct {
		User      model.Profile `json:"user"`
		Token     string        `json:"token"`
		ExpiresAt time.Time     `json:"expires_at"`
	}
	req := model.SigninRequest{Email: email, Password: password, Role: role}
	if err := c.do(ctx, http.MethodPost, "/api/signin", req, &out); err != nil {
		return nil, err
	}
	id := authstate.Identity{User: out.User, Token: out.Token, ExpiresAt: out.ExpiresAt}
	c.state.Set(id)
	return &id, nil
}

// Signout revokes the token on the server and forgets it locally. The local
// identity is dropped even when the server call fails.
func (c *Client) Signout(ctx context.Context) error {
	if _, ok := c.state.Current(); !ok {
		return nil
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/signout", nil, nil)
	c.state.Clear()
	return err
}

// Check re-validates the stored token and refreshes the stored profile.
// A 401 clears the identity.
func (c *Client) Check(ctx context.Context) (*model.Profile, error) {
	var out struct {
		User model.Profile `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/check", nil, &out); err != nil {
		return nil, err
	}
	c.refreshUser(out.User)
	return &out.User, nil
}

// UpdateProfile changes the profile of id; 0 means the signed-in user.
func (c *Client) UpdateProfile(ctx context.Context, id int, req model.UpdateProfileRequest) (*model.Profile, error) {
	path := "/api/profile/update"
	if id != 0 {
		path += "?id=" + strconv.Itoa(id)
	}
	var out struct {
		User model.Profile `json:"user"`
	}
	if err := c.do(ctx, http.MethodPut, path, req, &out); err != nil {
		return nil, err
	}
	c.refreshUser(out.User)
	return &out.User, nil
}

func (c *Client) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	req := model.ChangePasswordRequest{CurrentPassword: currentPassword, NewPassword: newPassword}
	return c.do(ctx, http.MethodPut, "/api/profile/change-password", req, nil)
}

func (c *Client) ListUsers(ctx context.Context, f model.UserListFilters) (*model.UserPage, error) {
	q := url.Values{}
	if f.Role != "" {
		q.Set("role", f.Role)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Sort != "" {
		q.Set("sort", f.Sort)
	}
	if f.Order != "" {
		q.Set("order", f.Order)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	path := "/api/admin/users"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var page model.UserPage
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Guard evaluates path against the stored identity without a round trip.
// It is a navigation hint only; the API checks every request itself.
func (c *Client) Guard(path string) access.Decision {
	id, ok := c.state.Current()
	if !ok || id.Expired(c.now()) {
		return access.Decide(nil, path)
	}
	return access.Decide(id.Access(), path)
}

// ResolveRoute asks the server for the decision on path.
func (c *Client) ResolveRoute(ctx context.Context, path string) (access.Decision, error) {
	var d access.Decision
	err := c.do(ctx, http.MethodGet, "/api/auth/route?path="+url.QueryEscape(path), nil, &d)
	return d, err
}

func (c *Client) refreshUser(p model.Profile) {
	id, ok := c.state.Current()
	if !ok || id.User.ID != p.ID {
		return
	}
	id.User = p
	c.state.Set(id)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if id, ok := c.state.Current(); ok && id.Token != "" {
		req.Header.Set("Authorization", "Bearer "+id.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		if resp.StatusCode == http.StatusUnauthorized && strings.HasPrefix(path, "/api/auth/check") {
			c.state.Clear()
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
