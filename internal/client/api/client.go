// Package api is the HTTP client for the guruhub server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/guruhub/internal/domain/category"
	"github.com/geocoder89/guruhub/internal/domain/user"
)

const maxErrorBody = 64 << 10

// Error is a non-2xx response decoded from the server's error envelope.
type Error struct {
	Status    int    `json:"-"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

// StatusOf returns the HTTP status carried by err, or 0 when err did not come
// from a server response.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// MessageOf returns the server's message for err, or "" when there is none.
func MessageOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type LoginResponse struct {
	Token string    `json:"token"`
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  user.Role `json:"role"`
}

func (r LoginResponse) Profile() user.Profile {
	return user.Profile{ID: r.ID, Name: r.Name, Email: r.Email, Role: r.Role}
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for baseURL. A nil hc gets a client with a 10s timeout.
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
	}
}

func (c *Client) Register(ctx context.Context, in RegisterRequest) (user.Profile, error) {
	var out user.Profile
	err := c.call(ctx, http.MethodPost, "/auth/register", "", in, &out)
	return out, err
}

func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	var out LoginResponse
	body := map[string]string{"email": email, "password": password}
	err := c.call(ctx, http.MethodPost, "/auth/login", "", body, &out)
	return out, err
}

func (c *Client) Profile(ctx context.Context, token string) (user.Profile, error) {
	var out user.Profile
	err := c.call(ctx, http.MethodGet, "/auth/profile", token, nil, &out)
	return out, err
}

func (c *Client) CreateCategory(ctx context.Context, token string, in category.CreateCategoryRequest) (category.Category, error) {
	var out category.Category
	err := c.call(ctx, http.MethodPost, "/api/categories", token, in, &out)
	return out, err
}

func (c *Client) ListCategories(ctx context.Context) ([]category.Category, error) {
	var out []category.Category
	err := c.call(ctx, http.MethodGet, "/api/categories", "", nil, &out)
	return out, err
}

// NewRequest builds a request against the server with body encoded as JSON.
func (c *Client) NewRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// Do sends req with token as a bearer credential when token is set and
// decodes a 2xx JSON body into out. Non-2xx responses come back as *Error.
func (c *Client) Do(req *http.Request, token string, out any) error {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}

	return nil
}

func (c *Client) call(ctx context.Context, method, path, token string, body, out any) error {
	req, err := c.NewRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	return c.Do(req, token, out)
}

func decodeError(resp *http.Response) error {
	apiErr := &Error{Status: resp.StatusCode}

	var envelope struct {
		Error *Error `json:"error"`
	}

	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err := json.Unmarshal(b, &envelope); err == nil && envelope.Error != nil {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
		apiErr.RequestID = envelope.Error.RequestID
	}

	return apiErr
}
