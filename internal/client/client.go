// Package client is a typed HTTP client for the devlog API. The devlog CLI
// is built on it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/devlog/internal/export"
	"github.com/sakif/devlog/internal/metagen"
	"github.com/sakif/devlog/internal/model"
)

const DefaultBaseURL = "http://localhost:5000"

// APIError is a non-2xx response decoded from the server's error body.
type APIError struct {
	Status  int
	Message string
	Details string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s (%d): %s", e.Message, e.Status, e.Details)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type Option func(*Client)

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

// ===== Account =====

type LoginResult struct {
	Message     string `json:"message"`
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
}

type messageBody struct {
	Message string `json:"message"`
}

// Register creates an account and returns the server's confirmation message.
func (c *Client) Register(ctx context.Context, req model.RegisterRequest) (string, error) {
	var out messageBody
	err := c.do(ctx, http.MethodPost, "/register", req, &out)
	return out.Message, err
}

// Login exchanges credentials for a token. The client keeps using the token
// for later calls.
func (c *Client) Login(ctx context.Context, req model.LoginRequest) (*LoginResult, error) {
	var out LoginResult
	if err := c.do(ctx, http.MethodPost, "/login", req, &out); err != nil {
		return nil, err
	}
	c.token = out.AccessToken
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var out model.User
	if err := c.do(ctx, http.MethodGet, "/api/v1/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteAccount(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/me", nil, nil)
}

// ===== Entries =====

func (c *Client) CreateEntry(ctx context.Context, req model.CreateEntryRequest) (*model.Entry, error) {
	var out model.Entry
	if err := c.do(ctx, http.MethodPost, "/api/v1/entries", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListEntries(ctx context.Context) ([]model.Entry, error) {
	var out []model.Entry
	err := c.do(ctx, http.MethodGet, "/api/v1/entries", nil, &out)
	return out, err
}

func (c *Client) GetEntry(ctx context.Context, id int64) (*model.Entry, error) {
	var out model.Entry
	if err := c.do(ctx, http.MethodGet, "/api/v1/entries/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateEntry(ctx context.Context, req model.UpdateEntryRequest) (*model.Entry, error) {
	var out model.Entry
	if err := c.do(ctx, http.MethodPatch, "/api/v1/entries", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteEntry(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/entries/"+strconv.FormatInt(id, 10), nil, nil)
}

func (c *Client) SearchEntries(ctx context.Context, q string) ([]model.Entry, error) {
	var out []model.Entry
	err := c.do(ctx, http.MethodGet, "/api/v1/entries/search?q="+url.QueryEscape(q), nil, &out)
	return out, err
}

// FilterEntries filters by "tag" or "title".
func (c *Client) FilterEntries(ctx context.Context, field, value string) ([]model.Entry, error) {
	var out []model.Entry
	err := c.do(ctx, http.MethodGet, filterPath("entries", field, value), nil, &out)
	return out, err
}

func (c *Client) ExportEntry(ctx context.Context, id int64, format export.Format) (*export.Document, error) {
	return c.download(ctx, fmt.Sprintf("/api/export-entry-%s/%d", format, id))
}

// ===== Snippets =====

func (c *Client) CreateSnippet(ctx context.Context, req model.CreateSnippetRequest) (*model.Snippet, error) {
	var out model.Snippet
	if err := c.do(ctx, http.MethodPost, "/api/v1/snippets", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListSnippets(ctx context.Context) ([]model.Snippet, error) {
	var out []model.Snippet
	err := c.do(ctx, http.MethodGet, "/api/v1/snippets", nil, &out)
	return out, err
}

func (c *Client) GetSnippet(ctx context.Context, id int64) (*model.Snippet, error) {
	var out model.Snippet
	if err := c.do(ctx, http.MethodGet, "/api/v1/snippets/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateSnippet(ctx context.Context, req model.UpdateSnippetRequest) (*model.Snippet, error) {
	var out model.Snippet
	if err := c.do(ctx, http.MethodPatch, "/api/v1/snippets", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteSnippet(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/snippets/"+strconv.FormatInt(id, 10), nil, nil)
}

func (c *Client) SearchSnippets(ctx context.Context, q string) ([]model.Snippet, error) {
	var out []model.Snippet
	err := c.do(ctx, http.MethodGet, "/api/v1/snippets/search?q="+url.QueryEscape(q), nil, &out)
	return out, err
}

// FilterSnippets filters by "tag", "title" or "language".
func (c *Client) FilterSnippets(ctx context.Context, field, value string) ([]model.Snippet, error) {
	var out []model.Snippet
	err := c.do(ctx, http.MethodGet, filterPath("snippets", field, value), nil, &out)
	return out, err
}

func (c *Client) ExportSnippet(ctx context.Context, id int64, format export.Format) (*export.Document, error) {
	return c.download(ctx, fmt.Sprintf("/api/export-snippet-%s/%d", format, id))
}

// ===== Metadata generation =====

// Generate asks the server for one generated field.
func (c *Client) Generate(ctx context.Context, kind metagen.Kind, req model.GenerateRequest) (string, error) {
	var out map[string]string
	if err := c.do(ctx, http.MethodPost, "/api/autogen/"+string(kind), req, &out); err != nil {
		return "", err
	}
	return out[string(kind)], nil
}

// ===== Transport =====

func filterPath(resource, field, value string) string {
	return fmt.Sprintf("/api/v1/%s/filter/%s/%s", resource, url.PathEscape(field), url.PathEscape(value))
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("client: encoding request: %w", err)
		}
		rdr = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return nil, fmt.Errorf("client: building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decoding %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) download(ctx context.Context, path string) (*export.Document, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, decodeAPIError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("client: reading %s: %w", path, err)
	}

	doc := &export.Document{ContentType: resp.Header.Get("Content-Type"), Body: body}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		doc.Filename = params["filename"]
	}
	return doc, nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var body struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Details = body.Details
	} else {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
