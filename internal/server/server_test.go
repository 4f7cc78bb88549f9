package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/devlog/internal/auth"
	"github.com/sakif/devlog/internal/repository/sqlstore"
)

const testSecret = "server-test-secret-0123456789"

type stubGenerator struct{ reply string }

func (g stubGenerator) Generate(context.Context, string) (string, error) { return g.reply, nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()

	db, err := sqlstore.New(context.Background(), sqlstore.SQLite, ":memory:", discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = testSecret
	}
	cfg.BcryptCost = bcrypt.MinCost

	srv, err := New(cfg, db, stubGenerator{reply: "Go, HTTP, go"}, discardLogger())
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// client is a tiny JSON helper bound to one test server and, optionally,
// one bearer token.
type client struct {
	t     *testing.T
	base  string
	token string
}

func (c *client) do(method, path string, body any) (int, map[string]any, []byte) {
	c.t.Helper()

	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(c.t, err)
		rdr = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.base+path, rdr)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)

	var obj map[string]any
	_ = json.Unmarshal(raw, &obj)
	return resp.StatusCode, obj, raw
}

func register(t *testing.T, c *client, username string) {
	t.Helper()
	status, _, raw := c.do(http.MethodPost, "/register", map[string]string{
		"email": username + "@example.com", "username": username, "password": "pw-" + username,
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
}

func login(t *testing.T, c *client, username string) *client {
	t.Helper()
	status, body, raw := c.do(http.MethodPost, "/login", map[string]string{
		"username": username, "password": "pw-" + username,
	})
	require.Equal(t, http.StatusOK, status, string(raw))
	return &client{t: t, base: c.base, token: body["access_token"].(string)}
}

// ===== End-to-end scenario =====

func TestScenario_RegisterLoginCRUD(t *testing.T) {
	ts := newTestServer(t, Config{TokenTTL: time.Hour})
	anon := &client{t: t, base: ts.URL}

	status, body, _ := anon.do(http.MethodPost, "/register", map[string]string{
		"email": "alice@example.com", "username": "alice", "password": "pw-alice",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "User alice registered successfully!", body["message"])

	status, body, _ = anon.do(http.MethodPost, "/register", map[string]string{
		"email": "other@example.com", "username": "alice", "password": "x",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "User with this email or username already exists", body["error"])

	status, body, _ = anon.do(http.MethodPost, "/login", map[string]string{
		"username": "alice", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Incorrect password", body["error"])

	status, body, _ = anon.do(http.MethodPost, "/login", map[string]string{
		"username": "alice", "password": "pw-alice",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Login successful", body["message"])
	assert.Equal(t, "alice", body["username"])
	alice := &client{t: t, base: ts.URL, token: body["access_token"].(string)}

	status, body, _ = alice.do(http.MethodPost, "/api/v1/entries", map[string]any{
		"title": "T", "content": "C", "tags": "go",
	})
	require.Equal(t, http.StatusCreated, status)
	id := int64(body["id"].(float64))
	assert.Positive(t, id)
	assert.Equal(t, "T", body["title"])
	assert.Equal(t, "go", body["tags"])
	assert.NotEmpty(t, body["created_at"])

	path := "/api/v1/entries/" + itoa(id)
	status, body, _ = alice.do(http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "C", body["content"])

	status, body, _ = alice.do(http.MethodPatch, "/api/v1/entries", map[string]any{"id": id, "title": "T2"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "T2", body["title"])
	assert.Equal(t, "C", body["content"])

	status, body, _ = alice.do(http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Success", body["message"])

	status, _, _ = alice.do(http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _, _ = alice.do(http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

// ===== Validation =====

func TestCreate_ValidationFailures(t *testing.T) {
	ts := newTestServer(t, Config{TokenTTL: time.Hour})
	anon := &client{t: t, base: ts.URL}
	register(t, anon, "alice")
	alice := login(t, anon, "alice")

	tests := []struct {
		name    string
		body    any
		wantMsg string
	}{
		{"missing title", map[string]any{"content": "C"}, "Title is required"},
		{"blank content", map[string]any{"title": "T", "content": "   "}, "Content must not be blank"},
		{"extra field", map[string]any{"title": "T", "content": "C", "extra": 1}, `Unknown field "extra"`},
		{"wrong type", map[string]any{"title": 5, "content": "C"}, "Title must be a string"},
		{"malformed", `{"title": "T",`, ""},
		{"empty body", "", "Request body is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body, raw := alice.do(http.MethodPost, "/api/v1/entries", tt.body)
			assert.Equal(t, http.StatusBadRequest, status, string(raw))
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, body["error"])
			}
		})
	}

	status, _, raw := alice.do(http.MethodGet, "/api/v1/entries", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, "[]", string(raw))
}

func TestRegister_Validation(t *testing.T) {
	ts := newTestServer(t, Config{TokenTTL: time.Hour})
	anon := &client{t: t, base: ts.URL}

	tests := []struct {
		body    map[string]any
		wantMsg string
	}{
		{map[string]any{"username": "a", "password": "p"}, "Email is required"},
		{map[string]any{"email": "not-an-email", "username": "a", "password": "p"}, "Enter a valid email address"},
		{map[string]any{"email": "a@b.co", "password": "p"}, "Username is required"},
		{map[string]any{"email": "a@b.co", "username": "a"}, "Password is required"},
	}
	for _, tt := range tests {
		status, body, _ := anon.do(http.MethodPost, "/register", tt.body)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, tt.wantMsg, body["error"])
	}
}

func TestLogin_UnknownUserAndEmail(t *testing.T) {
	ts := newTestServer(t, Config{TokenTTL: time.Hour})
	anon := &client{t: t, base: ts.URL}
	register(t, anon, "alice")

	status, body, _ := anon.do(http.MethodPost, "/login", map[string]string{"username": "bob", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "User of that username does not exist", body["error"])

	status, body, _ = anon.do(http.MethodPost, "/login", map[string]string{"email": "alice@example.com", "password": "pw-alice"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice", body["username"])
}

// ===== Authorization =====

func TestAuth_Rejections(t *testing.T) {
	ts := newTestServer(t, Config{TokenTTL: time.Hour})

	tokens, err := auth.NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)
	expired, err := tokens.GenerateWithDuration(1, -time.Minute)
	require.NoError(t, err)
	otherKey, err := auth.NewTokenService("a-completely-different-secret", time.Hour)
	require.NoError(t, err)
	forged, err := otherKey.Generate(1)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantMsg string
	}{
		{"missing", "", "Missing authorization token"},
		{"expired", expired, "Token has expired"},
		{"wrong key", forged, "Invalid token"},
		{"garbage", "not.a.jwt", "Invalid token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &client{t: t, base: ts.URL, token: tt.token}
			status, body, _ := c.do(http.MethodGet, "/api/v1/entries", nil)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, tt.wantMsg, body["error"])
		})
	}
}

func TestOwnershipIsolation(t *testing.T) {
	ts := newTestServer(t, Config{TokenTTL: time.Hour})
	anon := &client{t: t, base: ts.URL}
	register(t, anon, "alice")
	register(t, anon, "bob")
	alice := login(t, anon, "alice")
	bob := login(t, anon, "bob")

	status, body, _ := alice.do(http.MethodPost, "/api/v1/snippets", map[string]any{
		"title": "Hello", "language": "Go", "snippet": "fmt.Println(1)", "description": "d",
	})
	require.Equal(t, http.StatusCreated, status)
	id := itoa(int64(body["id"].(float64)))

	for _, req := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/snippets/" + id},
		{http.MethodDelete, "/api/v1/snippets/" + id},
		{http.MethodGet, "/api/export-snippet-md/" + id},
		{http.MethodGet, "/api/export-snippet-json/" + id},
	} {
		status, _, _ := bob.do(req.method, req.path, nil)
		assert.Equal(t, http.StatusNotFound, status, "%s %s", req.method, req.path)
	}

	status, _, _ = bob.do(http.MethodPatch, "/api/v1/snippets", map[string]any{"id": body["id"], "title": "stolen"})
	assert.Equal(t, http.StatusNotFound, status)

	status, body, _ = alice.do(http.MethodGet, "/api/v1/snippets/"+id, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Hello", body["title"])
}

// ===== Search and filter =====

func TestSearchAndFilter(t *testing.T) {
	ts := newTestServer(t, Config{TokenTTL: time.Hour})
	anon := &client{t: t, base: ts.URL}
	register(t, anon, "alice")
	alice := login(t, anon, "alice")

	for _, s := range []map[string]any{
		{"title": "Quicksort", "language": "Python", "snippet": "def qs(): pass", "description": "d", "tags": "algo,sort"},
		{"title": "Hello", "language": "Go", "snippet": "fmt.Println(1)", "description": "d"},
	} {
		status, _, raw := alice.do(http.MethodPost, "/api/v1/snippets", s)
		require.Equal(t, http.StatusCreated, status, string(raw))
	}

	status, body, _ := alice.do(http.MethodGet, "/api/v1/snippets/search", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Query parameter 'q' is required", body["error"])

	_, _, raw := alice.do(http.MethodGet, "/api/v1/snippets/search?q=PYTHON", nil)
	var found []map[string]any
	require.NoError(t, json.Unmarshal(raw, &found))
	require.Len(t, found, 1)
	assert.Equal(t, "Quicksort", found[0]["title"])

	status, _, raw = alice.do(http.MethodGet, "/api/v1/snippets/search?q=nothing", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, "[]", string(raw))

	status, _, raw = alice.do(http.MethodGet, "/api/v1/snippets/filter/language/go", nil)
	assert.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &found))
	assert.Len(t, found, 1)

	status, _, _ = alice.do(http.MethodGet, "/api/v1/snippets/filter/tag/SORT", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _, _ = alice.do(http.MethodGet, "/api/v1/snippets/filter/title/missing", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _, _ = alice.do(http.MethodGet, "/api/v1/entries/filter/tag/none", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestFilter_PercentInValue(t *testing.T) {
	ts := newTestServer(t, Config{TokenTTL: time.Hour})
	anon := &client{t: t, base: ts.URL}
	register(t, anon, "alice")
	alice := login(t, anon, "alice")

	status, _, raw := alice.do(http.MethodPost, "/api/v1/entries", map[string]any{
		"title": "Encoded", "content": "C", "tags": "a%41",
	})
	require.Equal(t, http.StatusCreated, status, string(raw))

	status, _, raw = alice.do(http.MethodGet, "/api/v1/entries/filter/tag/a%2541", nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	var found []map[string]any
	require.NoError(t, json.Unmarshal(raw, &found))
	require.Len(t, found, 1)
	assert.Equal(t, "a%41", found[0]["tags"])

	status, _, _ = alice.do(http.MethodGet, "/api/v1/entries/filter/tag/aA", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

// ===== Export, autogen, account =====

func TestExportEntryMarkdown(t *testing.T) {
	ts := newTestServer(t, Config{TokenTTL: time.Hour})
	anon := &client{t: t, base: ts.URL}
	register(t, anon, "alice")
	alice := login(t, anon, "alice")

	_, body, _ := alice.do(http.MethodPost, "/api/v1/entries", map[string]any{"title": "Notes", "content": "Body"})
	id := itoa(int64(body["id"].(float64)))

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/export-entry-md/"+id, nil)
	req.Header.Set("Authorization", "Bearer "+alice.token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "# Notes\nBody", string(raw))
	assert.Equal(t, `attachment; filename="Entry `+id+`.md"`, resp.Header.Get("Content-Disposition"))

	status, body, _ := alice.do(http.MethodGet, "/api/export-entry-json/abc", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid id", body["error"])
}

func TestAutogenTags(t *testing.T) {
	ts := newTestServer(t, Config{TokenTTL: time.Hour})
	anon := &client{t: t, base: ts.URL}
	register(t, anon, "alice")
	alice := login(t, anon, "alice")

	status, body, _ := alice.do(http.MethodPost, "/api/autogen/tags", map[string]any{"content": "package main"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "go, http", body["tags"])

	status, _, _ = alice.do(http.MethodPost, "/api/autogen/title", map[string]any{"content": ""})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestDeleteAccount(t *testing.T) {
	ts := newTestServer(t, Config{TokenTTL: time.Hour})
	anon := &client{t: t, base: ts.URL}
	register(t, anon, "alice")
	alice := login(t, anon, "alice")

	status, body, _ := alice.do(http.MethodGet, "/api/v1/me", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice@example.com", body["email"])
	assert.NotContains(t, body, "password_hash")

	status, _, _ = alice.do(http.MethodDelete, "/api/v1/me", nil)
	require.Equal(t, http.StatusOK, status)

	status, _, _ = alice.do(http.MethodGet, "/api/v1/me", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _, _ = anon.do(http.MethodPost, "/login", map[string]string{"username": "alice", "password": "pw-alice"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, Config{TokenTTL: time.Hour})
	anon := &client{t: t, base: ts.URL}

	status, body, _ := anon.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	_, _, raw := anon.do(http.MethodGet, "/metrics", nil)
	assert.Contains(t, string(raw), `devlog_http_requests_total{method="GET",route="/healthz",status="200"}`)
}

func TestRateLimitOnLogin(t *testing.T) {
	ts := newTestServer(t, Config{TokenTTL: time.Hour, RateLimitRPS: 0.01, RateLimitBurst: 2})
	anon := &client{t: t, base: ts.URL}

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		status, _, _ := anon.do(http.MethodPost, "/login", map[string]string{"username": "x", "password": "y"})
		codes = append(codes, status)
	}
	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, codes)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, Config{TokenTTL: time.Hour, CORSAllowedOrigin: "http://localhost:5173"})

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/v1/entries", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
