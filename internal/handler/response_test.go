package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/devlog/internal/apperror"
)

func TestWriteError_StatusMapping(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
		wantDetails string
	}{
		{"validation", apperror.ValidationFailed("title", "Title is required"), http.StatusBadRequest, "Title is required", ""},
		{"unauthorized", apperror.Unauthorized("Incorrect password"), http.StatusUnauthorized, "Incorrect password", ""},
		{"not found", apperror.NotFound("entry", 3), http.StatusNotFound, "Entry not found with id 3", ""},
		{"conflict", apperror.Conflict("taken"), http.StatusConflict, "taken", ""},
		{"unavailable", apperror.Unavailable("Metadata generation failed", errors.New("quota")), http.StatusServiceUnavailable, "Metadata generation failed", "quota"},
		{"storage", apperror.Storage("listing entries", errors.New("disk I/O error")), http.StatusInternalServerError, "Database error", "disk I/O error"},
		{"unclassified", errors.New("secret internal detail"), http.StatusInternalServerError, "An internal error occurred", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decoding body %q: %v", rec.Body.String(), err)
			}
			if body.Error != tt.wantMessage {
				t.Errorf("error = %q, want %q", body.Error, tt.wantMessage)
			}
			if body.Details != tt.wantDetails {
				t.Errorf("details = %q, want %q", body.Details, tt.wantDetails)
			}
		})
	}
}

func TestWriteError_UnauthorizedChallenge(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, apperror.Unauthorized("Invalid token"))

	if got := rec.Header().Get("WWW-Authenticate"); got == "" {
		t.Error("WWW-Authenticate header missing on 401")
	}
}

func withParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestPathID(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{"42", 42, false},
		{"0", 0, true},
		{"-1", 0, true},
		{"abc", 0, true},
		{"", 0, true},
		{"99999999999999999999", 0, true},
	}

	for _, tt := range tests {
		r := withParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", tt.raw)
		got, err := pathID(r)
		if (err != nil) != tt.wantErr {
			t.Errorf("pathID(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("pathID(%q) = %d, want %d", tt.raw, got, tt.want)
		}
		if err != nil && !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("pathID(%q) error kind = %v, want ErrValidation", tt.raw, err)
		}
	}
}

func TestURLParam_DecodesOnce(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"plain", "/tag/go", "go"},
		{"space", "/tag/c%20sharp", "c sharp"},
		{"encoded slash keeps raw path", "/tag/a%2Fb", "a/b"},
		{"escaped percent", "/tag/a%2541", "a%41"},
		{"plus", "/tag/c%2B%2B", "c++"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			r := chi.NewRouter()
			r.Get("/tag/{tag}", func(w http.ResponseWriter, req *http.Request) {
				got = urlParam(req, "tag")
			})

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("GET %s status = %d, want 200", tt.path, rec.Code)
			}
			if got != tt.want {
				t.Errorf("urlParam(%s) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
