package handler

// Every error response has the same shape:
//
//	{"error": "Entry not found with id 7"}
//	{"error": "Database error", "details": "database is locked"}
//
// writeError is the only place where an error kind becomes a status code.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/devlog/internal/apperror"
	"github.com/sakif/devlog/internal/auth"
	"github.com/sakif/devlog/internal/validate"
)

// MaxBodyBytes caps every JSON request body.
const MaxBodyBytes = 1 << 20

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

var successResponse = MessageResponse{Message: "Success"}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		// Never leak an unclassified cause to the client.
		slog.Error("unhandled error", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "An internal error occurred"})
		return
	}

	if errors.Is(err, apperror.ErrUnauthorized) {
		w.Header().Set("WWW-Authenticate", `Bearer realm="devlog"`)
	}
	writeJSON(w, statusFor(err), ErrorResponse{Error: appErr.Message, Details: appErr.Detail})
}

// decodeBody strictly decodes and validates a JSON request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, v *validate.Validator, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	return v.Decode(r.Body, dst)
}

// pathID parses the {id} URL parameter as a positive integer.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFailed("id", "Invalid id")
	}
	return id, nil
}

// callerID returns the user id put in the context by auth.RequireAuth.
func callerID(r *http.Request) (int64, error) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return 0, apperror.Unauthorized("Missing authorization token")
	}
	return id, nil
}

// urlParam returns a path parameter with any percent-encoding removed. chi
// matches against r.URL.RawPath when it is set, so only then is the value
// still encoded; otherwise it is already decoded and used as is.
func urlParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return raw
	}
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}
