package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/devlog/internal/apperror"
	"github.com/sakif/devlog/internal/model"
	"github.com/sakif/devlog/internal/service"
	"github.com/sakif/devlog/internal/validate"
)

// LoginRecorder counts login outcomes.
type LoginRecorder interface {
	RecordLogin(outcome string)
}

type AuthHandler struct {
	auth      *service.AuthService
	validator *validate.Validator
	logins    LoginRecorder
	logger    *slog.Logger
}

// NewAuthHandler builds the account handlers. logins may be nil.
func NewAuthHandler(auth *service.AuthService, v *validate.Validator, logins LoginRecorder, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, validator: v, logins: logins, logger: logger}
}

type LoginResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
}

// HandleRegister creates an account.
//
// HTTP: POST /register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeBody(w, r, h.validator, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.auth.Register(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, MessageResponse{
		Message: fmt.Sprintf("User %s registered successfully!", user.Username),
	})
}

// HandleLogin exchanges credentials for an access token.
//
// HTTP: POST /login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeBody(w, r, h.validator, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.auth.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, apperror.ErrUnauthorized) {
			h.recordLogin("failure")
		}
		writeError(w, err)
		return
	}
	h.recordLogin("success")

	writeJSON(w, http.StatusOK, LoginResponse{
		Message:     "Login successful",
		AccessToken: res.Token,
		Username:    res.User.Username,
	})
}

func (h *AuthHandler) recordLogin(outcome string) {
	if h.logins != nil {
		h.logins.RecordLogin(outcome)
	}
}

// HandleMe returns the caller's profile.
//
// HTTP: GET /api/v1/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.auth.Me(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleDeleteMe deletes the caller's account and all of its records.
//
// HTTP: DELETE /api/v1/me
func (h *AuthHandler) HandleDeleteMe(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.auth.DeleteAccount(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse)
}
