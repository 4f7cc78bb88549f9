package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/devlog/internal/apperror"
	"github.com/sakif/devlog/internal/auth"
	"github.com/sakif/devlog/internal/model"
)

func newTestAuthService(t *testing.T) (*AuthService, *fakeStore, *auth.TokenService) {
	t.Helper()

	tokens, err := auth.NewTokenService("test-secret-key-for-service-tests", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	store := newFakeStore()
	svc := NewAuthService(store, tokens, auth.NewPasswordServiceWithCost(bcrypt.MinCost), discardLogger())
	return svc, store, tokens
}

func registerAlice(t *testing.T, svc *AuthService) *model.User {
	t.Helper()
	user, err := svc.Register(context.Background(), model.RegisterRequest{
		Email: "alice@example.com", Username: "alice", Password: "s3cret",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return user
}

// ===== Register =====

func TestRegister_StoresHashNotPlaintext(t *testing.T) {
	svc, store, _ := newTestAuthService(t)

	user := registerAlice(t, svc)

	if user.ID <= 0 {
		t.Errorf("ID = %d, want > 0", user.ID)
	}
	stored := store.users[user.ID]
	if stored.PasswordHash == "s3cret" || !strings.HasPrefix(stored.PasswordHash, "$2") {
		t.Errorf("PasswordHash = %q, want a bcrypt hash", stored.PasswordHash)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	registerAlice(t, svc)

	_, err := svc.Register(context.Background(), model.RegisterRequest{
		Email: "other@example.com", Username: "alice", Password: "x",
	})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Register() error = %v, want ErrConflict", err)
	}
	if err.Error() != conflictMessage {
		t.Errorf("message = %q, want %q", err.Error(), conflictMessage)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	registerAlice(t, svc)

	_, err := svc.Register(context.Background(), model.RegisterRequest{
		Email: "alice@example.com", Username: "bob", Password: "x",
	})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Register() error = %v, want ErrConflict", err)
	}
}

func TestRegister_PasswordTooLong(t *testing.T) {
	svc, store, _ := newTestAuthService(t)

	_, err := svc.Register(context.Background(), model.RegisterRequest{
		Email: "a@b.co", Username: "a", Password: strings.Repeat("x", auth.MaxPasswordBytes+1),
	})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Register() error = %v, want ErrValidation", err)
	}
	if len(store.users) != 0 {
		t.Errorf("users stored = %d, want 0", len(store.users))
	}
}

func TestRegister_StorageFailure(t *testing.T) {
	svc, store, _ := newTestAuthService(t)
	store.failWith = apperror.Storage("counting users", errBoom)

	_, err := svc.Register(context.Background(), model.RegisterRequest{
		Email: "a@b.co", Username: "a", Password: "x",
	})
	if !errors.Is(err, apperror.ErrStorage) {
		t.Fatalf("Register() error = %v, want ErrStorage", err)
	}
}

// ===== Login =====

func TestLogin_ByUsername(t *testing.T) {
	svc, _, tokens := newTestAuthService(t)
	user := registerAlice(t, svc)

	res, err := svc.Login(context.Background(), model.LoginRequest{Username: "alice", Password: "s3cret"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if res.User.Username != "alice" {
		t.Errorf("Username = %q, want %q", res.User.Username, "alice")
	}

	got, err := tokens.Validate(res.Token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got != user.ID {
		t.Errorf("token subject = %d, want %d", got, user.ID)
	}
}

func TestLogin_ByEmail(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	registerAlice(t, svc)

	res, err := svc.Login(context.Background(), model.LoginRequest{Email: "alice@example.com", Password: "s3cret"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if res.Token == "" {
		t.Error("Token is empty")
	}
}

func TestLogin_Failures(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	registerAlice(t, svc)

	tests := []struct {
		name    string
		req     model.LoginRequest
		wantMsg string
	}{
		{
			name:    "unknown username",
			req:     model.LoginRequest{Username: "mallory", Password: "s3cret"},
			wantMsg: "User of that username does not exist",
		},
		{
			name:    "unknown email",
			req:     model.LoginRequest{Email: "mallory@example.com", Password: "s3cret"},
			wantMsg: "User of that email does not exist",
		},
		{
			name:    "wrong password",
			req:     model.LoginRequest{Username: "alice", Password: "wrong"},
			wantMsg: "Incorrect password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tt.req)
			if !errors.Is(err, apperror.ErrUnauthorized) {
				t.Fatalf("Login() error = %v, want ErrUnauthorized", err)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("message = %q, want %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

// ===== Account =====

func TestMe(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	user := registerAlice(t, svc)

	got, err := svc.Me(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Me() error = %v", err)
	}
	if got.Email != "alice@example.com" {
		t.Errorf("Email = %q", got.Email)
	}
}

func TestDeleteAccount_RemovesRecords(t *testing.T) {
	svc, store, _ := newTestAuthService(t)
	user := registerAlice(t, svc)
	entries := NewEntryService(store, discardLogger())
	if _, err := entries.Create(context.Background(), user.ID, model.CreateEntryRequest{Title: "T", Content: "C"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.DeleteAccount(context.Background(), user.ID); err != nil {
		t.Fatalf("DeleteAccount() error = %v", err)
	}

	if _, err := svc.Me(context.Background(), user.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Me() after delete error = %v, want ErrNotFound", err)
	}
	list, _ := entries.List(context.Background(), user.ID)
	if len(list) != 0 {
		t.Errorf("entries after delete = %d, want 0", len(list))
	}
	if err := svc.DeleteAccount(context.Background(), user.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second DeleteAccount() error = %v, want ErrNotFound", err)
	}
}
