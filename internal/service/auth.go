package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/devlog/internal/apperror"
	"github.com/sakif/devlog/internal/auth"
	"github.com/sakif/devlog/internal/model"
	"github.com/sakif/devlog/internal/repository"
)

const conflictMessage = "User with this email or username already exists"

// AuthService registers accounts, checks credentials and issues tokens.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// LoginResult bundles the authenticated user with the issued token.
type LoginResult struct {
	User  *model.User
	Token string
}

// Register creates an account. req must already have passed validation.
// The plaintext password is hashed here and never stored or logged.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	if len(req.Password) > auth.MaxPasswordBytes {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("Password must be %d bytes or fewer", auth.MaxPasswordBytes))
	}

	exists, err := s.users.UserExists(ctx, req.Email, req.Username)
	if err != nil {
		logFailure(s.logger, "checking existing user", err)
		return nil, err
	}
	if exists {
		return nil, apperror.Conflict(conflictMessage)
	}

	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hash,
	}
	// A concurrent registration can still win the race; the store reports
	// that as a conflict too.
	if err := s.users.CreateUser(ctx, user); err != nil {
		if !errors.Is(err, apperror.ErrConflict) {
			logFailure(s.logger, "creating user", err, slog.String("username", req.Username))
		}
		return nil, err
	}

	s.logger.Info("user registered",
		slog.Int64("userID", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Login checks the credentials and issues an access token. The user is looked
// up by username, or by email when no username is given.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*LoginResult, error) {
	var (
		user *model.User
		err  error
		by   = "username"
	)
	if req.Username != "" {
		user, err = s.users.GetUserByUsername(ctx, req.Username)
	} else {
		by = "email"
		user, err = s.users.GetUserByEmail(ctx, req.Email)
	}
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("User of that " + by + " does not exist")
		}
		logFailure(s.logger, "looking up user", err, slog.String("by", by))
		return nil, err
	}

	if err := s.passwords.Verify(user.PasswordHash, req.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Info("login rejected", slog.Int64("userID", user.ID))
			return nil, apperror.Unauthorized("Incorrect password")
		}
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %d: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.Int64("userID", user.ID))
	return &LoginResult{User: user, Token: token}, nil
}

// Me returns the caller's own profile.
func (s *AuthService) Me(ctx context.Context, userID int64) (*model.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

// DeleteAccount removes the caller and everything they own.
func (s *AuthService) DeleteAccount(ctx context.Context, userID int64) error {
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		logFailure(s.logger, "deleting user", err, slog.Int64("userID", userID))
		return err
	}
	s.logger.Info("user deleted", slog.Int64("userID", userID))
	return nil
}
