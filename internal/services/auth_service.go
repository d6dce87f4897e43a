package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"spendtrack/internal/auth"
	"spendtrack/internal/core"
	"spendtrack/internal/storage"
)

// AuthService handles registration and login.
type AuthService struct {
	store  storage.Store
	tokens *auth.TokenManager
}

func NewAuthService(store storage.Store, tokens *auth.TokenManager) *AuthService {
	return &AuthService{store: store, tokens: tokens}
}

// CreatedUser is what Register returns: identifier and email only, never the
// password digest.
type CreatedUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Register creates a new account. The existence check and the insert are two
// separate store calls with nothing enforcing uniqueness in between;
// concurrent duplicate registrations can race. Known gap, kept deliberately.
func (s *AuthService) Register(ctx context.Context, email, password string) (*CreatedUser, error) {
	if err := core.ValidateCredentials(email, password); err != nil {
		return nil, err
	}

	existing, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if existing != nil {
		return nil, core.ErrUserExists
	}

	digest, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &core.User{
		Email:        email,
		PasswordHash: digest,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User registered", "user_id", user.ID, "email", user.Email)
	return &CreatedUser{ID: user.ID, Email: user.Email}, nil
}

// Login verifies credentials and issues a bearer token. An unknown email and
// a wrong password both return core.ErrInvalidCredentials so callers cannot
// tell which half failed.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return "", core.ErrInvalidCredentials
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return "", core.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	slog.InfoContext(ctx, "User logged in", "user_id", user.ID)
	return token, nil
}
