package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/vovakirdan/duochat-server/internal/store"
	"github.com/vovakirdan/duochat-server/internal/utils"
)

var (
	// ErrInvalidCredentials is returned when username/password don't match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned when trying to register with an existing
	// username or email.
	ErrUserExists = errors.New("user already exists")
	// ErrUsernameTaken is returned by UsernameAvailable for a used username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrEmailTaken is returned by EmailAvailable for a used email.
	ErrEmailTaken = errors.New("email already taken")
	// ErrInvalidUsername is returned when username doesn't meet constraints.
	ErrInvalidUsername = errors.New("invalid username")
	// ErrInvalidPassword is returned when password doesn't meet constraints.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrInvalidEmail is returned when the email address can't be parsed.
	ErrInvalidEmail = errors.New("invalid email")
	// ErrInvalidName is returned when the profile name doesn't meet constraints.
	ErrInvalidName = errors.New("invalid profile name")
)

// Service provides authentication operations.
type Service struct {
	store     store.UserStore
	jwtConfig *JWTConfig
}

// NewService creates a new authentication service.
func NewService(userStore store.UserStore, jwtConfig *JWTConfig) *Service {
	return &Service{
		store:     userStore,
		jwtConfig: jwtConfig,
	}
}

// RegisterInput carries the fields needed to create a user and its profile.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Name     string
}

// Register creates a new user with its profile and returns a JWT token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (string, error) {
	username := strings.TrimSpace(in.Username)
	if len(username) < 4 || len(username) > 32 {
		return "", ErrInvalidUsername
	}
	if !validPassword(in.Password) {
		return "", ErrInvalidPassword
	}
	email := strings.TrimSpace(in.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return "", ErrInvalidEmail
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = username
	}
	if len(name) < 3 || len(name) > 25 {
		return "", ErrInvalidName
	}

	if err := s.UsernameAvailable(ctx, username); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return "", ErrUserExists
		}
		return "", err
	}
	if err := s.EmailAvailable(ctx, email); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return "", ErrUserExists
		}
		return "", err
	}

	hashedPassword, err := HashPassword(in.Password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user := &store.User{
		ID:           utils.NewID(),
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
	}
	profile := &store.Profile{
		ID:   utils.NewID(),
		Name: name,
	}
	if err := s.store.CreateUserWithProfile(ctx, user, profile); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return "", ErrUserExists
		}
		return "", fmt.Errorf("create user: %w", err)
	}

	token, err := GenerateToken(s.jwtConfig, user.ID, profile.ID, user.Username)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return token, nil
}

// UsernameAvailable returns ErrUsernameTaken when a user already has username.
func (s *Service) UsernameAvailable(ctx context.Context, username string) error {
	_, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	return takenOrNil(err, ErrUsernameTaken)
}

// EmailAvailable returns ErrEmailTaken when a user already has email.
func (s *Service) EmailAvailable(ctx context.Context, email string) error {
	_, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	return takenOrNil(err, ErrEmailTaken)
}

// takenOrNil turns a lookup result into taken when the record exists.
func takenOrNil(lookupErr, taken error) error {
	switch {
	case lookupErr == nil:
		return taken
	case errors.Is(lookupErr, store.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("lookup user: %w", lookupErr)
	}
}

// Login validates credentials and returns a JWT token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if !PasswordMatches(user.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}

	token, err := GenerateToken(s.jwtConfig, user.ID, user.ProfileID, user.Username)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return token, nil
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}
