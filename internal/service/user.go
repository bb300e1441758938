package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/model"
	"github.com/taskdeck/taskdeck/internal/repository"
)

// User service errors.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("email or username already registered")
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrInactiveUser       = errors.New("user account is inactive")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidUsername    = errors.New("username must be 3-100 characters")
	ErrInvalidPassword    = errors.New("password must be 8-100 characters")
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const (
	minUsernameLength = 3
	maxUsernameLength = 100
	minPasswordLength = 8
	maxPasswordLength = 100
)

// UserStore is the relational store capability the user service consumes.
// *repository.Repository satisfies it.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
}

// AuthCache invalidates cached auth contexts when a profile changes.
// *cache.Cache satisfies it.
type AuthCache interface {
	DeleteAuthContext(ctx context.Context, userID string) error
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// UserService handles registration, authentication, and profile updates.
type UserService struct {
	store     UserStore
	authCache AuthCache
	issuer    *auth.TokenIssuer
}

// NewUserService creates a new UserService.
func NewUserService(store UserStore, authCache AuthCache, issuer *auth.TokenIssuer) *UserService {
	return &UserService{
		store:     store,
		authCache: authCache,
		issuer:    issuer,
	}
}

// RegisterInput defines input for registering a user.
type RegisterInput struct {
	Email    string
	Username string
	FullName string
	Password string
}

// Register creates a new active user account.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	if !emailRegex.MatchString(input.Email) {
		return nil, ErrInvalidEmail
	}
	if len(input.Username) < minUsernameLength || len(input.Username) > maxUsernameLength {
		return nil, ErrInvalidUsername
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        input.Email,
		Username:     input.Username,
		FullName:     input.FullName,
		PasswordHash: hash,
		Role:         model.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login verifies credentials and issues a token pair.
// Unknown username and wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	match, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil || !match {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrInactiveUser
	}

	return s.issueTokens(user)
}

// Refresh exchanges a valid refresh token for a new token pair.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.issuer.Verify(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.store.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrInactiveUser
	}

	return s.issueTokens(user)
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfileInput defines input for a partial profile update.
type UpdateProfileInput struct {
	UserID   string
	Email    *string
	FullName *string
	Password *string
}

// UpdateProfile applies a partial update to the caller's own profile and
// evicts their cached auth context so the change is visible immediately.
func (s *UserService) UpdateProfile(ctx context.Context, input UpdateProfileInput) (*model.User, error) {
	user, err := s.GetUser(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		if !emailRegex.MatchString(*input.Email) {
			return nil, ErrInvalidEmail
		}
		user.Email = *input.Email
	}

	if input.FullName != nil {
		user.FullName = *input.FullName
	}

	if input.Password != nil {
		if err := validatePassword(*input.Password); err != nil {
			return nil, err
		}
		hash, err := auth.HashPassword(*input.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	user.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrUserExists):
			return nil, ErrUserExists
		case errors.Is(err, repository.ErrUserNotFound):
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	// Best effort; a stale auth context expires with its TTL.
	_ = s.authCache.DeleteAuthContext(ctx, user.ID)

	return user, nil
}

func (s *UserService) issueTokens(user *model.User) (*TokenPair, error) {
	access, err := s.issuer.IssueAccessToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	refresh, err := s.issuer.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	}, nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return ErrInvalidPassword
	}
	return nil
}
