package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/example/task-tracker/apperr"
	domain "github.com/example/task-tracker/domain/user"
	"github.com/example/task-tracker/token"
	"github.com/google/uuid"
)

// maxPasswordBytes is bcrypt's input limit.
const maxPasswordBytes = 72

// RegisterInput is a validated registration request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// NormalizeEmail trims and lower-cases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateRegistration checks raw registration fields and returns the
// normalized input, or a *apperr.ValidationError listing every bad field.
func ValidateRegistration(name, email, password string) (RegisterInput, error) {
	verr := &apperr.ValidationError{}

	name = strings.TrimSpace(name)
	if name == "" {
		verr.Add("name", "is required")
	}

	email = NormalizeEmail(email)
	if email == "" {
		verr.Add("email", "is required")
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		verr.Add("email", "must be a valid email address")
	}

	switch {
	case password == "":
		verr.Add("password", "is required")
	case len(password) > maxPasswordBytes:
		verr.Add("password", fmt.Sprintf("must be at most %d bytes", maxPasswordBytes))
	}

	if err := verr.OrNil(); err != nil {
		return RegisterInput{}, err
	}
	return RegisterInput{Name: name, Email: email, Password: password}, nil
}

// ValidateLogin checks that both credentials are present.
func ValidateLogin(email, password string) (string, error) {
	verr := &apperr.ValidationError{}
	email = NormalizeEmail(email)
	if email == "" {
		verr.Add("email", "is required")
	}
	if password == "" {
		verr.Add("password", "is required")
	}
	return email, verr.OrNil()
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int64
	User        *domain.User
}

// AuthService handles registration and login.
type AuthService struct {
	repo      *UserRepository
	hasher    *PasswordHasher
	tokens    *token.Codec
	dummyHash string
}

// NewAuthService creates a new AuthService.
func NewAuthService(ctx context.Context, repo *UserRepository, hasher *PasswordHasher, tokens *token.Codec) (*AuthService, error) {
	dummy, err := hasher.Hash(ctx, uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}
	return &AuthService{
		repo:      repo,
		hasher:    hasher,
		tokens:    tokens,
		dummyHash: dummy,
	}, nil
}

// Register creates a new user account. It never issues a token.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	input, err := ValidateRegistration(input.Name, input.Email, input.Password)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.EmailExists(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.ErrDuplicateEmail
	}

	passwordHash, err := s.hasher.Hash(ctx, input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("[auth] Registered user %s", user.ID)
	return user, nil
}

// Login verifies credentials and issues a token whose subject is the user id.
// Unknown emails and wrong passwords fail identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = NormalizeEmail(email)

	// bcrypt ignores bytes past the limit, so a longer password can never be
	// the registered one.
	if len(password) > maxPasswordBytes {
		if _, err := s.hasher.Verify(ctx, password[:maxPasswordBytes], s.dummyHash); err != nil {
			return nil, fmt.Errorf("failed to verify password: %w", err)
		}
		return nil, apperr.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		// Burn the same bcrypt time as a real comparison.
		if _, err := s.hasher.Verify(ctx, password, s.dummyHash); err != nil {
			return nil, fmt.Errorf("failed to verify password: %w", err)
		}
		return nil, apperr.ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(ctx, password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return nil, apperr.ErrInvalidCredentials
	}

	accessToken, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &LoginResult{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   s.tokens.ExpiresIn(),
		User:        user,
	}, nil
}

// GetUser retrieves a user by ID. A missing user maps to ErrNotFound.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, apperr.ErrUnauthorized
	}
	user, err := s.repo.FindByID(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return nil, apperr.ErrNotFound
	}
	return user, err
}
