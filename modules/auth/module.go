package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/example/task-tracker/database"
	"github.com/example/task-tracker/token"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/gorm"
)

// Config holds the credential store and hashing settings.
type Config struct {
	DBPath          string `env:"AUTH_DB_PATH" envDefault:"auth.db"`
	BcryptCost      int    `env:"BCRYPT_COST" envDefault:"12"`
	HashConcurrency int    `env:"HASH_CONCURRENCY" envDefault:"4"`
	DBDebug         bool   `env:"DB_DEBUG" envDefault:"false"`
}

// AuthModule provides registration, login and user lookup services.
type AuthModule struct {
	config  Config
	tokens  *token.Codec
	db      *gorm.DB
	repo    *UserRepository
	service *AuthService
}

// Compile-time interface checks.
var _ mono.Module = (*AuthModule)(nil)
var _ mono.ServiceProviderModule = (*AuthModule)(nil)
var _ mono.HealthCheckableModule = (*AuthModule)(nil)

// NewModule creates a new AuthModule issuing tokens with the given codec.
func NewModule(config Config, tokens *token.Codec) *AuthModule {
	return &AuthModule{
		config: config,
		tokens: tokens,
	}
}

// Name returns the module name.
func (m *AuthModule) Name() string {
	return "auth"
}

// Start opens the credential store and builds the service.
func (m *AuthModule) Start(ctx context.Context) error {
	db, err := database.OpenSQLite(m.config.DBPath, m.config.DBDebug)
	if err != nil {
		return err
	}
	m.db = db

	m.repo = NewUserRepository(db)
	if err := m.repo.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	hasher := NewPasswordHasher(m.config.BcryptCost, m.config.HashConcurrency)
	service, err := NewAuthService(ctx, m.repo, hasher, m.tokens)
	if err != nil {
		return err
	}
	m.service = service

	log.Printf("[auth] Module started (database: %s)", m.config.DBPath)
	return nil
}

// Stop closes the credential store.
func (m *AuthModule) Stop(_ context.Context) error {
	database.CloseSQLite(m.db)
	log.Println("[auth] Module stopped")
	return nil
}

// Service exposes the in-process service for callers in the same binary.
func (m *AuthModule) Service() *AuthService {
	return m.service
}

// Health returns the health status of the module.
func (m *AuthModule) Health(ctx context.Context) mono.HealthStatus {
	if err := database.PingSQLite(ctx, m.db); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	details := map[string]any{
		"database": m.config.DBPath,
	}
	if count, err := m.repo.Count(ctx); err == nil {
		details["users"] = count
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: details,
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *AuthModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		"register",
		json.Unmarshal,
		json.Marshal,
		m.handleRegister,
	); err != nil {
		return fmt.Errorf("failed to register register service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"login",
		json.Unmarshal,
		json.Marshal,
		m.handleLogin,
	); err != nil {
		return fmt.Errorf("failed to register login service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"get-user",
		json.Unmarshal,
		json.Marshal,
		m.handleGetUser,
	); err != nil {
		return fmt.Errorf("failed to register get-user service: %w", err)
	}

	log.Printf("[auth] Registered services: register, login, get-user")
	return nil
}

func (m *AuthModule) handleRegister(ctx context.Context, req RegisterRequest, _ *mono.Msg) (UserResponse, error) {
	user, err := m.service.Register(ctx, RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return UserResponse{}, err
	}
	return toUserResponse(user), nil
}

func (m *AuthModule) handleLogin(ctx context.Context, req LoginRequest, _ *mono.Msg) (LoginResponse, error) {
	result, err := m.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		return LoginResponse{}, err
	}
	return LoginResponse{
		AccessToken: result.AccessToken,
		TokenType:   result.TokenType,
		ExpiresIn:   result.ExpiresIn,
		User:        toUserResponse(result.User),
	}, nil
}

func (m *AuthModule) handleGetUser(ctx context.Context, req GetUserRequest, _ *mono.Msg) (UserResponse, error) {
	user, err := m.service.GetUser(ctx, req.UserID)
	if err != nil {
		return UserResponse{}, err
	}
	return toUserResponse(user), nil
}
