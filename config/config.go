// Package config loads the per-service settings from the environment.
package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/example/task-tracker/modules/auth"
	"github.com/example/task-tracker/modules/authapi"
	"github.com/example/task-tracker/modules/task"
	"github.com/example/task-tracker/modules/taskapi"
	"github.com/example/task-tracker/token"
)

// AuthService is the configuration of the auth service process.
type AuthService struct {
	HTTP     authapi.Config
	Auth     auth.Config
	Token    token.Config
	NATSPort int `env:"AUTH_NATS_PORT" envDefault:"4222"`
}

// TaskService is the configuration of the task service process.
type TaskService struct {
	HTTP            taskapi.Config
	Store           task.Config
	Token           token.Config
	NATSPort        int `env:"TASK_NATS_PORT" envDefault:"4223"`
	AuditMaxEntries int `env:"AUDIT_MAX_ENTRIES" envDefault:"1000"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadAuthService reads and validates the auth service configuration.
func LoadAuthService() (AuthService, error) {
	var cfg AuthService
	if err := ParseEnv(&cfg); err != nil {
		return AuthService{}, err
	}
	if err := validateToken(cfg.Token); err != nil {
		return AuthService{}, err
	}
	if cfg.HTTP.Addr == "" {
		return AuthService{}, errors.New("AUTH_HTTP_ADDR must not be empty")
	}
	return cfg, nil
}

// LoadTaskService reads and validates the task service configuration.
func LoadTaskService() (TaskService, error) {
	var cfg TaskService
	if err := ParseEnv(&cfg); err != nil {
		return TaskService{}, err
	}
	if err := validateToken(cfg.Token); err != nil {
		return TaskService{}, err
	}
	if cfg.HTTP.Addr == "" {
		return TaskService{}, errors.New("TASK_HTTP_ADDR must not be empty")
	}

	switch cfg.Store.StoreDriver {
	case task.DriverSQLite:
	case task.DriverPostgres:
		if cfg.Store.DatabaseURL == "" {
			return TaskService{}, errors.New("DATABASE_URL is required when TASK_STORE_DRIVER=postgres")
		}
	default:
		return TaskService{}, fmt.Errorf("unknown TASK_STORE_DRIVER %q", cfg.Store.StoreDriver)
	}
	return cfg, nil
}

func validateToken(cfg token.Config) error {
	if cfg.SecretKey == "" {
		return errors.New("JWT_SECRET_KEY must not be empty")
	}
	if cfg.TTL < 0 {
		return errors.New("JWT_TTL must not be negative")
	}
	return nil
}
