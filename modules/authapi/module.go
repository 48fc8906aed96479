package authapi

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/example/task-tracker/httpserver"
	"github.com/example/task-tracker/modules/auth"
	"github.com/example/task-tracker/session"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
)

// Config holds the auth HTTP listener settings.
type Config struct {
	Addr           string        `env:"AUTH_HTTP_ADDR" envDefault:":3001"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
}

// APIModule serves the auth HTTP API.
type APIModule struct {
	config   Config
	verifier session.Verifier
	app      *fiber.App
	auth     auth.AuthPort
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule. The verifier authenticates /auth/profile.
func NewModule(config Config, verifier session.Verifier) *APIModule {
	return &APIModule{
		config:   config,
		verifier: verifier,
	}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "auth-api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"auth"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.auth = auth.NewAuthAdapter(container)
	}
}

// Start builds the Fiber app and starts listening.
func (m *APIModule) Start(_ context.Context) error {
	if m.auth == nil {
		return fmt.Errorf("auth dependency not set")
	}

	m.app = NewApp(m.auth, m.verifier, m.config.RequestTimeout)
	if err := httpserver.Serve(m.app, m.config.Addr); err != nil {
		return err
	}

	log.Printf("[auth-api] HTTP server started on %s", m.config.Addr)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[auth-api] Shutting down HTTP server...")
	return m.app.ShutdownWithContext(ctx)
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"addr": m.config.Addr,
		},
	}
}

// NewApp wires the auth routes onto a fresh Fiber app.
func NewApp(port auth.AuthPort, verifier session.Verifier, timeout time.Duration) *fiber.App {
	app := httpserver.New("task-tracker auth", timeout)
	handlers := NewHandlers(port)

	app.Get("/health", httpserver.Health("auth"))

	authRoutes := app.Group("/auth")
	authRoutes.Post("/register", handlers.Register)
	authRoutes.Post("/login", handlers.Login)
	authRoutes.Get("/profile", session.Middleware(verifier), handlers.Profile)

	return app
}
