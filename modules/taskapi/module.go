package taskapi

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/example/task-tracker/httpserver"
	"github.com/example/task-tracker/modules/audit"
	"github.com/example/task-tracker/modules/task"
	"github.com/example/task-tracker/session"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
)

// Config holds the task HTTP listener settings.
type Config struct {
	Addr           string        `env:"TASK_HTTP_ADDR" envDefault:":3002"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
}

// APIModule serves the task HTTP API.
type APIModule struct {
	config   Config
	verifier session.Verifier
	app      *fiber.App
	tasks    task.TaskPort
	activity audit.ActivityPort
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule. Tokens are verified locally with the
// shared secret; the auth service is never contacted.
func NewModule(config Config, verifier session.Verifier) *APIModule {
	return &APIModule{
		config:   config,
		verifier: verifier,
	}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "task-api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"task", "audit"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "task":
		m.tasks = task.NewTaskAdapter(container)
	case "audit":
		m.activity = audit.NewAuditAdapter(container)
	}
}

// Start builds the Fiber app and starts listening.
func (m *APIModule) Start(_ context.Context) error {
	if m.tasks == nil {
		return fmt.Errorf("task dependency not set")
	}
	if m.activity == nil {
		return fmt.Errorf("audit dependency not set")
	}

	m.app = NewApp(m.tasks, m.activity, m.verifier, m.config.RequestTimeout)
	if err := httpserver.Serve(m.app, m.config.Addr); err != nil {
		return err
	}

	log.Printf("[task-api] HTTP server started on %s", m.config.Addr)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[task-api] Shutting down HTTP server...")
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

// NewApp wires the task routes onto a fresh Fiber app. Every route except
// /health is behind the session middleware.
func NewApp(tasks task.TaskPort, activity audit.ActivityPort, verifier session.Verifier, timeout time.Duration) *fiber.App {
	app := httpserver.New("task-tracker tasks", timeout)
	handlers := NewHandlers(tasks, activity)

	app.Get("/health", httpserver.Health("tasks"))

	taskRoutes := app.Group("/tasks", session.Middleware(verifier))
	taskRoutes.Get("/", handlers.List)
	taskRoutes.Post("/", handlers.Create)
	taskRoutes.Get("/:id", handlers.Get)
	taskRoutes.Put("/:id", handlers.Update)
	taskRoutes.Delete("/:id", handlers.Delete)

	app.Get("/activity", session.Middleware(verifier), handlers.Activity)

	return app
}
