package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/example/task-tracker/config"
	"github.com/example/task-tracker/modules/audit"
	"github.com/example/task-tracker/modules/task"
	"github.com/example/task-tracker/modules/taskapi"
	"github.com/example/task-tracker/token"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Task Tracker: Task Service ===")

	cfg, err := config.LoadTaskService()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Token.UsesDevSecret() {
		log.Println("WARNING: JWT_SECRET_KEY is not set, using the development secret")
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
		mono.WithNATSPort(cfg.NATSPort),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Tokens are verified locally with the shared secret.
	codec := token.NewCodec(cfg.Token)

	app.Register(audit.NewModule(cfg.AuditMaxEntries)) // Event consumer (subscribes to task events)
	app.Register(task.NewModule(cfg.Store))            // Owns the store, emits events
	app.Register(taskapi.NewModule(cfg.HTTP, codec))   // Depends on task and audit

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(cfg config.TaskService) {
	log.Println("")
	log.Println("Task service started successfully!")
	log.Printf("Store: %s", cfg.Store.StoreDriver)
	if cfg.Store.RedisAddr != "" {
		log.Printf("List cache: redis at %s (ttl %s)", cfg.Store.RedisAddr, cfg.Store.CacheTTL)
	}
	log.Println("")
	log.Printf("REST API Endpoints (%s), all /tasks routes require a Bearer token:", cfg.HTTP.Addr)
	log.Println("  GET    /tasks      - List your tasks")
	log.Println("  POST   /tasks      - Create a task")
	log.Println("  GET    /tasks/:id  - Get one of your tasks")
	log.Println("  PUT    /tasks/:id  - Update one of your tasks")
	log.Println("  DELETE /tasks/:id  - Delete one of your tasks")
	log.Println("  GET    /activity   - Your recorded task events")
	log.Println("  GET    /health     - Health check")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
