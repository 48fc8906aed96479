package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/example/task-tracker/config"
	"github.com/example/task-tracker/modules/auth"
	"github.com/example/task-tracker/modules/authapi"
	"github.com/example/task-tracker/token"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Task Tracker: Auth Service ===")

	cfg, err := config.LoadAuthService()
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

	codec := token.NewCodec(cfg.Token)

	// Order: independent modules first, then dependent modules
	app.Register(auth.NewModule(cfg.Auth, codec))
	app.Register(authapi.NewModule(cfg.HTTP, codec))

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

func printStartupInfo(cfg config.AuthService) {
	log.Println("")
	log.Println("Auth service started successfully!")
	log.Printf("REST API Endpoints (%s):", cfg.HTTP.Addr)
	log.Println("  POST   /auth/register  - Register a new user")
	log.Println("  POST   /auth/login     - Login and get an access token")
	log.Println("  GET    /auth/profile   - Current user (Bearer token)")
	log.Println("  GET    /health         - Health check")
	log.Println("")
	log.Printf("Token TTL: %s, issuer: %s", cfg.Token.TTL, cfg.Token.Issuer)
	log.Println("Press Ctrl+C to shutdown gracefully")
}
