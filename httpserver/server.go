// Package httpserver builds the Fiber apps served by both binaries.
package httpserver

import (
	"context"
	"fmt"
	"time"

	"github.com/example/task-tracker/apperr"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// startupGrace is how long Serve waits for Listen to fail before assuming success.
const startupGrace = 100 * time.Millisecond

// New creates a Fiber app with the common middleware stack. A positive
// timeout bounds the context handed to handlers.
func New(name string, timeout time.Duration) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               name,
		DisableStartupMessage: true,
		ErrorHandler:          apperr.FiberErrorHandler,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		IdleTimeout:           60 * time.Second,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))
	if timeout > 0 {
		app.Use(RequestTimeout(timeout))
	}

	return app
}

// RequestTimeout attaches a deadline to the request's user context.
func RequestTimeout(d time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), d)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// Health is the unauthenticated liveness handler.
func Health(service string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": service,
			"time":    time.Now().UTC(),
		})
	}
}

// Serve starts listening in the background and reports immediate failures
// such as an address already in use.
func Serve(app *fiber.App, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		if err := app.Listen(addr); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed to start: %w", err)
	case <-time.After(startupGrace):
		return nil
	}
}
