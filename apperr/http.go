package apperr

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error   string       `json:"error"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// Respond writes an ErrorResponse with the given status.
func Respond(c *fiber.Ctx, status int, reason, message string) error {
	return c.Status(status).JSON(ErrorResponse{
		Error:   reason,
		Message: message,
	})
}

// WriteError maps err onto its HTTP status and writes the response.
// Store failures and unclassified errors are logged and reported as 500
// without their text.
func WriteError(c *fiber.Ctx, err error) error {
	switch Kind(err) {
	case ErrValidation:
		resp := ErrorResponse{
			Error:   "bad_request",
			Message: "Validation failed",
		}
		var verr *ValidationError
		if errors.As(err, &verr) {
			resp.Fields = verr.Fields
		}
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	case ErrDuplicateEmail:
		return Respond(c, fiber.StatusConflict, "conflict", "User with this email already exists")
	case ErrInvalidCredentials:
		return Respond(c, fiber.StatusUnauthorized, "unauthorized", "Invalid email or password")
	case ErrUnauthorized:
		return Respond(c, fiber.StatusUnauthorized, "unauthorized", "Authentication required")
	case ErrNotFound:
		return Respond(c, fiber.StatusNotFound, "not_found", "Resource not found")
	default:
		log.Printf("[api] Internal error on %s %s: %v", c.Method(), c.Path(), err)
		return Respond(c, fiber.StatusInternalServerError, "internal_error", "An internal error occurred")
	}
}

// FiberErrorHandler renders errors escaping the handler chain, including
// fiber's own routing errors, as ErrorResponse bodies.
func FiberErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		reason := "server_error"
		switch fe.Code {
		case fiber.StatusNotFound:
			reason = "not_found"
		case fiber.StatusMethodNotAllowed:
			reason = "method_not_allowed"
		case fiber.StatusBadRequest:
			reason = "bad_request"
		case fiber.StatusRequestTimeout:
			reason = "timeout"
		}
		return Respond(c, fe.Code, reason, fe.Message)
	}
	return WriteError(c, err)
}
