package authapi

import (
	"github.com/example/task-tracker/apperr"
	"github.com/example/task-tracker/modules/auth"
	"github.com/example/task-tracker/session"
	"github.com/gofiber/fiber/v2"
)

// Handlers contains HTTP handlers for the auth API.
type Handlers struct {
	auth auth.AuthPort
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(port auth.AuthPort) *Handlers {
	return &Handlers{auth: port}
}

// Register handles user registration. No token is issued.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Respond(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	input, err := auth.ValidateRegistration(req.Name, req.Email, req.Password)
	if err != nil {
		return apperr.WriteError(c, err)
	}

	user, err := h.auth.Register(c.UserContext(), input)
	if err != nil {
		return apperr.WriteError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(newUserResponse(user))
}

// Login exchanges credentials for an access token.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Respond(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	email, err := auth.ValidateLogin(req.Email, req.Password)
	if err != nil {
		return apperr.WriteError(c, err)
	}

	result, err := h.auth.Login(c.UserContext(), email, req.Password)
	if err != nil {
		return apperr.WriteError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(TokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   result.TokenType,
		ExpiresIn:   result.ExpiresIn,
		User:        newUserResponse(result.User),
	})
}

// Profile returns the user named by the request's verified token.
func (h *Handlers) Profile(c *fiber.Ctx) error {
	s, ok := session.From(c)
	if !ok {
		return apperr.WriteError(c, apperr.ErrUnauthorized)
	}

	user, err := h.auth.GetUser(c.UserContext(), s.UserID)
	if err != nil {
		return apperr.WriteError(c, err)
	}

	return c.JSON(newUserResponse(user))
}
