package taskapi

import (
	"github.com/example/task-tracker/apperr"
	"github.com/example/task-tracker/modules/audit"
	"github.com/example/task-tracker/modules/task"
	"github.com/example/task-tracker/session"
	"github.com/gofiber/fiber/v2"
)

// Handlers contains HTTP handlers for the task API. Every handler runs
// behind session.Middleware and scopes its call to the session's user.
type Handlers struct {
	tasks    task.TaskPort
	activity audit.ActivityPort
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(tasks task.TaskPort, activity audit.ActivityPort) *Handlers {
	return &Handlers{tasks: tasks, activity: activity}
}

func owner(c *fiber.Ctx) (string, error) {
	s, ok := session.From(c)
	if !ok {
		return "", apperr.ErrUnauthorized
	}
	return s.UserID, nil
}

// List returns the caller's tasks.
func (h *Handlers) List(c *fiber.Ctx) error {
	ownerID, err := owner(c)
	if err != nil {
		return apperr.WriteError(c, err)
	}

	tasks, err := h.tasks.ListTasks(c.UserContext(), ownerID)
	if err != nil {
		return apperr.WriteError(c, err)
	}

	return c.JSON(newTaskList(tasks))
}

// Get returns one of the caller's tasks.
func (h *Handlers) Get(c *fiber.Ctx) error {
	ownerID, err := owner(c)
	if err != nil {
		return apperr.WriteError(c, err)
	}

	t, err := h.tasks.GetTask(c.UserContext(), c.Params("id"), ownerID)
	if err != nil {
		return apperr.WriteError(c, err)
	}

	return c.JSON(newTaskResponse(t))
}

// Create stores a new task owned by the caller.
func (h *Handlers) Create(c *fiber.Ctx) error {
	ownerID, err := owner(c)
	if err != nil {
		return apperr.WriteError(c, err)
	}

	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Respond(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	input, err := task.ValidateCreate(req.Title, req.Description, req.Status)
	if err != nil {
		return apperr.WriteError(c, err)
	}

	t, err := h.tasks.CreateTask(c.UserContext(), ownerID, input)
	if err != nil {
		return apperr.WriteError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(newTaskResponse(t))
}

// Update changes the supplied fields of one of the caller's tasks.
func (h *Handlers) Update(c *fiber.Ctx) error {
	ownerID, err := owner(c)
	if err != nil {
		return apperr.WriteError(c, err)
	}

	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Respond(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	fields, err := task.ValidateUpdate(req.Title, req.Description, req.Status)
	if err != nil {
		return apperr.WriteError(c, err)
	}

	t, err := h.tasks.UpdateTask(c.UserContext(), c.Params("id"), ownerID, fields)
	if err != nil {
		return apperr.WriteError(c, err)
	}

	return c.JSON(newTaskResponse(t))
}

// Delete removes one of the caller's tasks.
func (h *Handlers) Delete(c *fiber.Ctx) error {
	ownerID, err := owner(c)
	if err != nil {
		return apperr.WriteError(c, err)
	}

	if err := h.tasks.DeleteTask(c.UserContext(), c.Params("id"), ownerID); err != nil {
		return apperr.WriteError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Activity returns the caller's recorded task events.
func (h *Handlers) Activity(c *fiber.Ctx) error {
	ownerID, err := owner(c)
	if err != nil {
		return apperr.WriteError(c, err)
	}

	entries, err := h.activity.Activity(c.UserContext(), ownerID)
	if err != nil {
		return apperr.WriteError(c, err)
	}

	return c.JSON(newActivityList(entries))
}
