package task

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/task-tracker/domain/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// TaskPort defines the owner-scoped task operations.
// This is the port that the HTTP module uses to reach the task module.
type TaskPort interface {
	ListTasks(ctx context.Context, ownerID string) ([]domain.Task, error)
	GetTask(ctx context.Context, id, ownerID string) (*domain.Task, error)
	CreateTask(ctx context.Context, ownerID string, input CreateInput) (*domain.Task, error)
	UpdateTask(ctx context.Context, id, ownerID string, fields domain.Fields) (*domain.Task, error)
	DeleteTask(ctx context.Context, id, ownerID string) error
}

var _ TaskPort = (*TaskAdapter)(nil)

// TaskAdapter implements TaskPort using the service container.
type TaskAdapter struct {
	container mono.ServiceContainer
}

// NewTaskAdapter creates a new TaskAdapter.
func NewTaskAdapter(container mono.ServiceContainer) *TaskAdapter {
	return &TaskAdapter{container: container}
}

// ListTasks calls the list-tasks service.
func (a *TaskAdapter) ListTasks(ctx context.Context, ownerID string) ([]domain.Task, error) {
	req := ListTasksRequest{OwnerID: ownerID}
	var resp ListTasksResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"list-tasks",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("list-tasks request failed: %w", err)
	}

	if resp.Tasks == nil {
		resp.Tasks = make([]domain.Task, 0)
	}
	return resp.Tasks, nil
}

// GetTask calls the get-task service.
func (a *TaskAdapter) GetTask(ctx context.Context, id, ownerID string) (*domain.Task, error) {
	req := GetTaskRequest{TaskID: id, OwnerID: ownerID}
	var resp domain.Task

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"get-task",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("get-task request failed: %w", err)
	}

	return &resp, nil
}

// CreateTask calls the create-task service.
func (a *TaskAdapter) CreateTask(ctx context.Context, ownerID string, input CreateInput) (*domain.Task, error) {
	req := CreateTaskRequest{
		OwnerID:     ownerID,
		Title:       input.Title,
		Description: input.Description,
		Status:      string(input.Status),
	}
	var resp domain.Task

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"create-task",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("create-task request failed: %w", err)
	}

	return &resp, nil
}

// UpdateTask calls the update-task service.
func (a *TaskAdapter) UpdateTask(ctx context.Context, id, ownerID string, fields domain.Fields) (*domain.Task, error) {
	req := updateRequest(id, ownerID, fields)
	var resp domain.Task

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"update-task",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("update-task request failed: %w", err)
	}

	return &resp, nil
}

// DeleteTask calls the delete-task service.
func (a *TaskAdapter) DeleteTask(ctx context.Context, id, ownerID string) error {
	req := DeleteTaskRequest{TaskID: id, OwnerID: ownerID}
	var resp DeleteTaskResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"delete-task",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return fmt.Errorf("delete-task request failed: %w", err)
	}

	return nil
}
