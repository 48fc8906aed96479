package task

import (
	domain "github.com/example/task-tracker/domain/task"
)

// ListTasksRequest asks for every task of an owner.
type ListTasksRequest struct {
	OwnerID string `json:"owner_id"`
}

// ListTasksResponse carries an owner's tasks.
type ListTasksResponse struct {
	Tasks []domain.Task `json:"tasks"`
}

// GetTaskRequest identifies a single task of an owner.
type GetTaskRequest struct {
	TaskID  string `json:"task_id"`
	OwnerID string `json:"owner_id"`
}

// CreateTaskRequest is the payload of the create-task service.
type CreateTaskRequest struct {
	OwnerID     string `json:"owner_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// UpdateTaskRequest is the payload of the update-task service. Nil fields are left unchanged.
type UpdateTaskRequest struct {
	TaskID      string  `json:"task_id"`
	OwnerID     string  `json:"owner_id"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// DeleteTaskRequest identifies the task to delete.
type DeleteTaskRequest struct {
	TaskID  string `json:"task_id"`
	OwnerID string `json:"owner_id"`
}

// DeleteTaskResponse acknowledges a deletion.
type DeleteTaskResponse struct {
	Deleted bool `json:"deleted"`
}

func (r UpdateTaskRequest) fields() domain.Fields {
	var fields domain.Fields
	fields.Title = r.Title
	fields.Description = r.Description
	if r.Status != nil {
		s := domain.Status(*r.Status)
		fields.Status = &s
	}
	return fields
}

func updateRequest(id, ownerID string, fields domain.Fields) UpdateTaskRequest {
	req := UpdateTaskRequest{
		TaskID:      id,
		OwnerID:     ownerID,
		Title:       fields.Title,
		Description: fields.Description,
	}
	if fields.Status != nil {
		s := string(*fields.Status)
		req.Status = &s
	}
	return req
}
