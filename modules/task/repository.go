package task

import (
	"context"
	"time"

	domain "github.com/example/task-tracker/domain/task"
)

// Repository persists tasks. Every read and write is constrained to an owner;
// a task owned by someone else is reported as apperr.ErrNotFound.
type Repository interface {
	FindByOwner(ctx context.Context, ownerID string) ([]domain.Task, error)
	FindByIDAndOwner(ctx context.Context, id, ownerID string) (*domain.Task, error)
	Insert(ctx context.Context, task *domain.Task) error
	UpdateFields(ctx context.Context, id, ownerID string, fields domain.Fields, updatedAt time.Time) (*domain.Task, error)
	DeleteByIDAndOwner(ctx context.Context, id, ownerID string) error
	Ping(ctx context.Context) error
	Close()
}
