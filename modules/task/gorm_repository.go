package task

import (
	"context"
	"errors"
	"time"

	"github.com/example/task-tracker/apperr"
	"github.com/example/task-tracker/database"
	domain "github.com/example/task-tracker/domain/task"
	"gorm.io/gorm"
)

// GormRepository stores tasks through GORM (SQLite by default).
type GormRepository struct {
	db *gorm.DB
}

var _ Repository = (*GormRepository)(nil)

// NewGormRepository creates a new GormRepository.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Migrate creates the tasks table and its owner index.
func (r *GormRepository) Migrate() error {
	return r.db.AutoMigrate(&domain.Task{})
}

// FindByOwner returns the owner's tasks, oldest first.
func (r *GormRepository) FindByOwner(ctx context.Context, ownerID string) ([]domain.Task, error) {
	tasks := make([]domain.Task, 0)
	result := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at ASC, id ASC").
		Find(&tasks)
	if result.Error != nil {
		return nil, apperr.Store("list tasks", result.Error)
	}
	return tasks, nil
}

// FindByIDAndOwner loads a single task.
func (r *GormRepository) FindByIDAndOwner(ctx context.Context, id, ownerID string) (*domain.Task, error) {
	return findOwned(r.db.WithContext(ctx), id, ownerID)
}

// Insert stores a new task.
func (r *GormRepository) Insert(ctx context.Context, task *domain.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return apperr.Store("insert task", err)
	}
	return nil
}

// UpdateFields applies the set fields in a single transaction and returns the stored result.
func (r *GormRepository) UpdateFields(ctx context.Context, id, ownerID string, fields domain.Fields, updatedAt time.Time) (*domain.Task, error) {
	updates := map[string]any{"updated_at": updatedAt}
	if fields.Title != nil {
		updates["title"] = *fields.Title
	}
	if fields.Description != nil {
		updates["description"] = *fields.Description
	}
	if fields.Status != nil {
		updates["status"] = string(*fields.Status)
	}

	var updated *domain.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.Task{}).
			Where("id = ? AND user_id = ?", id, ownerID).
			Updates(updates)
		if result.Error != nil {
			return apperr.Store("update task", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperr.ErrNotFound
		}

		task, err := findOwned(tx, id, ownerID)
		if err != nil {
			return err
		}
		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteByIDAndOwner removes a task. Zero matched rows is ErrNotFound.
func (r *GormRepository) DeleteByIDAndOwner(ctx context.Context, id, ownerID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&domain.Task{})
	if result.Error != nil {
		return apperr.Store("delete task", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// Ping checks the underlying connection.
func (r *GormRepository) Ping(ctx context.Context) error {
	return database.PingSQLite(ctx, r.db)
}

// Close releases the connection pool.
func (r *GormRepository) Close() {
	database.CloseSQLite(r.db)
}

func findOwned(db *gorm.DB, id, ownerID string) (*domain.Task, error) {
	var task domain.Task
	result := db.Where("id = ? AND user_id = ?", id, ownerID).First(&task)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Store("find task", result.Error)
	}
	return &task, nil
}
