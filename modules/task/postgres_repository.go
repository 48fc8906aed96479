package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/task-tracker/apperr"
	domain "github.com/example/task-tracker/domain/task"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = "id, title, description, status, user_id, created_at, updated_at"

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status      TEXT NOT NULL,
		user_id     TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_user_id ON tasks (user_id)`,
}

// PostgresRepository stores tasks in PostgreSQL through a pgx pool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Migrate creates the tasks table and its owner index if missing.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate tasks schema: %w", err)
		}
	}
	return nil
}

// FindByOwner returns the owner's tasks, oldest first.
func (r *PostgresRepository) FindByOwner(ctx context.Context, ownerID string) ([]domain.Task, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = $1 ORDER BY created_at ASC, id ASC`,
		ownerID)
	if err != nil {
		return nil, apperr.Store("list tasks", err)
	}

	tasks, err := pgx.CollectRows(rows, scanTask)
	if err != nil {
		return nil, apperr.Store("list tasks", err)
	}
	if tasks == nil {
		tasks = make([]domain.Task, 0)
	}
	return tasks, nil
}

// FindByIDAndOwner loads a single task.
func (r *PostgresRepository) FindByIDAndOwner(ctx context.Context, id, ownerID string) (*domain.Task, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2`,
		id, ownerID)
	return collectOne(row, "find task")
}

// Insert stores a new task.
func (r *PostgresRepository) Insert(ctx context.Context, task *domain.Task) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO tasks (`+taskColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		task.ID, task.Title, task.Description, string(task.Status), task.UserID, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return apperr.Store("insert task", err)
	}
	return nil
}

// UpdateFields applies the set fields in one statement; unset fields keep their value.
func (r *PostgresRepository) UpdateFields(ctx context.Context, id, ownerID string, fields domain.Fields, updatedAt time.Time) (*domain.Task, error) {
	var status *string
	if fields.Status != nil {
		s := string(*fields.Status)
		status = &s
	}

	row := r.pool.QueryRow(ctx,
		`UPDATE tasks
		SET title = COALESCE($3, title),
			description = COALESCE($4, description),
			status = COALESCE($5, status),
			updated_at = $6
		WHERE id = $1 AND user_id = $2
		RETURNING `+taskColumns,
		id, ownerID, fields.Title, fields.Description, status, updatedAt)
	return collectOne(row, "update task")
}

// DeleteByIDAndOwner removes a task. Zero matched rows is ErrNotFound.
func (r *PostgresRepository) DeleteByIDAndOwner(ctx context.Context, id, ownerID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return apperr.Store("delete task", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// Ping checks the pool.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close releases the pool.
func (r *PostgresRepository) Close() {
	r.pool.Close()
}

func scanTask(row pgx.CollectableRow) (domain.Task, error) {
	var (
		t      domain.Task
		status string
	)
	err := row.Scan(&t.ID, &t.Title, &t.Description, &status, &t.UserID, &t.CreatedAt, &t.UpdatedAt)
	t.Status = domain.Status(status)
	return t, err
}

func collectOne(row pgx.Row, op string) (*domain.Task, error) {
	var (
		t      domain.Task
		status string
	)
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &status, &t.UserID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Store(op, err)
	}
	t.Status = domain.Status(status)
	return &t, nil
}
