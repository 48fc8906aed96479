package task

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/example/task-tracker/apperr"
	"github.com/example/task-tracker/database"
	domain "github.com/example/task-tracker/domain/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupGormRepository(t *testing.T) *GormRepository {
	t.Helper()

	db, err := database.OpenSQLite(":memory:", false)
	require.NoError(t, err)

	repo := NewGormRepository(db)
	require.NoError(t, repo.Migrate())
	t.Cleanup(repo.Close)
	return repo
}

func setupPostgresRepository(t *testing.T) *PostgresRepository {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping PostgreSQL test")
	}

	ctx := context.Background()
	pool, err := database.OpenPostgres(ctx, url)
	if err != nil {
		t.Skipf("Skipping test: database not available: %v", err)
	}

	repo := NewPostgresRepository(pool)
	require.NoError(t, repo.Migrate(ctx))

	_, err = pool.Exec(ctx, "DELETE FROM tasks WHERE user_id LIKE 'test-%'")
	require.NoError(t, err)

	t.Cleanup(repo.Close)
	return repo
}

func newTask(id, owner, title string, createdAt time.Time) *domain.Task {
	return &domain.Task{
		ID:        id,
		Title:     title,
		Status:    domain.StatusTodo,
		UserID:    owner,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

// testRepositoryContract exercises the owner-scoping rules every store must honour.
func testRepositoryContract(t *testing.T, repo Repository) {
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	ann, bob := "test-ann", "test-bob"

	require.NoError(t, repo.Insert(ctx, newTask("task-1", ann, "Write report", base)))
	require.NoError(t, repo.Insert(ctx, newTask("task-2", ann, "Review report", base.Add(time.Minute))))
	require.NoError(t, repo.Insert(ctx, newTask("task-3", bob, "Bob's task", base)))

	t.Run("list is owner scoped and ordered", func(t *testing.T) {
		tasks, err := repo.FindByOwner(ctx, ann)
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, "task-1", tasks[0].ID)
		assert.Equal(t, "task-2", tasks[1].ID)
		for _, task := range tasks {
			assert.Equal(t, ann, task.UserID)
		}
	})

	t.Run("list for unknown owner is empty, not nil", func(t *testing.T) {
		tasks, err := repo.FindByOwner(ctx, "test-nobody")
		require.NoError(t, err)
		assert.NotNil(t, tasks)
		assert.Empty(t, tasks)
	})

	t.Run("get by owner", func(t *testing.T) {
		task, err := repo.FindByIDAndOwner(ctx, "task-1", ann)
		require.NoError(t, err)
		assert.Equal(t, "Write report", task.Title)
		assert.Equal(t, domain.StatusTodo, task.Status)
	})

	t.Run("get of another owner's task is not found", func(t *testing.T) {
		_, err := repo.FindByIDAndOwner(ctx, "task-3", ann)
		assert.ErrorIs(t, err, apperr.ErrNotFound)

		_, err = repo.FindByIDAndOwner(ctx, "missing", ann)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("update changes only supplied fields", func(t *testing.T) {
		done := domain.StatusDone
		later := base.Add(time.Hour)

		task, err := repo.UpdateFields(ctx, "task-1", ann, domain.Fields{Status: &done}, later)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusDone, task.Status)
		assert.Equal(t, "Write report", task.Title)
		assert.True(t, task.UpdatedAt.Equal(later), "updatedAt = %v, want %v", task.UpdatedAt, later)
		assert.True(t, task.CreatedAt.Equal(base), "createdAt = %v, want %v", task.CreatedAt, base)
	})

	t.Run("update of another owner's task is not found", func(t *testing.T) {
		title := "hijacked"
		_, err := repo.UpdateFields(ctx, "task-3", ann, domain.Fields{Title: &title}, base)
		assert.ErrorIs(t, err, apperr.ErrNotFound)

		task, err := repo.FindByIDAndOwner(ctx, "task-3", bob)
		require.NoError(t, err)
		assert.Equal(t, "Bob's task", task.Title)
	})

	t.Run("delete of another owner's task is not found", func(t *testing.T) {
		err := repo.DeleteByIDAndOwner(ctx, "task-3", ann)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("delete twice", func(t *testing.T) {
		require.NoError(t, repo.DeleteByIDAndOwner(ctx, "task-2", ann))
		assert.ErrorIs(t, repo.DeleteByIDAndOwner(ctx, "task-2", ann), apperr.ErrNotFound)
		assert.ErrorIs(t, repo.DeleteByIDAndOwner(ctx, "task-2", ann), apperr.ErrNotFound)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, repo.Ping(ctx))
	})
}

func TestGormRepository(t *testing.T) {
	testRepositoryContract(t, setupGormRepository(t))
}

func TestPostgresRepository(t *testing.T) {
	testRepositoryContract(t, setupPostgresRepository(t))
}
