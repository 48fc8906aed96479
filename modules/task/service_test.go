package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/example/task-tracker/apperr"
	domain "github.com/example/task-tracker/domain/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memCache is an in-process ListCache that records its traffic.
type memCache struct {
	mu          sync.Mutex
	lists       map[string][]domain.Task
	hits        int
	invalidated []string
}

func newMemCache() *memCache {
	return &memCache{lists: make(map[string][]domain.Task)}
}

func (c *memCache) Get(_ context.Context, ownerID string) ([]domain.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tasks, ok := c.lists[ownerID]
	if ok {
		c.hits++
	}
	return append([]domain.Task(nil), tasks...), ok
}

func (c *memCache) Set(_ context.Context, ownerID string, tasks []domain.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists[ownerID] = append([]domain.Task(nil), tasks...)
}

func (c *memCache) Invalidate(_ context.Context, ownerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.lists, ownerID)
	c.invalidated = append(c.invalidated, ownerID)
}

// countingRepository counts list reads on top of a real repository.
type countingRepository struct {
	Repository
	mu    sync.Mutex
	lists int
}

func (r *countingRepository) FindByOwner(ctx context.Context, ownerID string) ([]domain.Task, error) {
	r.mu.Lock()
	r.lists++
	r.mu.Unlock()
	return r.Repository.FindByOwner(ctx, ownerID)
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("task-%03d", n)
	}
}

func setupService(t *testing.T, opts ...ServiceOption) *Service {
	t.Helper()

	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	tick := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}

	base := []ServiceOption{WithIDGenerator(sequentialIDs()), WithClock(tick)}
	service, err := NewService(setupGormRepository(t), append(base, opts...)...)
	require.NoError(t, err)
	return service
}

func ptr(s string) *string { return &s }

func TestValidateCreate(t *testing.T) {
	tests := []struct {
		name       string
		title      *string
		status     *string
		wantStatus domain.Status
		wantErr    bool
	}{
		{name: "status omitted", title: ptr("Write report"), wantStatus: domain.StatusTodo},
		{name: "status valid", title: ptr("Write report"), status: ptr("IN_PROGRESS"), wantStatus: domain.StatusInProgress},
		{name: "status invalid falls back", title: ptr("Write report"), status: ptr("ARCHIVED"), wantStatus: domain.StatusTodo},
		{name: "title missing", wantErr: true},
		{name: "title blank", title: ptr("   "), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := ValidateCreate(tt.title, nil, tt.status)
			if tt.wantErr {
				var verr *apperr.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, "title", verr.Fields[0].Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, input.Status)
		})
	}
}

func TestValidateUpdate(t *testing.T) {
	fields, err := ValidateUpdate(nil, nil, ptr("DONE"))
	require.NoError(t, err)
	assert.Nil(t, fields.Title)
	assert.Nil(t, fields.Description)
	require.NotNil(t, fields.Status)
	assert.Equal(t, domain.StatusDone, *fields.Status)

	_, err = ValidateUpdate(nil, nil, ptr("FINISHED"))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = ValidateUpdate(ptr(""), nil, nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	fields, err = ValidateUpdate(nil, nil, nil)
	require.NoError(t, err)
	assert.True(t, fields.Empty())
}

func TestService_CreateForcesOwnerAndDefaults(t *testing.T) {
	service := setupService(t)
	ctx := context.Background()

	task, err := service.CreateTask(ctx, "ann", CreateInput{Title: "  Write report  "})
	require.NoError(t, err)

	assert.Equal(t, "task-001", task.ID)
	assert.Equal(t, "Write report", task.Title)
	assert.Equal(t, domain.StatusTodo, task.Status)
	assert.Equal(t, "ann", task.UserID)
	assert.False(t, task.CreatedAt.IsZero())
	assert.True(t, task.CreatedAt.Equal(task.UpdatedAt))
}

func TestService_CreateRejectsEmptyTitle(t *testing.T) {
	service := setupService(t)

	_, err := service.CreateTask(context.Background(), "ann", CreateInput{Title: ""})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestService_EmptyOwnerIsUnauthorized(t *testing.T) {
	service := setupService(t)
	ctx := context.Background()

	_, err := service.ListTasks(ctx, "")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = service.GetTask(ctx, "task-001", "")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = service.CreateTask(ctx, "", CreateInput{Title: "x"})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = service.UpdateTask(ctx, "task-001", "", domain.Fields{})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.ErrorIs(t, service.DeleteTask(ctx, "task-001", ""), apperr.ErrUnauthorized)
}

func TestService_CrossOwnerAccessIsNotFound(t *testing.T) {
	service := setupService(t)
	ctx := context.Background()

	task, err := service.CreateTask(ctx, "ann", CreateInput{Title: "Ann's task"})
	require.NoError(t, err)

	_, err = service.GetTask(ctx, task.ID, "bob")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	done := domain.StatusDone
	_, err = service.UpdateTask(ctx, task.ID, "bob", domain.Fields{Status: &done})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	assert.ErrorIs(t, service.DeleteTask(ctx, task.ID, "bob"), apperr.ErrNotFound)

	bobTasks, err := service.ListTasks(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, bobTasks)

	stored, err := service.GetTask(ctx, task.ID, "ann")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTodo, stored.Status)
}

func TestService_UpdateChangesOnlySuppliedFields(t *testing.T) {
	service := setupService(t)
	ctx := context.Background()

	task, err := service.CreateTask(ctx, "ann", CreateInput{Title: "Write report", Description: "draft"})
	require.NoError(t, err)

	done := domain.StatusDone
	updated, err := service.UpdateTask(ctx, task.ID, "ann", domain.Fields{Status: &done})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusDone, updated.Status)
	assert.Equal(t, "Write report", updated.Title)
	assert.Equal(t, "draft", updated.Description)
	assert.True(t, updated.UpdatedAt.After(task.UpdatedAt))
	assert.True(t, updated.CreatedAt.Equal(task.CreatedAt))
}

func TestService_EmptyUpdateReturnsCurrentTask(t *testing.T) {
	service := setupService(t)
	ctx := context.Background()

	task, err := service.CreateTask(ctx, "ann", CreateInput{Title: "Write report"})
	require.NoError(t, err)

	got, err := service.UpdateTask(ctx, task.ID, "ann", domain.Fields{})
	require.NoError(t, err)
	assert.True(t, got.UpdatedAt.Equal(task.UpdatedAt))

	_, err = service.UpdateTask(ctx, "missing", "ann", domain.Fields{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestService_UpdateRejectsInvalidStatus(t *testing.T) {
	service := setupService(t)
	ctx := context.Background()

	task, err := service.CreateTask(ctx, "ann", CreateInput{Title: "Write report"})
	require.NoError(t, err)

	bogus := domain.Status("ARCHIVED")
	_, err = service.UpdateTask(ctx, task.ID, "ann", domain.Fields{Status: &bogus})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestService_DeleteTwice(t *testing.T) {
	service := setupService(t)
	ctx := context.Background()

	task, err := service.CreateTask(ctx, "ann", CreateInput{Title: "Write report"})
	require.NoError(t, err)

	require.NoError(t, service.DeleteTask(ctx, task.ID, "ann"))
	assert.ErrorIs(t, service.DeleteTask(ctx, task.ID, "ann"), apperr.ErrNotFound)
	assert.ErrorIs(t, service.DeleteTask(ctx, task.ID, "ann"), apperr.ErrNotFound)
}

func TestService_ListUsesCacheAndInvalidatesOnWrite(t *testing.T) {
	cache := newMemCache()
	repo := &countingRepository{Repository: setupGormRepository(t)}
	service, err := NewService(repo, WithListCache(cache), WithIDGenerator(sequentialIDs()))
	require.NoError(t, err)
	ctx := context.Background()

	first, err := service.ListTasks(ctx, "ann")
	require.NoError(t, err)
	assert.NotNil(t, first)
	assert.Empty(t, first)

	_, err = service.ListTasks(ctx, "ann")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.lists, "second list should be served from cache")
	assert.Equal(t, 1, cache.hits)

	task, err := service.CreateTask(ctx, "ann", CreateInput{Title: "Write report"})
	require.NoError(t, err)
	assert.Contains(t, cache.invalidated, "ann")

	after, err := service.ListTasks(ctx, "ann")
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, task.ID, after[0].ID)
	assert.Equal(t, 2, repo.lists)

	require.NoError(t, service.DeleteTask(ctx, task.ID, "ann"))
	afterDelete, err := service.ListTasks(ctx, "ann")
	require.NoError(t, err)
	assert.Empty(t, afterDelete)
}

// failingRepository fails every list read.
type failingRepository struct {
	Repository
}

func (failingRepository) FindByOwner(context.Context, string) ([]domain.Task, error) {
	return nil, apperr.Store("list tasks", errors.New("disk I/O error"))
}

func TestService_StoreFailureSurfaces(t *testing.T) {
	cache := newMemCache()
	service, err := NewService(failingRepository{Repository: setupGormRepository(t)}, WithListCache(cache))
	require.NoError(t, err)

	_, err = service.ListTasks(context.Background(), "ann")
	assert.ErrorIs(t, err, apperr.ErrStoreFailure)
	assert.Empty(t, cache.lists, "failed reads must not be cached")
}

func TestService_ConcurrentListsShareOneRead(t *testing.T) {
	repo := &countingRepository{Repository: setupGormRepository(t)}
	service, err := NewService(repo)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = service.CreateTask(ctx, "ann", CreateInput{Title: "Write report"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tasks, err := service.ListTasks(ctx, "ann")
			assert.NoError(t, err)
			assert.Len(t, tasks, 1)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, repo.lists, 20)
	assert.GreaterOrEqual(t, repo.lists, 1)
}
