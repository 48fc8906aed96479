package task

import (
	"context"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/example/task-tracker/apperr"
	domain "github.com/example/task-tracker/domain/task"
	nanoid "github.com/jaevor/go-nanoid"
	"golang.org/x/sync/singleflight"
)

// CreateInput is a validated create request.
type CreateInput struct {
	Title       string
	Description string
	Status      domain.Status
}

// ValidateCreate checks raw create fields. The title is required; a missing
// or unknown status falls back to TODO.
func ValidateCreate(title, description, status *string) (CreateInput, error) {
	verr := &apperr.ValidationError{}

	var input CreateInput
	if title == nil || strings.TrimSpace(*title) == "" {
		verr.Add("title", "is required")
	} else {
		input.Title = strings.TrimSpace(*title)
	}
	if description != nil {
		input.Description = *description
	}
	input.Status = domain.StatusTodo
	if status != nil {
		if s, err := domain.ParseStatus(*status); err == nil {
			input.Status = s
		}
	}

	if err := verr.OrNil(); err != nil {
		return CreateInput{}, err
	}
	return input, nil
}

// ValidateUpdate checks a partial update. Only supplied fields are set on
// the result; a supplied title must be non-empty and a supplied status must
// be one of the known values.
func ValidateUpdate(title, description, status *string) (domain.Fields, error) {
	verr := &apperr.ValidationError{}

	var fields domain.Fields
	if title != nil {
		trimmed := strings.TrimSpace(*title)
		if trimmed == "" {
			verr.Add("title", "must not be empty")
		} else {
			fields.Title = &trimmed
		}
	}
	if description != nil {
		d := *description
		fields.Description = &d
	}
	if status != nil {
		s, err := domain.ParseStatus(*status)
		if err != nil {
			verr.Add("status", "must be one of TODO, IN_PROGRESS, DONE")
		} else {
			fields.Status = &s
		}
	}

	if err := verr.OrNil(); err != nil {
		return domain.Fields{}, err
	}
	return fields, nil
}

// Service implements the owner-scoped task operations.
type Service struct {
	repo   Repository
	cache  ListCache
	events *publisher
	newID  func() string
	now    func() time.Time

	flight singleflight.Group
	writes atomic.Uint64
}

var _ TaskPort = (*Service)(nil)

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithListCache enables caching of per-owner task lists.
func WithListCache(cache ListCache) ServiceOption {
	return func(s *Service) {
		if cache != nil {
			s.cache = cache
		}
	}
}

// WithClock replaces the time source for task timestamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator replaces the task id generator.
func WithIDGenerator(newID func() string) ServiceOption {
	return func(s *Service) {
		s.newID = newID
	}
}

func withPublisher(p *publisher) ServiceOption {
	return func(s *Service) {
		s.events = p
	}
}

// NewService creates a Service over the given repository.
func NewService(repo Repository, opts ...ServiceOption) (*Service, error) {
	newID, err := nanoid.Standard(21)
	if err != nil {
		return nil, fmt.Errorf("failed to create id generator: %w", err)
	}

	s := &Service{
		repo:  repo,
		cache: nopListCache{},
		newID: newID,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ListTasks returns every task owned by ownerID, or an empty slice.
func (s *Service) ListTasks(ctx context.Context, ownerID string) ([]domain.Task, error) {
	if ownerID == "" {
		return nil, apperr.ErrUnauthorized
	}

	if tasks, ok := s.cache.Get(ctx, ownerID); ok {
		if tasks == nil {
			tasks = make([]domain.Task, 0)
		}
		return tasks, nil
	}

	v, err, _ := s.flight.Do(ownerID, func() (any, error) {
		gen := s.writes.Load()
		tasks, err := s.repo.FindByOwner(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		// A write since the read started makes this result unsafe to cache.
		if s.writes.Load() == gen {
			s.cache.Set(ctx, ownerID, tasks)
		}
		return tasks, nil
	})
	if err != nil {
		return nil, err
	}

	tasks := slices.Clone(v.([]domain.Task))
	if tasks == nil {
		tasks = make([]domain.Task, 0)
	}
	return tasks, nil
}

// GetTask returns one task owned by ownerID.
func (s *Service) GetTask(ctx context.Context, id, ownerID string) (*domain.Task, error) {
	if ownerID == "" {
		return nil, apperr.ErrUnauthorized
	}
	if id == "" {
		return nil, apperr.ErrNotFound
	}
	return s.repo.FindByIDAndOwner(ctx, id, ownerID)
}

// CreateTask stores a new task owned by ownerID.
func (s *Service) CreateTask(ctx context.Context, ownerID string, input CreateInput) (*domain.Task, error) {
	if ownerID == "" {
		return nil, apperr.ErrUnauthorized
	}

	title, description, status := input.Title, input.Description, string(input.Status)
	input, err := ValidateCreate(&title, &description, &status)
	if err != nil {
		return nil, err
	}

	now := s.now()
	task := &domain.Task{
		ID:          s.newID(),
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		UserID:      ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Insert(ctx, task); err != nil {
		return nil, err
	}
	s.wrote(ctx, ownerID)

	log.Printf("[task] Created task %s for user %s", task.ID, ownerID)
	s.events.created(task)
	return task, nil
}

// UpdateTask changes only the supplied fields of a task owned by ownerID.
// An empty update returns the task unchanged.
func (s *Service) UpdateTask(ctx context.Context, id, ownerID string, fields domain.Fields) (*domain.Task, error) {
	if ownerID == "" {
		return nil, apperr.ErrUnauthorized
	}
	if id == "" {
		return nil, apperr.ErrNotFound
	}
	if fields.Empty() {
		return s.repo.FindByIDAndOwner(ctx, id, ownerID)
	}
	if fields.Title != nil && strings.TrimSpace(*fields.Title) == "" {
		verr := &apperr.ValidationError{}
		verr.Add("title", "must not be empty")
		return nil, verr
	}
	if fields.Status != nil && !fields.Status.Valid() {
		verr := &apperr.ValidationError{}
		verr.Add("status", "must be one of TODO, IN_PROGRESS, DONE")
		return nil, verr
	}

	task, err := s.repo.UpdateFields(ctx, id, ownerID, fields, s.now())
	if err != nil {
		return nil, err
	}
	s.wrote(ctx, ownerID)

	s.events.updated(task)
	return task, nil
}

// DeleteTask removes a task owned by ownerID.
func (s *Service) DeleteTask(ctx context.Context, id, ownerID string) error {
	if ownerID == "" {
		return apperr.ErrUnauthorized
	}
	if id == "" {
		return apperr.ErrNotFound
	}

	if err := s.repo.DeleteByIDAndOwner(ctx, id, ownerID); err != nil {
		return err
	}
	s.wrote(ctx, ownerID)

	log.Printf("[task] Deleted task %s for user %s", id, ownerID)
	s.events.deleted(id, ownerID, s.now())
	return nil
}

func (s *Service) wrote(ctx context.Context, ownerID string) {
	s.writes.Add(1)
	s.flight.Forget(ownerID)
	s.cache.Invalidate(ctx, ownerID)
}
