package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/example/task-tracker/database"
	domain "github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/redis/go-redis/v9"
)

// Store drivers accepted by Config.StoreDriver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects and configures the task store and the optional list cache.
type Config struct {
	StoreDriver string        `env:"TASK_STORE_DRIVER" envDefault:"sqlite"`
	DBPath      string        `env:"TASK_DB_PATH" envDefault:"tasks.db"`
	DatabaseURL string        `env:"DATABASE_URL"`
	RedisAddr   string        `env:"REDIS_ADDR"`
	CacheTTL    time.Duration `env:"TASK_CACHE_TTL" envDefault:"5m"`
	DBDebug     bool          `env:"DB_DEBUG" envDefault:"false"`
}

// TaskModule owns the task store and exposes the task services.
type TaskModule struct {
	config  Config
	repo    Repository
	cache   *RedisListCache
	events  *publisher
	service *Service
}

// Compile-time interface checks.
var _ mono.Module = (*TaskModule)(nil)
var _ mono.ServiceProviderModule = (*TaskModule)(nil)
var _ mono.EventEmitterModule = (*TaskModule)(nil)
var _ mono.HealthCheckableModule = (*TaskModule)(nil)

// NewModule creates a new TaskModule.
func NewModule(config Config) *TaskModule {
	return &TaskModule{
		config: config,
		events: &publisher{},
	}
}

// Name returns the module name.
func (m *TaskModule) Name() string {
	return "task"
}

// SetEventBus receives the EventBus for publishing.
func (m *TaskModule) SetEventBus(bus mono.EventBus) {
	m.events.bus = bus
}

// EmitEvents declares which events this module emits.
func (m *TaskModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskCreatedV1.ToBase(),
		events.TaskUpdatedV1.ToBase(),
		events.TaskDeletedV1.ToBase(),
	}
}

// Start opens the configured store and, if configured, the Redis cache.
func (m *TaskModule) Start(ctx context.Context) error {
	repo, err := openRepository(ctx, m.config)
	if err != nil {
		return err
	}
	m.repo = repo

	opts := []ServiceOption{withPublisher(m.events)}
	if m.config.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: m.config.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[task] Warning: Redis unavailable at %s, list cache disabled: %v", m.config.RedisAddr, err)
			client.Close()
		} else {
			m.cache = NewRedisListCache(client, "tasks:", m.config.CacheTTL)
			opts = append(opts, WithListCache(m.cache))
		}
	}

	service, err := NewService(m.repo, opts...)
	if err != nil {
		return err
	}
	m.service = service

	log.Printf("[task] Module started (store: %s, cache: %t)", m.config.StoreDriver, m.cache != nil)
	return nil
}

// Stop closes the store and the cache.
func (m *TaskModule) Stop(_ context.Context) error {
	if m.cache != nil {
		m.cache.Close()
	}
	if m.repo != nil {
		m.repo.Close()
	}
	log.Println("[task] Module stopped")
	return nil
}

// Health reports store reachability. The cache is informational only.
func (m *TaskModule) Health(ctx context.Context) mono.HealthStatus {
	if m.repo == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "store not initialized",
		}
	}
	if err := m.repo.Ping(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("store ping failed: %v", err),
		}
	}

	details := map[string]any{
		"store": m.config.StoreDriver,
		"cache": "disabled",
	}
	if m.cache != nil {
		details["cache"] = "ok"
		if err := m.cache.Ping(ctx); err != nil {
			details["cache"] = fmt.Sprintf("degraded: %v", err)
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: details,
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *TaskModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "list-tasks", json.Unmarshal, json.Marshal, m.handleList,
	); err != nil {
		return fmt.Errorf("failed to register list-tasks service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "get-task", json.Unmarshal, json.Marshal, m.handleGet,
	); err != nil {
		return fmt.Errorf("failed to register get-task service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "create-task", json.Unmarshal, json.Marshal, m.handleCreate,
	); err != nil {
		return fmt.Errorf("failed to register create-task service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "update-task", json.Unmarshal, json.Marshal, m.handleUpdate,
	); err != nil {
		return fmt.Errorf("failed to register update-task service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "delete-task", json.Unmarshal, json.Marshal, m.handleDelete,
	); err != nil {
		return fmt.Errorf("failed to register delete-task service: %w", err)
	}

	log.Printf("[task] Registered services: list-tasks, get-task, create-task, update-task, delete-task")
	return nil
}

func (m *TaskModule) handleList(ctx context.Context, req ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	tasks, err := m.service.ListTasks(ctx, req.OwnerID)
	if err != nil {
		return ListTasksResponse{}, err
	}
	return ListTasksResponse{Tasks: tasks}, nil
}

func (m *TaskModule) handleGet(ctx context.Context, req GetTaskRequest, _ *mono.Msg) (domain.Task, error) {
	task, err := m.service.GetTask(ctx, req.TaskID, req.OwnerID)
	if err != nil {
		return domain.Task{}, err
	}
	return *task, nil
}

func (m *TaskModule) handleCreate(ctx context.Context, req CreateTaskRequest, _ *mono.Msg) (domain.Task, error) {
	task, err := m.service.CreateTask(ctx, req.OwnerID, CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      domain.Status(req.Status),
	})
	if err != nil {
		return domain.Task{}, err
	}
	return *task, nil
}

func (m *TaskModule) handleUpdate(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (domain.Task, error) {
	task, err := m.service.UpdateTask(ctx, req.TaskID, req.OwnerID, req.fields())
	if err != nil {
		return domain.Task{}, err
	}
	return *task, nil
}

func (m *TaskModule) handleDelete(ctx context.Context, req DeleteTaskRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	if err := m.service.DeleteTask(ctx, req.TaskID, req.OwnerID); err != nil {
		return DeleteTaskResponse{}, err
	}
	return DeleteTaskResponse{Deleted: true}, nil
}

func openRepository(ctx context.Context, config Config) (Repository, error) {
	switch config.StoreDriver {
	case DriverSQLite, "":
		db, err := database.OpenSQLite(config.DBPath, config.DBDebug)
		if err != nil {
			return nil, err
		}
		repo := NewGormRepository(db)
		if err := repo.Migrate(); err != nil {
			repo.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return repo, nil
	case DriverPostgres:
		pool, err := database.OpenPostgres(ctx, config.DatabaseURL)
		if err != nil {
			return nil, err
		}
		repo := NewPostgresRepository(pool)
		if err := repo.Migrate(ctx); err != nil {
			repo.Close()
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown task store driver %q", config.StoreDriver)
	}
}
