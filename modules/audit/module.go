// Package audit keeps an in-memory trail of task lifecycle events.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/example/task-tracker/apperr"
	"github.com/example/task-tracker/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// DefaultMaxEntries bounds the trail when no limit is given.
const DefaultMaxEntries = 1000

// Entry is one recorded task event.
type Entry struct {
	TaskID     string    `json:"taskId"`
	UserID     string    `json:"userId"`
	Action     string    `json:"action"`
	Status     string    `json:"status,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// AuditModule consumes task events and keeps the most recent ones.
type AuditModule struct {
	maxEntries int

	mu      sync.RWMutex
	entries []Entry
}

var _ mono.Module = (*AuditModule)(nil)
var _ mono.EventConsumerModule = (*AuditModule)(nil)
var _ mono.ServiceProviderModule = (*AuditModule)(nil)
var _ mono.HealthCheckableModule = (*AuditModule)(nil)

// NewModule creates an AuditModule that keeps at most maxEntries entries.
func NewModule(maxEntries int) *AuditModule {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &AuditModule{
		maxEntries: maxEntries,
		entries:    make([]Entry, 0),
	}
}

// Name returns the module name.
func (m *AuditModule) Name() string {
	return "audit"
}

// RegisterEventConsumers subscribes to the task lifecycle events.
func (m *AuditModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCreatedV1, m.handleTaskCreated, m); err != nil {
		return fmt.Errorf("failed to register TaskCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskUpdatedV1, m.handleTaskUpdated, m); err != nil {
		return fmt.Errorf("failed to register TaskUpdated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskDeletedV1, m.handleTaskDeleted, m); err != nil {
		return fmt.Errorf("failed to register TaskDeleted consumer: %w", err)
	}

	log.Printf("[audit] Registered event consumers: TaskCreated, TaskUpdated, TaskDeleted")
	return nil
}

// RegisterServices registers the audit-entries request-reply service.
func (m *AuditModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		"audit-entries",
		json.Unmarshal,
		json.Marshal,
		m.handleEntries,
	); err != nil {
		return fmt.Errorf("failed to register audit-entries service: %w", err)
	}

	log.Printf("[audit] Registered services: audit-entries")
	return nil
}

func (m *AuditModule) handleEntries(ctx context.Context, req EntriesRequest, _ *mono.Msg) (EntriesResponse, error) {
	entries, err := m.Activity(ctx, req.UserID)
	if err != nil {
		return EntriesResponse{}, err
	}
	return EntriesResponse{Entries: entries}, nil
}

func (m *AuditModule) handleTaskCreated(_ context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	m.record(Entry{
		TaskID:     event.TaskID,
		UserID:     event.UserID,
		Action:     "created",
		Status:     event.Status,
		OccurredAt: event.CreatedAt,
	})
	return nil
}

func (m *AuditModule) handleTaskUpdated(_ context.Context, event events.TaskUpdatedEvent, _ *mono.Msg) error {
	m.record(Entry{
		TaskID:     event.TaskID,
		UserID:     event.UserID,
		Action:     "updated",
		Status:     event.Status,
		OccurredAt: event.UpdatedAt,
	})
	return nil
}

func (m *AuditModule) handleTaskDeleted(_ context.Context, event events.TaskDeletedEvent, _ *mono.Msg) error {
	m.record(Entry{
		TaskID:     event.TaskID,
		UserID:     event.UserID,
		Action:     "deleted",
		OccurredAt: event.DeletedAt,
	})
	return nil
}

func (m *AuditModule) record(entry Entry) {
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, entry)
	if over := len(m.entries) - m.maxEntries; over > 0 {
		m.entries = append(m.entries[:0], m.entries[over:]...)
	}
}

// Activity returns the recorded entries of one user, oldest first.
func (m *AuditModule) Activity(_ context.Context, userID string) ([]Entry, error) {
	if userID == "" {
		return nil, apperr.ErrUnauthorized
	}
	return m.entriesFor(userID), nil
}

// entriesFor copies the entries of one user, oldest first.
func (m *AuditModule) entriesFor(userID string) []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Entry, 0)
	for _, e := range m.entries {
		if e.UserID == userID {
			result = append(result, e)
		}
	}
	return result
}

// Start starts the module.
func (m *AuditModule) Start(_ context.Context) error {
	log.Println("[audit] Module started - listening for task events")
	return nil
}

// Stop stops the module.
func (m *AuditModule) Stop(_ context.Context) error {
	log.Println("[audit] Module stopped")
	return nil
}

// Health reports the size of the trail.
func (m *AuditModule) Health(_ context.Context) mono.HealthStatus {
	m.mu.RLock()
	count := len(m.entries)
	m.mu.RUnlock()

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"entries":     count,
			"max_entries": m.maxEntries,
		},
	}
}
