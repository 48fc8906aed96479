package task

import (
	"log"
	"time"

	domain "github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/events"
	"github.com/go-monolith/mono"
)

// publisher emits task lifecycle events. Publishing is best effort: a
// failure is logged and never fails the operation that triggered it.
type publisher struct {
	bus mono.EventBus
}

func (p *publisher) created(t *domain.Task) {
	if p == nil || p.bus == nil {
		return
	}
	event := events.TaskCreatedEvent{
		TaskID:    t.ID,
		UserID:    t.UserID,
		Status:    string(t.Status),
		CreatedAt: t.CreatedAt,
	}
	if err := events.TaskCreatedV1.Publish(p.bus, event, nil); err != nil {
		log.Printf("[task] Warning: failed to publish TaskCreated event for task %s: %v", t.ID, err)
	}
}

func (p *publisher) updated(t *domain.Task) {
	if p == nil || p.bus == nil {
		return
	}
	event := events.TaskUpdatedEvent{
		TaskID:    t.ID,
		UserID:    t.UserID,
		Status:    string(t.Status),
		UpdatedAt: t.UpdatedAt,
	}
	if err := events.TaskUpdatedV1.Publish(p.bus, event, nil); err != nil {
		log.Printf("[task] Warning: failed to publish TaskUpdated event for task %s: %v", t.ID, err)
	}
}

func (p *publisher) deleted(id, ownerID string, at time.Time) {
	if p == nil || p.bus == nil {
		return
	}
	event := events.TaskDeletedEvent{
		TaskID:    id,
		UserID:    ownerID,
		DeletedAt: at,
	}
	if err := events.TaskDeletedV1.Publish(p.bus, event, nil); err != nil {
		log.Printf("[task] Warning: failed to publish TaskDeleted event for task %s: %v", id, err)
	}
}
