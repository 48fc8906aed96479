package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// ActivityPort reads the audit trail of a single user.
type ActivityPort interface {
	Activity(ctx context.Context, userID string) ([]Entry, error)
}

// Compile-time interface checks.
var _ ActivityPort = (*AuditModule)(nil)
var _ ActivityPort = (*AuditAdapter)(nil)

// AuditAdapter implements ActivityPort using the service container.
type AuditAdapter struct {
	container mono.ServiceContainer
}

// NewAuditAdapter creates a new AuditAdapter.
func NewAuditAdapter(container mono.ServiceContainer) *AuditAdapter {
	return &AuditAdapter{container: container}
}

// Activity calls the audit-entries service.
func (a *AuditAdapter) Activity(ctx context.Context, userID string) ([]Entry, error) {
	req := EntriesRequest{UserID: userID}
	var resp EntriesResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"audit-entries",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("audit-entries request failed: %w", err)
	}

	if resp.Entries == nil {
		resp.Entries = make([]Entry, 0)
	}
	return resp.Entries, nil
}
