package orchestrators

import (
	"context"
	"fmt"
	"log/slog"

	"practice/internal/domain/audit"
)

// AuditStoreForRecord defines the store interface needed by RecordAudit.
type AuditStoreForRecord interface {
	Save(ctx context.Context, event audit.Event) error
}

// RecordAuditDeps holds dependencies for RecordAudit.
type RecordAuditDeps struct {
	AuditStore AuditStoreForRecord
}

// ExecuteRecordAudit validates and stores event. A nil store records nothing.
// PRE: event built with audit.NewEvent
// POST: event persisted, or an error describing why not
func ExecuteRecordAudit(ctx context.Context, event audit.Event, deps RecordAuditDeps) error {
	if deps.AuditStore == nil {
		return nil
	}
	if err := event.Validate(); err != nil {
		return fmt.Errorf("audit event: %w", err)
	}
	if err := deps.AuditStore.Save(ctx, event); err != nil {
		return fmt.Errorf("save audit event: %w", err)
	}
	if event.Severity != audit.SeverityInfo {
		slog.Warn("audit_event", "event", string(event.Action),
			"category", string(event.Category), "actor", event.Actor(), "resource_id", event.ResourceID)
	}
	return nil
}
