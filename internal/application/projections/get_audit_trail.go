package projections

import (
	"context"

	"practice/internal/adapters/storage/audit"
	"practice/internal/application/listutil"
	domainAudit "practice/internal/domain/audit"
)

// AuditStore interface for audit trail queries.
type AuditStore interface {
	List(ctx context.Context, filter audit.ListFilter) ([]domainAudit.Event, error)
	Count(ctx context.Context, filter audit.ListFilter) (int, error)
}

// GetAuditTrailQuery carries query parameters. Unknown categories and severities are ignored.
type GetAuditTrailQuery struct {
	Category   string
	Severity   string
	ResourceID string
	From       string
	To         string
	Page       int
	PerPage    int
}

// GetAuditTrailResult carries the query result.
type GetAuditTrailResult struct {
	Events     []domainAudit.Event
	Page       listutil.Page
	Categories []domainAudit.Category
}

// QueryGetAuditTrail returns one page of the audit trail, newest first.
// PRE: Valid query parameters
// POST: Page reflects the filtered total
func QueryGetAuditTrail(ctx context.Context, query GetAuditTrailQuery, store AuditStore) (GetAuditTrailResult, error) {
	filter := audit.ListFilter{
		ResourceID: query.ResourceID,
		From:       query.From,
		To:         query.To,
	}
	for _, c := range domainAudit.Categories {
		if string(c) == query.Category {
			filter.Category = c
		}
	}
	switch s := domainAudit.Severity(query.Severity); s {
	case domainAudit.SeverityInfo, domainAudit.SeverityWarning, domainAudit.SeverityCritical:
		filter.Severity = s
	}

	total, err := store.Count(ctx, filter)
	if err != nil {
		return GetAuditTrailResult{}, err
	}
	page := listutil.NewPage(query.Page, query.PerPage, total)
	filter.Limit, filter.Offset = page.PerPage, page.Offset()

	events, err := store.List(ctx, filter)
	if err != nil {
		return GetAuditTrailResult{}, err
	}
	return GetAuditTrailResult{Events: events, Page: page, Categories: domainAudit.Categories}, nil
}
