package projections

import (
	"context"

	domainOutbox "practice/internal/domain/outbox"
)

// FailedOutboxLimit bounds the failed entries listed on the admin page.
const FailedOutboxLimit = 50

// GetOutboxStatusResult carries the query result.
type GetOutboxStatusResult struct {
	Counts map[string]int
	Failed []domainOutbox.Entry
}

// QueryGetOutboxStatus summarises email delivery for the admin page.
func QueryGetOutboxStatus(ctx context.Context, store OutboxStore) (GetOutboxStatusResult, error) {
	counts, err := store.CountByStatus(ctx)
	if err != nil {
		return GetOutboxStatusResult{}, err
	}
	failed, err := store.ListFailed(ctx, FailedOutboxLimit)
	if err != nil {
		return GetOutboxStatusResult{}, err
	}
	return GetOutboxStatusResult{Counts: counts, Failed: failed}, nil
}
