package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	emailAdapter "practice/internal/adapters/email"
	"practice/internal/domain/outbox"
)

// OutboxStoreForProcessor defines the store interface needed by the processor.
type OutboxStoreForProcessor interface {
	GetByID(ctx context.Context, id string) (outbox.Entry, error)
	Save(ctx context.Context, e outbox.Entry) error
	ListPending(ctx context.Context, limit int) ([]outbox.Entry, error)
}

// ActionExecutor executes a specific type of external action.
type ActionExecutor interface {
	// Execute runs the external action with the given payload and returns the provider's ID.
	Execute(ctx context.Context, payload string) (string, error)
}

// OutboxProcessor delivers queued side effects with exponential backoff.
type OutboxProcessor struct {
	store     OutboxStoreForProcessor
	executors map[string]ActionExecutor
	baseDelay time.Duration
	maxDelay  time.Duration
	batchSize int
	now       func() time.Time
}

// NewOutboxProcessor creates a new outbox processor.
func NewOutboxProcessor(store OutboxStoreForProcessor, executors map[string]ActionExecutor) *OutboxProcessor {
	return &OutboxProcessor{
		store:     store,
		executors: executors,
		baseDelay: 30 * time.Second,
		maxDelay:  time.Hour,
		batchSize: 20,
		now:       time.Now,
	}
}

// ProcessPending attempts every due pending entry once.
// POST: Attempted entries are saved with their new status
func (p *OutboxProcessor) ProcessPending(ctx context.Context) error {
	entries, err := p.store.ListPending(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("list pending outbox entries: %w", err)
	}

	for _, entry := range entries {
		if !entry.Due(p.now(), p.baseDelay, p.maxDelay) {
			continue
		}
		if err := p.attempt(ctx, entry); err != nil {
			slog.Error("outbox_event", "event", "save_failed", "entry_id", entry.ID, "error", err)
		}
	}
	return nil
}

// ProcessSingle attempts one entry immediately, ignoring backoff (admin retry).
// PRE: entry is not terminal
func (p *OutboxProcessor) ProcessSingle(ctx context.Context, entryID string) error {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.Status == outbox.StatusFailed {
		entry.MaxAttempts = entry.Attempts + 1
		entry.Status = outbox.StatusRetrying
	}
	if entry.IsTerminal() {
		return outbox.ErrTerminal
	}
	return p.attempt(ctx, entry)
}

// AbandonEntry marks an entry as abandoned by an admin.
func (p *OutboxProcessor) AbandonEntry(ctx context.Context, entryID string) error {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.Status == outbox.StatusDone {
		return outbox.ErrTerminal
	}
	entry.MarkAbandoned()
	slog.Info("outbox_event", "event", "abandoned", "entry_id", entry.ID)
	return p.store.Save(ctx, entry)
}

func (p *OutboxProcessor) attempt(ctx context.Context, entry outbox.Entry) error {
	entry.MarkAttempt(p.now())

	executor, ok := p.executors[entry.ActionType]
	if !ok {
		entry.Attempts = entry.MaxAttempts
		entry.MarkFailed(fmt.Errorf("no executor registered for action type: %s", entry.ActionType))
		return p.store.Save(ctx, entry)
	}

	externalID, err := executor.Execute(ctx, entry.Payload)
	if err != nil {
		entry.MarkFailed(err)
		slog.Warn("outbox_event", "event", "attempt_failed", "entry_id", entry.ID, "attempt", entry.Attempts, "error", err)
	} else {
		entry.MarkSuccess(externalID)
		slog.Info("outbox_event", "event", "delivered", "entry_id", entry.ID, "action_type", entry.ActionType, "external_id", externalID)
	}
	return p.store.Save(ctx, entry)
}

// EmailExecutor sends queued emails through an email.Sender.
type EmailExecutor struct {
	Sender emailAdapter.Sender
	From   string
}

// ErrBadPayload marks a payload that can never be delivered.
var ErrBadPayload = errors.New("malformed email payload")

// Execute sends the email described by payload.
// PRE: payload is JSON matching EmailPayload
// POST: email accepted by the provider; returns its message ID
func (e *EmailExecutor) Execute(ctx context.Context, payload string) (string, error) {
	var p EmailPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if len(p.To) == 0 || p.Subject == "" {
		return "", ErrBadPayload
	}
	res, err := e.Sender.Send(ctx, emailAdapter.SendRequest{
		To:      p.To,
		From:    e.From,
		Subject: p.Subject,
		HTML:    p.HTML,
		ReplyTo: p.ReplyTo,
	})
	if err != nil {
		return "", err
	}
	return res.MessageID, nil
}

// StartBackgroundWorker periodically processes pending outbox entries until ctx is done.
// POST: returns a channel closed once the worker has exited
func StartBackgroundWorker(ctx context.Context, processor *OutboxProcessor, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
				if err := processor.ProcessPending(runCtx); err != nil {
					slog.Error("outbox_event", "event", "process_failed", "error", err)
				}
				cancel()
			case <-ctx.Done():
				slog.Info("outbox_event", "event", "worker_stopped")
				return
			}
		}
	}()
	return done
}
