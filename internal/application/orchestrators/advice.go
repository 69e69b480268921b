package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"practice/internal/domain/advice"
)

// AdviceStoreForEditor defines the store interface needed by advice orchestrators.
type AdviceStoreForEditor interface {
	GetByID(ctx context.Context, id string) (advice.Advice, error)
	GetBySlug(ctx context.Context, slug string) (advice.Advice, error)
	Save(ctx context.Context, a advice.Advice) error
	Delete(ctx context.Context, id string) error
}

// AdviceInput carries the admin article form after its image is resolved.
// Slug is optional; it is derived from the title when empty.
type AdviceInput struct {
	ID       string
	Title    string
	Slug     string
	Body     string
	ImageKey string
	Publish  bool
}

// AdviceDeps holds dependencies for advice orchestrators.
type AdviceDeps struct {
	AdviceStore AdviceStoreForEditor
	GenerateID  func() string
	Now         func() time.Time
}

// maxSlugAttempts bounds the numeric suffixes tried for a derived slug.
const maxSlugAttempts = 20

// ExecuteCreateAdvice stores a new article as draft, publishing it immediately when asked.
// PRE: actor is an admin
// POST: Article persisted with a unique slug
func ExecuteCreateAdvice(ctx context.Context, actor Actor, input AdviceInput, deps AdviceDeps) (advice.Advice, error) {
	if !actor.IsAdmin() {
		return advice.Advice{}, ErrForbidden
	}
	now := nowOrDefault(deps.Now)
	a := advice.Advice{
		ID:        newID(deps.GenerateID),
		Title:     strings.TrimSpace(input.Title),
		Body:      input.Body,
		ImageKey:  input.ImageKey,
		Status:    advice.StatusDraft,
		AuthorID:  actor.AccountID,
		CreatedAt: now,
	}
	if input.Publish {
		_ = a.Publish(now)
	}

	slug, err := resolveSlug(ctx, deps.AdviceStore, a.ID, input.Slug, a.Title)
	if err != nil {
		return advice.Advice{}, err
	}
	a.Slug = slug

	if err := a.Validate(); err != nil {
		return advice.Advice{}, err
	}
	if err := deps.AdviceStore.Save(ctx, a); err != nil {
		return advice.Advice{}, err
	}
	slog.Info("advice_event", "event", "created", "advice_id", a.ID, "slug", a.Slug, "status", a.Status)
	return a, nil
}

// ExecuteUpdateAdvice edits an article. Publishing state only moves forward.
// PRE: actor is an admin; input.ID exists
func ExecuteUpdateAdvice(ctx context.Context, actor Actor, input AdviceInput, deps AdviceDeps) (advice.Advice, error) {
	if !actor.IsAdmin() {
		return advice.Advice{}, ErrForbidden
	}
	a, err := deps.AdviceStore.GetByID(ctx, input.ID)
	if err != nil {
		return advice.Advice{}, err
	}
	now := nowOrDefault(deps.Now)
	a.Title = strings.TrimSpace(input.Title)
	a.Body = input.Body
	a.ImageKey = input.ImageKey
	a.UpdatedAt = now
	if input.Publish && !a.IsPublished() {
		_ = a.Publish(now)
	}

	if strings.TrimSpace(input.Slug) != "" && input.Slug != a.Slug {
		slug, err := resolveSlug(ctx, deps.AdviceStore, a.ID, input.Slug, a.Title)
		if err != nil {
			return advice.Advice{}, err
		}
		a.Slug = slug
	}

	if err := a.Validate(); err != nil {
		return advice.Advice{}, err
	}
	if err := deps.AdviceStore.Save(ctx, a); err != nil {
		return advice.Advice{}, err
	}
	slog.Info("advice_event", "event", "updated", "advice_id", a.ID)
	return a, nil
}

// ExecutePublishAdvice publishes a draft article.
// POST: Status published, PublishedAt set; advice.ErrAlreadyPublished otherwise
func ExecutePublishAdvice(ctx context.Context, actor Actor, id string, deps AdviceDeps) (advice.Advice, error) {
	if !actor.IsAdmin() {
		return advice.Advice{}, ErrForbidden
	}
	a, err := deps.AdviceStore.GetByID(ctx, id)
	if err != nil {
		return advice.Advice{}, err
	}
	if err := a.Publish(nowOrDefault(deps.Now)); err != nil {
		return advice.Advice{}, err
	}
	if err := deps.AdviceStore.Save(ctx, a); err != nil {
		return advice.Advice{}, err
	}
	slog.Info("advice_event", "event", "published", "advice_id", a.ID)
	return a, nil
}

// ExecuteDeleteAdvice removes an article.
func ExecuteDeleteAdvice(ctx context.Context, actor Actor, id string, deps AdviceDeps) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if _, err := deps.AdviceStore.GetByID(ctx, id); err != nil {
		return err
	}
	if err := deps.AdviceStore.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("advice_event", "event", "deleted", "advice_id", id)
	return nil
}

// resolveSlug validates an explicit slug, or derives one from title and
// appends -2, -3, ... until no other article holds it.
func resolveSlug(ctx context.Context, store AdviceStoreForEditor, id, explicit, title string) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		if !advice.ValidSlug(explicit) {
			return "", advice.ErrInvalidSlug
		}
		free, err := slugFree(ctx, store, id, explicit)
		if err != nil {
			return "", err
		}
		if !free {
			return "", advice.ErrSlugTaken
		}
		return explicit, nil
	}

	base := advice.Slugify(title)
	if base == "" {
		return "", advice.ErrInvalidSlug
	}
	if len(base) > advice.MaxSlugLength-4 {
		base = strings.TrimRight(base[:advice.MaxSlugLength-4], "-")
	}
	candidate := base
	for i := 2; i <= maxSlugAttempts+1; i++ {
		free, err := slugFree(ctx, store, id, candidate)
		if err != nil {
			return "", err
		}
		if free {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", advice.ErrSlugTaken
}

func slugFree(ctx context.Context, store AdviceStoreForEditor, id, slug string) (bool, error) {
	existing, err := store.GetBySlug(ctx, slug)
	if errors.Is(err, advice.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return existing.ID == id, nil
}
