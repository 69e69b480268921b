package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	therapyStore "practice/internal/adapters/storage/therapy"
	"practice/internal/domain/therapy"
)

// ErrTherapyInUse is returned when deleting a therapy that appointments reference.
var ErrTherapyInUse = errors.New("therapy has appointments; deactivate it instead")

// TherapyStoreForCatalog defines the store interface needed by therapy orchestrators.
type TherapyStoreForCatalog interface {
	GetByID(ctx context.Context, id string) (therapy.Therapy, error)
	Save(ctx context.Context, t therapy.Therapy) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter therapyStore.ListFilter) ([]therapy.Therapy, error)
	InUse(ctx context.Context, id string) (bool, error)
}

// TherapyInput carries the admin therapy form after its image is resolved.
// ID is empty on create.
type TherapyInput struct {
	ID          string
	Title       string
	Summary     string
	Description string
	DurationMin int
	PriceCents  int
	ImageKey    string
	Active      bool
}

// TherapyDeps holds dependencies for therapy orchestrators.
type TherapyDeps struct {
	TherapyStore TherapyStoreForCatalog
	GenerateID   func() string
	Now          func() time.Time
}

func (in TherapyInput) apply(t *therapy.Therapy) {
	t.Title = strings.TrimSpace(in.Title)
	t.Summary = strings.TrimSpace(in.Summary)
	t.Description = in.Description
	t.DurationMin = in.DurationMin
	t.PriceCents = in.PriceCents
	t.ImageKey = in.ImageKey
	t.Active = in.Active
}

// ExecuteCreateTherapy adds a therapy to the catalog.
// PRE: actor is an admin
// POST: Therapy persisted with a new ID
func ExecuteCreateTherapy(ctx context.Context, actor Actor, input TherapyInput, deps TherapyDeps) (therapy.Therapy, error) {
	if !actor.IsAdmin() {
		return therapy.Therapy{}, ErrForbidden
	}
	t := therapy.Therapy{ID: newID(deps.GenerateID), CreatedAt: nowOrDefault(deps.Now)}
	input.apply(&t)
	if err := t.Validate(); err != nil {
		return therapy.Therapy{}, err
	}
	if err := deps.TherapyStore.Save(ctx, t); err != nil {
		return therapy.Therapy{}, err
	}
	slog.Info("therapy_event", "event", "created", "therapy_id", t.ID, "actor", actor.AccountID)
	return t, nil
}

// ExecuteUpdateTherapy replaces the editable fields of an existing therapy.
// PRE: actor is an admin; input.ID exists
// POST: Therapy persisted, CreatedAt unchanged
func ExecuteUpdateTherapy(ctx context.Context, actor Actor, input TherapyInput, deps TherapyDeps) (therapy.Therapy, error) {
	if !actor.IsAdmin() {
		return therapy.Therapy{}, ErrForbidden
	}
	t, err := deps.TherapyStore.GetByID(ctx, input.ID)
	if err != nil {
		return therapy.Therapy{}, err
	}
	input.apply(&t)
	t.UpdatedAt = nowOrDefault(deps.Now)
	if err := t.Validate(); err != nil {
		return therapy.Therapy{}, err
	}
	if err := deps.TherapyStore.Save(ctx, t); err != nil {
		return therapy.Therapy{}, err
	}
	slog.Info("therapy_event", "event", "updated", "therapy_id", t.ID, "actor", actor.AccountID)
	return t, nil
}

// ExecuteDeleteTherapy removes a therapy that no appointment references.
// PRE: actor is an admin
// POST: Therapy removed, or ErrTherapyInUse
func ExecuteDeleteTherapy(ctx context.Context, actor Actor, id string, deps TherapyDeps) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if _, err := deps.TherapyStore.GetByID(ctx, id); err != nil {
		return err
	}
	inUse, err := deps.TherapyStore.InUse(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return ErrTherapyInUse
	}
	if err := deps.TherapyStore.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("therapy_event", "event", "deleted", "therapy_id", id, "actor", actor.AccountID)
	return nil
}

// defaultCatalog is the starting set of services for a fresh install.
var defaultCatalog = []TherapyInput{
	{Title: "Initial assessment", Summary: "A first conversation with parents about what brings you here.", DurationMin: 60, PriceCents: 12000, Active: true,
		Description: "We meet with parents or carers to understand the child's history and the current concerns.\n\nThe session ends with a recommended plan."},
	{Title: "Play therapy", Summary: "Child-led sessions where play is the language.", DurationMin: 50, PriceCents: 9500, Active: true,
		Description: "Play therapy helps children aged 3 to 12 work through feelings they cannot yet put into words."},
	{Title: "Parent consultation", Summary: "Practical guidance for everyday challenges at home.", DurationMin: 50, PriceCents: 9500, Active: true,
		Description: "Focused sessions for parents on routines, sleep, tantrums and school transitions."},
	{Title: "Family sessions", Summary: "Working together on communication and connection.", DurationMin: 90, PriceCents: 15000, Active: true,
		Description: "Sessions that include the whole family, aimed at repairing patterns that keep conflict going."},
}

// ExecuteSeedCatalog creates the default therapies when the catalog is empty.
// PRE: Database is initialized
// POST: Default therapies exist if none did; idempotent otherwise
func ExecuteSeedCatalog(ctx context.Context, deps TherapyDeps) error {
	existing, err := deps.TherapyStore.List(ctx, therapyStore.ListFilter{})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	system := Actor{AccountID: "system", Role: "admin"}
	for _, in := range defaultCatalog {
		if _, err := ExecuteCreateTherapy(ctx, system, in, deps); err != nil {
			return err
		}
	}
	slog.Info("therapy_event", "event", "catalog_seeded", "count", len(defaultCatalog))
	return nil
}
