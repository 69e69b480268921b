package projections

import (
	"context"

	"practice/internal/adapters/storage/therapy"
	"practice/internal/domain/image"
	domainTherapy "practice/internal/domain/therapy"
)

// GetTherapyListQuery carries query parameters.
type GetTherapyListQuery struct {
	ActiveOnly bool
}

// TherapyCard is a service with its resolved image.
type TherapyCard struct {
	Therapy  domainTherapy.Therapy
	ImageURL string
}

// GetTherapyListDeps holds dependencies for therapy queries.
type GetTherapyListDeps struct {
	TherapyStore TherapyStore
	CDNBase      string
}

// QueryGetTherapyList lists services ordered by title.
func QueryGetTherapyList(ctx context.Context, query GetTherapyListQuery, deps GetTherapyListDeps) ([]TherapyCard, error) {
	list, err := deps.TherapyStore.List(ctx, therapy.ListFilter{ActiveOnly: query.ActiveOnly})
	if err != nil {
		return nil, err
	}
	cards := make([]TherapyCard, 0, len(list))
	for _, t := range list {
		cards = append(cards, therapyCard(t, deps.CDNBase))
	}
	return cards, nil
}

// QueryGetTherapy returns one service. Inactive services are hidden unless includeInactive.
func QueryGetTherapy(ctx context.Context, id string, includeInactive bool, deps GetTherapyListDeps) (TherapyCard, error) {
	t, err := deps.TherapyStore.GetByID(ctx, id)
	if err != nil {
		return TherapyCard{}, err
	}
	if !t.Active && !includeInactive {
		return TherapyCard{}, domainTherapy.ErrNotFound
	}
	return therapyCard(t, deps.CDNBase), nil
}

func therapyCard(t domainTherapy.Therapy, cdnBase string) TherapyCard {
	card := TherapyCard{Therapy: t}
	if t.ImageKey != "" {
		card.ImageURL = image.URL(cdnBase, t.ImageKey, image.FolderTherapy)
	}
	return card
}
