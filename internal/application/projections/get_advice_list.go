package projections

import (
	"context"

	"practice/internal/adapters/storage/advice"
	"practice/internal/application/listutil"
	domainAdvice "practice/internal/domain/advice"
	"practice/internal/domain/image"
)

// ExcerptLength is the number of runes shown in article teasers.
const ExcerptLength = 200

// GetAdviceListQuery carries query parameters.
type GetAdviceListQuery struct {
	Status  string // empty lists every status (admin)
	Page    int
	PerPage int
}

// AdviceCard is an article teaser.
type AdviceCard struct {
	Article  domainAdvice.Advice
	ImageURL string
	Excerpt  string
}

// GetAdviceListResult carries the query result.
type GetAdviceListResult struct {
	Articles []AdviceCard
	Page     listutil.Page
}

// GetAdviceListDeps holds dependencies for advice queries.
type GetAdviceListDeps struct {
	AdviceStore AdviceStore
	CDNBase     string
}

// QueryGetAdviceList returns one page of articles, newest first.
// PRE: Valid query parameters
// POST: Page is clamped to the available pages
func QueryGetAdviceList(ctx context.Context, query GetAdviceListQuery, deps GetAdviceListDeps) (GetAdviceListResult, error) {
	total, err := deps.AdviceStore.Count(ctx, advice.ListFilter{Status: query.Status})
	if err != nil {
		return GetAdviceListResult{}, err
	}
	page := listutil.NewPage(query.Page, query.PerPage, total)

	articles, err := deps.AdviceStore.List(ctx, advice.ListFilter{
		Status: query.Status,
		Limit:  page.PerPage,
		Offset: page.Offset(),
	})
	if err != nil {
		return GetAdviceListResult{}, err
	}

	result := GetAdviceListResult{Page: page}
	for _, a := range articles {
		result.Articles = append(result.Articles, adviceCard(a, deps.CDNBase))
	}
	return result, nil
}

// QueryGetAdviceArticle returns one article by slug.
// Drafts are reported as not found unless includeDrafts is set.
func QueryGetAdviceArticle(ctx context.Context, slug string, includeDrafts bool, deps GetAdviceListDeps) (AdviceCard, error) {
	a, err := deps.AdviceStore.GetBySlug(ctx, slug)
	if err != nil {
		return AdviceCard{}, err
	}
	if !a.IsPublished() && !includeDrafts {
		return AdviceCard{}, domainAdvice.ErrNotFound
	}
	return adviceCard(a, deps.CDNBase), nil
}

func adviceCard(a domainAdvice.Advice, cdnBase string) AdviceCard {
	card := AdviceCard{Article: a, Excerpt: a.Excerpt(ExcerptLength)}
	if a.ImageKey != "" {
		card.ImageURL = image.URL(cdnBase, a.ImageKey, image.FolderAdvice)
	}
	return card
}
