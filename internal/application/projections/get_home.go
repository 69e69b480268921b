package projections

import (
	"context"

	domainAdvice "practice/internal/domain/advice"
)

// HomeAdviceCount is the number of articles teased on the home page.
const HomeAdviceCount = 3

// GetHomeResult carries the query result.
type GetHomeResult struct {
	Therapies []TherapyCard
	Advice    []AdviceCard
}

// GetHomeDeps holds dependencies for GetHome.
type GetHomeDeps struct {
	TherapyStore TherapyStore
	AdviceStore  AdviceStore
	CDNBase      string
}

// QueryGetHome gathers the active services and the latest published articles.
func QueryGetHome(ctx context.Context, deps GetHomeDeps) (GetHomeResult, error) {
	therapies, err := QueryGetTherapyList(ctx, GetTherapyListQuery{ActiveOnly: true},
		GetTherapyListDeps{TherapyStore: deps.TherapyStore, CDNBase: deps.CDNBase})
	if err != nil {
		return GetHomeResult{}, err
	}
	latest, err := QueryGetAdviceList(ctx, GetAdviceListQuery{Status: domainAdvice.StatusPublished, Page: 1, PerPage: HomeAdviceCount},
		GetAdviceListDeps{AdviceStore: deps.AdviceStore, CDNBase: deps.CDNBase})
	if err != nil {
		return GetHomeResult{}, err
	}
	return GetHomeResult{Therapies: therapies, Advice: latest.Articles}, nil
}
