package analysis

import (
	"context"

	domanalysis "github.com/kailas-cloud/compscope/internal/domain/analysis"
	"github.com/kailas-cloud/compscope/internal/domain/business"
	"github.com/kailas-cloud/compscope/internal/domain/competitor"
	"github.com/kailas-cloud/compscope/internal/domain/keyword"
	"github.com/kailas-cloud/compscope/internal/usecase/discovery"
	"github.com/kailas-cloud/compscope/internal/usecase/intersection"
	"github.com/kailas-cloud/compscope/internal/usecase/opportunity"
	"github.com/kailas-cloud/compscope/internal/usecase/ranking"
)

// BusinessReader loads business records.
type BusinessReader interface {
	Get(ctx context.Context, id string) (business.Business, error)
}

// Repository persists analysis sections.
type Repository interface {
	Get(ctx context.Context, businessID string) (domanalysis.Document, error)
	SetCompetitors(ctx context.Context, businessID string, cands []competitor.Candidate, source string) error
	SetKeywordSet(ctx context.Context, businessID, host string, mode keyword.Mode, set keyword.Intersection) error
	SetTargets(ctx context.Context, businessID string, targets []string) error
	SetOpportunities(ctx context.Context, businessID string, o keyword.Opportunities) error
}

// Discoverer finds and filters competitor candidates.
type Discoverer interface {
	Discover(ctx context.Context, q competitor.Query, alternates []string) (discovery.Result, error)
	DiscoverLocal(ctx context.Context, q competitor.MapsQuery) ([]competitor.Candidate, error)
	Filter(cands []competitor.Candidate) []competitor.Candidate
}

// Ranker orders candidates by service similarity.
type Ranker interface {
	Rank(ctx context.Context, req ranking.Request) ([]competitor.Candidate, error)
}

// Intersector compares the keywords of a competitor and the business.
type Intersector interface {
	Intersect(ctx context.Context, req intersection.Request) (keyword.Intersection, error)
}

// Expander expands seed keywords into scored opportunities.
type Expander interface {
	Expand(ctx context.Context, req opportunity.Request) (keyword.Opportunities, error)
}
