package discovery

import (
	"context"

	"github.com/kailas-cloud/compscope/internal/domain/competitor"
)

// Provider returns organic competitors for a domain.
type Provider interface {
	CompetitorsDomain(ctx context.Context, q competitor.Query) ([]competitor.Candidate, error)
}

// MapsProvider returns local business listings around a coordinate.
type MapsProvider interface {
	LocalBusinesses(ctx context.Context, q competitor.MapsQuery) ([]competitor.Listing, error)
}
