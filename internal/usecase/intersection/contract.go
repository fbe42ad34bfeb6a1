package intersection

import (
	"context"

	"github.com/kailas-cloud/compscope/internal/domain/keyword"
)

// Provider compares the ranked keywords of two domains.
type Provider interface {
	DomainIntersection(ctx context.Context, q keyword.IntersectQuery) (keyword.Intersection, error)
}
