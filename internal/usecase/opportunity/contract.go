package opportunity

import (
	"context"

	"github.com/kailas-cloud/compscope/internal/domain/keyword"
)

// Provider expands seed keywords into keyword ideas with metrics.
type Provider interface {
	KeywordIdeas(ctx context.Context, q keyword.IdeasQuery) ([]keyword.Record, error)
}
