// Package opportunity expands seed keywords and ranks the ideas into
// opportunity buckets.
package opportunity

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/compscope/internal/domain"
	"github.com/kailas-cloud/compscope/internal/domain/keyword"
)

// MaxLimit is the largest number of ideas requested per expansion.
const MaxLimit = 150

// Request is one seed expansion.
type Request struct {
	Seeds        []string
	LocationCode int
	LanguageCode string
	Limit        int // 0 or > MaxLimit = MaxLimit
}

// Service scores and categorizes keyword ideas.
type Service struct {
	provider  Provider
	bucketCap int
	logger    *zap.Logger
}

// New creates an opportunity service. bucketCap <= 0 uses keyword.DefaultBucketCap.
func New(provider Provider, bucketCap int, logger *zap.Logger) *Service {
	return &Service{provider: provider, bucketCap: bucketCap, logger: logger}
}

// Expand fetches keyword ideas for the seeds and scores them.
func (s *Service) Expand(ctx context.Context, req Request) (keyword.Opportunities, error) {
	seeds := cleanSeeds(req.Seeds)
	if len(seeds) == 0 {
		return keyword.Opportunities{}, domain.NewValidation("seed_keywords", "is required")
	}

	limit := req.Limit
	if limit <= 0 || limit > MaxLimit {
		limit = MaxLimit
	}

	ideas, err := s.provider.KeywordIdeas(ctx, keyword.IdeasQuery{
		Seeds:        seeds,
		LocationCode: req.LocationCode,
		LanguageCode: req.LanguageCode,
		Limit:        limit,
	})
	if err != nil {
		return keyword.Opportunities{}, fmt.Errorf("keyword ideas: %w", err)
	}

	res := s.Score(ideas)
	res.Seeds = seeds

	s.logger.Debug("Keyword ideas scored",
		zap.Strings("seeds", seeds),
		zap.Int("ideas", len(ideas)),
		zap.Int("high_priority", len(res.Buckets.HighPriority)),
	)
	return res, nil
}

// Score scores records, drops repeated keyword texts and builds the buckets.
func (s *Service) Score(records []keyword.Record) keyword.Opportunities {
	scored := keyword.ScoreAll(dedupe(records))
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	return keyword.Opportunities{
		Keywords: scored,
		Buckets:  keyword.Categorize(scored, s.bucketCap),
	}
}

func cleanSeeds(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, sd := range in {
		sd = strings.TrimSpace(sd)
		key := strings.ToLower(sd)
		if sd == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, sd)
	}
	return out
}

// dedupe keeps the first record per keyword text.
func dedupe(records []keyword.Record) []keyword.Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]keyword.Record, 0, len(records))
	for _, r := range records {
		if r.Keyword == "" {
			continue
		}
		if _, dup := seen[r.Keyword]; dup {
			continue
		}
		seen[r.Keyword] = struct{}{}
		out = append(out, r)
	}
	return out
}
