// Package discovery finds competitor candidates for a business, by organic
// search overlap or by local map listings, and filters out platforms.
package discovery

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/compscope/internal/domain/competitor"
	"github.com/kailas-cloud/compscope/internal/domain/geo"
)

// Result is a discovery outcome. Seed is the domain that produced the
// candidates; empty when nothing was found.
type Result struct {
	Candidates []competitor.Candidate
	Seed       string
}

// Service runs competitor discovery.
type Service struct {
	provider Provider
	maps     MapsProvider
	filter   *Filter
	logger   *zap.Logger
}

// New creates a discovery service. maps may be nil when location discovery is unused.
func New(provider Provider, maps MapsProvider, filter *Filter, logger *zap.Logger) *Service {
	return &Service{provider: provider, maps: maps, filter: filter, logger: logger}
}

// Discover queries q.Target, then each alternate in order until one yields
// at least one candidate. The seed itself is never returned as a candidate.
// An empty result is not an error; provider failures are.
func (s *Service) Discover(ctx context.Context, q competitor.Query, alternates []string) (Result, error) {
	seeds := make([]string, 0, 1+len(alternates))
	seen := map[string]struct{}{}
	for _, d := range append([]string{q.Target}, alternates...) {
		h := competitor.BareHost(d)
		if h == "" {
			continue
		}
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		seeds = append(seeds, h)
	}

	for i, seed := range seeds {
		q.Target = seed
		cands, err := s.provider.CompetitorsDomain(ctx, q)
		if err != nil {
			return Result{}, fmt.Errorf("discover competitors of %s: %w", seed, err)
		}
		cands = dropHost(cands, seed)
		if len(cands) > 0 {
			if i > 0 {
				s.logger.Info("Discovery fell back to alternate domain",
					zap.String("seed", seed), zap.Int("candidates", len(cands)))
			}
			return Result{Candidates: cands, Seed: seed}, nil
		}
		s.logger.Debug("No competitors for seed", zap.String("seed", seed))
	}
	return Result{}, nil
}

// DiscoverLocal turns map listings with a website into candidates, one per host.
// Candidates with a pin get their distance from the query point.
func (s *Service) DiscoverLocal(ctx context.Context, q competitor.MapsQuery) ([]competitor.Candidate, error) {
	if s.maps == nil {
		return nil, fmt.Errorf("local discovery: no maps provider configured")
	}
	listings, err := s.maps.LocalBusinesses(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("local businesses for %q: %w", q.Keyword, err)
	}

	seen := map[string]struct{}{}
	var out []competitor.Candidate
	for _, l := range listings {
		c, ok := l.Candidate()
		if !ok {
			continue
		}
		if _, dup := seen[c.Domain]; dup {
			continue
		}
		seen[c.Domain] = struct{}{}
		if geo.Known(q.Lat, q.Lng) && geo.Known(c.Lat, c.Lng) {
			d := geo.Haversine(q.Lat, q.Lng, c.Lat, c.Lng)
			c.DistanceM = &d
		}
		out = append(out, c)
	}
	return out, nil
}

// Filter applies the domain filter and logs each dropped candidate.
func (s *Service) Filter(cands []competitor.Candidate) []competitor.Candidate {
	out := make([]competitor.Candidate, 0, len(cands))
	for _, c := range cands {
		if reason := s.filter.Reason(c); reason != "" {
			s.logger.Debug("Candidate filtered", zap.String("domain", c.Domain), zap.String("reason", reason))
			continue
		}
		out = append(out, c)
	}
	return out
}

func dropHost(cands []competitor.Candidate, host string) []competitor.Candidate {
	out := make([]competitor.Candidate, 0, len(cands))
	for _, c := range cands {
		if c.Host() != host {
			out = append(out, c)
		}
	}
	return out
}
