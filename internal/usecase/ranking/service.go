// Package ranking orders competitor candidates by how closely their site
// content matches a business's services.
package ranking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/compscope/internal/domain"
	"github.com/kailas-cloud/compscope/internal/domain/competitor"
	"github.com/kailas-cloud/compscope/internal/domain/vector"
	"github.com/kailas-cloud/compscope/internal/metrics"
)

// Stage names the ranking stage in degraded-result errors.
const Stage = "competitor_ranking"

// Mode selects the discovery path the candidates came from.
type Mode string

// Modes.
const (
	ModeDomain   Mode = "domain"
	ModeLocation Mode = "location"
)

// Defaults per mode.
const (
	DefaultTopNDomain         = 10
	DefaultTopNLocation       = 20
	DefaultLocationFetchLimit = 20
)

// Options tunes the ranker. Zero fields take the defaults.
type Options struct {
	TopNDomain         int
	TopNLocation       int
	LocationFetchLimit int
}

// Request is one ranking run.
type Request struct {
	Candidates     []competitor.Candidate
	ServiceProfile string
	UserSelected   []string
	TopN           int // 0 = mode default
	Mode           Mode
}

// Service ranks candidates by service similarity.
type Service struct {
	fetcher  Fetcher
	embedder domain.Embedder
	opts     Options
	logger   *zap.Logger
}

// New creates a ranker.
func New(fetcher Fetcher, embedder domain.Embedder, opts Options, logger *zap.Logger) *Service {
	if opts.TopNDomain <= 0 {
		opts.TopNDomain = DefaultTopNDomain
	}
	if opts.TopNLocation <= 0 {
		opts.TopNLocation = DefaultTopNLocation
	}
	if opts.LocationFetchLimit <= 0 {
		opts.LocationFetchLimit = DefaultLocationFetchLimit
	}
	return &Service{fetcher: fetcher, embedder: embedder, opts: opts, logger: logger}
}

// Rank returns at most TopN candidates ordered by similarity, with
// user-selected domains first. When embedding fails for the whole batch it
// returns the first TopN candidates unranked together with a
// *domain.DegradedResultError; the list is usable either way.
//
// Unscraped candidates keep similarity 0 and stay in the pool. Equal
// similarities keep discovery order. If the user-selected entries alone
// reach TopN, all of them are returned and nothing else.
func (s *Service) Rank(ctx context.Context, req Request) ([]competitor.Candidate, error) {
	start := time.Now()
	defer func() { metrics.StageDuration.WithLabelValues(Stage).Observe(time.Since(start).Seconds()) }()

	topN := s.topN(req)
	if req.ServiceProfile == "" || len(req.Candidates) == 0 {
		return competitor.Head(req.Candidates, topN), nil
	}

	profile, err := s.embedder.Embed(ctx, req.ServiceProfile)
	if err != nil {
		return s.degrade(req.Candidates, topN, fmt.Errorf("embed service profile: %w", err))
	}

	cands := competitor.Head(req.Candidates, -1)
	texts := s.fetchAll(ctx, cands, req.Mode)

	var (
		scrapedIdx   []int
		scrapedTexts []string
	)
	for i, t := range texts {
		if t == "" {
			continue
		}
		n := len(t)
		cands[i].ScrapedChars = &n
		scrapedIdx = append(scrapedIdx, i)
		scrapedTexts = append(scrapedTexts, t)
	}

	sims := make([]float64, len(cands))
	if len(scrapedTexts) > 0 {
		res, err := domain.EmbedAll(ctx, s.embedder, scrapedTexts)
		if err != nil {
			return s.degrade(req.Candidates, topN, fmt.Errorf("embed competitor pages: %w", err))
		}
		for j, i := range scrapedIdx {
			sims[i] = vector.Cosine(profile.Embedding, res.Embeddings[j])
		}
	}
	for i := range cands {
		sim := sims[i]
		cands[i].Similarity = &sim
	}

	sort.SliceStable(cands, func(i, j int) bool {
		return *cands[i].Similarity > *cands[j].Similarity
	})

	s.logger.Debug("Competitors ranked",
		zap.Int("candidates", len(cands)),
		zap.Int("scraped", len(scrapedIdx)),
		zap.Int("top_n", topN),
	)

	return guarantee(cands, competitor.HostSet(req.UserSelected), topN), nil
}

func (s *Service) topN(req Request) int {
	if req.TopN > 0 {
		return req.TopN
	}
	if req.Mode == ModeLocation {
		return s.opts.TopNLocation
	}
	return s.opts.TopNDomain
}

// fetchAll fetches every candidate concurrently; bounded in location mode.
// Failed fetches leave an empty string.
func (s *Service) fetchAll(ctx context.Context, cands []competitor.Candidate, mode Mode) []string {
	texts := make([]string, len(cands))

	var g errgroup.Group
	if mode == ModeLocation {
		g.SetLimit(s.opts.LocationFetchLimit)
	}
	for i := range cands {
		target := cands[i].Target()
		g.Go(func() error {
			if text, ok := s.fetcher.Fetch(ctx, target); ok {
				texts[i] = text
			}
			return nil
		})
	}
	_ = g.Wait()

	return texts
}

func (s *Service) degrade(cands []competitor.Candidate, topN int, err error) ([]competitor.Candidate, error) {
	metrics.StageDegradedTotal.WithLabelValues(Stage).Inc()
	return competitor.Head(cands, topN), domain.NewDegraded(Stage, err)
}

// guarantee emits user-selected entries first, then fills up to topN from
// the rest in their current order.
func guarantee(sorted []competitor.Candidate, selected map[string]struct{}, topN int) []competitor.Candidate {
	var guaranteed, discovered []competitor.Candidate
	for _, c := range sorted {
		if _, ok := selected[c.Host()]; ok {
			c.UserSelected = true
			guaranteed = append(guaranteed, c)
			continue
		}
		discovered = append(discovered, c)
	}

	out := guaranteed
	if remaining := topN - len(guaranteed); remaining > 0 {
		out = append(out, competitor.Head(discovered, remaining)...)
	}
	if out == nil {
		out = []competitor.Candidate{}
	}
	return out
}
