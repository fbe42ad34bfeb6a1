// Package analysis runs the per-business pipelines: competitor discovery and
// ranking, keyword intersections, target selection and keyword opportunities.
// Results are persisted section by section in the analysis document.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/compscope/internal/domain"
	domanalysis "github.com/kailas-cloud/compscope/internal/domain/analysis"
	"github.com/kailas-cloud/compscope/internal/domain/business"
	"github.com/kailas-cloud/compscope/internal/domain/competitor"
	"github.com/kailas-cloud/compscope/internal/domain/keyword"
	"github.com/kailas-cloud/compscope/internal/metrics"
	"github.com/kailas-cloud/compscope/internal/usecase/intersection"
	"github.com/kailas-cloud/compscope/internal/usecase/opportunity"
	"github.com/kailas-cloud/compscope/internal/usecase/ranking"
)

// Stage labels for logs and metrics.
const (
	StageDiscovery     = "competitor_discovery"
	StageKeywords      = "keyword_intersection"
	StageTargets       = "target_selection"
	StageOpportunities = "keyword_opportunities"
	stageProfile       = "service_profile_embedding"
)

// Options tunes provider request sizes and target selection.
type Options struct {
	DiscoveryLimit    int
	IntersectionLimit int
	IdeasLimit        int
	MapsDepth         int
	Select            keyword.SelectOptions
}

// Report summarizes a finished run. Warnings name degraded stages.
type Report struct {
	Items    int      `json:"items"`
	Warnings []string `json:"warnings,omitempty"`
}

func (r *Report) warn(stage string, err error) {
	r.Warnings = append(r.Warnings, fmt.Sprintf("%s: %v", stage, err))
}

// Service orchestrates the analysis pipelines.
type Service struct {
	businesses  BusinessReader
	repo        Repository
	discoverer  Discoverer
	ranker      Ranker
	intersector Intersector
	expander    Expander
	embedder    domain.Embedder
	opts        Options
	logger      *zap.Logger
}

// New creates an analysis service.
func New(
	businesses BusinessReader,
	repo Repository,
	discoverer Discoverer,
	ranker Ranker,
	intersector Intersector,
	expander Expander,
	embedder domain.Embedder,
	opts Options,
	logger *zap.Logger,
) *Service {
	return &Service{
		businesses:  businesses,
		repo:        repo,
		discoverer:  discoverer,
		ranker:      ranker,
		intersector: intersector,
		expander:    expander,
		embedder:    embedder,
		opts:        opts,
		logger:      logger,
	}
}

// RunCompetitors discovers organic competitors for the business domain
// (falling back to its alternate domains), filters and ranks them, and
// stores the ranked list.
func (s *Service) RunCompetitors(ctx context.Context, businessID string) (Report, error) {
	start := time.Now()
	defer observe(StageDiscovery, start)

	b, err := s.load(ctx, businessID, business.NeedsDomain)
	if err != nil {
		return Report{}, err
	}

	res, err := s.discoverer.Discover(ctx, competitor.Query{
		Target:       b.ReferenceDomain(),
		LocationCode: b.Location.LocationCode,
		LanguageCode: b.Location.LanguageCode,
		Limit:        s.opts.DiscoveryLimit,
	}, b.AlternateDomains)
	if err != nil {
		return Report{}, err
	}

	source := res.Seed
	if source == "" {
		source = competitor.BareHost(b.ReferenceDomain())
	}
	return s.rankAndStore(ctx, &b, res.Candidates, ranking.ModeDomain, source)
}

// RunLocationCompetitors discovers businesses of the same type around the
// business location, filters and ranks them, and stores the ranked list.
func (s *Service) RunLocationCompetitors(ctx context.Context, businessID string) (Report, error) {
	start := time.Now()
	defer observe(StageDiscovery, start)

	b, err := s.load(ctx, businessID, business.NeedsBusinessType)
	if err != nil {
		return Report{}, err
	}

	cands, err := s.discoverer.DiscoverLocal(ctx, competitor.MapsQuery{
		Keyword:      b.BusinessType,
		Lat:          b.Location.Lat,
		Lng:          b.Location.Lng,
		LanguageCode: b.Location.LanguageCode,
		Depth:        s.opts.MapsDepth,
	})
	if err != nil {
		return Report{}, err
	}
	return s.rankAndStore(ctx, &b, cands, ranking.ModeLocation, domanalysis.SourceLocation)
}

func (s *Service) rankAndStore(
	ctx context.Context, b *business.Business, cands []competitor.Candidate, mode ranking.Mode, source string,
) (Report, error) {
	var rep Report

	found := len(cands)
	cands = s.discoverer.Filter(excludeOwn(cands, b))

	ranked, err := s.ranker.Rank(ctx, ranking.Request{
		Candidates:     cands,
		ServiceProfile: b.ServiceProfile(),
		UserSelected:   b.SelectedRivals,
		Mode:           mode,
	})
	if err != nil {
		if !errors.Is(err, domain.ErrDegraded) {
			return Report{}, fmt.Errorf("rank competitors: %w", err)
		}
		s.degraded(&rep, ranking.Stage, b.ID, err)
	}

	if err := s.repo.SetCompetitors(ctx, b.ID, ranked, source); err != nil {
		return Report{}, fmt.Errorf("store competitors: %w", err)
	}

	s.logger.Info("Competitors stored",
		zap.String("business_id", b.ID),
		zap.String("mode", string(mode)),
		zap.String("source", source),
		zap.Int("found", found),
		zap.Int("filtered", len(cands)),
		zap.Int("stored", len(ranked)),
	)
	rep.Items = len(ranked)
	return rep, nil
}

// RunKeywords computes shared and unique keyword intersections between each
// stored competitor and the business. A failing pair is logged and skipped;
// the run fails only when every pair fails.
func (s *Service) RunKeywords(ctx context.Context, businessID string) (Report, error) {
	start := time.Now()
	defer observe(StageKeywords, start)

	b, err := s.load(ctx, businessID, business.NeedsDomain)
	if err != nil {
		return Report{}, err
	}
	doc, err := s.document(ctx, businessID)
	if err != nil {
		return Report{}, err
	}
	hosts := doc.CompetitorHosts()
	if len(hosts) == 0 {
		return Report{}, domain.NewValidation("competitors", "run competitor analysis first")
	}

	var rep Report
	serviceEmb := s.embedProfile(ctx, &rep, &b)

	var (
		firstErr error
		stored   int
	)
	for _, host := range hosts {
		for _, mode := range []keyword.Mode{keyword.ModeShared, keyword.ModeUnique} {
			req := intersection.Request{
				DomainA:      host,
				DomainB:      b.ReferenceDomain(),
				LocationCode: b.Location.LocationCode,
				LanguageCode: b.Location.LanguageCode,
				Mode:         mode,
				Targeted:     doc.TargetKeywords,
				Limit:        s.opts.IntersectionLimit,
			}
			if mode == keyword.ModeUnique {
				req.ServiceEmbedding = serviceEmb
			}

			set, err := s.intersector.Intersect(ctx, req)
			if err != nil {
				if ctx.Err() != nil {
					return Report{}, ctx.Err()
				}
				if firstErr == nil {
					firstErr = err
				}
				s.degraded(&rep, StageKeywords, businessID,
					fmt.Errorf("%s %s: %w", host, mode, err))
				continue
			}
			if err := s.repo.SetKeywordSet(ctx, businessID, host, mode, set); err != nil {
				return Report{}, fmt.Errorf("store %s keywords of %s: %w", mode, host, err)
			}
			stored++
			rep.Items += len(set.Items)
		}
	}

	if stored == 0 && firstErr != nil {
		return Report{}, fmt.Errorf("keyword intersections: %w", firstErr)
	}

	s.logger.Info("Keyword sets stored",
		zap.String("business_id", businessID),
		zap.Int("competitors", len(hosts)),
		zap.Int("sets", stored),
		zap.Int("keywords", rep.Items),
	)
	return rep, nil
}

// RunTargets selects diverse target keywords from the stored unique
// keywords that carry a similarity score, stores them and re-marks every
// stored keyword set against the new targets.
func (s *Service) RunTargets(ctx context.Context, businessID string) (Report, error) {
	start := time.Now()
	defer observe(StageTargets, start)

	if _, err := s.load(ctx, businessID); err != nil {
		return Report{}, err
	}
	doc, err := s.document(ctx, businessID)
	if err != nil {
		return Report{}, err
	}

	hosts := keywordHosts(&doc)
	var pool []keyword.Record
	for _, h := range hosts {
		u := doc.Keywords[h].Unique
		if u == nil {
			continue
		}
		for _, r := range u.Items {
			if r.Similarity != nil {
				pool = append(pool, r)
			}
		}
	}
	if len(pool) == 0 {
		return Report{}, domain.NewValidation("keywords", "no scored unique keywords; run keyword analysis first")
	}

	targets := keyword.SelectDiverse(pool, s.opts.Select)
	if err := s.repo.SetTargets(ctx, businessID, targets); err != nil {
		return Report{}, fmt.Errorf("store targets: %w", err)
	}

	var rep Report
	for _, h := range hosts {
		sets := doc.Keywords[h]
		for _, mode := range []keyword.Mode{keyword.ModeShared, keyword.ModeUnique} {
			set := sets.Set(mode)
			if set == nil {
				continue
			}
			for i := range set.Items {
				set.Items[i].Targeted = false
			}
			keyword.MarkTargeted(set.Items, targets)
			if err := s.repo.SetKeywordSet(ctx, businessID, h, mode, *set); err != nil {
				s.degraded(&rep, StageTargets, businessID,
					fmt.Errorf("re-mark %s %s: %w", h, mode, err))
			}
		}
	}

	s.logger.Info("Target keywords stored",
		zap.String("business_id", businessID),
		zap.Int("pool", len(pool)),
		zap.Int("targets", len(targets)),
	)
	rep.Items = len(targets)
	return rep, nil
}

// RunOpportunities expands the business seed keywords into scored and
// categorized keyword ideas and stores them.
func (s *Service) RunOpportunities(ctx context.Context, businessID string) (Report, error) {
	start := time.Now()
	defer observe(StageOpportunities, start)

	b, err := s.load(ctx, businessID, business.NeedsSeedKeywords)
	if err != nil {
		return Report{}, err
	}

	opps, err := s.expander.Expand(ctx, opportunity.Request{
		Seeds:        b.SeedList(),
		LocationCode: b.Location.LocationCode,
		LanguageCode: b.Location.LanguageCode,
		Limit:        s.opts.IdeasLimit,
	})
	if err != nil {
		return Report{}, err
	}
	if err := s.repo.SetOpportunities(ctx, businessID, opps); err != nil {
		return Report{}, fmt.Errorf("store opportunities: %w", err)
	}

	s.logger.Info("Keyword opportunities stored",
		zap.String("business_id", businessID),
		zap.Int("keywords", len(opps.Keywords)),
	)
	return Report{Items: len(opps.Keywords)}, nil
}

// Analysis returns the stored analysis document.
func (s *Service) Analysis(ctx context.Context, businessID string) (domanalysis.Document, error) {
	return s.repo.Get(ctx, businessID)
}

func (s *Service) load(ctx context.Context, id string, reqs ...business.Requirement) (business.Business, error) {
	b, err := s.businesses.Get(ctx, id)
	if err != nil {
		return business.Business{}, fmt.Errorf("load business %s: %w", id, err)
	}
	if err := b.Validate(reqs...); err != nil {
		return business.Business{}, err
	}
	return b, nil
}

// document loads the analysis; a missing one means no earlier stage ran.
func (s *Service) document(ctx context.Context, businessID string) (domanalysis.Document, error) {
	doc, err := s.repo.Get(ctx, businessID)
	if errors.Is(err, domain.ErrNotFound) {
		return domanalysis.Document{}, domain.NewValidation("competitors", "run competitor analysis first")
	}
	if err != nil {
		return domanalysis.Document{}, fmt.Errorf("load analysis: %w", err)
	}
	return doc, nil
}

// embedProfile embeds the service profile once per run. Nil disables
// similarity scoring on unique keywords.
func (s *Service) embedProfile(ctx context.Context, rep *Report, b *business.Business) []float32 {
	profile := b.ServiceProfile()
	if profile == "" {
		return nil
	}
	res, err := s.embedder.Embed(ctx, profile)
	if err != nil {
		s.degraded(rep, stageProfile, b.ID, err)
		return nil
	}
	return res.Embedding
}

// degraded records a non-fatal stage failure. Errors that already carry
// ErrDegraded were counted by the stage that produced them.
func (s *Service) degraded(rep *Report, stage, businessID string, err error) {
	if !errors.Is(err, domain.ErrDegraded) {
		metrics.StageDegradedTotal.WithLabelValues(stage).Inc()
	}
	s.logger.Warn("Stage degraded",
		zap.String("stage", stage),
		zap.String("business_id", businessID),
		zap.Error(err),
	)
	rep.warn(stage, err)
}

func observe(stage string, start time.Time) {
	metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// excludeOwn drops candidates that are the business itself or one of its alternate domains.
func excludeOwn(cands []competitor.Candidate, b *business.Business) []competitor.Candidate {
	own := competitor.HostSet(append([]string{b.Domain}, b.AlternateDomains...))
	out := make([]competitor.Candidate, 0, len(cands))
	for _, c := range cands {
		if _, ok := own[c.Host()]; ok {
			continue
		}
		out = append(out, c)
	}
	return out
}

// keywordHosts orders stored keyword sets by competitor rank, then by host
// for sets whose competitor is no longer stored.
func keywordHosts(doc *domanalysis.Document) []string {
	seen := make(map[string]struct{}, len(doc.Keywords))
	var out []string
	for _, h := range doc.CompetitorHosts() {
		if _, ok := doc.Keywords[h]; ok {
			seen[h] = struct{}{}
			out = append(out, h)
		}
	}
	var rest []string
	for h := range doc.Keywords {
		if _, ok := seen[h]; !ok {
			rest = append(rest, h)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}
