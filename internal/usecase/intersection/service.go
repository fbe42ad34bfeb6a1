// Package intersection extracts shared and unique keyword sets between a
// competitor and the business, scoring unique keywords against the services.
package intersection

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/compscope/internal/domain"
	"github.com/kailas-cloud/compscope/internal/domain/keyword"
	"github.com/kailas-cloud/compscope/internal/domain/vector"
	"github.com/kailas-cloud/compscope/internal/metrics"
)

// Stage names keyword similarity scoring in logs and metrics.
const Stage = "keyword_similarity"

// DefaultChunkSize is the number of keywords embedded per call.
const DefaultChunkSize = 2000

// Request is one domain pair comparison.
type Request struct {
	DomainA          string // the competitor
	DomainB          string // the business
	LocationCode     int
	LanguageCode     string
	Mode             keyword.Mode
	ServiceEmbedding []float32 // optional; enables similarity on unique keywords
	Targeted         []string  // stored target keywords to mark
	Limit            int
}

// Service runs intersections.
type Service struct {
	provider  Provider
	embedder  domain.Embedder
	chunkSize int
	logger    *zap.Logger
}

// New creates an intersection service. embedder may be nil to skip similarity.
func New(provider Provider, embedder domain.Embedder, chunkSize int, logger *zap.Logger) *Service {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Service{provider: provider, embedder: embedder, chunkSize: chunkSize, logger: logger}
}

// Intersect returns the shared or unique keywords of DomainA relative to
// DomainB. Unique keywords get a similarity score when a service embedding
// is given; a chunk whose embedding fails keeps nil similarity and the rest
// continue. Provider errors are returned as is.
func (s *Service) Intersect(ctx context.Context, req Request) (keyword.Intersection, error) {
	if !req.Mode.Valid() {
		return keyword.Intersection{}, domain.NewValidation("mode", fmt.Sprintf("must be shared or unique, got %q", req.Mode))
	}

	res, err := s.provider.DomainIntersection(ctx, keyword.IntersectQuery{
		Target1:      req.DomainA,
		Target2:      req.DomainB,
		LocationCode: req.LocationCode,
		LanguageCode: req.LanguageCode,
		Mode:         req.Mode,
		Limit:        req.Limit,
	})
	if err != nil {
		return keyword.Intersection{}, fmt.Errorf("%s intersection %s/%s: %w", req.Mode, req.DomainA, req.DomainB, err)
	}

	if req.Mode == keyword.ModeUnique && len(req.ServiceEmbedding) > 0 && s.embedder != nil {
		s.scoreSimilarity(ctx, res.Items, req.ServiceEmbedding)
	}

	if n := keyword.MarkTargeted(res.Items, req.Targeted); n > 0 {
		s.logger.Debug("Marked targeted keywords", zap.String("competitor", req.DomainA), zap.Int("count", n))
	}

	return res, nil
}

func (s *Service) scoreSimilarity(ctx context.Context, items []keyword.Record, service []float32) {
	for offset := 0; offset < len(items); offset += s.chunkSize {
		chunk := items[offset:min(offset+s.chunkSize, len(items))]

		texts := make([]string, len(chunk))
		for i := range chunk {
			texts[i] = chunk[i].Keyword
		}

		res, err := domain.EmbedAll(ctx, s.embedder, texts)
		if err != nil {
			metrics.StageDegradedTotal.WithLabelValues(Stage).Inc()
			s.logger.Warn("Keyword similarity chunk failed",
				zap.String("stage", Stage),
				zap.Int("chunk_offset", offset),
				zap.Int("chunk_size", len(chunk)),
				zap.Error(err),
			)
			continue
		}

		for i := range chunk {
			sim := vector.Cosine(service, res.Embeddings[i])
			chunk[i].Similarity = &sim
		}
	}
}
