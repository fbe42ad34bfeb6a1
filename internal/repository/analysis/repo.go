package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/compscope/internal/db"
	"github.com/kailas-cloud/compscope/internal/domain"
	domanalysis "github.com/kailas-cloud/compscope/internal/domain/analysis"
	"github.com/kailas-cloud/compscope/internal/domain/competitor"
	"github.com/kailas-cloud/compscope/internal/domain/keyword"
)

// store is the consumer interface for analysis documents (ISP).
type store interface {
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	JSONMerge(ctx context.Context, key, path string, data []byte) error
}

// Repo persists one analysis document per business. Every write is a
// JSON.MERGE patch at the root, so the document is created on first write
// and sections written by other stages are left alone.
type Repo struct {
	store  store
	prefix string
	now    func() time.Time
}

// New creates an analysis repository.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix, now: time.Now}
}

// Get loads the analysis document of a business.
func (r *Repo) Get(ctx context.Context, businessID string) (domanalysis.Document, error) {
	raw, err := r.store.JSONGet(ctx, r.key(businessID), "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domanalysis.Document{}, domain.ErrNotFound
		}
		return domanalysis.Document{}, fmt.Errorf("json.get analysis %s: %w", businessID, err)
	}

	var docs []domanalysis.Document
	if err := json.Unmarshal(raw, &docs); err != nil {
		return domanalysis.Document{}, fmt.Errorf("decode analysis %s: %w", businessID, err)
	}
	if len(docs) == 0 {
		return domanalysis.Document{}, domain.ErrNotFound
	}
	return docs[0], nil
}

// SetCompetitors replaces the ranked competitor list and its source.
func (r *Repo) SetCompetitors(ctx context.Context, businessID string, cands []competitor.Candidate, source string) error {
	if cands == nil {
		cands = []competitor.Candidate{}
	}
	return r.merge(ctx, businessID, "competitors", map[string]any{
		"competitors":       cands,
		"competitor_source": source,
	})
}

// SetKeywordSet stores one intersection of a competitor under keywords.{host}.{mode}.
func (r *Repo) SetKeywordSet(
	ctx context.Context, businessID, host string, mode keyword.Mode, set keyword.Intersection,
) error {
	if !mode.Valid() {
		return domain.NewValidation("mode", "must be shared or unique")
	}
	if set.Items == nil {
		set.Items = []keyword.Record{}
	}
	return r.merge(ctx, businessID, "keywords", map[string]any{
		"keywords": map[string]any{
			host: map[string]any{string(mode): set},
		},
	})
}

// SetTargets replaces the selected target keywords.
func (r *Repo) SetTargets(ctx context.Context, businessID string, targets []string) error {
	if targets == nil {
		targets = []string{}
	}
	return r.merge(ctx, businessID, "target_keywords", map[string]any{"target_keywords": targets})
}

// SetOpportunities replaces the keyword opportunity section.
func (r *Repo) SetOpportunities(ctx context.Context, businessID string, o keyword.Opportunities) error {
	return r.merge(ctx, businessID, "opportunities", map[string]any{"opportunities": o})
}

func (r *Repo) merge(ctx context.Context, businessID, section string, patch map[string]any) error {
	patch["business_id"] = businessID
	patch["updated_at"] = r.now().UTC()

	data, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("encode analysis %s %s: %w", businessID, section, err)
	}
	if err := r.store.JSONMerge(ctx, r.key(businessID), "$", data); err != nil {
		return fmt.Errorf("json.merge analysis %s %s: %w", businessID, section, err)
	}
	return nil
}

func (r *Repo) key(businessID string) string {
	return r.prefix + "analysis:" + businessID
}
