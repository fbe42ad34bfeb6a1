package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/compscope/internal/domain"
	"github.com/kailas-cloud/compscope/internal/domain/competitor"
	"github.com/kailas-cloud/compscope/internal/domain/keyword"
)

func newTestRepo(s *memStore) *Repo {
	r := New(s, "cs:")
	r.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return r
}

func TestGet_Missing(t *testing.T) {
	r := newTestRepo(newMemStore())
	_, err := r.Get(context.Background(), "b1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSections_AreIndependent(t *testing.T) {
	s := newMemStore()
	r := newTestRepo(s)
	ctx := context.Background()

	sim := 0.8
	require.NoError(t, r.SetCompetitors(ctx, "b1", []competitor.Candidate{
		{Domain: "rival.com", Similarity: &sim},
	}, "acmeplumbing.com"))

	shared := keyword.Intersection{TotalCount: 1, Items: []keyword.Record{{Keyword: "plumber near me", Volume: 100}}}
	unique := keyword.Intersection{TotalCount: 2, Items: []keyword.Record{{Keyword: "drain repair"}, {Keyword: "pipe fix"}}}
	require.NoError(t, r.SetKeywordSet(ctx, "b1", "rival.com", keyword.ModeShared, shared))
	require.NoError(t, r.SetKeywordSet(ctx, "b1", "rival.com", keyword.ModeUnique, unique))
	require.NoError(t, r.SetTargets(ctx, "b1", []string{"drain repair"}))
	require.NoError(t, r.SetOpportunities(ctx, "b1", keyword.Opportunities{
		Seeds:    []string{"plumber"},
		Keywords: []keyword.Scored{{Record: keyword.Record{Keyword: "plumber"}, Score: 40}},
	}))

	assert.Contains(t, s.docs, "cs:analysis:b1")

	doc, err := r.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "b1", doc.BusinessID)
	assert.Equal(t, "acmeplumbing.com", doc.CompetitorSource)
	require.Len(t, doc.Competitors, 1)
	assert.InDelta(t, 0.8, *doc.Competitors[0].Similarity, 1e-9)

	sets := doc.Keywords["rival.com"]
	require.NotNil(t, sets.Shared)
	require.NotNil(t, sets.Unique)
	assert.Equal(t, 1, sets.Shared.TotalCount)
	assert.Len(t, sets.Unique.Items, 2)
	assert.Same(t, sets.Unique, sets.Set(keyword.ModeUnique))

	assert.Equal(t, []string{"drain repair"}, doc.TargetKeywords)
	require.NotNil(t, doc.Opportunities)
	assert.Equal(t, 40, doc.Opportunities.Keywords[0].Score)
	assert.Equal(t, []string{"rival.com"}, doc.CompetitorHosts())
}

func TestSetCompetitors_ReplacesList(t *testing.T) {
	s := newMemStore()
	r := newTestRepo(s)
	ctx := context.Background()

	require.NoError(t, r.SetCompetitors(ctx, "b1", []competitor.Candidate{{Domain: "a.com"}, {Domain: "b.com"}}, "x.com"))
	require.NoError(t, r.SetCompetitors(ctx, "b1", []competitor.Candidate{{Domain: "c.com"}}, "location"))

	doc, err := r.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c.com"}, doc.CompetitorHosts())
	assert.Equal(t, "location", doc.CompetitorSource)
}

func TestSetKeywordSet_InvalidMode(t *testing.T) {
	r := newTestRepo(newMemStore())
	err := r.SetKeywordSet(context.Background(), "b1", "rival.com", keyword.Mode("both"), keyword.Intersection{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestMerge_StoreError(t *testing.T) {
	s := newMemStore()
	s.mergeErr = errors.New("boom")
	err := newTestRepo(s).SetTargets(context.Background(), "b1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target_keywords")
}
