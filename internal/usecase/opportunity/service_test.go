package opportunity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/compscope/internal/domain"
	"github.com/kailas-cloud/compscope/internal/domain/keyword"
)

type mockProvider struct {
	ideas []keyword.Record
	err   error
	got   keyword.IdeasQuery
	calls int
}

func (m *mockProvider) KeywordIdeas(_ context.Context, q keyword.IdeasQuery) ([]keyword.Record, error) {
	m.calls++
	m.got = q
	return m.ideas, m.err
}

func diff(v int) *int { return &v }

func TestExpand(t *testing.T) {
	p := &mockProvider{ideas: []keyword.Record{
		{Keyword: "plumber cost", Volume: 800, CPC: 0.2, Intent: keyword.IntentInformational},
		{Keyword: "emergency plumber", Volume: 12000, Difficulty: diff(20), CPC: 6, Intent: keyword.IntentTransactional},
		{Keyword: "emergency plumber", Volume: 1},
		{Keyword: "best plumber", Volume: 6000, CPC: 3, Intent: keyword.IntentCommercial},
	}}
	s := New(p, 0, zap.NewNop())

	res, err := s.Expand(context.Background(), Request{
		Seeds: []string{" plumber ", "", "Plumber", "drain"}, LocationCode: 2840, LanguageCode: "en", Limit: 500,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"plumber", "drain"}, p.got.Seeds)
	assert.Equal(t, MaxLimit, p.got.Limit)
	assert.Equal(t, 2840, p.got.LocationCode)

	require.Len(t, res.Keywords, 3, "repeated keyword texts collapse")
	assert.Equal(t, "emergency plumber", res.Keywords[0].Keyword)
	assert.Equal(t, 100, res.Keywords[0].Score)
	assert.Equal(t, 12000, res.Keywords[0].Volume)

	assert.Len(t, res.Buckets.HighVolume, 2)
	assert.Len(t, res.Buckets.Commercial, 2)
	assert.Equal(t, "best plumber", res.Buckets.HighVolume[1].Keyword)
	assert.Equal(t, "best plumber", res.Buckets.Commercial[1].Keyword)
	assert.Len(t, res.Buckets.Content, 1)
}

func TestExpand_RequiresSeeds(t *testing.T) {
	p := &mockProvider{}
	_, err := New(p, 0, zap.NewNop()).Expand(context.Background(), Request{Seeds: []string{" ", ""}})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, p.calls)
}

func TestExpand_ProviderError(t *testing.T) {
	p := &mockProvider{err: domain.NewProviderError("dataforseo", 40100, "unauthorized")}
	_, err := New(p, 0, zap.NewNop()).Expand(context.Background(), Request{Seeds: []string{"plumber"}})
	assert.ErrorIs(t, err, domain.ErrProviderError)
}

func TestScore_BucketCap(t *testing.T) {
	recs := make([]keyword.Record, 10)
	for i := range recs {
		recs[i] = keyword.Record{Keyword: string(rune('a' + i)), Volume: 6000 + i}
	}
	res := New(&mockProvider{}, 3, zap.NewNop()).Score(recs)
	assert.Len(t, res.Keywords, 10)
	assert.Len(t, res.Buckets.HighVolume, 3)
	assert.Equal(t, 6009, res.Buckets.HighVolume[0].Volume)
}
