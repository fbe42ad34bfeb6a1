package intersection

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/compscope/internal/domain"
	"github.com/kailas-cloud/compscope/internal/domain/keyword"
	"github.com/kailas-cloud/compscope/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Register()
	os.Exit(m.Run())
}

// --- Mocks ---

type mockProvider struct {
	result keyword.Intersection
	err    error
	got    keyword.IntersectQuery
}

func (m *mockProvider) DomainIntersection(_ context.Context, q keyword.IntersectQuery) (keyword.Intersection, error) {
	m.got = q
	// Hand out a copy so marks on one call don't leak into the fixture.
	items := make([]keyword.Record, len(m.result.Items))
	copy(items, m.result.Items)
	return keyword.Intersection{TotalCount: m.result.TotalCount, Items: items}, m.err
}

// chunkEmbedder fails the chunk calls listed in failOn (1-based) and
// returns [1,0] otherwise.
type chunkEmbedder struct {
	failOn map[int]bool
	calls  []int
}

func (e *chunkEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, errors.New("not used")
}

func (e *chunkEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	e.calls = append(e.calls, len(texts))
	if e.failOn[len(e.calls)] {
		return domain.BatchEmbeddingResult{}, domain.ErrEmbeddingProviderError
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return domain.BatchEmbeddingResult{Embeddings: out}, nil
}

func records(words ...string) []keyword.Record {
	out := make([]keyword.Record, len(words))
	for i, w := range words {
		out[i] = keyword.Record{Keyword: w, Volume: 100}
	}
	return out
}

// --- Tests ---

func TestIntersect_UniqueScoresInChunks(t *testing.T) {
	p := &mockProvider{result: keyword.Intersection{TotalCount: 5, Items: records("a", "b", "c", "d", "e")}}
	emb := &chunkEmbedder{failOn: map[int]bool{2: true}}
	s := New(p, emb, 2, zap.NewNop())

	got, err := s.Intersect(context.Background(), Request{
		DomainA: "rival.com", DomainB: "acme.com", LocationCode: 2840, LanguageCode: "en",
		Mode: keyword.ModeUnique, ServiceEmbedding: []float32{1, 0},
	})
	require.NoError(t, err, "chunk failures do not abort extraction")
	assert.Equal(t, 5, got.TotalCount)
	assert.Equal(t, []int{2, 2, 1}, emb.calls)

	require.NotNil(t, got.Items[0].Similarity)
	assert.InDelta(t, 1.0, *got.Items[1].Similarity, 1e-9)
	assert.Nil(t, got.Items[2].Similarity, "failed chunk leaves nil")
	assert.Nil(t, got.Items[3].Similarity)
	require.NotNil(t, got.Items[4].Similarity)

	assert.Equal(t, keyword.IntersectQuery{
		Target1: "rival.com", Target2: "acme.com", LocationCode: 2840, LanguageCode: "en", Mode: keyword.ModeUnique,
	}, p.got)
}

func TestIntersect_SharedSkipsSimilarity(t *testing.T) {
	p := &mockProvider{result: keyword.Intersection{Items: records("a")}}
	emb := &chunkEmbedder{}
	s := New(p, emb, 0, zap.NewNop())

	got, err := s.Intersect(context.Background(), Request{
		DomainA: "rival.com", DomainB: "acme.com", Mode: keyword.ModeShared, ServiceEmbedding: []float32{1},
	})
	require.NoError(t, err)
	assert.Empty(t, emb.calls)
	assert.Nil(t, got.Items[0].Similarity)
}

func TestIntersect_NoServiceEmbedding(t *testing.T) {
	p := &mockProvider{result: keyword.Intersection{Items: records("a")}}
	emb := &chunkEmbedder{}
	s := New(p, emb, 0, zap.NewNop())

	_, err := s.Intersect(context.Background(), Request{Mode: keyword.ModeUnique})
	require.NoError(t, err)
	assert.Empty(t, emb.calls)
}

func TestIntersect_MarksTargeted(t *testing.T) {
	p := &mockProvider{result: keyword.Intersection{Items: records("emergency plumber", "Emergency Plumber", "drain")}}
	s := New(p, nil, 0, zap.NewNop())

	got, err := s.Intersect(context.Background(), Request{
		Mode: keyword.ModeShared, Targeted: []string{"emergency plumber"},
	})
	require.NoError(t, err)
	assert.True(t, got.Items[0].Targeted)
	assert.False(t, got.Items[1].Targeted, "match is exact")
	assert.False(t, got.Items[2].Targeted)
}

func TestIntersect_ProviderError(t *testing.T) {
	perr := domain.NewProviderError("dataforseo", 500, "boom")
	s := New(&mockProvider{err: perr}, nil, 0, zap.NewNop())

	_, err := s.Intersect(context.Background(), Request{Mode: keyword.ModeShared})
	assert.ErrorIs(t, err, domain.ErrProviderError)
}

func TestIntersect_InvalidMode(t *testing.T) {
	s := New(&mockProvider{}, nil, 0, zap.NewNop())
	_, err := s.Intersect(context.Background(), Request{Mode: "both"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
