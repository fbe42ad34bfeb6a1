package embedding

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/compscope/internal/domain"
)

type mockEmbedder struct {
	result     domain.EmbeddingResult
	err        error
	batchErrAt int // 1-based call index that fails; 0 = never
	batchSizes []int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return m.result, m.err
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.batchSizes = append(m.batchSizes, len(texts))
	if m.batchErrAt == len(m.batchSizes) {
		return domain.BatchEmbeddingResult{}, domain.ErrEmbeddingProviderError
	}
	embeddings := make([][]float32, len(texts))
	for i, t := range texts {
		embeddings[i] = []float32{float32(len(t))}
	}
	return domain.BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: len(texts),
		TotalTokens:  len(texts),
	}, nil
}

// embedOnly has no batch path.
type embedOnly struct{ calls int }

func (e *embedOnly) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	e.calls++
	return domain.EmbeddingResult{Embedding: []float32{float32(len(text))}, TotalTokens: 1}, nil
}

func TestInstrumentedEmbedder_Embed(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}}}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", 0, zap.NewNop())

	result, err := p.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 {
		t.Fatalf("unexpected vector %v", result.Embedding)
	}
}

func TestInstrumentedEmbedder_EmbedError(t *testing.T) {
	inner := &mockEmbedder{err: domain.ErrEmbeddingProviderError}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", 0, zap.NewNop())

	if _, err := p.Embed(context.Background(), "hello"); !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestInstrumentedEmbedder_BatchChunking(t *testing.T) {
	inner := &mockEmbedder{}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", 2, zap.NewNop())

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	res, err := p.BatchEmbed(context.Background(), texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := inner.batchSizes; len(got) != 3 || got[0] != 2 || got[1] != 2 || got[2] != 1 {
		t.Fatalf("unexpected chunk sizes %v", got)
	}
	for i, txt := range texts {
		if res.Embeddings[i][0] != float32(len(txt)) {
			t.Errorf("embeddings[%d] out of order: %v", i, res.Embeddings[i])
		}
	}
	if res.TotalTokens != 5 {
		t.Errorf("expected aggregated tokens 5, got %d", res.TotalTokens)
	}
}

func TestInstrumentedEmbedder_DefaultChunkSize(t *testing.T) {
	inner := &mockEmbedder{}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", 0, zap.NewNop())

	texts := make([]string, DefaultMaxAPIBatchSize+1)
	for i := range texts {
		texts[i] = "k"
	}
	if _, err := p.BatchEmbed(context.Background(), texts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inner.batchSizes) != 2 || inner.batchSizes[0] != DefaultMaxAPIBatchSize {
		t.Fatalf("unexpected chunk sizes %v", inner.batchSizes)
	}
}

func TestInstrumentedEmbedder_ChunkFailureFailsCall(t *testing.T) {
	inner := &mockEmbedder{batchErrAt: 2}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", 1, zap.NewNop())

	_, err := p.BatchEmbed(context.Background(), []string{"a", "b", "c"})
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if len(inner.batchSizes) != 2 {
		t.Fatalf("expected stop after failing chunk, got %d calls", len(inner.batchSizes))
	}
}

func TestInstrumentedEmbedder_FallbackWithoutBatch(t *testing.T) {
	inner := &embedOnly{}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", 10, zap.NewNop())

	res, err := p.BatchEmbed(context.Background(), []string{"a", "bb"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 2 || res.Embeddings[1][0] != 2 {
		t.Fatalf("unexpected fallback result: calls=%d res=%v", inner.calls, res.Embeddings)
	}
}

func TestInstrumentedEmbedder_BatchEmpty(t *testing.T) {
	inner := &mockEmbedder{}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", 0, zap.NewNop())

	res, err := p.BatchEmbed(context.Background(), nil)
	if err != nil || res.Embeddings != nil || len(inner.batchSizes) != 0 {
		t.Fatalf("expected no-op, got %v %v", res, err)
	}
}
