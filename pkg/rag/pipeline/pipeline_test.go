package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doc-chat-be/internal/pkg/logger"
	"doc-chat-be/pkg/chunker"
	"doc-chat-be/pkg/embedding"
	"doc-chat-be/pkg/extract"
	"doc-chat-be/pkg/vectorindex"
)

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) GenerateBatch(ctx context.Context, texts []string, inputType embedding.InputType) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i + 1), 0}
	}
	return out, nil
}

type failingIndex struct {
	*vectorindex.MemoryIndex
	upsertErr error
	deleted   []string
}

func (f *failingIndex) Upsert(ctx context.Context, namespace string, entries []vectorindex.Entry) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	return f.MemoryIndex.Upsert(ctx, namespace, entries)
}

func (f *failingIndex) DeleteNamespace(ctx context.Context, namespace string) error {
	f.deleted = append(f.deleted, namespace)
	return f.MemoryIndex.DeleteNamespace(ctx, namespace)
}

func newTestPipeline(t *testing.T, embedder embedding.Provider, index vectorindex.Index) *Pipeline {
	t.Helper()
	ch, err := chunker.New(5, 1)
	require.NoError(t, err)
	return NewPipeline(extract.NewExtractor(), ch, embedder, index, logger.NewNop())
}

func TestRunIndexesDocument(t *testing.T) {
	idx := vectorindex.NewMemoryIndex()
	embedder := &fakeEmbedder{}
	p := newTestPipeline(t, embedder, idx)

	words := make([]string, 12)
	for i := range words {
		words[i] = fmt.Sprintf("word%d", i)
	}
	data := []byte(strings.Join(words, " "))

	result, err := p.Run(context.Background(), "doc-1", data, extract.TypeTxt)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, string(data), result.Text)
	// 12 words, size 5, step 4: offsets 0, 4, 8.
	assert.Len(t, result.Chunks, 3)
	assert.Equal(t, 1, embedder.calls)

	matches, err := idx.Query(context.Background(), "doc-1", []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "doc-1_chunk_0", matches[0].ID)
	assert.Equal(t, result.Chunks[0], matches[0].Metadata["text"])
	assert.Equal(t, 0, matches[0].Metadata["chunk_index"])
}

func TestRunInsufficientContent(t *testing.T) {
	p := newTestPipeline(t, &fakeEmbedder{}, vectorindex.NewMemoryIndex())

	_, err := p.Run(context.Background(), "doc-1", []byte("tiny"), extract.TypeTxt)
	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, StepExtract, stepErr.Step)
	assert.ErrorIs(t, err, ErrInsufficientContent)
}

func TestRunExtractionFailure(t *testing.T) {
	p := newTestPipeline(t, &fakeEmbedder{}, vectorindex.NewMemoryIndex())

	_, err := p.Run(context.Background(), "doc-1", []byte("not a pdf"), extract.TypePDF)
	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, StepExtract, stepErr.Step)

	var extractErr *extract.ExtractionError
	assert.ErrorAs(t, err, &extractErr)
}

func TestRunEmbeddingFailure(t *testing.T) {
	embedErr := &embedding.ServiceError{Provider: "cohere", Kind: embedding.KindRateLimit, Err: errors.New("429")}
	p := newTestPipeline(t, &fakeEmbedder{err: embedErr}, vectorindex.NewMemoryIndex())

	_, err := p.Run(context.Background(), "doc-1", []byte("enough words to pass the length guard"), extract.TypeTxt)
	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, StepEmbed, stepErr.Step)

	var svcErr *embedding.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, embedding.KindRateLimit, svcErr.Kind)
}

func TestRunIndexFailureCleansNamespace(t *testing.T) {
	idx := &failingIndex{
		MemoryIndex: vectorindex.NewMemoryIndex(),
		upsertErr:   &vectorindex.IndexError{Op: vectorindex.OpWrite, Namespace: "doc-1", Err: errors.New("connection reset")},
	}
	p := newTestPipeline(t, &fakeEmbedder{}, idx)

	_, err := p.Run(context.Background(), "doc-1", []byte("enough words to pass the length guard"), extract.TypeTxt)
	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, StepIndex, stepErr.Step)
	assert.Equal(t, []string{"doc-1"}, idx.deleted)
}
