package pipeline

import (
	"context"
	"errors"
	"fmt"

	"doc-chat-be/internal/pkg/logger"
	"doc-chat-be/pkg/chunker"
	"doc-chat-be/pkg/embedding"
	"doc-chat-be/pkg/extract"
	"doc-chat-be/pkg/vectorindex"
)

// Step names a stage of the indexing pipeline for error reporting.
type Step string

const (
	StepExtract Step = "extract"
	StepChunk   Step = "chunk"
	StepEmbed   Step = "embed"
	StepIndex   Step = "index"
)

// minIndexableChars guards against indexing files whose recovered text is
// too short to answer anything about.
const minIndexableChars = 10

// ErrInsufficientContent marks files that extracted fine but carry too
// little text to index.
var ErrInsufficientContent = errors.New("document contains insufficient text content")

// StepError wraps a failure with the pipeline stage it happened in.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("indexing pipeline failed at %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Result is what a successful run produces.
type Result struct {
	Text   string
	Chunks []string
}

// Pipeline runs a document through extract, chunk, embed and index. The
// namespace is the document's id; vector ids are {namespace}_chunk_{i}.
type Pipeline struct {
	extractor *extract.Extractor
	chunker   *chunker.Chunker
	embedder  embedding.Provider
	index     vectorindex.Index
	logger    logger.ILogger
}

func NewPipeline(
	extractor *extract.Extractor,
	ch *chunker.Chunker,
	embedder embedding.Provider,
	index vectorindex.Index,
	log logger.ILogger,
) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		chunker:   ch,
		embedder:  embedder,
		index:     index,
		logger:    log,
	}
}

// Run indexes the file content under the given namespace. On a partial index
// failure the namespace is cleaned up best effort so no half-indexed document
// is left queryable.
func (p *Pipeline) Run(ctx context.Context, namespace string, data []byte, fileType extract.FileType) (*Result, error) {
	text, err := p.extractor.Extract(data, fileType)
	if err != nil {
		return nil, &StepError{Step: StepExtract, Err: err}
	}

	if len(text) < minIndexableChars {
		return nil, &StepError{Step: StepExtract, Err: ErrInsufficientContent}
	}

	chunks, err := p.chunker.Chunk(text)
	if err != nil {
		return nil, &StepError{Step: StepChunk, Err: err}
	}

	p.logger.Info("PIPELINE", "document chunked", map[string]interface{}{
		"namespace": namespace,
		"chunks":    len(chunks),
	})

	vectors, err := p.embedder.GenerateBatch(ctx, chunks, embedding.InputDocument)
	if err != nil {
		return nil, &StepError{Step: StepEmbed, Err: err}
	}
	if len(vectors) != len(chunks) {
		return nil, &StepError{Step: StepEmbed, Err: fmt.Errorf("embedding count mismatch: %d vectors for %d chunks", len(vectors), len(chunks))}
	}

	entries := make([]vectorindex.Entry, len(chunks))
	for i, chunk := range chunks {
		entries[i] = vectorindex.Entry{
			ID:     fmt.Sprintf("%s_chunk_%d", namespace, i),
			Vector: vectors[i],
			Metadata: map[string]interface{}{
				"text":        chunk,
				"chunk_index": i,
			},
		}
	}

	if err := p.index.Upsert(ctx, namespace, entries); err != nil {
		// Remove whatever batches made it in before the failure.
		if cleanupErr := p.index.DeleteNamespace(ctx, namespace); cleanupErr != nil {
			p.logger.Warn("PIPELINE", "namespace cleanup after failed upsert", map[string]interface{}{
				"namespace": namespace,
				"error":     cleanupErr.Error(),
			})
		}
		return nil, &StepError{Step: StepIndex, Err: err}
	}

	p.logger.Info("PIPELINE", "document indexed", map[string]interface{}{
		"namespace": namespace,
		"vectors":   len(entries),
	})

	return &Result{Text: text, Chunks: chunks}, nil
}
