package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"doc-chat-be/pkg/embedding"
	"doc-chat-be/pkg/rag/prompt"
	"doc-chat-be/pkg/vectorindex"
)

const (
	queryEmbeddingTTL = 10 * time.Minute
	cacheSweepEvery   = 15 * time.Minute
)

// Service embeds a question and pulls the closest chunks from the vector
// index. Query embeddings are memoized so repeated or rephrased-then-retried
// questions do not hit the embedding API twice.
type Service struct {
	embedder embedding.Provider
	index    vectorindex.Index
	cache    *gocache.Cache
	topK     int
}

func NewService(embedder embedding.Provider, index vectorindex.Index, topK int) *Service {
	if topK <= 0 {
		topK = 3
	}
	return &Service{
		embedder: embedder,
		index:    index,
		cache:    gocache.New(queryEmbeddingTTL, cacheSweepEvery),
		topK:     topK,
	}
}

// Retrieve returns the top matching chunks for the question within the
// document's namespace. An empty namespace yields an empty slice, not an
// error; index failures surface as *vectorindex.IndexError.
func (s *Service) Retrieve(ctx context.Context, namespace, question string) ([]prompt.Chunk, error) {
	vector, err := s.embedQuery(ctx, question)
	if err != nil {
		return nil, err
	}

	matches, err := s.index.Query(ctx, namespace, vector, s.topK)
	if err != nil {
		return nil, err
	}

	chunks := make([]prompt.Chunk, 0, len(matches))
	for _, m := range matches {
		text, _ := m.Metadata["text"].(string)
		chunks = append(chunks, prompt.Chunk{
			ID:    m.ID,
			Text:  text,
			Score: m.Score,
		})
	}

	return chunks, nil
}

func (s *Service) embedQuery(ctx context.Context, question string) ([]float32, error) {
	key := cacheKey(question)
	if cached, found := s.cache.Get(key); found {
		if vector, ok := cached.([]float32); ok {
			return vector, nil
		}
	}

	vectors, err := s.embedder.GenerateBatch(ctx, []string{question}, embedding.InputQuery)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, embedding.ErrEmptyBatch
	}

	s.cache.Set(key, vectors[0], gocache.DefaultExpiration)
	return vectors[0], nil
}

func cacheKey(question string) string {
	sum := sha256.Sum256([]byte(question))
	return hex.EncodeToString(sum[:])
}
