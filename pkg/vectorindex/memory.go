package vectorindex

import (
	"context"
	"math"
	"sort"
	"sync"
)

type memoryEntry struct {
	id       string
	vector   []float32
	metadata map[string]interface{}
	position int64
}

// MemoryIndex is a brute-force cosine similarity store. It backs tests and
// local development where Postgres is unavailable.
type MemoryIndex struct {
	mu         sync.RWMutex
	namespaces map[string][]memoryEntry
	nextPos    int64
}

var _ Index = &MemoryIndex{}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		namespaces: make(map[string][]memoryEntry),
	}
}

func (x *MemoryIndex) Upsert(ctx context.Context, namespace string, entries []Entry) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	stored := x.namespaces[namespace]
	for _, e := range entries {
		replaced := false
		for i := range stored {
			if stored[i].id == e.ID {
				// Idempotent by id: replace vector and metadata, keep
				// the original insertion position.
				stored[i].vector = e.Vector
				stored[i].metadata = e.Metadata
				replaced = true
				break
			}
		}
		if !replaced {
			x.nextPos++
			stored = append(stored, memoryEntry{
				id:       e.ID,
				vector:   e.Vector,
				metadata: e.Metadata,
				position: x.nextPos,
			})
		}
	}
	x.namespaces[namespace] = stored

	return nil
}

func (x *MemoryIndex) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Match, error) {
	if topK <= 0 {
		topK = 5
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	stored := x.namespaces[namespace]
	type scored struct {
		match    Match
		position int64
	}
	results := make([]scored, 0, len(stored))
	for _, e := range stored {
		results = append(results, scored{
			match:    Match{ID: e.id, Score: cosineSimilarity(e.vector, vector), Metadata: e.metadata},
			position: e.position,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].match.Score != results[j].match.Score {
			return results[i].match.Score > results[j].match.Score
		}
		return results[i].position < results[j].position
	})

	if topK > len(results) {
		topK = len(results)
	}
	matches := make([]Match, 0, topK)
	for i := 0; i < topK; i++ {
		matches = append(matches, results[i].match)
	}

	return matches, nil
}

func (x *MemoryIndex) DeleteNamespace(ctx context.Context, namespace string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.namespaces, namespace)
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, magA, magB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
