package vectorindex

import (
	"context"
	"fmt"
)

// Op identifies which index operation failed.
type Op string

const (
	OpWrite           Op = "write"
	OpQuery           Op = "query"
	OpDeleteNamespace Op = "namespace-delete"
)

// IndexError wraps a vector store failure. For writes, BatchesWritten
// reports how many upsert batches landed before the failure.
type IndexError struct {
	Op             Op
	Namespace      string
	BatchesWritten int
	Err            error
}

func (e *IndexError) Error() string {
	if e.Op == OpWrite {
		return fmt.Sprintf("vector index %s in namespace %q failed after %d batches: %v",
			e.Op, e.Namespace, e.BatchesWritten, e.Err)
	}
	return fmt.Sprintf("vector index %s in namespace %q failed: %v", e.Op, e.Namespace, e.Err)
}

func (e *IndexError) Unwrap() error {
	return e.Err
}

// Entry is a vector with its stable id and caller-supplied metadata.
type Entry struct {
	ID       string
	Vector   []float32
	Metadata map[string]interface{}
}

// Match is a query result, ranked by descending cosine similarity.
type Match struct {
	ID       string
	Score    float64
	Metadata map[string]interface{}
}

// Index is a namespaced similarity store. Vectors in different namespaces
// never influence each other's query results; the namespace is the
// document-level isolation boundary.
type Index interface {
	// Upsert writes entries into the namespace, idempotent by entry id.
	Upsert(ctx context.Context, namespace string, entries []Entry) error

	// Query returns the topK closest entries by cosine similarity, ties
	// broken by insertion order. An empty namespace yields an empty
	// result, not an error.
	Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Match, error)

	// DeleteNamespace removes every vector under the namespace.
	// Deleting an empty namespace is not an error.
	DeleteNamespace(ctx context.Context, namespace string) error
}
