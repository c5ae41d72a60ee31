package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// InputType selects the asymmetric embedding variant. Documents and queries
// are embedded differently for retrieval quality; callers must not mix them.
type InputType string

const (
	InputDocument InputType = "search_document"
	InputQuery    InputType = "search_query"
)

// ErrEmptyBatch is returned when the blank-filtered input list is empty.
var ErrEmptyBatch = errors.New("no non-blank texts to embed")

// ErrorKind classifies backend failures so callers can decide retry policy.
type ErrorKind string

const (
	KindAuth      ErrorKind = "auth"
	KindRateLimit ErrorKind = "rate_limit"
	KindTransient ErrorKind = "transient"
)

// ServiceError wraps an embedding backend failure with its kind.
type ServiceError struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("embedding backend %s (%s): %v", e.Provider, e.Kind, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Retryable reports whether a retry could plausibly succeed.
func (e *ServiceError) Retryable() bool {
	return e.Kind != KindAuth
}

// Provider generates fixed-length vectors for a batch of texts. Output
// vectors correspond one-to-one, in order, with the non-blank input texts.
// Over-length texts are truncated from the end, not rejected.
type Provider interface {
	GenerateBatch(ctx context.Context, texts []string, inputType InputType) ([][]float32, error)
}

// filterBlank drops empty and all-whitespace texts, preserving order.
func filterBlank(texts []string) []string {
	valid := make([]string, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			valid = append(valid, t)
		}
	}
	return valid
}

// classifyStatus maps an HTTP status to an error kind.
func classifyStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusTooManyRequests:
		return KindRateLimit
	default:
		return KindTransient
	}
}
