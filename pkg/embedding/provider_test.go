package embedding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterBlank(t *testing.T) {
	got := filterBlank([]string{"a", "", "  ", "b", "\n"})
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorKind
	}{
		{http.StatusUnauthorized, KindAuth},
		{http.StatusForbidden, KindAuth},
		{http.StatusTooManyRequests, KindRateLimit},
		{http.StatusInternalServerError, KindTransient},
		{http.StatusBadGateway, KindTransient},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyStatus(tt.status))
	}
}

func TestServiceErrorRetryable(t *testing.T) {
	assert.False(t, (&ServiceError{Kind: KindAuth}).Retryable())
	assert.True(t, (&ServiceError{Kind: KindRateLimit}).Retryable())
	assert.True(t, (&ServiceError{Kind: KindTransient}).Retryable())
}

func TestCohereEmptyBatch(t *testing.T) {
	p := NewCohereProvider("key", "")

	_, err := p.GenerateBatch(context.Background(), []string{"", "   "}, InputDocument)
	assert.ErrorIs(t, err, ErrEmptyBatch)
}

func TestOllamaErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   ErrorKind
	}{
		{"unauthorized maps to auth", http.StatusUnauthorized, KindAuth},
		{"throttled maps to rate limit", http.StatusTooManyRequests, KindRateLimit},
		{"server error maps to transient", http.StatusServiceUnavailable, KindTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			p := NewOllamaProvider(srv.URL, "nomic-embed-text")
			_, err := p.GenerateBatch(context.Background(), []string{"hello"}, InputDocument)

			var svcErr *ServiceError
			require.ErrorAs(t, err, &svcErr)
			assert.Equal(t, tt.want, svcErr.Kind)
		})
	}
}

func TestTruncatePromptKeepsRuneBoundary(t *testing.T) {
	// "é" is 2 bytes; an odd cap lands mid-rune and must back off.
	text := strings.Repeat("é", 10)
	got := truncatePrompt(text, 7)
	assert.Equal(t, 6, len(got))
	assert.True(t, utf8.ValidString(got))

	assert.Equal(t, "abc", truncatePrompt("abc", 7))
	assert.Equal(t, "abcdefg", truncatePrompt("abcdefgh", 7))
}

func TestOllamaGenerateBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embedding": [3.0, 4.0]}`))
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "nomic-embed-text")
	vectors, err := p.GenerateBatch(context.Background(), []string{"one", "two"}, InputQuery)
	require.NoError(t, err)
	require.Len(t, vectors, 2)

	// 3-4-5 triangle: normalized to (0.6, 0.8)
	assert.InDelta(t, 0.6, vectors[0][0], 1e-6)
	assert.InDelta(t, 0.8, vectors[0][1], 1e-6)
}
