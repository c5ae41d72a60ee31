package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
	"unicode/utf8"
)

// ollamaMaxPromptChars approximates nomic-embed-text's context window.
// Longer texts are truncated from the end rather than rejected.
const ollamaMaxPromptChars = 8000

// OllamaProvider embeds text with a local Ollama model (e.g. nomic-embed-text).
// Ollama has no asymmetric variants, so the input type is expressed through
// the model's task prefixes.
type OllamaProvider struct {
	BaseURL string
	Model   string
	Client  *http.Client
}

var _ Provider = &OllamaProvider{}

func NewOllamaProvider(baseURL, model string) *OllamaProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	return &OllamaProvider{
		BaseURL: baseURL,
		Model:   model,
		Client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// truncatePrompt cuts at a rune boundary so the backend never receives a
// split multi-byte sequence.
func truncatePrompt(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

func (p *OllamaProvider) GenerateBatch(ctx context.Context, texts []string, inputType InputType) ([][]float32, error) {
	valid := filterBlank(texts)
	if len(valid) == 0 {
		return nil, ErrEmptyBatch
	}

	// nomic task prefixes stand in for Cohere's input_type asymmetry.
	prefix := "search_document: "
	if inputType == InputQuery {
		prefix = "search_query: "
	}

	vectors := make([][]float32, 0, len(valid))
	for _, text := range valid {
		text = truncatePrompt(text, ollamaMaxPromptChars)
		vec, err := p.embedOne(ctx, prefix+text)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, vec)
	}

	return vectors, nil
}

func (p *OllamaProvider) embedOne(ctx context.Context, prompt string) ([]float32, error) {
	reqBody := ollamaEmbeddingRequest{
		Model:  p.Model,
		Prompt: prompt,
	}
	reqJson, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/api/embeddings", p.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(reqJson))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := p.Client.Do(req)
	if err != nil {
		return nil, &ServiceError{Provider: "ollama", Kind: KindTransient, Err: err}
	}
	defer res.Body.Close()

	resBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &ServiceError{Provider: "ollama", Kind: KindTransient, Err: err}
	}

	if res.StatusCode != http.StatusOK {
		return nil, &ServiceError{
			Provider: "ollama",
			Kind:     classifyStatus(res.StatusCode),
			Err:      fmt.Errorf("status %d: %s", res.StatusCode, string(resBytes)),
		}
	}

	var embedRes ollamaEmbeddingResponse
	if err := json.Unmarshal(resBytes, &embedRes); err != nil {
		return nil, &ServiceError{Provider: "ollama", Kind: KindTransient, Err: err}
	}

	// Normalize so cosine distance behaves the same as with Cohere vectors.
	return normalizeVector(toFloat32(embedRes.Embedding)), nil
}

func toFloat32(values []float64) []float32 {
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out
}

func normalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)
	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
