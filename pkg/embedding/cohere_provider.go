package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	cohereEmbedEndpoint = "https://api.cohere.com/v1/embed"

	// Cohere rejects batches above 96 texts, so larger inputs are split.
	cohereMaxBatch = 96
)

// CohereProvider embeds text with Cohere's embed API. embed-english-v3.0
// produces 1024-dimension vectors.
type CohereProvider struct {
	ApiKey string
	Model  string
	Client *http.Client
}

var _ Provider = &CohereProvider{}

func NewCohereProvider(apiKey, model string) *CohereProvider {
	if model == "" {
		model = "embed-english-v3.0"
	}
	return &CohereProvider{
		ApiKey: apiKey,
		Model:  model,
		Client: &http.Client{Timeout: 30 * time.Second},
	}
}

type cohereEmbedRequest struct {
	Model     string   `json:"model"`
	Texts     []string `json:"texts"`
	InputType string   `json:"input_type"`
	Truncate  string   `json:"truncate"`
}

type cohereEmbedResponse struct {
	Id         string      `json:"id"`
	Embeddings [][]float64 `json:"embeddings"`
}

func (p *CohereProvider) GenerateBatch(ctx context.Context, texts []string, inputType InputType) ([][]float32, error) {
	valid := filterBlank(texts)
	if len(valid) == 0 {
		return nil, ErrEmptyBatch
	}

	vectors := make([][]float32, 0, len(valid))
	for start := 0; start < len(valid); start += cohereMaxBatch {
		end := start + cohereMaxBatch
		if end > len(valid) {
			end = len(valid)
		}
		batch, err := p.embed(ctx, valid[start:end], inputType)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}

	return vectors, nil
}

func (p *CohereProvider) embed(ctx context.Context, texts []string, inputType InputType) ([][]float32, error) {
	reqBody := cohereEmbedRequest{
		Model:     p.Model,
		Texts:     texts,
		InputType: string(inputType),
		// Truncate from the end instead of rejecting over-length texts.
		// Lossy, but a truncated chunk still embeds its prefix.
		Truncate: "END",
	}
	reqJson, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cohereEmbedEndpoint, bytes.NewBuffer(reqJson))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.ApiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := p.Client.Do(req)
	if err != nil {
		return nil, &ServiceError{Provider: "cohere", Kind: KindTransient, Err: err}
	}
	defer res.Body.Close()

	resBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &ServiceError{Provider: "cohere", Kind: KindTransient, Err: err}
	}

	if res.StatusCode != http.StatusOK {
		return nil, &ServiceError{
			Provider: "cohere",
			Kind:     classifyStatus(res.StatusCode),
			Err:      fmt.Errorf("status %d: %s", res.StatusCode, string(resBytes)),
		}
	}

	var embedRes cohereEmbedResponse
	if err := json.Unmarshal(resBytes, &embedRes); err != nil {
		return nil, &ServiceError{Provider: "cohere", Kind: KindTransient, Err: err}
	}

	if len(embedRes.Embeddings) != len(texts) {
		return nil, &ServiceError{
			Provider: "cohere",
			Kind:     KindTransient,
			Err:      fmt.Errorf("expected %d embeddings, got %d", len(texts), len(embedRes.Embeddings)),
		}
	}

	vectors := make([][]float32, len(embedRes.Embeddings))
	for i, emb := range embedRes.Embeddings {
		vec := make([]float32, len(emb))
		for j, v := range emb {
			vec[j] = float32(v)
		}
		vectors[i] = vec
	}

	return vectors, nil
}
