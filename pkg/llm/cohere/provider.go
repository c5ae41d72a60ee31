package cohere

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"doc-chat-be/pkg/llm"
)

const defaultBaseURL = "https://api.cohere.com/v1"

type CohereProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// Ensure CohereProvider implements Provider
var _ llm.Provider = &CohereProvider{}

func NewCohereProvider(apiKey, baseURL, model string) *CohereProvider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &CohereProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// --- Request/Response structs (Internal to this package) ---

type cohereChatRequest struct {
	Model       string             `json:"model"`
	Message     string             `json:"message"`
	ChatHistory []cohereChatTurn   `json:"chat_history,omitempty"`
	Preamble    string             `json:"preamble,omitempty"`
	Temperature *float64           `json:"temperature,omitempty"`
	MaxTokens   int                `json:"max_tokens,omitempty"`
}

type cohereChatTurn struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

type cohereChatResponse struct {
	Text string `json:"text"`
}

// mapRole translates generic roles into Cohere's USER/CHATBOT scheme. An
// unrecognized role fails the call instead of being guessed at.
func mapRole(role string) (string, error) {
	switch role {
	case llm.RoleUser:
		return "USER", nil
	case llm.RoleAssistant:
		return "CHATBOT", nil
	default:
		return "", &llm.UnknownRoleError{Role: role}
	}
}

func (p *CohereProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	opts := &llm.Options{
		Temperature: 0.3,
		Model:       p.model,
	}
	for _, o := range options {
		o(opts)
	}

	if len(history) == 0 {
		return "", fmt.Errorf("cohere: empty chat history")
	}

	// Cohere takes the latest user message separately from the prior turns.
	latest := history[len(history)-1]
	if latest.Role != llm.RoleUser {
		return "", fmt.Errorf("cohere: last history message must be a user message, got %q", latest.Role)
	}

	turns := make([]cohereChatTurn, 0, len(history)-1)
	for _, msg := range history[:len(history)-1] {
		if msg.Role == llm.RoleSystem {
			// System messages travel in the preamble field instead.
			if opts.Preamble == "" {
				opts.Preamble = msg.Content
			}
			continue
		}
		role, err := mapRole(msg.Role)
		if err != nil {
			return "", err
		}
		turns = append(turns, cohereChatTurn{Role: role, Message: msg.Content})
	}

	reqPayload := cohereChatRequest{
		Model:       opts.Model,
		Message:     latest.Content,
		ChatHistory: turns,
		Preamble:    opts.Preamble,
		Temperature: &opts.Temperature,
	}
	if opts.MaxTokens > 0 {
		reqPayload.MaxTokens = opts.MaxTokens
	}

	payloadBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := p.baseURL + "/chat"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("cohere request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cohere api error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var chatResp cohereChatResponse
	if err := json.Unmarshal(bodyBytes, &chatResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if chatResp.Text == "" {
		return "", fmt.Errorf("cohere: empty text in response")
	}

	return chatResp.Text, nil
}

func (p *CohereProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}
