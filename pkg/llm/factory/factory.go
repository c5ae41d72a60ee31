package factory

import (
	"fmt"

	"doc-chat-be/pkg/llm"
	"doc-chat-be/pkg/llm/cohere"
	"doc-chat-be/pkg/llm/ollama"
)

func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.Provider, error) {
	switch providerType {
	case "cohere":
		if apiKey == "" {
			return nil, fmt.Errorf("cohere provider requires an api key")
		}
		return cohere.NewCohereProvider(apiKey, baseURL, modelName), nil
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
