package llm

import (
	"context"
	"fmt"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// UnknownRoleError is returned when a history message carries a role the
// backend cannot map. Providers fail the whole call rather than silently
// dropping or mislabeling the message.
type UnknownRoleError struct {
	Role string
}

func (e *UnknownRoleError) Error() string {
	return fmt.Sprintf("llm: unknown message role %q", e.Role)
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
	Preamble    string // System-level instruction prepended to the conversation
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(max int) Option {
	return func(o *Options) {
		o.MaxTokens = max
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithPreamble(preamble string) Option {
	return func(o *Options) {
		o.Preamble = preamble
	}
}

// Provider defines the contract for any LLM backend
type Provider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}
