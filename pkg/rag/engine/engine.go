package engine

import (
	"context"

	"doc-chat-be/internal/pkg/logger"
	"doc-chat-be/pkg/llm"
	"doc-chat-be/pkg/rag/prompt"
	"doc-chat-be/pkg/rag/response"
	"doc-chat-be/pkg/rag/retrieval"
)

// Answer is the outcome of one question. Degraded marks answers that fell
// back to an apology because generation failed after retrieval succeeded.
type Answer struct {
	Text     string
	Chunks   []prompt.Chunk
	Degraded bool
}

// Engine ties retrieval and generation together for a single document
// conversation.
type Engine struct {
	retriever *retrieval.Service
	llm       llm.Provider
	builder   *prompt.Builder
	logger    logger.ILogger
}

func NewEngine(retriever *retrieval.Service, provider llm.Provider, log logger.ILogger) *Engine {
	return &Engine{
		retriever: retriever,
		llm:       provider,
		builder:   prompt.NewBuilder(),
		logger:    log,
	}
}

// Ask answers a question against the document's namespace. Retrieval and
// generation failures both degrade in-band so the conversation survives a
// flaky vector or model backend; the Degraded flag is the signal for callers.
func (e *Engine) Ask(ctx context.Context, namespace, question string, history []llm.Message) (*Answer, error) {
	chunks, err := e.retriever.Retrieve(ctx, namespace, question)
	if err != nil {
		e.logger.Error("ENGINE", "context retrieval failed", map[string]interface{}{
			"namespace": namespace,
			"error":     err.Error(),
		})
		return &Answer{Text: response.NotFoundMessage, Degraded: true}, nil
	}

	if len(chunks) == 0 {
		e.logger.Info("ENGINE", "no relevant chunks retrieved", map[string]interface{}{
			"namespace": namespace,
		})
		return &Answer{Text: response.NotFoundMessage}, nil
	}

	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: question})

	text, err := e.llm.Chat(ctx, messages,
		llm.WithPreamble(e.builder.Preamble(chunks)),
		llm.WithTemperature(0.3),
	)
	if err != nil {
		e.logger.Error("ENGINE", "answer generation failed", map[string]interface{}{
			"namespace": namespace,
			"error":     err.Error(),
		})
		return &Answer{
			Text:     response.GenerationFailure(err),
			Chunks:   chunks,
			Degraded: true,
		}, nil
	}

	return &Answer{Text: text, Chunks: chunks}, nil
}
