package dto

import (
	"time"

	"github.com/google/uuid"
)

type SendMessageRequest struct {
	Message string `json:"message" validate:"required"`
}

type ContextChunkDTO struct {
	VectorId string  `json:"vector_id"`
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
}

type ChatMessageDTO struct {
	Id            uuid.UUID         `json:"id"`
	Role          string            `json:"role"`
	Content       string            `json:"content"`
	ContextChunks []ContextChunkDTO `json:"context_chunks,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

type ChatSessionResponse struct {
	Id         uuid.UUID `json:"id"`
	DocumentId uuid.UUID `json:"document_id"`
	Title      string    `json:"title"`
	CreatedAt  time.Time `json:"created_at"`
}

type SendMessageResponse struct {
	SessionId uuid.UUID      `json:"session_id"`
	Message   ChatMessageDTO `json:"message"`
	Degraded  bool           `json:"degraded"`
}

type ChatHistoryResponse struct {
	SessionId  uuid.UUID        `json:"session_id"`
	DocumentId uuid.UUID        `json:"document_id"`
	Messages   []ChatMessageDTO `json:"messages"`
}
