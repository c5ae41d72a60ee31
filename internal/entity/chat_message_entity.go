package entity

import (
	"time"

	"github.com/google/uuid"
)

// ContextChunk is one retrieved excerpt that grounded an assistant message.
type ContextChunk struct {
	VectorId string  `json:"vector_id"`
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
}

type ChatMessage struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey"`
	ChatSessionId uuid.UUID `gorm:"type:uuid;index"`
	Role          string
	Content       string
	ContextChunks []ContextChunk
	CreatedAt     time.Time
}
