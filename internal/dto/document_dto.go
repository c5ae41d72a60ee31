package dto

import (
	"time"

	"github.com/google/uuid"
)

type DocumentResponse struct {
	Id          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	FileType    string     `json:"file_type"`
	FileUrl     string     `json:"file_url"`
	FileSize    int64      `json:"file_size"`
	Processed   bool       `json:"processed"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	ChunkCount  int        `json:"chunk_count"`
	CreatedAt   time.Time  `json:"created_at"`
}

type DocumentDetailResponse struct {
	Document DocumentResponse    `json:"document"`
	Session  ChatSessionResponse `json:"session"`
	Messages []ChatMessageDTO    `json:"messages"`
}

// DeleteDocumentResponse reports the three-way cleanup. The record store is
// the source of truth; vector and file removal are best effort.
type DeleteDocumentResponse struct {
	Id             uuid.UUID `json:"id"`
	RecordsDeleted bool      `json:"records_deleted"`
	VectorsDeleted bool      `json:"vectors_deleted"`
	FileDeleted    bool      `json:"file_deleted"`
	Warnings       []string  `json:"warnings,omitempty"`
}

// DocumentEventMessage rides the watermill topic for lifecycle events.
type DocumentEventMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
	EventType  string    `json:"event_type"`
	Title      string    `json:"title"`
	ChunkCount int       `json:"chunk_count,omitempty"`
}
