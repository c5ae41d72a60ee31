package model

import (
	"time"

	"github.com/google/uuid"
)

type DocumentChunk struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentId  uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_document_chunk"`
	ChunkIndex  int       `gorm:"not null;uniqueIndex:idx_document_chunk"`
	TextContent string    `gorm:"type:text;not null"`
	VectorId    string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (DocumentChunk) TableName() string {
	return "document_chunks"
}
