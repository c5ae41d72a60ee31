package contract

import (
	"context"

	"doc-chat-be/internal/entity"
	"doc-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type DocumentChunkRepository interface {
	CreateBatch(ctx context.Context, chunks []*entity.DocumentChunk) error
	DeleteAllByDocumentId(ctx context.Context, documentId uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
