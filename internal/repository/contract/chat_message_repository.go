package contract

import (
	"context"

	"doc-chat-be/internal/entity"
	"doc-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatMessageRepository interface {
	Create(ctx context.Context, message *entity.ChatMessage) error
	DeleteAllBySessionIds(ctx context.Context, sessionIds []uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
