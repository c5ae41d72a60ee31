package unitofwork

import (
	"context"

	"doc-chat-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	DocumentRepository() contract.DocumentRepository
	DocumentChunkRepository() contract.DocumentChunkRepository
	ChatSessionRepository() contract.ChatSessionRepository
	ChatMessageRepository() contract.ChatMessageRepository
}
