package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"doc-chat-be/internal/constant"
	"doc-chat-be/internal/dto"
	"doc-chat-be/internal/entity"
	"doc-chat-be/internal/pkg/logger"
	"doc-chat-be/internal/repository/specification"
	"doc-chat-be/internal/repository/unitofwork"
	"doc-chat-be/pkg/rag/engine"
	"doc-chat-be/pkg/rag/history"
)

type IChatService interface {
	SendMessage(ctx context.Context, sessionId uuid.UUID, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
	History(ctx context.Context, sessionId uuid.UUID) (*dto.ChatHistoryResponse, error)
}

type chatService struct {
	uowFactory unitofwork.RepositoryFactory
	engine     *engine.Engine
	logger     logger.ILogger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	eng *engine.Engine,
	log logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory: uowFactory,
		engine:     eng,
		logger:     log,
	}
}

func (s *chatService) SendMessage(ctx context.Context, sessionId uuid.UUID, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	question := strings.TrimSpace(req.Message)
	if question == "" {
		return nil, constant.ErrEmptyMessage
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, constant.ErrChatSessionNotFound
	}

	document, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: session.DocumentId})
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, constant.ErrDocumentNotFound
	}

	prior, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	turns := make([]history.Turn, len(prior))
	for i, m := range prior {
		turns[i] = history.Turn{Role: m.Role, Content: m.Content}
	}
	window, err := history.Window(turns, history.DefaultLimit)
	if err != nil {
		return nil, err
	}

	userMessage := entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: sessionId,
		Role:          constant.ChatMessageRoleUser,
		Content:       question,
		CreatedAt:     time.Now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, &userMessage); err != nil {
		return nil, err
	}

	answer, err := s.engine.Ask(ctx, document.Namespace, question, window)
	if err != nil {
		return nil, err
	}

	contextChunks := make([]entity.ContextChunk, len(answer.Chunks))
	for i, c := range answer.Chunks {
		contextChunks[i] = entity.ContextChunk{
			VectorId: c.ID,
			Text:     c.Text,
			Score:    c.Score,
		}
	}

	assistantMessage := entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: sessionId,
		Role:          constant.ChatMessageRoleAssistant,
		Content:       answer.Text,
		ContextChunks: contextChunks,
		CreatedAt:     time.Now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, &assistantMessage); err != nil {
		return nil, err
	}

	now := time.Now()
	session.UpdatedAt = &now
	if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
		s.logger.Warn("CHAT", "session timestamp bump failed", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
	}

	if answer.Degraded {
		s.logger.Warn("CHAT", "degraded answer returned", map[string]interface{}{
			"session_id": sessionId.String(),
		})
	}

	chunkDTOs := make([]dto.ContextChunkDTO, len(contextChunks))
	for i, c := range contextChunks {
		chunkDTOs[i] = dto.ContextChunkDTO{VectorId: c.VectorId, Text: c.Text, Score: c.Score}
	}

	return &dto.SendMessageResponse{
		SessionId: sessionId,
		Message: dto.ChatMessageDTO{
			Id:            assistantMessage.Id,
			Role:          assistantMessage.Role,
			Content:       assistantMessage.Content,
			ContextChunks: chunkDTOs,
			CreatedAt:     assistantMessage.CreatedAt,
		},
		Degraded: answer.Degraded,
	}, nil
}

func (s *chatService) History(ctx context.Context, sessionId uuid.UUID) (*dto.ChatHistoryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, constant.ErrChatSessionNotFound
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	return &dto.ChatHistoryResponse{
		SessionId:  session.Id,
		DocumentId: session.DocumentId,
		Messages:   toChatMessageDTOs(messages),
	}, nil
}
