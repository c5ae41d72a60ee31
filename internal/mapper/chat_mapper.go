package mapper

import (
	"encoding/json"
	"time"

	"doc-chat-be/internal/entity"
	"doc-chat-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ChatSessionMapper struct{}

func NewChatSessionMapper() *ChatSessionMapper {
	return &ChatSessionMapper{}
}

func (m *ChatSessionMapper) ToEntity(s *model.ChatSession) *entity.ChatSession {
	if s == nil {
		return nil
	}

	var deletedAt *time.Time
	if s.DeletedAt.Valid {
		t := s.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.ChatSession{
		Id:         s.Id,
		DocumentId: s.DocumentId,
		Title:      s.Title,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  updatedAt,
		DeletedAt:  deletedAt,
		IsDeleted:  s.DeletedAt.Valid,
	}
}

func (m *ChatSessionMapper) ToModel(s *entity.ChatSession) *model.ChatSession {
	if s == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if s.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *s.DeletedAt, Valid: true}
	} else if s.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.ChatSession{
		Id:         s.Id,
		DocumentId: s.DocumentId,
		Title:      s.Title,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  updatedAt,
		DeletedAt:  deletedAt,
	}
}

func (m *ChatSessionMapper) ToEntities(sessions []*model.ChatSession) []*entity.ChatSession {
	entities := make([]*entity.ChatSession, len(sessions))
	for i, s := range sessions {
		entities[i] = m.ToEntity(s)
	}
	return entities
}

type ChatMessageMapper struct{}

func NewChatMessageMapper() *ChatMessageMapper {
	return &ChatMessageMapper{}
}

func (m *ChatMessageMapper) ToEntity(msg *model.ChatMessage) *entity.ChatMessage {
	if msg == nil {
		return nil
	}

	var chunks []entity.ContextChunk
	if len(msg.ContextChunks) > 0 {
		// A malformed payload degrades to no context rather than failing
		// the whole history read.
		_ = json.Unmarshal(msg.ContextChunks, &chunks)
	}

	return &entity.ChatMessage{
		Id:            msg.Id,
		ChatSessionId: msg.ChatSessionId,
		Role:          msg.Role,
		Content:       msg.Content,
		ContextChunks: chunks,
		CreatedAt:     msg.CreatedAt,
	}
}

func (m *ChatMessageMapper) ToModel(msg *entity.ChatMessage) *model.ChatMessage {
	if msg == nil {
		return nil
	}

	var chunks datatypes.JSON
	if len(msg.ContextChunks) > 0 {
		if raw, err := json.Marshal(msg.ContextChunks); err == nil {
			chunks = raw
		}
	}

	return &model.ChatMessage{
		Id:            msg.Id,
		ChatSessionId: msg.ChatSessionId,
		Role:          msg.Role,
		Content:       msg.Content,
		ContextChunks: chunks,
		CreatedAt:     msg.CreatedAt,
	}
}

func (m *ChatMessageMapper) ToEntities(messages []*model.ChatMessage) []*entity.ChatMessage {
	entities := make([]*entity.ChatMessage, len(messages))
	for i, msg := range messages {
		entities[i] = m.ToEntity(msg)
	}
	return entities
}
