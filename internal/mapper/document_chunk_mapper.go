package mapper

import (
	"doc-chat-be/internal/entity"
	"doc-chat-be/internal/model"
)

type DocumentChunkMapper struct{}

func NewDocumentChunkMapper() *DocumentChunkMapper {
	return &DocumentChunkMapper{}
}

func (m *DocumentChunkMapper) ToEntity(c *model.DocumentChunk) *entity.DocumentChunk {
	if c == nil {
		return nil
	}
	return &entity.DocumentChunk{
		Id:          c.Id,
		DocumentId:  c.DocumentId,
		ChunkIndex:  c.ChunkIndex,
		TextContent: c.TextContent,
		VectorId:    c.VectorId,
		CreatedAt:   c.CreatedAt,
	}
}

func (m *DocumentChunkMapper) ToModel(c *entity.DocumentChunk) *model.DocumentChunk {
	if c == nil {
		return nil
	}
	return &model.DocumentChunk{
		Id:          c.Id,
		DocumentId:  c.DocumentId,
		ChunkIndex:  c.ChunkIndex,
		TextContent: c.TextContent,
		VectorId:    c.VectorId,
		CreatedAt:   c.CreatedAt,
	}
}

func (m *DocumentChunkMapper) ToEntities(chunks []*model.DocumentChunk) []*entity.DocumentChunk {
	entities := make([]*entity.DocumentChunk, len(chunks))
	for i, c := range chunks {
		entities[i] = m.ToEntity(c)
	}
	return entities
}

func (m *DocumentChunkMapper) ToModels(chunks []*entity.DocumentChunk) []*model.DocumentChunk {
	models := make([]*model.DocumentChunk, len(chunks))
	for i, c := range chunks {
		models[i] = m.ToModel(c)
	}
	return models
}
