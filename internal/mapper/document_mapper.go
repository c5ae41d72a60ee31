package mapper

import (
	"time"

	"doc-chat-be/internal/entity"
	"doc-chat-be/internal/model"

	"gorm.io/gorm"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) ToEntity(d *model.Document) *entity.Document {
	if d == nil {
		return nil
	}

	var deletedAt *time.Time
	if d.DeletedAt.Valid {
		t := d.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !d.UpdatedAt.IsZero() {
		t := d.UpdatedAt
		updatedAt = &t
	}

	return &entity.Document{
		Id:          d.Id,
		Title:       d.Title,
		FileType:    d.FileType,
		FileUrl:     d.FileUrl,
		StorageId:   d.StorageId,
		FileSize:    d.FileSize,
		Processed:   d.Processed,
		ProcessedAt: d.ProcessedAt,
		ChunkCount:  d.ChunkCount,
		Namespace:   d.Namespace,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   updatedAt,
		DeletedAt:   deletedAt,
		IsDeleted:   d.DeletedAt.Valid,
	}
}

func (m *DocumentMapper) ToModel(d *entity.Document) *model.Document {
	if d == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if d.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *d.DeletedAt, Valid: true}
	} else if d.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if d.UpdatedAt != nil {
		updatedAt = *d.UpdatedAt
	}

	return &model.Document{
		Id:          d.Id,
		Title:       d.Title,
		FileType:    d.FileType,
		FileUrl:     d.FileUrl,
		StorageId:   d.StorageId,
		FileSize:    d.FileSize,
		Processed:   d.Processed,
		ProcessedAt: d.ProcessedAt,
		ChunkCount:  d.ChunkCount,
		Namespace:   d.Namespace,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   updatedAt,
		DeletedAt:   deletedAt,
	}
}

func (m *DocumentMapper) ToEntities(documents []*model.Document) []*entity.Document {
	entities := make([]*entity.Document, len(documents))
	for i, d := range documents {
		entities[i] = m.ToEntity(d)
	}
	return entities
}

func (m *DocumentMapper) ToModels(documents []*entity.Document) []*model.Document {
	models := make([]*model.Document, len(documents))
	for i, d := range documents {
		models[i] = m.ToModel(d)
	}
	return models
}
