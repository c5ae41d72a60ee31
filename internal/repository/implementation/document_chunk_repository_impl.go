package implementation

import (
	"context"

	"doc-chat-be/internal/entity"
	"doc-chat-be/internal/mapper"
	"doc-chat-be/internal/model"
	"doc-chat-be/internal/repository/contract"
	"doc-chat-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentChunkMapper
}

func NewDocumentChunkRepository(db *gorm.DB) contract.DocumentChunkRepository {
	return &DocumentChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentChunkMapper(),
	}
}

func (r *DocumentChunkRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *DocumentChunkRepositoryImpl) CreateBatch(ctx context.Context, chunks []*entity.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	models := r.mapper.ToModels(chunks)
	if err := r.db.WithContext(ctx).CreateInBatches(models, 500).Error; err != nil {
		return err
	}
	for i, m := range models {
		*chunks[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *DocumentChunkRepositoryImpl) DeleteAllByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("document_id = ?", documentId).Delete(&model.DocumentChunk{}).Error
}

func (r *DocumentChunkRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error) {
	var models []*model.DocumentChunk
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *DocumentChunkRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.DocumentChunk{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
