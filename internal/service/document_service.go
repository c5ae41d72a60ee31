package service

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"doc-chat-be/internal/constant"
	"doc-chat-be/internal/dto"
	"doc-chat-be/internal/entity"
	"doc-chat-be/internal/pkg/logger"
	"doc-chat-be/internal/repository/specification"
	"doc-chat-be/internal/repository/unitofwork"
	"doc-chat-be/pkg/events"
	"doc-chat-be/pkg/extract"
	"doc-chat-be/pkg/filestore"
	"doc-chat-be/pkg/rag/pipeline"
	"doc-chat-be/pkg/vectorindex"
)

type IDocumentService interface {
	Upload(ctx context.Context, fileName string, data []byte) (*dto.DocumentResponse, error)
	List(ctx context.Context) ([]*dto.DocumentResponse, error)
	Detail(ctx context.Context, id uuid.UUID) (*dto.DocumentDetailResponse, error)
	Delete(ctx context.Context, id uuid.UUID) (*dto.DeleteDocumentResponse, error)
}

type documentService struct {
	uowFactory       unitofwork.RepositoryFactory
	pipeline         *pipeline.Pipeline
	fileStore        filestore.Store
	index            vectorindex.Index
	publisherService IPublisherService
	logger           logger.ILogger
	maxUploadSize    int64
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	pl *pipeline.Pipeline,
	fileStore filestore.Store,
	index vectorindex.Index,
	publisherService IPublisherService,
	log logger.ILogger,
	maxUploadSize int64,
) IDocumentService {
	return &documentService{
		uowFactory:       uowFactory,
		pipeline:         pl,
		fileStore:        fileStore,
		index:            index,
		publisherService: publisherService,
		logger:           log,
		maxUploadSize:    maxUploadSize,
	}
}

func (s *documentService) Upload(ctx context.Context, fileName string, data []byte) (*dto.DocumentResponse, error) {
	fileType, err := s.validateUpload(fileName, data)
	if err != nil {
		return nil, err
	}

	fileUrl, storageId, err := s.fileStore.Upload(ctx, data, fileName)
	if err != nil {
		return nil, fmt.Errorf("file upload: %w", err)
	}

	documentId := uuid.New()
	namespace := documentId.String()

	document := entity.Document{
		Id:        documentId,
		Title:     fileName,
		FileType:  fileType,
		FileUrl:   fileUrl,
		StorageId: storageId,
		FileSize:  int64(len(data)),
		Namespace: namespace,
		CreatedAt: time.Now(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		s.compensateUpload(ctx, storageId, namespace)
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = uow.Rollback()
			s.compensateUpload(ctx, storageId, namespace)
		}
	}()

	if err := uow.DocumentRepository().Create(ctx, &document); err != nil {
		return nil, err
	}

	result, err := s.pipeline.Run(ctx, namespace, data, extract.FileType(fileType))
	if err != nil {
		return nil, err
	}

	chunks := make([]*entity.DocumentChunk, len(result.Chunks))
	for i, text := range result.Chunks {
		chunks[i] = &entity.DocumentChunk{
			Id:          uuid.New(),
			DocumentId:  documentId,
			ChunkIndex:  i,
			TextContent: text,
			VectorId:    fmt.Sprintf("%s_chunk_%d", namespace, i),
			CreatedAt:   time.Now(),
		}
	}
	if err := uow.DocumentChunkRepository().CreateBatch(ctx, chunks); err != nil {
		return nil, err
	}

	now := time.Now()
	document.Processed = true
	document.ProcessedAt = &now
	document.ChunkCount = len(chunks)
	if err := uow.DocumentRepository().Update(ctx, &document); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}
	committed = true

	s.publishEvent(ctx, dto.DocumentEventMessage{
		DocumentId: documentId,
		EventType:  events.DocumentProcessed,
		Title:      document.Title,
		ChunkCount: document.ChunkCount,
	})

	s.logger.Info("DOCUMENT", "document uploaded and indexed", map[string]interface{}{
		"document_id": documentId.String(),
		"file_type":   fileType,
		"chunks":      document.ChunkCount,
	})

	return toDocumentResponse(&document), nil
}

func (s *documentService) validateUpload(fileName string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", constant.ErrEmptyFile
	}
	if s.maxUploadSize > 0 && int64(len(data)) > s.maxUploadSize {
		return "", constant.ErrFileTooLarge
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
	fileType, ok := constant.AllowedUploadExtensions[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", constant.ErrUnsupportedFileType, ext)
	}
	return fileType, nil
}

// compensateUpload undoes the side effects of a failed upload: the stored
// file and any vectors the pipeline wrote before failing.
func (s *documentService) compensateUpload(ctx context.Context, storageId, namespace string) {
	if _, err := s.fileStore.Delete(ctx, storageId); err != nil {
		s.logger.Warn("DOCUMENT", "compensating file delete failed", map[string]interface{}{
			"storage_id": storageId,
			"error":      err.Error(),
		})
	}
	if err := s.index.DeleteNamespace(ctx, namespace); err != nil {
		s.logger.Warn("DOCUMENT", "compensating namespace delete failed", map[string]interface{}{
			"namespace": namespace,
			"error":     err.Error(),
		})
	}
}

func (s *documentService) List(ctx context.Context) ([]*dto.DocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	documents, err := uow.DocumentRepository().FindAll(ctx,
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.DocumentResponse, len(documents))
	for i, d := range documents {
		responses[i] = toDocumentResponse(d)
	}
	return responses, nil
}

func (s *documentService) Detail(ctx context.Context, id uuid.UUID) (*dto.DocumentDetailResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, constant.ErrDocumentNotFound
	}

	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByDocumentID{DocumentID: id},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		session = &entity.ChatSession{
			Id:         uuid.New(),
			DocumentId: id,
			Title:      "Chat about " + document.Title,
			CreatedAt:  time.Now(),
		}
		if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
			return nil, err
		}
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: session.Id},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	return &dto.DocumentDetailResponse{
		Document: *toDocumentResponse(document),
		Session: dto.ChatSessionResponse{
			Id:         session.Id,
			DocumentId: session.DocumentId,
			Title:      session.Title,
			CreatedAt:  session.CreatedAt,
		},
		Messages: toChatMessageDTOs(messages),
	}, nil
}

func (s *documentService) Delete(ctx context.Context, id uuid.UUID) (*dto.DeleteDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, constant.ErrDocumentNotFound
	}

	report := dto.DeleteDocumentResponse{Id: id}

	// Vector namespace and stored file are best effort. The record store
	// delete below is the source of truth.
	if err := s.index.DeleteNamespace(ctx, document.Namespace); err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("vector delete: %v", err))
	} else {
		report.VectorsDeleted = true
	}

	if document.StorageId != "" {
		removed, err := s.fileStore.Delete(ctx, document.StorageId)
		if err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("file delete: %v", err))
		} else {
			report.FileDeleted = removed
		}
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = uow.Rollback()
		}
	}()

	sessions, err := uow.ChatSessionRepository().FindAll(ctx, specification.ByDocumentID{DocumentID: id})
	if err != nil {
		return nil, err
	}
	sessionIds := make([]uuid.UUID, len(sessions))
	for i, sess := range sessions {
		sessionIds[i] = sess.Id
	}

	if err := uow.ChatMessageRepository().DeleteAllBySessionIds(ctx, sessionIds); err != nil {
		return nil, err
	}
	if err := uow.ChatSessionRepository().DeleteAllByDocumentId(ctx, id); err != nil {
		return nil, err
	}
	if err := uow.DocumentChunkRepository().DeleteAllByDocumentId(ctx, id); err != nil {
		return nil, err
	}
	if err := uow.DocumentRepository().Delete(ctx, id); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	committed = true
	report.RecordsDeleted = true

	s.publishEvent(ctx, dto.DocumentEventMessage{
		DocumentId: id,
		EventType:  events.DocumentDeleted,
		Title:      document.Title,
	})

	if len(report.Warnings) > 0 {
		s.logger.Warn("DOCUMENT", "document deleted with warnings", map[string]interface{}{
			"document_id": id.String(),
			"warnings":    report.Warnings,
		})
	}

	return &report, nil
}

// publishEvent is auxiliary; a publish failure never fails the request.
func (s *documentService) publishEvent(ctx context.Context, event dto.DocumentEventMessage) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		s.logger.Warn("DOCUMENT", "event publish failed", map[string]interface{}{
			"event_type": event.EventType,
			"error":      err.Error(),
		})
	}
}

func toDocumentResponse(d *entity.Document) *dto.DocumentResponse {
	return &dto.DocumentResponse{
		Id:          d.Id,
		Title:       d.Title,
		FileType:    d.FileType,
		FileUrl:     d.FileUrl,
		FileSize:    d.FileSize,
		Processed:   d.Processed,
		ProcessedAt: d.ProcessedAt,
		ChunkCount:  d.ChunkCount,
		CreatedAt:   d.CreatedAt,
	}
}

func toChatMessageDTOs(messages []*entity.ChatMessage) []dto.ChatMessageDTO {
	out := make([]dto.ChatMessageDTO, len(messages))
	for i, m := range messages {
		chunks := make([]dto.ContextChunkDTO, len(m.ContextChunks))
		for j, c := range m.ContextChunks {
			chunks[j] = dto.ContextChunkDTO{
				VectorId: c.VectorId,
				Text:     c.Text,
				Score:    c.Score,
			}
		}
		out[i] = dto.ChatMessageDTO{
			Id:            m.Id,
			Role:          m.Role,
			Content:       m.Content,
			ContextChunks: chunks,
			CreatedAt:     m.CreatedAt,
		}
	}
	return out
}
