package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"doc-chat-be/internal/constant"
	"doc-chat-be/internal/entity"
	"doc-chat-be/internal/repository/specification"
	"doc-chat-be/internal/repository/unitofwork"
	"doc-chat-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.DocumentRepository())
	assert.NotNil(t, uow.ChatSessionRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	// Verify Data Access (implies columns exist)
	t.Run("Check Document Repository", func(t *testing.T) {
		count, err := uow.DocumentRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Document count: %d", count)
	})

	t.Run("Check Document Chunk Repository", func(t *testing.T) {
		// Count implies table check
		count, err := uow.DocumentChunkRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("DocumentChunk count: %d", count)
	})

	t.Run("Check Transactional Document Chat", func(t *testing.T) {
		documentId := uuid.New()
		document := &entity.Document{
			Id:        documentId,
			Title:     "integration-" + uuid.New().String() + ".txt",
			FileType:  "txt",
			FileUrl:   "https://files.example.com/integration.txt",
			StorageId: "raw:" + uuid.New().String(),
			FileSize:  64,
			Namespace: documentId.String(),
			CreatedAt: time.Now(),
		}

		// Transaction Test
		ctx := context.Background()
		err := uow.Begin(ctx)
		assert.NoError(t, err)
		defer uow.Rollback()

		err = uow.DocumentRepository().Create(ctx, document)
		assert.NoError(t, err)

		chunks := []*entity.DocumentChunk{
			{
				Id:          uuid.New(),
				DocumentId:  documentId,
				ChunkIndex:  0,
				TextContent: "first excerpt",
				VectorId:    document.Namespace + "_chunk_0",
				CreatedAt:   time.Now(),
			},
			{
				Id:          uuid.New(),
				DocumentId:  documentId,
				ChunkIndex:  1,
				TextContent: "second excerpt",
				VectorId:    document.Namespace + "_chunk_1",
				CreatedAt:   time.Now(),
			},
		}
		err = uow.DocumentChunkRepository().CreateBatch(ctx, chunks)
		assert.NoError(t, err)

		sessionId := uuid.New()
		session := &entity.ChatSession{
			Id:         sessionId,
			DocumentId: documentId,
			Title:      "Chat about " + document.Title,
			CreatedAt:  time.Now(),
		}
		err = uow.ChatSessionRepository().Create(ctx, session)
		assert.NoError(t, err)

		message := &entity.ChatMessage{
			Id:            uuid.New(),
			ChatSessionId: sessionId,
			Role:          constant.ChatMessageRoleAssistant,
			Content:       "grounded answer",
			ContextChunks: []entity.ContextChunk{
				{VectorId: chunks[0].VectorId, Text: chunks[0].TextContent, Score: 0.91},
			},
			CreatedAt: time.Now(),
		}
		err = uow.ChatMessageRepository().Create(ctx, message)
		assert.NoError(t, err)

		err = uow.Commit()
		assert.NoError(t, err)

		// Round-trip check, jsonb context chunks included
		found, err := uow.ChatMessageRepository().FindAll(ctx,
			specification.ByChatSessionID{ChatSessionID: sessionId},
		)
		assert.NoError(t, err)
		if assert.Len(t, found, 1) {
			assert.Equal(t, message.Content, found[0].Content)
			if assert.Len(t, found[0].ContextChunks, 1) {
				assert.Equal(t, chunks[0].VectorId, found[0].ContextChunks[0].VectorId)
			}
		}

		t.Log("Successfully created Document, Session and Message in Transaction")
	})
}
