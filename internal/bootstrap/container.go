package bootstrap

import (
	"log"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"

	"doc-chat-be/internal/config"
	"doc-chat-be/internal/controller"
	"doc-chat-be/internal/pkg/logger"
	"doc-chat-be/internal/repository/unitofwork"
	"doc-chat-be/internal/service"
	"doc-chat-be/pkg/chunker"
	"doc-chat-be/pkg/embedding"
	"doc-chat-be/pkg/extract"
	"doc-chat-be/pkg/filestore"
	"doc-chat-be/pkg/llm/factory"
	"doc-chat-be/pkg/rag/engine"
	"doc-chat-be/pkg/rag/pipeline"
	"doc-chat-be/pkg/rag/retrieval"
	"doc-chat-be/pkg/vectorindex"
)

type Container struct {
	// Controllers
	DocumentController controller.IDocumentController
	ChatController     controller.IChatController

	// Background services (exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI providers
	var embeddingProvider embedding.Provider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewCohereProvider(cfg.Keys.Cohere, cfg.Ai.EmbeddingModel)
		log.Printf("[INFO] Using Embedding Provider: COHERE (%s)", cfg.Ai.EmbeddingModel)
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.Cohere,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Indexing and retrieval
	index := vectorindex.NewPgvectorIndex(db)

	ch, err := chunker.New(cfg.Ai.ChunkSize, cfg.Ai.ChunkOverlap)
	if err != nil {
		log.Fatalf("[FATAL] Invalid chunker configuration: %v", err)
	}

	ingestPipeline := pipeline.NewPipeline(extract.NewExtractor(), ch, embeddingProvider, index, sysLogger)
	retriever := retrieval.NewService(embeddingProvider, index, cfg.Ai.RetrievalTopK)
	answerEngine := engine.NewEngine(retriever, llmProvider, sysLogger)

	fileStore := filestore.NewCloudinaryStore(
		cfg.Storage.CloudName,
		cfg.Keys.CloudinaryAPIKey,
		cfg.Keys.CloudinaryAPISecret,
		cfg.Storage.Folder,
	)

	// 5. Services
	publisherService := service.NewPublisherService(pubSub, cfg.App.DocumentEventTopic)
	consumerService := service.NewConsumerService(pubSub, cfg.App.DocumentEventTopic, sysLogger)

	documentService := service.NewDocumentService(
		uowFactory,
		ingestPipeline,
		fileStore,
		index,
		publisherService,
		sysLogger,
		int64(cfg.Storage.MaxUploadSize),
	)
	chatService := service.NewChatService(uowFactory, answerEngine, sysLogger)

	// 6. Controllers
	return &Container{
		DocumentController: controller.NewDocumentController(documentService),
		ChatController:     controller.NewChatController(chatService),
		ConsumerService:    consumerService,
		Logger:             sysLogger,
	}
}
