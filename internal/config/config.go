package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Keys     APIKeys
	Ai       AIConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	DocumentEventTopic string
}

type DatabaseConfig struct {
	Connection string
}

type StorageConfig struct {
	CloudName     string
	Folder        string
	MaxUploadSize int // bytes
}

type APIKeys struct {
	Cohere              string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
}

type AIConfig struct {
	EmbeddingProvider string // "cohere" or "ollama"
	EmbeddingModel    string
	OllamaBaseURL     string
	OllamaModel       string
	LLMProvider       string // "cohere" or "ollama"
	LLMModel          string
	ChunkSize         int // words per chunk
	ChunkOverlap      int // words shared between consecutive chunks
	RetrievalTopK     int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			DocumentEventTopic: getEnv("DOCUMENT_EVENT_TOPIC_NAME", "DOCUMENT_EVENTS"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Storage: StorageConfig{
			CloudName:     getEnv("CLOUDINARY_CLOUD_NAME", ""),
			Folder:        getEnv("CLOUDINARY_FOLDER", "documents"),
			MaxUploadSize: getEnvAsInt("MAX_UPLOAD_SIZE", 10*1024*1024),
		},
		Keys: APIKeys{
			Cohere:              getEnv("COHERE_API_KEY", ""),
			CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
			CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "cohere"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", "embed-english-v3.0"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "cohere"),
			LLMModel:          getEnv("LLM_MODEL", "command-r-plus-08-2024"),
			ChunkSize:         getEnvAsInt("CHUNK_SIZE", 500),
			ChunkOverlap:      getEnvAsInt("CHUNK_OVERLAP", 50),
			RetrievalTopK:     getEnvAsInt("RETRIEVAL_TOP_K", 3),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
