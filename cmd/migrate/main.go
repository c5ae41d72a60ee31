package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"doc-chat-be/internal/model"
	"doc-chat-be/pkg/database"
	"doc-chat-be/pkg/vectorindex"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM Migration...")

	// 3. Extensions GORM AutoMigrate does not handle
	log.Println("Step 1: Setting up Extensions...")

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate All Models
	log.Println("Step 2: Running AutoMigrate...")

	models := []interface{}{
		&model.Document{},
		&model.DocumentChunk{},
		&model.ChatSession{},
		&model.ChatMessage{},
		&vectorindex.VectorRecord{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. ANN index for cosine queries
	log.Println("Step 3: Creating vector index...")
	indexSQL := `CREATE INDEX IF NOT EXISTS idx_vector_records_embedding
		ON vector_records USING hnsw (embedding vector_cosine_ops);`
	if err := db.Exec(indexSQL).Error; err != nil {
		log.Printf("Warn: Failed to create vector index: %v. Continuing...", err)
	}

	log.Println("Migration completed successfully")
}
