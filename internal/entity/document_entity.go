package entity

import (
	"time"

	"github.com/google/uuid"
)

type Document struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title       string
	FileType    string
	FileUrl     string
	StorageId   string
	FileSize    int64
	Processed   bool
	ProcessedAt *time.Time
	ChunkCount  int
	Namespace   string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
	DeletedAt   *time.Time
	IsDeleted   bool
}
