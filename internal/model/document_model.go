package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Document struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title       string    `gorm:"type:varchar(255);not null"`
	FileType    string    `gorm:"type:varchar(16);not null"`
	FileUrl     string    `gorm:"type:text"`
	StorageId   string    `gorm:"type:varchar(255)"`
	FileSize    int64     `gorm:"not null"`
	Processed   bool      `gorm:"not null;default:false"`
	ProcessedAt *time.Time
	ChunkCount  int            `gorm:"not null;default:0"`
	Namespace   string         `gorm:"type:varchar(64);uniqueIndex;not null"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (Document) TableName() string {
	return "documents"
}
