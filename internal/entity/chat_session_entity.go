package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatSession struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey"`
	DocumentId uuid.UUID `gorm:"type:uuid;index"`
	Title      string
	CreatedAt  time.Time
	UpdatedAt  *time.Time
	DeletedAt  *time.Time
	IsDeleted  bool
}
