package models

import (
	"time"

	"github.com/google/uuid"
)

type Service struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Seq             int64     `gorm:"autoIncrement;uniqueIndex" json:"-"`
	Name            string    `gorm:"not null" json:"name"`
	Description     string    `json:"description,omitempty"`
	PriceCents      int64     `gorm:"not null" json:"priceCents"`
	DurationMinutes int       `gorm:"not null" json:"durationMinutes"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
