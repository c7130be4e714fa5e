package models

import (
	"time"

	"github.com/google/uuid"
)

// Category classifies inventory items. IsConsumable decides whether an item
// flows through the withdrawal engine or the borrowing subsystem.
type Category struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name         string    `gorm:"column:name;uniqueIndex;not null"`
	IsConsumable bool      `gorm:"column:is_consumable;not null;default:false"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
