package models

import (
	"time"

	"github.com/google/uuid"
)

// Release is the append-only record created exactly once when a withdrawal
// transitions to released.
type Release struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	WithdrawalID uuid.UUID `gorm:"column:withdrawal_id;type:uuid;not null;uniqueIndex"`
	ReleasedBy   uuid.UUID `gorm:"column:released_by;type:uuid;not null"`
	ReleasedAt   time.Time `gorm:"column:released_at;not null"`
	Notes        *string   `gorm:"column:notes"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}
