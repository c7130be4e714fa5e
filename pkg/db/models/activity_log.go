package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/vrcamacho/sitestock-backend/pkg/enums"
)

// ActivityLog records an immutable audit entry for a workflow transition.
// Rows are written inside the same transaction as the state change.
type ActivityLog struct {
	ID         uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	ActorID    uuid.UUID            `gorm:"column:actor_id;type:uuid;not null;index"`
	Action     enums.ActivityAction `gorm:"column:action;not null;index"`
	EntityType string               `gorm:"column:entity_type;not null"`
	EntityID   uuid.UUID            `gorm:"column:entity_id;type:uuid;not null;index"`
	Details    json.RawMessage      `gorm:"column:details;type:jsonb"`
	CreatedAt  time.Time            `gorm:"column:created_at;autoCreateTime"`
}
