package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryItem is a stock record scoped to a project. AvailableQty is the
// portion of Quantity not held by an active withdrawal; it is only ever
// mutated inside a workflow transaction.
type InventoryItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProjectID    uuid.UUID       `gorm:"column:project_id;type:uuid;not null;index"`
	CategoryID   uuid.UUID       `gorm:"column:category_id;type:uuid;not null;index"`
	RefCode      string          `gorm:"column:ref_code;uniqueIndex;not null"`
	Name         string          `gorm:"column:name;not null"`
	Unit         string          `gorm:"column:unit;not null;default:'pcs'"`
	Quantity     int             `gorm:"column:quantity;not null;default:0"`
	AvailableQty int             `gorm:"column:available_qty;not null;default:0"`
	UnitCost     decimal.Decimal `gorm:"column:unit_cost;type:numeric(12,2);not null;default:0"`
	Category     *Category       `gorm:"foreignKey:CategoryID"`
	Project      *Project        `gorm:"foreignKey:ProjectID"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
