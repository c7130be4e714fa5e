package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vrcamacho/sitestock-backend/pkg/enums"
)

// Withdrawal is a request to remove a quantity of a consumable item from
// stock. Status only moves along the enums.WithdrawalStatus machine and the
// record is never hard-deleted by the engine.
type Withdrawal struct {
	ID               uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	ItemID           uuid.UUID              `gorm:"column:item_id;type:uuid;not null;index"`
	ProjectID        uuid.UUID              `gorm:"column:project_id;type:uuid;not null;index"`
	Quantity         int                    `gorm:"column:quantity;not null"`
	Purpose          string                 `gorm:"column:purpose;not null"`
	ReceiverName     string                 `gorm:"column:receiver_name;not null"`
	WithdrawnBy      uuid.UUID              `gorm:"column:withdrawn_by;type:uuid;not null;index"`
	Status           enums.WithdrawalStatus `gorm:"column:status;not null;default:'pending_verification';index"`
	VerifiedBy       *uuid.UUID             `gorm:"column:verified_by;type:uuid"`
	VerificationDate *time.Time             `gorm:"column:verification_date"`
	ApprovedBy       *uuid.UUID             `gorm:"column:approved_by;type:uuid"`
	ApprovalDate     *time.Time             `gorm:"column:approval_date"`
	ExpectedReturn   *time.Time             `gorm:"column:expected_return"`
	ActualReturn     *time.Time             `gorm:"column:actual_return"`
	Notes            *string                `gorm:"column:notes"`
	Item             *InventoryItem         `gorm:"foreignKey:ItemID"`
	Release          *Release               `gorm:"foreignKey:WithdrawalID"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
