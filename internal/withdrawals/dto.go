package withdrawals

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vrcamacho/sitestock-backend/pkg/db/models"
	"github.com/vrcamacho/sitestock-backend/pkg/enums"
	"github.com/vrcamacho/sitestock-backend/pkg/pagination"
)

// CreateWithdrawalInput carries the fields of a new withdrawal request.
type CreateWithdrawalInput struct {
	ItemID         uuid.UUID  `json:"item_id"`
	ProjectID      uuid.UUID  `json:"project_id"`
	Quantity       int        `json:"quantity"`
	Purpose        string     `json:"purpose"`
	ReceiverName   string     `json:"receiver_name"`
	WithdrawnBy    uuid.UUID  `json:"withdrawn_by"`
	ExpectedReturn *time.Time `json:"expected_return,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
}

// Filters narrows withdrawal listings.
type Filters struct {
	Status      *enums.WithdrawalStatus
	ProjectID   *uuid.UUID
	ItemID      *uuid.UUID
	WithdrawnBy *uuid.UUID
	From        *time.Time
	To          *time.Time
	Search      string
}

// Detail is the full read model for a single withdrawal.
type Detail struct {
	Withdrawal      models.Withdrawal `json:"withdrawal"`
	ItemName        string            `json:"item_name"`
	ItemRefCode     string            `json:"item_ref_code"`
	CategoryName    string            `json:"category_name"`
	IsConsumable    bool              `json:"is_consumable"`
	ProjectName     string            `json:"project_name"`
	WithdrawnByName string            `json:"withdrawn_by_name"`
	VerifiedByName  *string           `json:"verified_by_name,omitempty"`
	ApprovedByName  *string           `json:"approved_by_name,omitempty"`
	ReleasedByName  *string           `json:"released_by_name,omitempty"`
	ReleasedAt      *time.Time        `json:"released_at,omitempty"`
	ReleaseNotes    *string           `json:"release_notes,omitempty"`
	AvailableQty    int               `json:"available_qty"`
	ItemTotalQty    int               `json:"item_total_qty"`
}

// List is one page of withdrawals plus paging metadata.
type List struct {
	Items []models.Withdrawal `json:"items"`
	Meta  pagination.Meta     `json:"meta"`
}

// Availability reports the pre-flight stock check for an item.
type Availability struct {
	ItemID       uuid.UUID `json:"item_id"`
	Requested    int       `json:"requested"`
	AvailableQty int       `json:"available_qty"`
	Sufficient   bool      `json:"sufficient"`
	IsConsumable bool      `json:"is_consumable"`
}

// Report aggregates withdrawals over a date range.
type Report struct {
	From             time.Time           `json:"from"`
	To               time.Time           `json:"to"`
	TotalRequests    int64               `json:"total_requests"`
	CountsByStatus   map[string]int64    `json:"counts_by_status"`
	ReleasedQuantity int64               `json:"released_quantity"`
	ReleasedValue    decimal.Decimal     `json:"released_value"`
	Rows             []models.Withdrawal `json:"rows"`
}

// StatusCount is a single status bucket.
type StatusCount struct {
	Status enums.WithdrawalStatus `json:"status"`
	Count  int64                  `json:"count"`
}

// TrendPoint is one month of withdrawal volume.
type TrendPoint struct {
	Month    string `json:"month"`
	Total    int64  `json:"total"`
	Released int64  `json:"released"`
	Canceled int64  `json:"canceled"`
}

// ItemCount ranks an item by withdrawn quantity.
type ItemCount struct {
	ItemID      uuid.UUID `json:"item_id"`
	ItemName    string    `json:"item_name"`
	ItemRefCode string    `json:"item_ref_code"`
	Quantity    int64     `json:"quantity"`
	Requests    int64     `json:"requests"`
}

// ProjectRollup summarizes withdrawal activity per project.
type ProjectRollup struct {
	ProjectID   uuid.UUID `json:"project_id"`
	ProjectName string    `json:"project_name"`
	Requests    int64     `json:"requests"`
	Released    int64     `json:"released"`
	Quantity    int64     `json:"quantity"`
}

// ProcessingTimes carries average lifecycle deltas in hours.
type ProcessingTimes struct {
	RequestToVerification  float64 `json:"request_to_verification_hours"`
	VerificationToApproval float64 `json:"verification_to_approval_hours"`
	ApprovalToRelease      float64 `json:"approval_to_release_hours"`
}

// DashboardStats is the rolling 30-day snapshot.
type DashboardStats struct {
	WindowDays       int              `json:"window_days"`
	TotalRequests    int64            `json:"total_requests"`
	CountsByStatus   map[string]int64 `json:"counts_by_status"`
	OverdueCount     int64            `json:"overdue_count"`
	ReleasedQuantity int64            `json:"released_quantity"`
	CompletionRate   float64          `json:"completion_rate"`
	CancellationRate float64          `json:"cancellation_rate"`
}

// StatsFilters optionally scopes statistics queries.
type StatsFilters struct {
	ProjectID *uuid.UUID
	From      *time.Time
	To        *time.Time
}
