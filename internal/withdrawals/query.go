package withdrawals

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vrcamacho/sitestock-backend/internal/inventory"
	"github.com/vrcamacho/sitestock-backend/pkg/db/models"
	"github.com/vrcamacho/sitestock-backend/pkg/pagination"
)

// Query exposes the read side of withdrawals. Nothing here mutates state.
type Query interface {
	GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error)
	List(ctx context.Context, filters Filters, params pagination.Params) (*List, error)
	FindActiveForItem(ctx context.Context, itemID uuid.UUID) (*models.Withdrawal, error)
	ListAvailableConsumables(ctx context.Context, projectID uuid.UUID) ([]models.InventoryItem, error)
	ListOverdue(ctx context.Context) ([]models.Withdrawal, error)
	ItemHistory(ctx context.Context, itemID uuid.UUID) ([]models.Withdrawal, error)
}

type query struct {
	repo       Repository
	inventory  inventory.Repository
	graceHours int
	now        func() time.Time
}

// NewQuery builds the read service. graceHours shifts the overdue cutoff so
// a withdrawal due at 17:00 is not flagged at 17:01.
func NewQuery(repo Repository, inventoryRepo inventory.Repository, graceHours int) (Query, error) {
	if repo == nil {
		return nil, fmt.Errorf("withdrawal repository required")
	}
	if inventoryRepo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if graceHours < 0 {
		graceHours = 0
	}
	return &query{
		repo:       repo,
		inventory:  inventoryRepo,
		graceHours: graceHours,
		now:        time.Now,
	}, nil
}

func (q *query) GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	return q.repo.FindDetail(ctx, id)
}

func (q *query) List(ctx context.Context, filters Filters, params pagination.Params) (*List, error) {
	return q.repo.List(ctx, filters, params.Normalize())
}

func (q *query) FindActiveForItem(ctx context.Context, itemID uuid.UUID) (*models.Withdrawal, error) {
	return q.repo.FindActiveByItem(ctx, itemID)
}

func (q *query) ListAvailableConsumables(ctx context.Context, projectID uuid.UUID) ([]models.InventoryItem, error) {
	return q.inventory.ListAvailableConsumables(ctx, projectID)
}

func (q *query) ListOverdue(ctx context.Context) ([]models.Withdrawal, error) {
	cutoff := q.now().Add(-time.Duration(q.graceHours) * time.Hour)
	return q.repo.ListOverdue(ctx, cutoff)
}

func (q *query) ItemHistory(ctx context.Context, itemID uuid.UUID) ([]models.Withdrawal, error) {
	return q.repo.ListByItem(ctx, itemID)
}
