package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vrcamacho/sitestock-backend/pkg/db/models"
	pkgerrors "github.com/vrcamacho/sitestock-backend/pkg/errors"
)

// Repository exposes inventory reads and the guarded stock mutations. Both
// mutations are single conditional statements so concurrent withdrawals can
// never drive available_qty negative or above quantity.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindItem(ctx context.Context, itemID uuid.UUID) (*models.InventoryItem, error)
	ListAvailableConsumables(ctx context.Context, projectID uuid.UUID) ([]models.InventoryItem, error)
	Reserve(ctx context.Context, itemID uuid.UUID, qty int) error
	Restore(ctx context.Context, itemID uuid.UUID, qty int) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an inventory repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindItem loads the item with its category so callers can apply the
// consumable guard.
func (r *repository) FindItem(ctx context.Context, itemID uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.db.WithContext(ctx).
		Preload("Category").
		First(&item, "id = ?", itemID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory item")
	}
	return &item, nil
}

func (r *repository) ListAvailableConsumables(ctx context.Context, projectID uuid.UUID) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := r.db.WithContext(ctx).
		Joins("JOIN categories ON categories.id = inventory_items.category_id").
		Where("inventory_items.project_id = ?", projectID).
		Where("categories.is_consumable = ?", true).
		Where("inventory_items.available_qty > 0").
		Preload("Category").
		Order("inventory_items.name ASC").
		Find(&items).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list available consumables")
	}
	return items, nil
}

// Reserve decrements available_qty by qty. The decrement and the stock check
// are one statement; zero rows affected means the stock moved since the
// caller's earlier availability check.
func (r *repository) Reserve(ctx context.Context, itemID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "reserve quantity must be positive")
	}

	res := r.db.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET available_qty = available_qty - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND available_qty >= ?
	`, qty, itemID, qty)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserve inventory")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for withdrawal")
	}
	return nil
}

// Restore gives qty back to available_qty. The guard keeps available_qty
// within the item's total quantity.
func (r *repository) Restore(ctx context.Context, itemID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "restore quantity must be positive")
	}

	res := r.db.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET available_qty = available_qty + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND available_qty + ? <= quantity
	`, qty, itemID, qty)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "restore inventory")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "restore would exceed item quantity")
	}
	return nil
}
