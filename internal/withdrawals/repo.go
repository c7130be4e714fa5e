package withdrawals

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vrcamacho/sitestock-backend/pkg/db/models"
	"github.com/vrcamacho/sitestock-backend/pkg/enums"
	pkgerrors "github.com/vrcamacho/sitestock-backend/pkg/errors"
	"github.com/vrcamacho/sitestock-backend/pkg/pagination"
)

// Repository defines persistence operations for withdrawals and releases.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, withdrawal *models.Withdrawal) (*models.Withdrawal, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error)
	FindDetail(ctx context.Context, id uuid.UUID) (*Detail, error)
	List(ctx context.Context, filters Filters, params pagination.Params) (*List, error)
	FindActiveByItem(ctx context.Context, itemID uuid.UUID) (*models.Withdrawal, error)
	ListOverdue(ctx context.Context, asOf time.Time) ([]models.Withdrawal, error)
	ListByItem(ctx context.Context, itemID uuid.UUID) ([]models.Withdrawal, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]models.Withdrawal, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from enums.WithdrawalStatus, updates map[string]any) error
	CreateRelease(ctx context.Context, release *models.Release) error
	FindReleaseByWithdrawal(ctx context.Context, withdrawalID uuid.UUID) (*models.Release, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a withdrawal repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, withdrawal *models.Withdrawal) (*models.Withdrawal, error) {
	if withdrawal.ID == uuid.Nil {
		withdrawal.ID = uuid.New()
	}
	if withdrawal.Status == "" {
		withdrawal.Status = enums.WithdrawalStatusPendingVerification
	}
	if err := r.db.WithContext(ctx).Create(withdrawal).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create withdrawal")
	}
	return withdrawal, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	err := r.db.WithContext(ctx).First(&withdrawal, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "withdrawal not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load withdrawal")
	}
	return &withdrawal, nil
}

// FindDetail loads the withdrawal with its item, category, project, release
// record, and every actor's display name.
func (r *repository) FindDetail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	var withdrawal models.Withdrawal
	err := r.db.WithContext(ctx).
		Preload("Item").
		Preload("Item.Category").
		Preload("Item.Project").
		Preload("Release").
		First(&withdrawal, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "withdrawal not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load withdrawal detail")
	}

	detail := &Detail{Withdrawal: withdrawal}
	if withdrawal.Item != nil {
		detail.ItemName = withdrawal.Item.Name
		detail.ItemRefCode = withdrawal.Item.RefCode
		detail.AvailableQty = withdrawal.Item.AvailableQty
		detail.ItemTotalQty = withdrawal.Item.Quantity
		if withdrawal.Item.Category != nil {
			detail.CategoryName = withdrawal.Item.Category.Name
			detail.IsConsumable = withdrawal.Item.Category.IsConsumable
		}
		if withdrawal.Item.Project != nil {
			detail.ProjectName = withdrawal.Item.Project.Name
		}
	}
	if withdrawal.Release != nil {
		releasedAt := withdrawal.Release.ReleasedAt
		detail.ReleasedAt = &releasedAt
		detail.ReleaseNotes = withdrawal.Release.Notes
	}

	if err := r.fillActorNames(ctx, detail); err != nil {
		return nil, err
	}
	return detail, nil
}

func (r *repository) fillActorNames(ctx context.Context, detail *Detail) error {
	ids := []uuid.UUID{detail.Withdrawal.WithdrawnBy}
	if detail.Withdrawal.VerifiedBy != nil {
		ids = append(ids, *detail.Withdrawal.VerifiedBy)
	}
	if detail.Withdrawal.ApprovedBy != nil {
		ids = append(ids, *detail.Withdrawal.ApprovedBy)
	}
	if detail.Withdrawal.Release != nil {
		ids = append(ids, detail.Withdrawal.Release.ReleasedBy)
	}

	var users []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load actor names")
	}
	names := make(map[uuid.UUID]string, len(users))
	for _, user := range users {
		names[user.ID] = user.FullName()
	}

	detail.WithdrawnByName = names[detail.Withdrawal.WithdrawnBy]
	if detail.Withdrawal.VerifiedBy != nil {
		if name, ok := names[*detail.Withdrawal.VerifiedBy]; ok {
			detail.VerifiedByName = &name
		}
	}
	if detail.Withdrawal.ApprovedBy != nil {
		if name, ok := names[*detail.Withdrawal.ApprovedBy]; ok {
			detail.ApprovedByName = &name
		}
	}
	if detail.Withdrawal.Release != nil {
		if name, ok := names[detail.Withdrawal.Release.ReleasedBy]; ok {
			detail.ReleasedByName = &name
		}
	}
	return nil
}

func (r *repository) List(ctx context.Context, filters Filters, params pagination.Params) (*List, error) {
	query := r.db.WithContext(ctx).Model(&models.Withdrawal{})
	query = applyFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count withdrawals")
	}

	var rows []models.Withdrawal
	err := query.
		Order("withdrawals.created_at DESC").
		Limit(params.Limit()).
		Offset(params.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list withdrawals")
	}

	return &List{
		Items: rows,
		Meta:  pagination.NewMeta(params, total),
	}, nil
}

func applyFilters(query *gorm.DB, filters Filters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("withdrawals.status = ?", *filters.Status)
	}
	if filters.ProjectID != nil {
		query = query.Where("withdrawals.project_id = ?", *filters.ProjectID)
	}
	if filters.ItemID != nil {
		query = query.Where("withdrawals.item_id = ?", *filters.ItemID)
	}
	if filters.WithdrawnBy != nil {
		query = query.Where("withdrawals.withdrawn_by = ?", *filters.WithdrawnBy)
	}
	if filters.From != nil {
		query = query.Where("withdrawals.created_at >= ?", *filters.From)
	}
	if filters.To != nil {
		query = query.Where("withdrawals.created_at <= ?", *filters.To)
	}
	if filters.Search != "" {
		pattern := "%" + filters.Search + "%"
		query = query.
			Joins("JOIN inventory_items ON inventory_items.id = withdrawals.item_id").
			Where(
				"LOWER(inventory_items.ref_code) LIKE LOWER(?) OR LOWER(inventory_items.name) LIKE LOWER(?) OR LOWER(withdrawals.receiver_name) LIKE LOWER(?) OR LOWER(withdrawals.purpose) LIKE LOWER(?)",
				pattern, pattern, pattern, pattern,
			)
	}
	return query
}

// FindActiveByItem returns the non-terminal withdrawal holding the item, if any.
func (r *repository) FindActiveByItem(ctx context.Context, itemID uuid.UUID) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Where("status IN ?", enums.ActiveWithdrawalStatuses()).
		Order("created_at DESC").
		First(&withdrawal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find active withdrawal")
	}
	return &withdrawal, nil
}

func (r *repository) ListOverdue(ctx context.Context, asOf time.Time) ([]models.Withdrawal, error) {
	var rows []models.Withdrawal
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.WithdrawalStatusReleased).
		Where("expected_return IS NOT NULL AND expected_return < ?", asOf).
		Order("expected_return ASC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list overdue withdrawals")
	}
	return rows, nil
}

func (r *repository) ListByItem(ctx context.Context, itemID uuid.UUID) ([]models.Withdrawal, error) {
	var rows []models.Withdrawal
	err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list item withdrawals")
	}
	return rows, nil
}

func (r *repository) ListBetween(ctx context.Context, from, to time.Time) ([]models.Withdrawal, error) {
	var rows []models.Withdrawal
	err := r.db.WithContext(ctx).
		Preload("Item").
		Preload("Release").
		Where("created_at >= ? AND created_at <= ?", from, to).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list withdrawals in range")
	}
	return rows, nil
}

// TransitionStatus applies updates only when the row still holds the expected
// status. Zero rows affected means another transaction moved the record
// first; the caller gets a state conflict instead of a lost update.
func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, from enums.WithdrawalStatus, updates map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&models.Withdrawal{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "update withdrawal status")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "withdrawal was modified by another operation")
	}
	return nil
}

func (r *repository) CreateRelease(ctx context.Context, release *models.Release) error {
	if release.ID == uuid.Nil {
		release.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(release).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create release record")
	}
	return nil
}

func (r *repository) FindReleaseByWithdrawal(ctx context.Context, withdrawalID uuid.UUID) (*models.Release, error) {
	var release models.Release
	err := r.db.WithContext(ctx).First(&release, "withdrawal_id = ?", withdrawalID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load release record")
	}
	return &release, nil
}
