package withdrawals

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vrcamacho/sitestock-backend/internal/activity"
	"github.com/vrcamacho/sitestock-backend/internal/inventory"
	"github.com/vrcamacho/sitestock-backend/pkg/db/models"
	"github.com/vrcamacho/sitestock-backend/pkg/enums"
	pkgerrors "github.com/vrcamacho/sitestock-backend/pkg/errors"
	"github.com/vrcamacho/sitestock-backend/pkg/pagination"
)

// Result is the uniform envelope every facade operation returns. Code is
// empty on success and carries the error code otherwise.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Service is the single entry point callers use. It fronts validation,
// the workflow state machine, the read side, and statistics.
type Service interface {
	CreateWithdrawalRequest(ctx context.Context, input CreateWithdrawalInput) Result
	VerifyWithdrawal(ctx context.Context, id, actorID uuid.UUID, notes *string) Result
	ApproveWithdrawal(ctx context.Context, id, actorID uuid.UUID, notes *string) Result
	ReleaseWithdrawal(ctx context.Context, id, actorID uuid.UUID, notes *string) Result
	ReturnWithdrawal(ctx context.Context, id, actorID uuid.UUID, notes *string) Result
	CancelWithdrawal(ctx context.Context, id, actorID uuid.UUID, reason string) Result
	GetWithdrawal(ctx context.Context, id uuid.UUID) Result
	ListWithdrawals(ctx context.Context, filters Filters, params pagination.Params) Result
	ListOverdueWithdrawals(ctx context.Context) Result
	CheckItemAvailability(ctx context.Context, itemID uuid.UUID, requested int) Result
	ListItemWithdrawals(ctx context.Context, itemID uuid.UUID) Result
	ListAvailableConsumables(ctx context.Context, projectID uuid.UUID) Result
	GetReport(ctx context.Context, from, to time.Time) Result
	GetStatistics(ctx context.Context, filters StatsFilters) Result
	GetDashboard(ctx context.Context) Result
}

type service struct {
	tx        txRunner
	repo      Repository
	inventory inventory.Repository
	audit     activity.Service
	validator *Validator
	workflow  Workflow
	query     Query
	stats     Stats
	now       func() time.Time
}

// NewService wires the orchestrator.
func NewService(
	tx txRunner,
	repo Repository,
	inventoryRepo inventory.Repository,
	audit activity.Service,
	validator *Validator,
	workflow Workflow,
	query Query,
	statistics Stats,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("withdrawal repository required")
	}
	if inventoryRepo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if audit == nil {
		return nil, fmt.Errorf("activity service required")
	}
	if validator == nil {
		return nil, fmt.Errorf("validator required")
	}
	if workflow == nil {
		return nil, fmt.Errorf("workflow service required")
	}
	if query == nil {
		return nil, fmt.Errorf("query service required")
	}
	if statistics == nil {
		return nil, fmt.Errorf("statistics service required")
	}
	return &service{
		tx:        tx,
		repo:      repo,
		inventory: inventoryRepo,
		audit:     audit,
		validator: validator,
		workflow:  workflow,
		query:     query,
		stats:     statistics,
		now:       time.Now,
	}, nil
}

// CreateWithdrawalRequest runs the full request gauntlet: field validation,
// item existence, the consumable guard, stock availability, project
// ownership, and the one-active-withdrawal-per-item rule. The insert and
// its audit row share a transaction.
func (s *service) CreateWithdrawalRequest(ctx context.Context, input CreateWithdrawalInput) Result {
	if err := s.validator.ValidateCreate(input, s.now()); err != nil {
		return failure(err)
	}

	item, err := s.inventory.FindItem(ctx, input.ItemID)
	if err != nil {
		return failure(err)
	}
	if item.Category == nil || !item.Category.IsConsumable {
		return failure(pkgerrors.New(pkgerrors.CodeStateConflict,
			"item is not consumable; use the borrowing workflow").
			WithDetails(map[string]string{"redirect": "borrowing"}))
	}
	if err := s.validator.ValidateProject(item.ProjectID, input.ProjectID); err != nil {
		return failure(err)
	}
	if err := s.validator.ValidateQuantity(item.AvailableQty, input.Quantity); err != nil {
		return failure(err)
	}

	active, err := s.repo.FindActiveByItem(ctx, input.ItemID)
	if err != nil {
		return failure(err)
	}
	if active != nil {
		return failure(pkgerrors.New(pkgerrors.CodeConflict,
			"item already has an active withdrawal").
			WithDetails(map[string]any{
				"withdrawal_id": active.ID,
				"status":        active.Status,
			}))
	}

	withdrawal := &models.Withdrawal{
		ItemID:         input.ItemID,
		ProjectID:      input.ProjectID,
		Quantity:       input.Quantity,
		Purpose:        input.Purpose,
		ReceiverName:   input.ReceiverName,
		WithdrawnBy:    input.WithdrawnBy,
		ExpectedReturn: input.ExpectedReturn,
		Notes:          input.Notes,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, txErr := s.repo.WithTx(tx).Create(ctx, withdrawal)
		if txErr != nil {
			return txErr
		}
		withdrawal = created

		details, txErr := json.Marshal(map[string]any{
			"item_id":  input.ItemID,
			"quantity": input.Quantity,
			"purpose":  input.Purpose,
		})
		if txErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, txErr, "encode audit details")
		}
		_, txErr = s.audit.Record(ctx, tx, activity.RecordInput{
			ActorID:    input.WithdrawnBy,
			Action:     enums.ActivityActionWithdrawalRequested,
			EntityType: activity.EntityWithdrawal,
			EntityID:   withdrawal.ID,
			Details:    details,
		})
		if txErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, txErr, "write audit entry")
		}
		return nil
	})
	if err != nil {
		return failure(err)
	}
	return success("withdrawal request created", withdrawal)
}

func (s *service) VerifyWithdrawal(ctx context.Context, id, actorID uuid.UUID, notes *string) Result {
	withdrawal, err := s.workflow.Verify(ctx, id, actorID, notes)
	if err != nil {
		return failure(err)
	}
	return success("withdrawal verified", withdrawal)
}

func (s *service) ApproveWithdrawal(ctx context.Context, id, actorID uuid.UUID, notes *string) Result {
	withdrawal, err := s.workflow.Approve(ctx, id, actorID, notes)
	if err != nil {
		return failure(err)
	}
	return success("withdrawal approved", withdrawal)
}

func (s *service) ReleaseWithdrawal(ctx context.Context, id, actorID uuid.UUID, notes *string) Result {
	withdrawal, err := s.workflow.Release(ctx, id, actorID, notes)
	if err != nil {
		return failure(err)
	}
	return success("withdrawal released", withdrawal)
}

func (s *service) ReturnWithdrawal(ctx context.Context, id, actorID uuid.UUID, notes *string) Result {
	withdrawal, err := s.workflow.Return(ctx, id, actorID, notes)
	if err != nil {
		return failure(err)
	}
	return success("withdrawal returned", withdrawal)
}

func (s *service) CancelWithdrawal(ctx context.Context, id, actorID uuid.UUID, reason string) Result {
	if reason == "" {
		return failure(pkgerrors.New(pkgerrors.CodeValidation, "cancellation reason is required"))
	}
	withdrawal, err := s.workflow.Cancel(ctx, id, actorID, reason)
	if err != nil {
		return failure(err)
	}
	return success("withdrawal canceled", withdrawal)
}

func (s *service) GetWithdrawal(ctx context.Context, id uuid.UUID) Result {
	detail, err := s.query.GetDetail(ctx, id)
	if err != nil {
		return failure(err)
	}
	return success("withdrawal found", detail)
}

func (s *service) ListWithdrawals(ctx context.Context, filters Filters, params pagination.Params) Result {
	list, err := s.query.List(ctx, filters, params)
	if err != nil {
		return failure(err)
	}
	return success("withdrawals listed", list)
}

func (s *service) ListOverdueWithdrawals(ctx context.Context) Result {
	rows, err := s.query.ListOverdue(ctx)
	if err != nil {
		return failure(err)
	}
	return success("overdue withdrawals listed", rows)
}

// CheckItemAvailability is the pre-flight stock probe. It reports rather
// than reserves; the authoritative check happens again at release time.
func (s *service) CheckItemAvailability(ctx context.Context, itemID uuid.UUID, requested int) Result {
	if requested <= 0 {
		return failure(pkgerrors.New(pkgerrors.CodeValidation, "requested quantity must be positive"))
	}
	item, err := s.inventory.FindItem(ctx, itemID)
	if err != nil {
		return failure(err)
	}
	availability := &Availability{
		ItemID:       itemID,
		Requested:    requested,
		AvailableQty: item.AvailableQty,
		Sufficient:   item.AvailableQty >= requested,
		IsConsumable: item.Category != nil && item.Category.IsConsumable,
	}
	return success("availability checked", availability)
}

func (s *service) ListItemWithdrawals(ctx context.Context, itemID uuid.UUID) Result {
	rows, err := s.query.ItemHistory(ctx, itemID)
	if err != nil {
		return failure(err)
	}
	return success("item withdrawals listed", rows)
}

func (s *service) ListAvailableConsumables(ctx context.Context, projectID uuid.UUID) Result {
	items, err := s.query.ListAvailableConsumables(ctx, projectID)
	if err != nil {
		return failure(err)
	}
	return success("available consumables listed", items)
}

func (s *service) GetReport(ctx context.Context, from, to time.Time) Result {
	report, err := s.stats.Report(ctx, from, to)
	if err != nil {
		return failure(err)
	}
	return success("report generated", report)
}

// GetStatistics bundles the status counts, trend, rankings, rollups, and
// processing times into one payload.
func (s *service) GetStatistics(ctx context.Context, filters StatsFilters) Result {
	counts, err := s.stats.CountsByStatus(ctx, filters)
	if err != nil {
		return failure(err)
	}
	trend, err := s.stats.MonthlyTrend(ctx, 6)
	if err != nil {
		return failure(err)
	}
	topItems, err := s.stats.TopItems(ctx, 10, filters)
	if err != nil {
		return failure(err)
	}
	rollups, err := s.stats.ProjectRollups(ctx, filters)
	if err != nil {
		return failure(err)
	}
	timings, err := s.stats.AverageProcessingTimes(ctx, filters)
	if err != nil {
		return failure(err)
	}

	return success("statistics computed", map[string]any{
		"counts_by_status": counts,
		"monthly_trend":    trend,
		"top_items":        topItems,
		"project_rollups":  rollups,
		"processing_times": timings,
	})
}

func (s *service) GetDashboard(ctx context.Context) Result {
	dashboard, err := s.stats.Dashboard(ctx)
	if err != nil {
		return failure(err)
	}
	return success("dashboard computed", dashboard)
}

func success(message string, data any) Result {
	return Result{Success: true, Message: message, Data: data}
}

func failure(err error) Result {
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	result := Result{
		Success: false,
		Message: typed.Message(),
		Code:    string(typed.Code()),
	}
	if details := typed.Details(); details != nil {
		result.Data = details
	}
	return result
}

// Err rebuilds the typed error for a failed Result so HTTP handlers can
// reuse the standard response mapping.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	err := pkgerrors.New(pkgerrors.Code(r.Code), r.Message)
	if r.Data != nil {
		err = err.WithDetails(r.Data)
	}
	return err
}
