package withdrawals

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vrcamacho/sitestock-backend/internal/activity"
	"github.com/vrcamacho/sitestock-backend/internal/inventory"
	"github.com/vrcamacho/sitestock-backend/pkg/db/models"
	"github.com/vrcamacho/sitestock-backend/pkg/enums"
	pkgerrors "github.com/vrcamacho/sitestock-backend/pkg/errors"
	"github.com/vrcamacho/sitestock-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Workflow executes the withdrawal state machine. Every operation is a
// single transaction covering the status change, any inventory mutation,
// the release record, and the audit entry.
type Workflow interface {
	Verify(ctx context.Context, id, actorID uuid.UUID, notes *string) (*models.Withdrawal, error)
	Approve(ctx context.Context, id, actorID uuid.UUID, notes *string) (*models.Withdrawal, error)
	Release(ctx context.Context, id, actorID uuid.UUID, notes *string) (*models.Withdrawal, error)
	Return(ctx context.Context, id, actorID uuid.UUID, notes *string) (*models.Withdrawal, error)
	Cancel(ctx context.Context, id, actorID uuid.UUID, reason string) (*models.Withdrawal, error)
}

type workflow struct {
	tx        txRunner
	repo      Repository
	inventory inventory.Repository
	audit     activity.Service
	validator *Validator
	metrics   *metrics.WorkflowMetrics
	now       func() time.Time
}

// NewWorkflow builds the state machine service with its dependencies.
func NewWorkflow(
	tx txRunner,
	repo Repository,
	inventoryRepo inventory.Repository,
	audit activity.Service,
	validator *Validator,
	workflowMetrics *metrics.WorkflowMetrics,
) (Workflow, error) {
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
	return &workflow{
		tx:        tx,
		repo:      repo,
		inventory: inventoryRepo,
		audit:     audit,
		validator: validator,
		metrics:   workflowMetrics,
		now:       time.Now,
	}, nil
}

func (w *workflow) Verify(ctx context.Context, id, actorID uuid.UUID, notes *string) (*models.Withdrawal, error) {
	return w.run(ctx, "verify", func(tx *gorm.DB) (*models.Withdrawal, error) {
		repo := w.repo.WithTx(tx)
		withdrawal, err := repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := w.validator.ValidateTransition(withdrawal.Status, enums.WithdrawalStatusPendingApproval); err != nil {
			return nil, err
		}

		now := w.now()
		err = repo.TransitionStatus(ctx, id, withdrawal.Status, map[string]any{
			"status":            enums.WithdrawalStatusPendingApproval,
			"verified_by":       actorID,
			"verification_date": now,
		})
		if err != nil {
			return nil, err
		}

		if err := w.recordAudit(ctx, tx, actorID, enums.ActivityActionWithdrawalVerified, id, withdrawal.Status, enums.WithdrawalStatusPendingApproval, notes); err != nil {
			return nil, err
		}

		withdrawal.Status = enums.WithdrawalStatusPendingApproval
		withdrawal.VerifiedBy = &actorID
		withdrawal.VerificationDate = &now
		return withdrawal, nil
	})
}

func (w *workflow) Approve(ctx context.Context, id, actorID uuid.UUID, notes *string) (*models.Withdrawal, error) {
	return w.run(ctx, "approve", func(tx *gorm.DB) (*models.Withdrawal, error) {
		repo := w.repo.WithTx(tx)
		withdrawal, err := repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := w.validator.ValidateTransition(withdrawal.Status, enums.WithdrawalStatusApproved); err != nil {
			return nil, err
		}

		now := w.now()
		err = repo.TransitionStatus(ctx, id, withdrawal.Status, map[string]any{
			"status":        enums.WithdrawalStatusApproved,
			"approved_by":   actorID,
			"approval_date": now,
		})
		if err != nil {
			return nil, err
		}

		if err := w.recordAudit(ctx, tx, actorID, enums.ActivityActionWithdrawalApproved, id, withdrawal.Status, enums.WithdrawalStatusApproved, notes); err != nil {
			return nil, err
		}

		withdrawal.Status = enums.WithdrawalStatusApproved
		withdrawal.ApprovedBy = &actorID
		withdrawal.ApprovalDate = &now
		return withdrawal, nil
	})
}

// Release moves an approved withdrawal to released. The item is re-read
// inside the transaction: stock may have moved since the request-time
// availability check, and the consumable guard must hold at the point of
// mutation, not just at request time.
func (w *workflow) Release(ctx context.Context, id, actorID uuid.UUID, notes *string) (*models.Withdrawal, error) {
	return w.run(ctx, "release", func(tx *gorm.DB) (*models.Withdrawal, error) {
		repo := w.repo.WithTx(tx)
		withdrawal, err := repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := w.validator.ValidateTransition(withdrawal.Status, enums.WithdrawalStatusReleased); err != nil {
			return nil, err
		}

		invRepo := w.inventory.WithTx(tx)
		item, err := invRepo.FindItem(ctx, withdrawal.ItemID)
		if err != nil {
			return nil, err
		}
		if item.Category == nil || !item.Category.IsConsumable {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				"item is not consumable; use the borrowing workflow").
				WithDetails(map[string]string{"redirect": "borrowing"})
		}

		if err := invRepo.Reserve(ctx, withdrawal.ItemID, withdrawal.Quantity); err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeInsufficientStock {
				return nil, typed.WithDetails(map[string]int{
					"available": item.AvailableQty,
					"requested": withdrawal.Quantity,
				})
			}
			return nil, err
		}

		now := w.now()
		err = repo.TransitionStatus(ctx, id, withdrawal.Status, map[string]any{
			"status": enums.WithdrawalStatusReleased,
		})
		if err != nil {
			return nil, err
		}

		release := &models.Release{
			ID:           uuid.New(),
			WithdrawalID: id,
			ReleasedBy:   actorID,
			ReleasedAt:   now,
			Notes:        notes,
		}
		if err := repo.CreateRelease(ctx, release); err != nil {
			return nil, err
		}

		if err := w.recordAudit(ctx, tx, actorID, enums.ActivityActionWithdrawalReleased, id, withdrawal.Status, enums.WithdrawalStatusReleased, notes); err != nil {
			return nil, err
		}

		withdrawal.Status = enums.WithdrawalStatusReleased
		withdrawal.Release = release
		return withdrawal, nil
	})
}

func (w *workflow) Return(ctx context.Context, id, actorID uuid.UUID, notes *string) (*models.Withdrawal, error) {
	return w.run(ctx, "return", func(tx *gorm.DB) (*models.Withdrawal, error) {
		repo := w.repo.WithTx(tx)
		withdrawal, err := repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := w.validator.ValidateTransition(withdrawal.Status, enums.WithdrawalStatusReturned); err != nil {
			return nil, err
		}

		now := w.now()
		updates := map[string]any{
			"status":        enums.WithdrawalStatusReturned,
			"actual_return": now,
		}
		if merged := appendNotes(withdrawal.Notes, notes); merged != nil {
			updates["notes"] = *merged
		}
		if err := repo.TransitionStatus(ctx, id, withdrawal.Status, updates); err != nil {
			return nil, err
		}

		if err := w.inventory.WithTx(tx).Restore(ctx, withdrawal.ItemID, withdrawal.Quantity); err != nil {
			return nil, err
		}

		if err := w.recordAudit(ctx, tx, actorID, enums.ActivityActionWithdrawalReturned, id, withdrawal.Status, enums.WithdrawalStatusReturned, notes); err != nil {
			return nil, err
		}

		withdrawal.Status = enums.WithdrawalStatusReturned
		withdrawal.ActualReturn = &now
		return withdrawal, nil
	})
}

// Cancel settles the withdrawal from any non-terminal state. When the
// record was already released, the reserved stock is given back: the goods
// were not consumed on this path.
func (w *workflow) Cancel(ctx context.Context, id, actorID uuid.UUID, reason string) (*models.Withdrawal, error) {
	return w.run(ctx, "cancel", func(tx *gorm.DB) (*models.Withdrawal, error) {
		repo := w.repo.WithTx(tx)
		withdrawal, err := repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := w.validator.ValidateTransition(withdrawal.Status, enums.WithdrawalStatusCanceled); err != nil {
			return nil, err
		}

		updates := map[string]any{
			"status": enums.WithdrawalStatusCanceled,
		}
		reasonNote := "canceled: " + reason
		if merged := appendNotes(withdrawal.Notes, &reasonNote); merged != nil {
			updates["notes"] = *merged
		}
		priorStatus := withdrawal.Status
		if err := repo.TransitionStatus(ctx, id, priorStatus, updates); err != nil {
			return nil, err
		}

		if priorStatus == enums.WithdrawalStatusReleased {
			if err := w.inventory.WithTx(tx).Restore(ctx, withdrawal.ItemID, withdrawal.Quantity); err != nil {
				return nil, err
			}
		}

		if err := w.recordAudit(ctx, tx, actorID, enums.ActivityActionWithdrawalCanceled, id, priorStatus, enums.WithdrawalStatusCanceled, &reason); err != nil {
			return nil, err
		}

		withdrawal.Status = enums.WithdrawalStatusCanceled
		return withdrawal, nil
	})
}

// run wraps an operation body in a transaction and records metrics after
// the outcome is settled. Metrics stay outside the transaction; a metrics
// hiccup must never roll back a committed transition.
func (w *workflow) run(ctx context.Context, operation string, fn func(tx *gorm.DB) (*models.Withdrawal, error)) (*models.Withdrawal, error) {
	start := w.now()
	var result *models.Withdrawal
	err := w.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var innerErr error
		result, innerErr = fn(tx)
		return innerErr
	})
	w.metrics.ObserveDuration(operation, w.now().Sub(start))
	if err != nil {
		code := string(pkgerrors.CodeInternal)
		if typed := pkgerrors.As(err); typed != nil {
			code = string(typed.Code())
		}
		w.metrics.IncFailure(operation, code)
		return nil, err
	}
	w.metrics.IncTransition(operation)
	return result, nil
}

func (w *workflow) recordAudit(
	ctx context.Context,
	tx *gorm.DB,
	actorID uuid.UUID,
	action enums.ActivityAction,
	withdrawalID uuid.UUID,
	from, to enums.WithdrawalStatus,
	notes *string,
) error {
	details := map[string]any{"from": from, "to": to}
	if notes != nil && *notes != "" {
		details["notes"] = *notes
	}
	payload, err := json.Marshal(details)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode audit details")
	}

	_, err = w.audit.Record(ctx, tx, activity.RecordInput{
		ActorID:    actorID,
		Action:     action,
		EntityType: activity.EntityWithdrawal,
		EntityID:   withdrawalID,
		Details:    payload,
	})
	if err != nil {
		// Audit rows commit with the transition or not at all.
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write audit entry")
	}
	return nil
}

func appendNotes(existing *string, extra *string) *string {
	if extra == nil || strings.TrimSpace(*extra) == "" {
		return existing
	}
	if existing == nil || strings.TrimSpace(*existing) == "" {
		return extra
	}
	merged := *existing + "\n" + *extra
	return &merged
}
