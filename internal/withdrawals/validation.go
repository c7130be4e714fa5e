package withdrawals

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vrcamacho/sitestock-backend/pkg/enums"
	pkgerrors "github.com/vrcamacho/sitestock-backend/pkg/errors"
)

const (
	maxPurposeLen      = 500
	maxReceiverNameLen = 100
)

// Validator holds the pure request and transition checks. No I/O happens
// here; everything that needs current database state lives in the workflow.
type Validator struct {
	maxQty int
}

// NewValidator builds a validator. maxQty caps a single request; zero or
// negative disables the cap.
func NewValidator(maxQty int) *Validator {
	return &Validator{maxQty: maxQty}
}

// ValidateCreate checks every field of a new withdrawal request. All field
// failures are collected so the caller sees the complete list at once.
func (v *Validator) ValidateCreate(input CreateWithdrawalInput, now time.Time) error {
	fields := map[string]string{}

	if input.ItemID == uuid.Nil {
		fields["item_id"] = "is required"
	}
	if input.ProjectID == uuid.Nil {
		fields["project_id"] = "is required"
	}
	if input.WithdrawnBy == uuid.Nil {
		fields["withdrawn_by"] = "is required"
	}
	if input.Quantity <= 0 {
		fields["quantity"] = "must be a positive integer"
	} else if v.maxQty > 0 && input.Quantity > v.maxQty {
		fields["quantity"] = fmt.Sprintf("must be at most %d", v.maxQty)
	}
	if input.Purpose == "" {
		fields["purpose"] = "is required"
	} else if len(input.Purpose) > maxPurposeLen {
		fields["purpose"] = fmt.Sprintf("must be at most %d characters", maxPurposeLen)
	}
	if input.ReceiverName == "" {
		fields["receiver_name"] = "is required"
	} else if len(input.ReceiverName) > maxReceiverNameLen {
		fields["receiver_name"] = fmt.Sprintf("must be at most %d characters", maxReceiverNameLen)
	}
	if input.ExpectedReturn != nil && !input.ExpectedReturn.After(now) {
		fields["expected_return"] = "must be in the future"
	}

	if len(fields) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(fields)
	}
	return nil
}

// ValidateQuantity fails when the requested amount exceeds availability.
// The current availability travels in the error details so the caller can
// adjust the request.
func (v *Validator) ValidateQuantity(available, requested int) error {
	if requested > available {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "requested quantity exceeds available stock").
			WithDetails(map[string]int{"available": available, "requested": requested})
	}
	return nil
}

// ValidateProject rejects withdrawals against a project that does not own
// the item.
func (v *Validator) ValidateProject(itemProjectID, requestedProjectID uuid.UUID) error {
	if itemProjectID != requestedProjectID {
		return pkgerrors.New(pkgerrors.CodeValidation, "item belongs to a different project")
	}
	return nil
}

// ValidateTransition checks the status machine. The transition table lives
// on enums.WithdrawalStatus; this is the only other place that reads it.
func (v *Validator) ValidateTransition(current, next enums.WithdrawalStatus) error {
	if !current.IsValid() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("unknown status %q", current))
	}
	if !next.IsValid() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("unknown status %q", next))
	}
	if !current.CanTransitionTo(next) {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot transition from %s to %s", current, next)).
			WithDetails(map[string]any{"current": current, "allowed": current.AllowedNext()})
	}
	return nil
}

// IsValidTransition is the boolean form of ValidateTransition.
func (v *Validator) IsValidTransition(current, next enums.WithdrawalStatus) bool {
	return v.ValidateTransition(current, next) == nil
}
