package enums

import "fmt"

// WithdrawalStatus tracks the lifecycle of a consumable withdrawal request.
type WithdrawalStatus string

const (
	WithdrawalStatusPendingVerification WithdrawalStatus = "pending_verification"
	WithdrawalStatusPendingApproval     WithdrawalStatus = "pending_approval"
	WithdrawalStatusApproved            WithdrawalStatus = "approved"
	WithdrawalStatusReleased            WithdrawalStatus = "released"
	WithdrawalStatusReturned            WithdrawalStatus = "returned"
	WithdrawalStatusCanceled            WithdrawalStatus = "canceled"
)

var validWithdrawalStatuses = []WithdrawalStatus{
	WithdrawalStatusPendingVerification,
	WithdrawalStatusPendingApproval,
	WithdrawalStatusApproved,
	WithdrawalStatusReleased,
	WithdrawalStatusReturned,
	WithdrawalStatusCanceled,
}

// withdrawalTransitions is the only definition of the legal state machine.
// Both transition validation and workflow execution consult it.
var withdrawalTransitions = map[WithdrawalStatus][]WithdrawalStatus{
	WithdrawalStatusPendingVerification: {WithdrawalStatusPendingApproval, WithdrawalStatusCanceled},
	WithdrawalStatusPendingApproval:     {WithdrawalStatusApproved, WithdrawalStatusCanceled},
	WithdrawalStatusApproved:            {WithdrawalStatusReleased, WithdrawalStatusCanceled},
	WithdrawalStatusReleased:            {WithdrawalStatusReturned, WithdrawalStatusCanceled},
}

// String implements fmt.Stringer.
func (s WithdrawalStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known WithdrawalStatus.
func (s WithdrawalStatus) IsValid() bool {
	for _, candidate := range validWithdrawalStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s WithdrawalStatus) IsTerminal() bool {
	return len(withdrawalTransitions[s]) == 0 && s.IsValid()
}

// CanTransitionTo reports whether the state machine allows moving to next.
func (s WithdrawalStatus) CanTransitionTo(next WithdrawalStatus) bool {
	for _, candidate := range withdrawalTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// AllowedNext returns the legal successor statuses in declaration order.
func (s WithdrawalStatus) AllowedNext() []WithdrawalStatus {
	next := withdrawalTransitions[s]
	out := make([]WithdrawalStatus, len(next))
	copy(out, next)
	return out
}

// ActiveWithdrawalStatuses lists the non-terminal statuses that block a new
// withdrawal request for the same item.
func ActiveWithdrawalStatuses() []WithdrawalStatus {
	return []WithdrawalStatus{
		WithdrawalStatusPendingVerification,
		WithdrawalStatusPendingApproval,
		WithdrawalStatusApproved,
		WithdrawalStatusReleased,
	}
}

// ParseWithdrawalStatus converts raw input into a WithdrawalStatus.
func ParseWithdrawalStatus(value string) (WithdrawalStatus, error) {
	for _, candidate := range validWithdrawalStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid withdrawal status %q", value)
}
