package enums

import "fmt"

// ActivityAction names an auditable workflow event.
type ActivityAction string

const (
	ActivityActionWithdrawalRequested ActivityAction = "withdrawal_requested"
	ActivityActionWithdrawalVerified  ActivityAction = "withdrawal_verified"
	ActivityActionWithdrawalApproved  ActivityAction = "withdrawal_approved"
	ActivityActionWithdrawalReleased  ActivityAction = "withdrawal_released"
	ActivityActionWithdrawalReturned  ActivityAction = "withdrawal_returned"
	ActivityActionWithdrawalCanceled  ActivityAction = "withdrawal_canceled"
)

var validActivityActions = []ActivityAction{
	ActivityActionWithdrawalRequested,
	ActivityActionWithdrawalVerified,
	ActivityActionWithdrawalApproved,
	ActivityActionWithdrawalReleased,
	ActivityActionWithdrawalReturned,
	ActivityActionWithdrawalCanceled,
}

// String implements fmt.Stringer.
func (a ActivityAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ActivityAction.
func (a ActivityAction) IsValid() bool {
	for _, candidate := range validActivityActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActivityAction converts raw input into an ActivityAction.
func ParseActivityAction(value string) (ActivityAction, error) {
	for _, candidate := range validActivityActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid activity action %q", value)
}
