package enums

import "testing"

func TestWithdrawalStatusTransitions(t *testing.T) {
	legal := []struct {
		from, to WithdrawalStatus
	}{
		{WithdrawalStatusPendingVerification, WithdrawalStatusPendingApproval},
		{WithdrawalStatusPendingVerification, WithdrawalStatusCanceled},
		{WithdrawalStatusPendingApproval, WithdrawalStatusApproved},
		{WithdrawalStatusPendingApproval, WithdrawalStatusCanceled},
		{WithdrawalStatusApproved, WithdrawalStatusReleased},
		{WithdrawalStatusApproved, WithdrawalStatusCanceled},
		{WithdrawalStatusReleased, WithdrawalStatusReturned},
		{WithdrawalStatusReleased, WithdrawalStatusCanceled},
	}
	for _, tt := range legal {
		if !tt.from.CanTransitionTo(tt.to) {
			t.Fatalf("expected %s -> %s to be legal", tt.from, tt.to)
		}
	}

	illegal := []struct {
		from, to WithdrawalStatus
	}{
		{WithdrawalStatusPendingVerification, WithdrawalStatusApproved},
		{WithdrawalStatusPendingVerification, WithdrawalStatusReleased},
		{WithdrawalStatusPendingApproval, WithdrawalStatusReleased},
		{WithdrawalStatusApproved, WithdrawalStatusReturned},
		{WithdrawalStatusReturned, WithdrawalStatusCanceled},
		{WithdrawalStatusCanceled, WithdrawalStatusPendingVerification},
		{WithdrawalStatusReleased, WithdrawalStatusApproved},
	}
	for _, tt := range illegal {
		if tt.from.CanTransitionTo(tt.to) {
			t.Fatalf("expected %s -> %s to be rejected", tt.from, tt.to)
		}
	}
}

func TestWithdrawalStatusTerminal(t *testing.T) {
	if !WithdrawalStatusReturned.IsTerminal() {
		t.Fatal("returned should be terminal")
	}
	if !WithdrawalStatusCanceled.IsTerminal() {
		t.Fatal("canceled should be terminal")
	}
	if WithdrawalStatusReleased.IsTerminal() {
		t.Fatal("released should not be terminal")
	}
	if WithdrawalStatus("bogus").IsTerminal() {
		t.Fatal("unknown status should not report terminal")
	}
}

func TestParseWithdrawalStatus(t *testing.T) {
	status, err := ParseWithdrawalStatus("released")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != WithdrawalStatusReleased {
		t.Fatalf("unexpected status %s", status)
	}
	if _, err := ParseWithdrawalStatus("Pending Verification"); err == nil {
		t.Fatal("expected parse failure for unknown value")
	}
}

func TestActiveWithdrawalStatuses(t *testing.T) {
	for _, status := range ActiveWithdrawalStatuses() {
		if status.IsTerminal() {
			t.Fatalf("active set must not contain terminal status %s", status)
		}
	}
}
