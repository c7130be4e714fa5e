package withdrawals

import (
	"context"
	"testing"
	"time"

	"github.com/vrcamacho/sitestock-backend/pkg/enums"
)

func TestListOverdueHonorsGracePeriod(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	// Due 2 hours ago.
	withdrawal := f.seedWithdrawal(t, f.item, 5)
	err := f.db.Model(withdrawal).Updates(map[string]any{
		"status":          enums.WithdrawalStatusReleased,
		"expected_return": time.Now().Add(-2 * time.Hour),
	}).Error
	if err != nil {
		t.Fatalf("mark released: %v", err)
	}

	noGrace, err := NewQuery(f.repo, f.inventory, 0)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	rows, err := noGrace.ListOverdue(ctx)
	if err != nil {
		t.Fatalf("list overdue: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 overdue row without grace, got %d", len(rows))
	}

	generous, err := NewQuery(f.repo, f.inventory, 24)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	rows, err = generous.ListOverdue(ctx)
	if err != nil {
		t.Fatalf("list overdue: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("24h grace must hide a 2h-late row, got %d", len(rows))
	}
}

func TestItemHistoryIncludesTerminalRows(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	first := f.seedWithdrawal(t, f.item, 5)
	if _, err := f.workflow.Cancel(ctx, first.ID, f.actor.ID, "rescheduled"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	f.seedWithdrawal(t, f.item, 3)

	rows, err := f.query.ItemHistory(ctx, f.item.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected both withdrawals in history, got %d", len(rows))
	}
}

func TestListAvailableConsumablesViaQuery(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedItem(t, f.project.ID, false, 10, 10)

	items, err := f.query.ListAvailableConsumables(context.Background(), f.project.ID)
	if err != nil {
		t.Fatalf("list consumables: %v", err)
	}
	if len(items) != 1 || items[0].ID != f.item.ID {
		t.Fatalf("expected only the consumable item, got %d rows", len(items))
	}
}
