package withdrawals

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vrcamacho/sitestock-backend/pkg/enums"
)

func TestCountsByStatus(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		item := f.seedItem(t, f.project.ID, true, 10, 10)
		f.seedWithdrawal(t, item, 1)
	}
	canceledItem := f.seedItem(t, f.project.ID, true, 10, 10)
	canceled := f.seedWithdrawal(t, canceledItem, 1)
	if _, err := f.workflow.Cancel(ctx, canceled.ID, f.actor.ID, "duplicate"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	counts, err := f.stats.CountsByStatus(ctx, StatsFilters{})
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	got := map[enums.WithdrawalStatus]int64{}
	for _, bucket := range counts {
		got[bucket.Status] = bucket.Count
	}
	if got[enums.WithdrawalStatusPendingVerification] != 2 {
		t.Fatalf("expected 2 pending, got %d", got[enums.WithdrawalStatusPendingVerification])
	}
	if got[enums.WithdrawalStatusCanceled] != 1 {
		t.Fatalf("expected 1 canceled, got %d", got[enums.WithdrawalStatusCanceled])
	}
}

func TestCountsByStatusScopedToProject(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.seedWithdrawal(t, f.item, 1)

	otherProject := f.seedProject(t)
	counts, err := f.stats.CountsByStatus(ctx, StatsFilters{ProjectID: &otherProject.ID})
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if len(counts) != 0 {
		t.Fatalf("expected no rows for the empty project, got %d", len(counts))
	}
}

func TestMonthlyTrendBucketsCurrentMonth(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.seedWithdrawal(t, f.item, 1)

	trend, err := f.stats.MonthlyTrend(ctx, 3)
	if err != nil {
		t.Fatalf("trend: %v", err)
	}
	if len(trend) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(trend))
	}

	thisMonth := time.Now().UTC().Format("2006-01")
	last := trend[len(trend)-1]
	if last.Month != thisMonth {
		t.Fatalf("expected last bucket %s, got %s", thisMonth, last.Month)
	}
	if last.Total != 1 {
		t.Fatalf("expected 1 request this month, got %d", last.Total)
	}
	for _, point := range trend[:len(trend)-1] {
		if point.Total != 0 {
			t.Fatalf("expected empty bucket %s, got %d", point.Month, point.Total)
		}
	}
}

func TestTopItemsExcludesCanceled(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	heavy := f.seedItem(t, f.project.ID, true, 100, 100)
	f.seedWithdrawal(t, heavy, 50)
	f.seedWithdrawal(t, f.item, 10)

	ghostItem := f.seedItem(t, f.project.ID, true, 10, 10)
	ghost := f.seedWithdrawal(t, ghostItem, 9)
	if _, err := f.workflow.Cancel(ctx, ghost.ID, f.actor.ID, "mistake"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	ranked, err := f.stats.TopItems(ctx, 5, StatsFilters{})
	if err != nil {
		t.Fatalf("top items: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("expected 2 ranked items, got %d", len(ranked))
	}
	if ranked[0].ItemID != heavy.ID || ranked[0].Quantity != 50 {
		t.Fatalf("unexpected top item: %+v", ranked[0])
	}
}

func TestProjectRollups(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	withdrawal := f.seedWithdrawal(t, f.item, 20)
	f.advanceTo(t, withdrawal, enums.WithdrawalStatusReleased)

	idleItem := f.seedItem(t, f.project.ID, true, 10, 10)
	f.seedWithdrawal(t, idleItem, 3)

	rollups, err := f.stats.ProjectRollups(ctx, StatsFilters{})
	if err != nil {
		t.Fatalf("rollups: %v", err)
	}
	if len(rollups) != 1 {
		t.Fatalf("expected one project, got %d", len(rollups))
	}
	rollup := rollups[0]
	if rollup.ProjectID != f.project.ID || rollup.ProjectName != "North Tower" {
		t.Fatalf("unexpected project: %+v", rollup)
	}
	if rollup.Requests != 2 || rollup.Released != 1 || rollup.Quantity != 23 {
		t.Fatalf("unexpected rollup numbers: %+v", rollup)
	}
}

func TestAverageProcessingTimes(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	withdrawal := f.seedWithdrawal(t, f.item, 5)
	f.advanceTo(t, withdrawal, enums.WithdrawalStatusReleased)

	timings, err := f.stats.AverageProcessingTimes(ctx, StatsFilters{})
	if err != nil {
		t.Fatalf("timings: %v", err)
	}
	// Stages ran back to back in this test, so the averages are tiny but
	// must not be negative.
	if timings.RequestToVerification < 0 || timings.VerificationToApproval < 0 || timings.ApprovalToRelease < 0 {
		t.Fatalf("negative stage delta: %+v", timings)
	}
}

func TestDashboard(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	released := f.seedWithdrawal(t, f.item, 30)
	f.advanceTo(t, released, enums.WithdrawalStatusReleased)

	canceledItem := f.seedItem(t, f.project.ID, true, 10, 10)
	canceled := f.seedWithdrawal(t, canceledItem, 2)
	if _, err := f.workflow.Cancel(ctx, canceled.ID, f.actor.ID, "not needed"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	dashboard, err := f.stats.Dashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if dashboard.TotalRequests != 2 {
		t.Fatalf("expected 2 requests, got %d", dashboard.TotalRequests)
	}
	if dashboard.ReleasedQuantity != 30 {
		t.Fatalf("expected released quantity 30, got %d", dashboard.ReleasedQuantity)
	}
	if dashboard.CancellationRate != 1.0 {
		t.Fatalf("expected cancellation rate 1.0 over settled rows, got %f", dashboard.CancellationRate)
	}
	if dashboard.OverdueCount != 0 {
		t.Fatalf("expected no overdue rows, got %d", dashboard.OverdueCount)
	}
}

func TestReportValuesReleasedStock(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	err := f.db.Model(f.item).Update("unit_cost", decimal.RequireFromString("12.50")).Error
	if err != nil {
		t.Fatalf("set unit cost: %v", err)
	}

	withdrawal := f.seedWithdrawal(t, f.item, 4)
	f.advanceTo(t, withdrawal, enums.WithdrawalStatusReleased)

	from := time.Now().Add(-time.Hour)
	to := time.Now().Add(time.Hour)
	report, err := f.stats.Report(ctx, from, to)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.TotalRequests != 1 {
		t.Fatalf("expected 1 row, got %d", report.TotalRequests)
	}
	if report.ReleasedQuantity != 4 {
		t.Fatalf("expected released quantity 4, got %d", report.ReleasedQuantity)
	}
	want := decimal.RequireFromString("50.00")
	if !report.ReleasedValue.Equal(want) {
		t.Fatalf("expected released value %s, got %s", want, report.ReleasedValue)
	}
}

func TestReportRejectsInvertedRange(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	now := time.Now()
	if _, err := f.stats.Report(context.Background(), now, now.Add(-time.Hour)); err == nil {
		t.Fatal("expected range validation error")
	}
}
