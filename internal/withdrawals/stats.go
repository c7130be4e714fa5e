package withdrawals

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vrcamacho/sitestock-backend/pkg/db/models"
	"github.com/vrcamacho/sitestock-backend/pkg/enums"
	pkgerrors "github.com/vrcamacho/sitestock-backend/pkg/errors"
)

const dashboardWindowDays = 30

// Stats computes aggregate views over withdrawals. Counts and rankings run
// as grouped SQL; time bucketing and lifecycle deltas run over fetched rows
// so the same code serves Postgres in production and sqlite in tests.
type Stats interface {
	CountsByStatus(ctx context.Context, filters StatsFilters) ([]StatusCount, error)
	MonthlyTrend(ctx context.Context, months int) ([]TrendPoint, error)
	TopItems(ctx context.Context, limit int, filters StatsFilters) ([]ItemCount, error)
	ProjectRollups(ctx context.Context, filters StatsFilters) ([]ProjectRollup, error)
	AverageProcessingTimes(ctx context.Context, filters StatsFilters) (*ProcessingTimes, error)
	Dashboard(ctx context.Context) (*DashboardStats, error)
	Report(ctx context.Context, from, to time.Time) (*Report, error)
}

type stats struct {
	db         *gorm.DB
	repo       Repository
	graceHours int
	now        func() time.Time
}

// NewStats builds the statistics service.
func NewStats(db *gorm.DB, repo Repository, graceHours int) (Stats, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle required")
	}
	if repo == nil {
		return nil, fmt.Errorf("withdrawal repository required")
	}
	if graceHours < 0 {
		graceHours = 0
	}
	return &stats{
		db:         db,
		repo:       repo,
		graceHours: graceHours,
		now:        time.Now,
	}, nil
}

func (s *stats) scoped(ctx context.Context, filters StatsFilters) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Withdrawal{})
	if filters.ProjectID != nil {
		query = query.Where("withdrawals.project_id = ?", *filters.ProjectID)
	}
	if filters.From != nil {
		query = query.Where("withdrawals.created_at >= ?", *filters.From)
	}
	if filters.To != nil {
		query = query.Where("withdrawals.created_at <= ?", *filters.To)
	}
	return query
}

func (s *stats) CountsByStatus(ctx context.Context, filters StatsFilters) ([]StatusCount, error) {
	var rows []StatusCount
	err := s.scoped(ctx, filters).
		Select("withdrawals.status AS status, COUNT(*) AS count").
		Group("withdrawals.status").
		Order("withdrawals.status ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count withdrawals by status")
	}
	return rows, nil
}

// MonthlyTrend buckets the last N months of requests by creation month.
func (s *stats) MonthlyTrend(ctx context.Context, months int) ([]TrendPoint, error) {
	if months <= 0 {
		months = 6
	}

	now := s.now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, -(months - 1), 0)

	var rows []models.Withdrawal
	err := s.db.WithContext(ctx).
		Select("id", "status", "created_at").
		Where("created_at >= ?", start).
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load withdrawals for trend")
	}

	buckets := make(map[string]*TrendPoint, months)
	for i := 0; i < months; i++ {
		month := start.AddDate(0, i, 0).Format("2006-01")
		buckets[month] = &TrendPoint{Month: month}
	}
	for _, row := range rows {
		point, ok := buckets[row.CreatedAt.UTC().Format("2006-01")]
		if !ok {
			continue
		}
		point.Total++
		switch row.Status {
		case enums.WithdrawalStatusReleased, enums.WithdrawalStatusReturned:
			point.Released++
		case enums.WithdrawalStatusCanceled:
			point.Canceled++
		}
	}

	out := make([]TrendPoint, 0, months)
	for _, point := range buckets {
		out = append(out, *point)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}

func (s *stats) TopItems(ctx context.Context, limit int, filters StatsFilters) ([]ItemCount, error) {
	if limit <= 0 {
		limit = 10
	}

	var rows []ItemCount
	err := s.scoped(ctx, filters).
		Select(`withdrawals.item_id AS item_id,
			inventory_items.name AS item_name,
			inventory_items.ref_code AS item_ref_code,
			SUM(withdrawals.quantity) AS quantity,
			COUNT(*) AS requests`).
		Joins("JOIN inventory_items ON inventory_items.id = withdrawals.item_id").
		Where("withdrawals.status != ?", enums.WithdrawalStatusCanceled).
		Group("withdrawals.item_id, inventory_items.name, inventory_items.ref_code").
		Order("quantity DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rank withdrawn items")
	}
	return rows, nil
}

func (s *stats) ProjectRollups(ctx context.Context, filters StatsFilters) ([]ProjectRollup, error) {
	var rows []ProjectRollup
	err := s.scoped(ctx, filters).
		Select(`withdrawals.project_id AS project_id,
			projects.name AS project_name,
			COUNT(*) AS requests,
			SUM(CASE WHEN withdrawals.status IN ('released', 'returned') THEN 1 ELSE 0 END) AS released,
			SUM(withdrawals.quantity) AS quantity`).
		Joins("JOIN projects ON projects.id = withdrawals.project_id").
		Group("withdrawals.project_id, projects.name").
		Order("requests DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "roll up projects")
	}
	return rows, nil
}

// AverageProcessingTimes averages the lifecycle stage deltas over rows that
// completed each stage.
func (s *stats) AverageProcessingTimes(ctx context.Context, filters StatsFilters) (*ProcessingTimes, error) {
	var rows []models.Withdrawal
	err := s.scoped(ctx, filters).
		Select("id", "created_at", "verification_date", "approval_date").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load withdrawals for timing")
	}

	ids := make([]any, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	releasedAt := map[string]time.Time{}
	if len(ids) > 0 {
		var releases []models.Release
		err = s.db.WithContext(ctx).
			Where("withdrawal_id IN ?", ids).
			Find(&releases).Error
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load releases for timing")
		}
		for _, release := range releases {
			releasedAt[release.WithdrawalID.String()] = release.ReleasedAt
		}
	}

	var (
		out                          ProcessingTimes
		verified, approved, released int
	)
	for _, row := range rows {
		if row.VerificationDate != nil {
			out.RequestToVerification += row.VerificationDate.Sub(row.CreatedAt).Hours()
			verified++
			if row.ApprovalDate != nil {
				out.VerificationToApproval += row.ApprovalDate.Sub(*row.VerificationDate).Hours()
				approved++
				if at, ok := releasedAt[row.ID.String()]; ok {
					out.ApprovalToRelease += at.Sub(*row.ApprovalDate).Hours()
					released++
				}
			}
		}
	}
	if verified > 0 {
		out.RequestToVerification /= float64(verified)
	}
	if approved > 0 {
		out.VerificationToApproval /= float64(approved)
	}
	if released > 0 {
		out.ApprovalToRelease /= float64(released)
	}
	return &out, nil
}

// Dashboard is the rolling 30-day operational snapshot.
func (s *stats) Dashboard(ctx context.Context) (*DashboardStats, error) {
	now := s.now()
	from := now.AddDate(0, 0, -dashboardWindowDays)
	filters := StatsFilters{From: &from}

	counts, err := s.CountsByStatus(ctx, filters)
	if err != nil {
		return nil, err
	}

	out := &DashboardStats{
		WindowDays:     dashboardWindowDays,
		CountsByStatus: make(map[string]int64, len(counts)),
	}
	var settled int64
	for _, bucket := range counts {
		out.TotalRequests += bucket.Count
		out.CountsByStatus[bucket.Status.String()] = bucket.Count
		if bucket.Status.IsTerminal() {
			settled += bucket.Count
		}
	}
	if settled > 0 {
		out.CompletionRate = float64(out.CountsByStatus[enums.WithdrawalStatusReturned.String()]) / float64(settled)
		out.CancellationRate = float64(out.CountsByStatus[enums.WithdrawalStatusCanceled.String()]) / float64(settled)
	}

	err = s.db.WithContext(ctx).
		Model(&models.Withdrawal{}).
		Where("created_at >= ?", from).
		Where("status IN ?", []enums.WithdrawalStatus{enums.WithdrawalStatusReleased, enums.WithdrawalStatusReturned}).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&out.ReleasedQuantity).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum released quantity")
	}

	cutoff := now.Add(-time.Duration(s.graceHours) * time.Hour)
	overdue, err := s.repo.ListOverdue(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	out.OverdueCount = int64(len(overdue))
	return out, nil
}

// Report assembles the date-range export, valuing released stock at the
// item's current unit cost.
func (s *stats) Report(ctx context.Context, from, to time.Time) (*Report, error) {
	if !to.After(from) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "report range end must be after start")
	}

	rows, err := s.repo.ListBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	report := &Report{
		From:           from,
		To:             to,
		TotalRequests:  int64(len(rows)),
		CountsByStatus: map[string]int64{},
		ReleasedValue:  decimal.Zero,
		Rows:           rows,
	}
	for _, row := range rows {
		report.CountsByStatus[row.Status.String()]++
		if row.Status == enums.WithdrawalStatusReleased || row.Status == enums.WithdrawalStatusReturned {
			report.ReleasedQuantity += int64(row.Quantity)
			if row.Item != nil {
				value := row.Item.UnitCost.Mul(decimal.NewFromInt(int64(row.Quantity)))
				report.ReleasedValue = report.ReleasedValue.Add(value)
			}
		}
	}
	return report, nil
}
