package withdrawals

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vrcamacho/sitestock-backend/internal/activity"
	"github.com/vrcamacho/sitestock-backend/internal/inventory"
	"github.com/vrcamacho/sitestock-backend/pkg/db/models"
	"github.com/vrcamacho/sitestock-backend/pkg/metrics"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:withdrawals_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.Category{},
		&models.InventoryItem{},
		&models.Withdrawal{},
		&models.Release{},
		&models.ActivityLog{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type fixture struct {
	db        *gorm.DB
	repo      Repository
	inventory inventory.Repository
	audit     activity.Service
	validator *Validator
	workflow  Workflow
	query     Query
	stats     Stats
	service   Service

	project *models.Project
	item    *models.InventoryItem
	actor   *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)

	repo := NewRepository(db)
	invRepo := inventory.NewRepository(db)
	audit, err := activity.NewService(activity.NewRepository(db))
	if err != nil {
		t.Fatalf("activity service: %v", err)
	}
	validator := NewValidator(10000)

	workflow, err := NewWorkflow(gormTxRunner{db}, repo, invRepo, audit, validator, metrics.NewWorkflowMetrics(nil))
	if err != nil {
		t.Fatalf("workflow: %v", err)
	}
	query, err := NewQuery(repo, invRepo, 0)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	statistics, err := NewStats(db, repo, 0)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	svc, err := NewService(gormTxRunner{db}, repo, invRepo, audit, validator, workflow, query, statistics)
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	f := &fixture{
		db:        db,
		repo:      repo,
		inventory: invRepo,
		audit:     audit,
		validator: validator,
		workflow:  workflow,
		query:     query,
		stats:     statistics,
		service:   svc,
	}
	f.project = f.seedProject(t)
	f.item = f.seedItem(t, f.project.ID, true, 100, 100)
	f.actor = f.seedUser(t, "Dana", "Reyes")
	return f
}

func (f *fixture) seedProject(t *testing.T) *models.Project {
	t.Helper()
	project := &models.Project{
		ID:       uuid.New(),
		Code:     "PRJ-" + uuid.NewString()[:8],
		Name:     "North Tower",
		IsActive: true,
	}
	if err := f.db.Create(project).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return project
}

func (f *fixture) seedItem(t *testing.T, projectID uuid.UUID, consumable bool, quantity, available int) *models.InventoryItem {
	t.Helper()
	category := &models.Category{ID: uuid.New(), Name: "cat_" + uuid.NewString(), IsConsumable: consumable}
	if err := f.db.Create(category).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	item := &models.InventoryItem{
		ID:           uuid.New(),
		ProjectID:    projectID,
		CategoryID:   category.ID,
		RefCode:      "REF-" + uuid.NewString()[:8],
		Name:         "Cement Bag",
		Unit:         "bag",
		Quantity:     quantity,
		AvailableQty: available,
	}
	if err := f.db.Create(item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return item
}

func (f *fixture) seedUser(t *testing.T, first, last string) *models.User {
	t.Helper()
	user := &models.User{
		ID:        uuid.New(),
		Email:     uuid.NewString() + "@example.com",
		FirstName: first,
		LastName:  last,
		IsActive:  true,
	}
	if err := f.db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func (f *fixture) seedWithdrawal(t *testing.T, item *models.InventoryItem, qty int) *models.Withdrawal {
	t.Helper()
	withdrawal := &models.Withdrawal{
		ID:           uuid.New(),
		ItemID:       item.ID,
		ProjectID:    item.ProjectID,
		Quantity:     qty,
		Purpose:      "slab pour",
		ReceiverName: "Site Foreman",
		WithdrawnBy:  f.actor.ID,
	}
	created, err := f.repo.Create(context.Background(), withdrawal)
	if err != nil {
		t.Fatalf("seed withdrawal: %v", err)
	}
	return created
}

func (f *fixture) availableQty(t *testing.T, itemID uuid.UUID) int {
	t.Helper()
	var item models.InventoryItem
	if err := f.db.First(&item, "id = ?", itemID).Error; err != nil {
		t.Fatalf("load item: %v", err)
	}
	return item.AvailableQty
}

func (f *fixture) auditCount(t *testing.T, withdrawalID uuid.UUID) int {
	t.Helper()
	entries, err := f.audit.ListForEntity(context.Background(), activity.EntityWithdrawal, withdrawalID)
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	return len(entries)
}

func futureTime(hours int) *time.Time {
	at := time.Now().Add(time.Duration(hours) * time.Hour)
	return &at
}
