package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vrcamacho/sitestock-backend/pkg/db/models"
	"github.com/vrcamacho/sitestock-backend/pkg/enums"
)

// EntityWithdrawal is the entity type written for withdrawal audit rows.
const EntityWithdrawal = "withdrawal"

// Service defines operations that record audit entries.
type Service interface {
	// Record writes an entry. When tx is non-nil the write joins that
	// transaction so audit and state commit or roll back together.
	Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.ActivityLog, error)
	ListForEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]models.ActivityLog, error)
}

type service struct {
	repo Repository
}

// RecordInput captures the immutable data an audit entry requires.
type RecordInput struct {
	ActorID    uuid.UUID            `json:"actor_id"`
	Action     enums.ActivityAction `json:"action"`
	EntityType string               `json:"entity_type"`
	EntityID   uuid.UUID            `json:"entity_id"`
	Details    json.RawMessage      `json:"details"`
}

// NewService wires an activity service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("activity repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.ActivityLog, error) {
	if input.ActorID == uuid.Nil {
		return nil, fmt.Errorf("actor id is required")
	}
	if !input.Action.IsValid() {
		return nil, fmt.Errorf("invalid activity action %q", input.Action)
	}
	if input.EntityType == "" {
		return nil, fmt.Errorf("entity type is required")
	}
	if input.EntityID == uuid.Nil {
		return nil, fmt.Errorf("entity id is required")
	}

	entry := &models.ActivityLog{
		ID:         uuid.New(),
		ActorID:    input.ActorID,
		Action:     input.Action,
		EntityType: input.EntityType,
		EntityID:   input.EntityID,
		Details:    input.Details,
	}

	if err := s.repo.WithTx(tx).Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) ListForEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]models.ActivityLog, error) {
	if entityType == "" {
		return nil, fmt.Errorf("entity type is required")
	}
	if entityID == uuid.Nil {
		return nil, fmt.Errorf("entity id is required")
	}
	return s.repo.ListByEntity(ctx, entityType, entityID)
}
