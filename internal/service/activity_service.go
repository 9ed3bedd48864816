package service

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/siddhisinghrathor/Dev-Flow/internal/clock"
	apperrors "github.com/siddhisinghrathor/Dev-Flow/internal/errors"
	"github.com/siddhisinghrathor/Dev-Flow/internal/model"
	"github.com/siddhisinghrathor/Dev-Flow/internal/repository"
)

// ActivityService appends audit entries for timer and task transitions.
// Record is fire-and-forget: a failed append must never fail or roll back the
// transition that triggered it, so errors are logged and swallowed here.
type ActivityService struct {
	repo *repository.ActivityRepository
	clk  clock.Clock
}

func NewActivityService(repo *repository.ActivityRepository, clk clock.Clock) *ActivityService {
	return &ActivityService{repo: repo, clk: clk}
}

func (s *ActivityService) Record(ctx context.Context, userID, action, entityType, entityID string, taskID *string, metadata map[string]interface{}) {
	entry := model.ActivityLog{
		ID:         uuid.NewString(),
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		TaskID:     taskID,
		Metadata:   metadata,
		CreatedAt:  s.clk.Now(),
	}

	if err := s.repo.Insert(ctx, &entry); err != nil {
		log.Printf("activity log append failed (action=%s user=%s): %v", action, userID, err)
	}
}

func (s *ActivityService) ListByUser(ctx context.Context, userID string, limit int) ([]model.ActivityLog, *apperrors.APIError) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	entries, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.Internal("failed to list activity")
	}
	return entries, nil
}
