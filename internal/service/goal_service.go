package service

import (
	"context"
	"database/sql"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/siddhisinghrathor/Dev-Flow/internal/clock"
	apperrors "github.com/siddhisinghrathor/Dev-Flow/internal/errors"
	"github.com/siddhisinghrathor/Dev-Flow/internal/model"
	"github.com/siddhisinghrathor/Dev-Flow/internal/repository"
)

type GoalService struct {
	goals    *repository.GoalRepository
	tasks    *repository.TaskRepository
	activity *ActivityService
	notifier Notifier
	clk      clock.Clock
}

type CreateGoalInput struct {
	Title       string
	Description string
	Category    string
	StartDate   time.Time
	TargetDate  time.Time
}

func NewGoalService(
	goals *repository.GoalRepository,
	tasks *repository.TaskRepository,
	activity *ActivityService,
	notifier Notifier,
	clk clock.Clock,
) *GoalService {
	return &GoalService{
		goals:    goals,
		tasks:    tasks,
		activity: activity,
		notifier: notifier,
		clk:      clk,
	}
}

func (s *GoalService) Create(ctx context.Context, userID string, input CreateGoalInput) (*model.Goal, *apperrors.APIError) {
	if input.Title == "" {
		return nil, apperrors.Validation("title is required")
	}
	if !model.ValidCategory(input.Category) {
		return nil, apperrors.Validation("invalid category")
	}
	if input.TargetDate.Before(input.StartDate) {
		return nil, apperrors.Validation("targetDate must not be before startDate")
	}

	now := s.clk.Now()
	goal := model.Goal{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Progress:    0,
		StartDate:   input.StartDate,
		TargetDate:  input.TargetDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.goals.Create(ctx, &goal); err != nil {
		return nil, apperrors.Internal("failed to create goal")
	}

	s.activity.Record(ctx, userID, "goal_created", model.EntityGoal, goal.ID, nil, map[string]interface{}{
		"title": goal.Title,
	})

	return &goal, nil
}

func (s *GoalService) List(ctx context.Context, userID string, includeCompleted bool) ([]model.Goal, *apperrors.APIError) {
	goals, err := s.goals.List(ctx, userID, includeCompleted)
	if err != nil {
		return nil, apperrors.Internal("failed to list goals")
	}
	return goals, nil
}

func (s *GoalService) Get(ctx context.Context, userID, goalID string) (*model.Goal, *apperrors.APIError) {
	goal, err := s.goals.GetByID(ctx, goalID, userID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("goal not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get goal")
	}
	return goal, nil
}

// RecomputeTx re-derives progress from the goal's non-deleted tasks inside the
// caller's transaction. Safe to call redundantly: with zero linked tasks it is
// a no-op, and completed_at is stamped only on the first transition to 100%.
func (s *GoalService) RecomputeTx(ctx context.Context, tx *sql.Tx, goalID string, now time.Time) (*model.Goal, error) {
	goal, err := s.goals.GetTx(ctx, tx, goalID)
	if err == repository.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	statuses, err := s.tasks.ListStatusesByGoalTx(ctx, tx, goalID)
	if err != nil {
		return nil, err
	}
	if len(statuses) == 0 {
		return goal, nil
	}

	completed := 0
	for _, status := range statuses {
		if status == model.TaskStatusCompleted {
			completed++
		}
	}

	goal.Progress = int(math.Round(float64(completed) / float64(len(statuses)) * 100))
	goal.IsCompleted = goal.Progress == 100
	if goal.IsCompleted && goal.CompletedAt == nil {
		snapshot := now
		goal.CompletedAt = &snapshot
	}

	if err := s.goals.UpdateProgressTx(ctx, tx, goal, now); err != nil {
		return nil, err
	}
	return goal, nil
}
