package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/siddhisinghrathor/Dev-Flow/internal/clock"
	apperrors "github.com/siddhisinghrathor/Dev-Flow/internal/errors"
	"github.com/siddhisinghrathor/Dev-Flow/internal/model"
	"github.com/siddhisinghrathor/Dev-Flow/internal/repository"
)

type TaskService struct {
	tasks    *repository.TaskRepository
	goals    *GoalService
	activity *ActivityService
	notifier Notifier
	clk      clock.Clock
}

type CreateTaskInput struct {
	Title       string
	Description string
	Category    string
	Priority    string
	Duration    *int
	DueDate     *time.Time
	GoalID      *string
}

type UpdateTaskInput struct {
	Title       *string
	Description *string
	Category    *string
	Priority    *string
	Status      *string
	Duration    *int
	DueDate     *time.Time
	GoalID      *string
}

func NewTaskService(
	tasks *repository.TaskRepository,
	goals *GoalService,
	activity *ActivityService,
	notifier Notifier,
	clk clock.Clock,
) *TaskService {
	return &TaskService{
		tasks:    tasks,
		goals:    goals,
		activity: activity,
		notifier: notifier,
		clk:      clk,
	}
}

func (s *TaskService) Create(ctx context.Context, userID string, input CreateTaskInput) (*model.Task, *apperrors.APIError) {
	if input.Title == "" {
		return nil, apperrors.Validation("title is required")
	}
	if len(input.Title) > 200 {
		return nil, apperrors.Validation("title must be at most 200 characters")
	}
	if !model.ValidCategory(input.Category) {
		return nil, apperrors.Validation("invalid category")
	}
	if !model.ValidPriority(input.Priority) {
		return nil, apperrors.Validation("invalid priority")
	}
	if input.Duration != nil && *input.Duration <= 0 {
		return nil, apperrors.Validation("duration must be positive")
	}

	if input.GoalID != nil {
		if _, err := s.goals.Get(ctx, userID, *input.GoalID); err != nil {
			return nil, err
		}
	}

	now := s.clk.Now()
	task := model.Task{
		ID:          uuid.NewString(),
		UserID:      userID,
		GoalID:      input.GoalID,
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Priority:    input.Priority,
		Status:      model.TaskStatusPlanned,
		Duration:    input.Duration,
		DueDate:     input.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.tasks.Create(ctx, &task); err != nil {
		return nil, apperrors.Internal("failed to create task")
	}

	s.activity.Record(ctx, userID, "task_created", model.EntityTask, task.ID, &task.ID, map[string]interface{}{
		"title":    task.Title,
		"category": task.Category,
	})

	return &task, nil
}

func (s *TaskService) List(ctx context.Context, userID string, filter repository.TaskFilter) ([]model.Task, *apperrors.APIError) {
	tasks, err := s.tasks.List(ctx, userID, filter)
	if err != nil {
		return nil, apperrors.Internal("failed to list tasks")
	}
	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, userID, taskID string) (*model.Task, *apperrors.APIError) {
	task, err := s.tasks.GetByID(ctx, taskID, userID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("task not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get task")
	}
	return task, nil
}

// Update applies field changes in one transaction. Moving to completed stamps
// completed_at once; any status change on a goal-linked task recomputes the
// goal's progress in the same transaction.
func (s *TaskService) Update(ctx context.Context, userID, taskID string, input UpdateTaskInput) (*model.Task, *apperrors.APIError) {
	if input.Status != nil && !model.ValidTaskStatus(*input.Status) {
		return nil, apperrors.Validation("invalid status")
	}
	if input.Category != nil && !model.ValidCategory(*input.Category) {
		return nil, apperrors.Validation("invalid category")
	}
	if input.Priority != nil && !model.ValidPriority(*input.Priority) {
		return nil, apperrors.Validation("invalid priority")
	}

	now := s.clk.Now()
	tx, err := s.tasks.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	task, err := s.tasks.GetByIDTx(ctx, tx, taskID, userID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("task not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get task")
	}

	previousStatus := task.Status

	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Category != nil {
		task.Category = *input.Category
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.Duration != nil {
		task.Duration = input.Duration
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if input.GoalID != nil {
		task.GoalID = input.GoalID
	}
	if input.Status != nil {
		task.Status = *input.Status
		if task.Status == model.TaskStatusCompleted && task.CompletedAt == nil {
			snapshot := now
			task.CompletedAt = &snapshot
		}
	}
	task.UpdatedAt = now

	if err := s.tasks.UpdateTx(ctx, tx, task); err != nil {
		return nil, apperrors.Internal("failed to update task")
	}

	// Any status change can move the goal's completed-task ratio, not just
	// transitions into completed.
	statusChanged := input.Status != nil && *input.Status != previousStatus
	if statusChanged && task.GoalID != nil {
		if _, err := s.goals.RecomputeTx(ctx, tx, *task.GoalID, now); err != nil {
			return nil, apperrors.Internal("failed to recompute goal progress")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}

	if statusChanged {
		s.activity.Record(ctx, userID, fmt.Sprintf("task_%s", task.Status), model.EntityTask, task.ID, &task.ID, map[string]interface{}{
			"previousStatus": previousStatus,
			"newStatus":      task.Status,
		})
	}
	s.notifier.Publish(userID, "task:updated", task)

	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, taskID string) *apperrors.APIError {
	_, err := s.tasks.GetByID(ctx, taskID, userID)
	if err == repository.ErrNotFound {
		return apperrors.NotFound("task not found")
	}
	if err != nil {
		return apperrors.Internal("failed to get task")
	}

	if err := s.tasks.SoftDelete(ctx, taskID, s.clk.Now()); err != nil {
		return apperrors.Internal("failed to delete task")
	}

	s.activity.Record(ctx, userID, "task_deleted", model.EntityTask, taskID, nil, nil)
	return nil
}
