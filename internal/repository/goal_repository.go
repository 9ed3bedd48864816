package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/siddhisinghrathor/Dev-Flow/internal/model"
)

const goalColumns = `id, user_id, title, description, category, progress,
	is_completed, start_date, target_date, completed_at, created_at, updated_at`

type GoalRepository struct {
	db *sql.DB
}

func NewGoalRepository(db *sql.DB) *GoalRepository {
	return &GoalRepository{db: db}
}

func (r *GoalRepository) Create(ctx context.Context, goal *model.Goal) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO goals (
			id, user_id, title, description, category, progress, is_completed,
			start_date, target_date, completed_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		goal.ID,
		goal.UserID,
		goal.Title,
		goal.Description,
		goal.Category,
		goal.Progress,
		goal.IsCompleted,
		formatTime(goal.StartDate),
		formatTime(goal.TargetDate),
		formatTimePtr(goal.CompletedAt),
		formatTime(goal.CreatedAt),
		formatTime(goal.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

func (r *GoalRepository) GetByID(ctx context.Context, goalID, userID string) (*model.Goal, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT `+goalColumns+`
		 FROM goals
		 WHERE id = ? AND user_id = ?`,
		goalID,
		userID,
	)
	return scanGoal(row)
}

// GetTx fetches by id alone: recompute runs inside stop transactions where the
// goal's owner is already established through the task.
func (r *GoalRepository) GetTx(ctx context.Context, tx *sql.Tx, goalID string) (*model.Goal, error) {
	row := tx.QueryRowContext(
		ctx,
		`SELECT `+goalColumns+`
		 FROM goals
		 WHERE id = ?`,
		goalID,
	)
	return scanGoal(row)
}

func (r *GoalRepository) List(ctx context.Context, userID string, includeCompleted bool) ([]model.Goal, error) {
	query := `SELECT ` + goalColumns + `
		 FROM goals
		 WHERE user_id = ?`
	if !includeCompleted {
		query += ` AND is_completed = 0`
	}
	query += ` ORDER BY is_completed ASC, target_date ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	goals := make([]model.Goal, 0)
	for rows.Next() {
		goal, scanErr := scanGoal(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		goals = append(goals, *goal)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}

	return goals, nil
}

func (r *GoalRepository) UpdateProgressTx(ctx context.Context, tx *sql.Tx, goal *model.Goal, now time.Time) error {
	_, err := tx.ExecContext(
		ctx,
		`UPDATE goals
		 SET progress = ?,
		     is_completed = ?,
		     completed_at = ?,
		     updated_at = ?
		 WHERE id = ?`,
		goal.Progress,
		goal.IsCompleted,
		formatTimePtr(goal.CompletedAt),
		formatTime(now),
		goal.ID,
	)
	if err != nil {
		return fmt.Errorf("update goal progress: %w", err)
	}
	return nil
}

func scanGoal(s scanner) (*model.Goal, error) {
	goal := model.Goal{}
	var startDate string
	var targetDate string
	var completedAt sql.NullString
	var createdAt string
	var updatedAt string
	err := s.Scan(
		&goal.ID,
		&goal.UserID,
		&goal.Title,
		&goal.Description,
		&goal.Category,
		&goal.Progress,
		&goal.IsCompleted,
		&startDate,
		&targetDate,
		&completedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan goal: %w", err)
	}

	parsedStartDate, err := parseTime(startDate)
	if err != nil {
		return nil, fmt.Errorf("parse goal start_date: %w", err)
	}
	goal.StartDate = parsedStartDate

	parsedTargetDate, err := parseTime(targetDate)
	if err != nil {
		return nil, fmt.Errorf("parse goal target_date: %w", err)
	}
	goal.TargetDate = parsedTargetDate

	goal.CompletedAt, err = parseTimePtr(completedAt)
	if err != nil {
		return nil, fmt.Errorf("parse goal completed_at: %w", err)
	}

	parsedCreatedAt, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse goal created_at: %w", err)
	}
	goal.CreatedAt = parsedCreatedAt

	parsedUpdatedAt, err := parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse goal updated_at: %w", err)
	}
	goal.UpdatedAt = parsedUpdatedAt

	return &goal, nil
}
