package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/siddhisinghrathor/Dev-Flow/internal/model"
)

const taskColumns = `id, user_id, goal_id, title, description, category, priority,
	status, duration, time_spent, due_date, completed_at, deleted_at, created_at, updated_at`

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return tx, nil
}

// TaskFilter narrows List results. Zero values mean no constraint.
type TaskFilter struct {
	Status   string
	Category string
	Priority string
	GoalID   string
	Limit    int
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO tasks (
			id, user_id, goal_id, title, description, category, priority,
			status, duration, time_spent, due_date, completed_at, deleted_at,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID,
		task.UserID,
		task.GoalID,
		task.Title,
		task.Description,
		task.Category,
		task.Priority,
		task.Status,
		task.Duration,
		task.TimeSpent,
		formatTimePtr(task.DueDate),
		formatTimePtr(task.CompletedAt),
		formatTimePtr(task.DeletedAt),
		formatTime(task.CreatedAt),
		formatTime(task.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// GetByID excludes soft-deleted tasks and tasks owned by other users.
func (r *TaskRepository) GetByID(ctx context.Context, taskID, userID string) (*model.Task, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT `+taskColumns+`
		 FROM tasks
		 WHERE id = ? AND user_id = ? AND deleted_at IS NULL`,
		taskID,
		userID,
	)
	return scanTask(row)
}

func (r *TaskRepository) GetByIDTx(ctx context.Context, tx *sql.Tx, taskID, userID string) (*model.Task, error) {
	row := tx.QueryRowContext(
		ctx,
		`SELECT `+taskColumns+`
		 FROM tasks
		 WHERE id = ? AND user_id = ? AND deleted_at IS NULL`,
		taskID,
		userID,
	)
	return scanTask(row)
}

func (r *TaskRepository) List(ctx context.Context, userID string, filter TaskFilter) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + `
		 FROM tasks
		 WHERE user_id = ? AND deleted_at IS NULL`
	args := []interface{}{userID}

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	if filter.Priority != "" {
		query += ` AND priority = ?`
		args = append(args, filter.Priority)
	}
	if filter.GoalID != "" {
		query += ` AND goal_id = ?`
		args = append(args, filter.GoalID)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]model.Task, 0, limit)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		tasks = append(tasks, *task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}

	return tasks, nil
}

func (r *TaskRepository) UpdateTx(ctx context.Context, tx *sql.Tx, task *model.Task) error {
	_, err := tx.ExecContext(
		ctx,
		`UPDATE tasks
		 SET goal_id = ?,
		     title = ?,
		     description = ?,
		     category = ?,
		     priority = ?,
		     status = ?,
		     duration = ?,
		     due_date = ?,
		     completed_at = ?,
		     updated_at = ?
		 WHERE id = ?`,
		task.GoalID,
		task.Title,
		task.Description,
		task.Category,
		task.Priority,
		task.Status,
		task.Duration,
		formatTimePtr(task.DueDate),
		formatTimePtr(task.CompletedAt),
		formatTime(task.UpdatedAt),
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

func (r *TaskRepository) SoftDelete(ctx context.Context, taskID string, now time.Time) error {
	_, err := r.db.ExecContext(
		ctx,
		`UPDATE tasks SET deleted_at = ?, updated_at = ? WHERE id = ?`,
		formatTime(now),
		formatTime(now),
		taskID,
	)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// IncrementTimeSpentTx adds seconds to the cumulative total in a single SQL
// statement, so concurrent task updates cannot lose the increment.
func (r *TaskRepository) IncrementTimeSpentTx(ctx context.Context, tx *sql.Tx, taskID string, seconds int, now time.Time) error {
	_, err := tx.ExecContext(
		ctx,
		`UPDATE tasks
		 SET time_spent = time_spent + ?, updated_at = ?
		 WHERE id = ?`,
		seconds,
		formatTime(now),
		taskID,
	)
	if err != nil {
		return fmt.Errorf("increment time spent: %w", err)
	}
	return nil
}

// MarkCompletedTx transitions the task to completed if it is not already.
// Returns whether a transition actually happened; callers use that to gate
// goal recomputation and logging.
func (r *TaskRepository) MarkCompletedTx(ctx context.Context, tx *sql.Tx, taskID string, now time.Time) (bool, error) {
	result, err := tx.ExecContext(
		ctx,
		`UPDATE tasks
		 SET status = ?, completed_at = ?, updated_at = ?
		 WHERE id = ? AND status != ? AND deleted_at IS NULL`,
		model.TaskStatusCompleted,
		formatTime(now),
		formatTime(now),
		taskID,
		model.TaskStatusCompleted,
	)
	if err != nil {
		return false, fmt.Errorf("mark task completed: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark task completed: %w", err)
	}
	return affected > 0, nil
}

// ListStatusesByGoalTx returns the statuses of all non-deleted tasks linked to
// the goal, for progress recomputation.
func (r *TaskRepository) ListStatusesByGoalTx(ctx context.Context, tx *sql.Tx, goalID string) ([]string, error) {
	rows, err := tx.QueryContext(
		ctx,
		`SELECT status FROM tasks WHERE goal_id = ? AND deleted_at IS NULL`,
		goalID,
	)
	if err != nil {
		return nil, fmt.Errorf("list goal task statuses: %w", err)
	}
	defer rows.Close()

	statuses := make([]string, 0)
	for rows.Next() {
		var status string
		if err := rows.Scan(&status); err != nil {
			return nil, fmt.Errorf("scan task status: %w", err)
		}
		statuses = append(statuses, status)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task statuses: %w", err)
	}

	return statuses, nil
}

func scanTask(s scanner) (*model.Task, error) {
	task := model.Task{}
	var goalID sql.NullString
	var duration sql.NullInt64
	var dueDate sql.NullString
	var completedAt sql.NullString
	var deletedAt sql.NullString
	var createdAt string
	var updatedAt string
	err := s.Scan(
		&task.ID,
		&task.UserID,
		&goalID,
		&task.Title,
		&task.Description,
		&task.Category,
		&task.Priority,
		&task.Status,
		&duration,
		&task.TimeSpent,
		&dueDate,
		&completedAt,
		&deletedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}

	if goalID.Valid {
		value := goalID.String
		task.GoalID = &value
	}
	if duration.Valid {
		value := int(duration.Int64)
		task.Duration = &value
	}

	task.DueDate, err = parseTimePtr(dueDate)
	if err != nil {
		return nil, fmt.Errorf("parse task due_date: %w", err)
	}
	task.CompletedAt, err = parseTimePtr(completedAt)
	if err != nil {
		return nil, fmt.Errorf("parse task completed_at: %w", err)
	}
	task.DeletedAt, err = parseTimePtr(deletedAt)
	if err != nil {
		return nil, fmt.Errorf("parse task deleted_at: %w", err)
	}

	parsedCreatedAt, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse task created_at: %w", err)
	}
	task.CreatedAt = parsedCreatedAt

	parsedUpdatedAt, err := parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse task updated_at: %w", err)
	}
	task.UpdatedAt = parsedUpdatedAt

	return &task, nil
}
