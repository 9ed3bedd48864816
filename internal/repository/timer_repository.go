package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/siddhisinghrathor/Dev-Flow/internal/model"
)

const sessionColumns = `id, user_id, task_id, start_time, end_time, is_running,
	elapsed_at_pause, total_duration, duration_limit, created_at, updated_at`

// TimerRepository persists timer sessions. All transition reads and writes go
// through *sql.Tx variants so the service can make each state change a single
// atomic unit.
type TimerRepository struct {
	db *sql.DB
}

func NewTimerRepository(db *sql.DB) *TimerRepository {
	return &TimerRepository{db: db}
}

func (r *TimerRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return tx, nil
}

func (r *TimerRepository) InsertTx(ctx context.Context, tx *sql.Tx, session *model.Session) error {
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO timer_sessions (
			id, user_id, task_id, start_time, end_time, is_running,
			elapsed_at_pause, total_duration, duration_limit, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		session.TaskID,
		formatTime(session.StartTime),
		formatTimePtr(session.EndTime),
		session.IsRunning,
		session.ElapsedAtPause,
		session.TotalDuration,
		session.DurationLimit,
		formatTime(session.CreatedAt),
		formatTime(session.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *TimerRepository) UpdateTx(ctx context.Context, tx *sql.Tx, session *model.Session) error {
	_, err := tx.ExecContext(
		ctx,
		`UPDATE timer_sessions
		 SET start_time = ?,
		     end_time = ?,
		     is_running = ?,
		     elapsed_at_pause = ?,
		     total_duration = ?,
		     updated_at = ?
		 WHERE id = ?`,
		formatTime(session.StartTime),
		formatTimePtr(session.EndTime),
		session.IsRunning,
		session.ElapsedAtPause,
		session.TotalDuration,
		formatTime(session.UpdatedAt),
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// GetByIDTx returns the session only if it belongs to userID.
func (r *TimerRepository) GetByIDTx(ctx context.Context, tx *sql.Tx, sessionID, userID string) (*model.Session, error) {
	row := tx.QueryRowContext(
		ctx,
		`SELECT `+sessionColumns+`
		 FROM timer_sessions
		 WHERE id = ? AND user_id = ?`,
		sessionID,
		userID,
	)
	return scanSession(row)
}

// GetActiveTx returns the user's non-terminal session, running or paused.
func (r *TimerRepository) GetActiveTx(ctx context.Context, tx *sql.Tx, userID string) (*model.Session, error) {
	row := tx.QueryRowContext(
		ctx,
		`SELECT `+sessionColumns+`
		 FROM timer_sessions
		 WHERE user_id = ? AND end_time IS NULL`,
		userID,
	)
	return scanSession(row)
}

func (r *TimerRepository) GetActive(ctx context.Context, userID string) (*model.Session, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT `+sessionColumns+`
		 FROM timer_sessions
		 WHERE user_id = ? AND end_time IS NULL`,
		userID,
	)
	return scanSession(row)
}

// SessionWithTask is a terminal session joined with the summary of the task
// it timed.
type SessionWithTask struct {
	Session model.Session
	Task    model.TaskSummary
}

// ListTerminal returns stopped sessions newest first, optionally scoped to a
// task.
func (r *TimerRepository) ListTerminal(ctx context.Context, userID, taskID string, limit int) ([]SessionWithTask, error) {
	query := `SELECT s.id, s.user_id, s.task_id, s.start_time, s.end_time, s.is_running,
		s.elapsed_at_pause, s.total_duration, s.duration_limit, s.created_at, s.updated_at,
		t.title, t.category, t.priority
		 FROM timer_sessions s
		 JOIN tasks t ON t.id = s.task_id
		 WHERE s.user_id = ? AND s.end_time IS NOT NULL`
	args := []interface{}{userID}
	if taskID != "" {
		query += ` AND s.task_id = ?`
		args = append(args, taskID)
	}
	query += ` ORDER BY s.start_time DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]SessionWithTask, 0, limit)
	for rows.Next() {
		entry, scanErr := scanSessionWithTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		sessions = append(sessions, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

// StatRow pairs a terminal session's duration with its task category for
// aggregation.
type StatRow struct {
	TotalDuration int
	Category      string
}

func (r *TimerRepository) ListStats(ctx context.Context, userID string, startDate, endDate interface{}) ([]StatRow, error) {
	query := `SELECT COALESCE(s.total_duration, 0), t.category
		 FROM timer_sessions s
		 JOIN tasks t ON t.id = s.task_id
		 WHERE s.user_id = ? AND s.end_time IS NOT NULL`
	args := []interface{}{userID}
	if startDate != nil {
		query += ` AND s.start_time >= ?`
		args = append(args, startDate)
	}
	if endDate != nil {
		query += ` AND s.start_time <= ?`
		args = append(args, endDate)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stats: %w", err)
	}
	defer rows.Close()

	stats := make([]StatRow, 0)
	for rows.Next() {
		var row StatRow
		if err := rows.Scan(&row.TotalDuration, &row.Category); err != nil {
			return nil, fmt.Errorf("scan stat row: %w", err)
		}
		stats = append(stats, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats: %w", err)
	}

	return stats, nil
}

func scanSessionWithTask(s scanner) (*SessionWithTask, error) {
	entry := SessionWithTask{}
	var startTime string
	var endTime sql.NullString
	var totalDuration sql.NullInt64
	var durationLimit sql.NullInt64
	var createdAt string
	var updatedAt string
	err := s.Scan(
		&entry.Session.ID,
		&entry.Session.UserID,
		&entry.Session.TaskID,
		&startTime,
		&endTime,
		&entry.Session.IsRunning,
		&entry.Session.ElapsedAtPause,
		&totalDuration,
		&durationLimit,
		&createdAt,
		&updatedAt,
		&entry.Task.Title,
		&entry.Task.Category,
		&entry.Task.Priority,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan session with task: %w", err)
	}
	entry.Task.ID = entry.Session.TaskID

	entry.Session.StartTime, err = parseTime(startTime)
	if err != nil {
		return nil, fmt.Errorf("parse session start_time: %w", err)
	}
	entry.Session.EndTime, err = parseTimePtr(endTime)
	if err != nil {
		return nil, fmt.Errorf("parse session end_time: %w", err)
	}
	if totalDuration.Valid {
		value := int(totalDuration.Int64)
		entry.Session.TotalDuration = &value
	}
	if durationLimit.Valid {
		value := int(durationLimit.Int64)
		entry.Session.DurationLimit = &value
	}
	entry.Session.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse session created_at: %w", err)
	}
	entry.Session.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse session updated_at: %w", err)
	}

	return &entry, nil
}

func scanSession(s scanner) (*model.Session, error) {
	session := model.Session{}
	var startTime string
	var endTime sql.NullString
	var totalDuration sql.NullInt64
	var durationLimit sql.NullInt64
	var createdAt string
	var updatedAt string
	err := s.Scan(
		&session.ID,
		&session.UserID,
		&session.TaskID,
		&startTime,
		&endTime,
		&session.IsRunning,
		&session.ElapsedAtPause,
		&totalDuration,
		&durationLimit,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	parsedStartTime, err := parseTime(startTime)
	if err != nil {
		return nil, fmt.Errorf("parse session start_time: %w", err)
	}
	session.StartTime = parsedStartTime

	session.EndTime, err = parseTimePtr(endTime)
	if err != nil {
		return nil, fmt.Errorf("parse session end_time: %w", err)
	}

	if totalDuration.Valid {
		value := int(totalDuration.Int64)
		session.TotalDuration = &value
	}
	if durationLimit.Valid {
		value := int(durationLimit.Int64)
		session.DurationLimit = &value
	}

	parsedCreatedAt, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse session created_at: %w", err)
	}
	session.CreatedAt = parsedCreatedAt

	parsedUpdatedAt, err := parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse session updated_at: %w", err)
	}
	session.UpdatedAt = parsedUpdatedAt

	return &session, nil
}
