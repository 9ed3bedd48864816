package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/siddhisinghrathor/Dev-Flow/internal/model"
)

type ActivityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Insert(ctx context.Context, entry *model.ActivityLog) error {
	var metadata interface{}
	if entry.Metadata != nil {
		raw, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("marshal activity metadata: %w", err)
		}
		metadata = string(raw)
	}

	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO activity_logs (
			id, user_id, action, entity_type, entity_id, task_id, metadata, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.UserID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.TaskID,
		metadata,
		formatTime(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert activity log: %w", err)
	}
	return nil
}

func (r *ActivityRepository) ListByUser(ctx context.Context, userID string, limit int) ([]model.ActivityLog, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, user_id, action, entity_type, entity_id, task_id, metadata, created_at
		 FROM activity_logs
		 WHERE user_id = ?
		 ORDER BY created_at DESC
		 LIMIT ?`,
		userID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list activity logs: %w", err)
	}
	defer rows.Close()

	entries := make([]model.ActivityLog, 0, limit)
	for rows.Next() {
		entry := model.ActivityLog{}
		var taskID sql.NullString
		var metadata sql.NullString
		var createdAt string
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Action,
			&entry.EntityType,
			&entry.EntityID,
			&taskID,
			&metadata,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan activity log: %w", err)
		}

		if taskID.Valid {
			value := taskID.String
			entry.TaskID = &value
		}
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &entry.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal activity metadata: %w", err)
			}
		}

		parsedCreatedAt, err := parseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse activity created_at: %w", err)
		}
		entry.CreatedAt = parsedCreatedAt

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity logs: %w", err)
	}

	return entries, nil
}
