package model

import "time"

const (
	ActionTimerStarted = "timer_started"
	ActionTimerPaused  = "timer_paused"
	ActionTimerResumed = "timer_resumed"
	ActionTimerStopped = "timer_stopped"

	EntityTimer = "timer"
	EntityTask  = "task"
	EntityGoal  = "goal"
)

// ActivityLog is an append-only audit entry. Writes are best-effort: a failed
// append is logged and dropped, never surfaced to the caller.
type ActivityLog struct {
	ID         string                 `json:"id"`
	UserID     string                 `json:"userId"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entityType"`
	EntityID   string                 `json:"entityId"`
	TaskID     *string                `json:"taskId,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"createdAt"`
}
