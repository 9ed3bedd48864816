package model

import "time"

const (
	TaskStatusPlanned   = "planned"
	TaskStatusCompleted = "completed"
	TaskStatusFailed    = "failed"
	TaskStatusSkipped   = "skipped"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"

	CategoryFrontend = "frontend"
	CategoryBackend  = "backend"
	CategoryDSA      = "dsa"
	CategoryHealth   = "health"
	CategoryCareer   = "career"
	CategoryGeneral  = "general"
)

type Task struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	GoalID      *string    `json:"goalId,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	Duration    *int       `json:"duration,omitempty"`
	TimeSpent   int        `json:"timeSpent"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	DeletedAt   *time.Time `json:"-"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TaskSummary is the slice of a task nested inside timer responses.
type TaskSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Priority string `json:"priority"`
}

func (t *Task) Summary() TaskSummary {
	return TaskSummary{
		ID:       t.ID,
		Title:    t.Title,
		Category: t.Category,
		Priority: t.Priority,
	}
}

func ValidTaskStatus(status string) bool {
	switch status {
	case TaskStatusPlanned, TaskStatusCompleted, TaskStatusFailed, TaskStatusSkipped:
		return true
	}
	return false
}

func ValidCategory(category string) bool {
	switch category {
	case CategoryFrontend, CategoryBackend, CategoryDSA, CategoryHealth, CategoryCareer, CategoryGeneral:
		return true
	}
	return false
}

func ValidPriority(priority string) bool {
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}
