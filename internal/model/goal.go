package model

import "time"

type Goal struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Progress    int        `json:"progress"`
	IsCompleted bool       `json:"isCompleted"`
	StartDate   time.Time  `json:"startDate"`
	TargetDate  time.Time  `json:"targetDate"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
