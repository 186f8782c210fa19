package models

import "time"

const (
	TitleMaxLen       = 100
	DescriptionMaxLen = 500
)

// Task belongs to exactly one user. UserID and CreatedAt are set on insert
// and never change afterwards.
type Task struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	IsCompleted bool       `json:"is_completed"`
	DueDate     *time.Time `json:"due_date"`
	UserID      int        `json:"user_id"`
	CreatedAt   time.Time  `json:"created_at"`
}
