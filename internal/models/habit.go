package models

import "time"

// Habit is a recurring practice a user tracks completions for.
type Habit struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Cadence     Cadence   `json:"cadence"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CompletionEvent is an append-only record of a single habit completion.
// Events are never updated; they are removed only when their habit is deleted.
type CompletionEvent struct {
	ID          string    `json:"id"`
	HabitID     string    `json:"habit_id"`
	UserID      string    `json:"user_id"`
	CompletedAt time.Time `json:"completed_at"`
	// StreakCount is the current streak recorded at the time of completion,
	// including this event.
	StreakCount int       `json:"streak_count"`
	Note        string    `json:"note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// StreakSnapshot is the derived streak state of a habit.
type StreakSnapshot struct {
	HabitID string `json:"habit_id"`
	Current int    `json:"current"`
	Longest int    `json:"longest"`
}
