package sqlite

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/sovereign/internal/models"
	"github.com/julianstephens/sovereign/internal/storage"
)

func (s *Store) AppendCompletion(ctx context.Context, ev models.CompletionEvent) (string, error) {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO completion_events (id, habit_id, user_id, completed_at, streak_count, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.HabitID, ev.UserID, storage.FormatTime(ev.CompletedAt), ev.StreakCount, ev.Note,
		storage.FormatTime(ev.CreatedAt))
	if err != nil {
		return "", fmt.Errorf("failed to append completion: %w", err)
	}
	return ev.ID, nil
}

func (s *Store) ListCompletions(ctx context.Context, habitID string) ([]models.CompletionEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, habit_id, user_id, completed_at, streak_count, note, created_at
		FROM completion_events WHERE habit_id = ?`, habitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.CompletionEvent{}
	for rows.Next() {
		var ev models.CompletionEvent
		var completedAt, createdAt string
		if err := rows.Scan(&ev.ID, &ev.HabitID, &ev.UserID, &completedAt, &ev.StreakCount, &ev.Note, &createdAt); err != nil {
			return nil, err
		}
		if ev.CompletedAt, err = storage.ParseTime(completedAt); err != nil {
			return nil, fmt.Errorf("failed to parse completed_at: %w", err)
		}
		if ev.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Stored timestamps are not fixed width, so order here rather than in SQL.
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CompletedAt.After(events[j].CompletedAt)
	})
	return events, nil
}
