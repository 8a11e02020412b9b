package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/sovereign/internal/models"
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
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ev.ID, ev.HabitID, ev.UserID, ev.CompletedAt.UTC(), ev.StreakCount, ev.Note, ev.CreatedAt.UTC())
	if err != nil {
		return "", fmt.Errorf("failed to append completion: %w", err)
	}
	return ev.ID, nil
}

func (s *Store) ListCompletions(ctx context.Context, habitID string) ([]models.CompletionEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, habit_id, user_id, completed_at, streak_count, note, created_at
		FROM completion_events WHERE habit_id = $1
		ORDER BY completed_at DESC`, habitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.CompletionEvent{}
	for rows.Next() {
		var ev models.CompletionEvent
		if err := rows.Scan(&ev.ID, &ev.HabitID, &ev.UserID, &ev.CompletedAt, &ev.StreakCount, &ev.Note, &ev.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
