// Package habits implements the habit lifecycle and the completion-recording
// path that keeps cached streaks consistent with the completion log.
package habits

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/sovereign/internal/logger"
	"github.com/julianstephens/sovereign/internal/models"
	"github.com/julianstephens/sovereign/internal/storage"
	"github.com/julianstephens/sovereign/internal/streak"
)

var (
	// ErrNotOwner is returned when a user acts on a habit they do not own.
	ErrNotOwner = errors.New("habit belongs to another user")
	// ErrInactive is returned when completing a deactivated habit.
	ErrInactive = errors.New("habit is not active")
)

// Store is the storage the service needs.
type Store interface {
	storage.HabitStore
	storage.LogStore
}

// Service manages habits and records their completions.
type Service struct {
	store  Store
	engine *streak.Engine
	now    func() time.Time
	loc    *time.Location
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the completion timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLocation sets the timezone used for streak annotations.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// NewService creates a service. engine must read from the same store.
func NewService(store Store, engine *streak.Engine, opts ...Option) *Service {
	s := &Service{
		store:  store,
		engine: engine,
		now:    time.Now,
		loc:    time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create adds an active habit for userID.
func (s *Service) Create(ctx context.Context, userID, name, description string, cadence models.Cadence) (models.Habit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Habit{}, fmt.Errorf("habit name is required")
	}
	if strings.TrimSpace(userID) == "" {
		return models.Habit{}, fmt.Errorf("user is required")
	}
	if !cadence.Valid() {
		return models.Habit{}, fmt.Errorf("%w: %q", models.ErrInvalidCadence, string(cadence))
	}

	now := s.now()
	h := models.Habit{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        name,
		Description: description,
		Cadence:     cadence,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.AddHabit(ctx, h); err != nil {
		return models.Habit{}, err
	}
	return h, nil
}

// Get returns a habit by id.
func (s *Service) Get(ctx context.Context, habitID string) (models.Habit, error) {
	return s.store.GetHabit(ctx, habitID)
}

// List returns the habits of userID.
func (s *Service) List(ctx context.Context, userID string) ([]models.Habit, error) {
	return s.store.ListHabits(ctx, userID)
}

func (s *Service) owned(ctx context.Context, habitID, userID string) (models.Habit, error) {
	h, err := s.store.GetHabit(ctx, habitID)
	if err != nil {
		return models.Habit{}, err
	}
	if h.UserID != userID {
		return models.Habit{}, fmt.Errorf("%w: %s", ErrNotOwner, habitID)
	}
	return h, nil
}

// Complete records a completion of habitID by userID, annotated with the
// streak it extends, and evicts the habit's cached streaks.
func (s *Service) Complete(ctx context.Context, habitID, userID, note string) (models.CompletionEvent, error) {
	h, err := s.owned(ctx, habitID, userID)
	if err != nil {
		return models.CompletionEvent{}, err
	}
	if !h.Active {
		return models.CompletionEvent{}, fmt.Errorf("%w: %s", ErrInactive, habitID)
	}

	prior, err := s.store.ListCompletions(ctx, habitID)
	if err != nil {
		return models.CompletionEvent{}, fmt.Errorf("%w: %w", streak.ErrLogUnavailable, err)
	}

	now := s.now()
	ev := models.CompletionEvent{
		HabitID:     habitID,
		UserID:      userID,
		CompletedAt: now,
		StreakCount: streak.Annotate(h.Cadence, prior, now, s.loc),
		Note:        note,
		CreatedAt:   now,
	}
	id, err := s.store.AppendCompletion(ctx, ev)
	if err != nil {
		return models.CompletionEvent{}, err
	}
	ev.ID = id

	if err := s.engine.Invalidate(ctx, habitID); err != nil {
		return ev, err
	}
	logger.Debug("Recorded completion", "habit", habitID, "streak", ev.StreakCount)
	return ev, nil
}

// Streak returns the streak snapshot of habitID.
func (s *Service) Streak(ctx context.Context, habitID string) (models.StreakSnapshot, error) {
	h, err := s.store.GetHabit(ctx, habitID)
	if err != nil {
		return models.StreakSnapshot{}, err
	}
	return s.engine.GetStreakInfo(ctx, h)
}

// Log returns the completion events of habitID, newest first.
func (s *Service) Log(ctx context.Context, habitID string) ([]models.CompletionEvent, error) {
	return s.store.ListCompletions(ctx, habitID)
}

// SetCadence changes the cadence of a habit. Cached streaks of every cadence
// are evicted.
func (s *Service) SetCadence(ctx context.Context, habitID, userID string, cadence models.Cadence) (models.Habit, error) {
	if !cadence.Valid() {
		return models.Habit{}, fmt.Errorf("%w: %q", models.ErrInvalidCadence, string(cadence))
	}
	h, err := s.owned(ctx, habitID, userID)
	if err != nil {
		return models.Habit{}, err
	}
	h.Cadence = cadence
	return h, s.update(ctx, h)
}

// SetActive activates or deactivates a habit.
func (s *Service) SetActive(ctx context.Context, habitID, userID string, active bool) (models.Habit, error) {
	h, err := s.owned(ctx, habitID, userID)
	if err != nil {
		return models.Habit{}, err
	}
	h.Active = active
	return h, s.update(ctx, h)
}

func (s *Service) update(ctx context.Context, h models.Habit) error {
	if err := s.store.UpdateHabit(ctx, h); err != nil {
		return err
	}
	return s.engine.Invalidate(ctx, h.ID)
}

// Delete removes a habit with its completion log.
func (s *Service) Delete(ctx context.Context, habitID, userID string) error {
	if _, err := s.owned(ctx, habitID, userID); err != nil {
		return err
	}
	if err := s.store.DeleteHabit(ctx, habitID); err != nil {
		return err
	}
	return s.engine.Invalidate(ctx, habitID)
}
