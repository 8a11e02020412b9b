// Package streak computes current and longest completion streaks of habits
// and caches them in front of the completion log.
package streak

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/julianstephens/sovereign/internal/cache"
	"github.com/julianstephens/sovereign/internal/constants"
	"github.com/julianstephens/sovereign/internal/logger"
	"github.com/julianstephens/sovereign/internal/models"
	"github.com/julianstephens/sovereign/internal/storage"
)

// ErrLogUnavailable is returned when the completion log cannot be read. A
// streak is never reported as 0 because its log could not be reached.
var ErrLogUnavailable = errors.New("completion log unavailable")

const (
	keyNamespace = "streak"
	kindCurrent  = "current"
	kindLongest  = "longest"
	kindGen      = "gen"
	// otherCadence is the key segment for habits whose cadence is not recognized.
	otherCadence = "other"
)

// Engine serves streak snapshots, recomputing them from the completion log
// on a cache miss.
type Engine struct {
	logs  storage.LogReader
	cache *cache.Client
	now   func() time.Time
	loc   *time.Location
	ttl   time.Duration
	group singleflight.Group
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the source of "now".
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithLocation sets the timezone that defines calendar periods.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithTTL sets how long computed streaks stay cached.
func WithTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		if ttl > 0 {
			e.ttl = ttl
		}
	}
}

// NewEngine creates an engine reading events from logs. c may be nil, in
// which case every read recomputes.
func NewEngine(logs storage.LogReader, c *cache.Client, opts ...Option) *Engine {
	if c == nil {
		c = cache.NewClient(nil)
	}
	e := &Engine{
		logs:  logs,
		cache: c,
		now:   time.Now,
		loc:   time.UTC,
		ttl:   constants.StreakTTL,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func cadenceSegment(c models.Cadence) string {
	if c.Valid() {
		return c.String()
	}
	return otherCadence
}

func streakKey(kind string, c models.Cadence, habitID string) cache.Key {
	return cache.NewKey(keyNamespace, kind, cadenceSegment(c), habitID)
}

// genKey counts invalidations of a habit. A recompute that started under an
// older generation must not leave its result cached.
func genKey(habitID string) cache.Key {
	return cache.NewKey(keyNamespace, kindGen, habitID)
}

func flightKey(curKey cache.Key, gen int64) string {
	return fmt.Sprintf("%s@%d", curKey, gen)
}

func (e *Engine) generation(ctx context.Context, habitID string) (int64, error) {
	gen, _, err := e.cache.GetInt(ctx, genKey(habitID))
	return gen, err
}

// GetStreakInfo returns the current and longest streak of habit. Cached
// values are returned without touching the log.
func (e *Engine) GetStreakInfo(ctx context.Context, habit models.Habit) (models.StreakSnapshot, error) {
	curKey := streakKey(kindCurrent, habit.Cadence, habit.ID)
	longKey := streakKey(kindLongest, habit.Cadence, habit.ID)

	cur, curOK, err := e.cache.GetInt(ctx, curKey)
	if err != nil {
		return models.StreakSnapshot{}, err
	}
	if curOK {
		long, longOK, err := e.cache.GetInt(ctx, longKey)
		if err != nil {
			return models.StreakSnapshot{}, err
		}
		if longOK && long >= cur && cur >= 0 {
			return models.StreakSnapshot{HabitID: habit.ID, Current: int(cur), Longest: int(long)}, nil
		}
	}

	gen, err := e.generation(ctx, habit.ID)
	if err != nil {
		return models.StreakSnapshot{}, err
	}
	v, err, _ := e.group.Do(flightKey(curKey, gen), func() (interface{}, error) {
		return e.recompute(ctx, habit, gen, curKey, longKey)
	})
	if err != nil {
		return models.StreakSnapshot{}, err
	}
	return v.(models.StreakSnapshot), nil
}

func (e *Engine) recompute(ctx context.Context, habit models.Habit, gen int64, curKey, longKey cache.Key) (models.StreakSnapshot, error) {
	events, err := e.logs.ListCompletions(ctx, habit.ID)
	if err != nil {
		return models.StreakSnapshot{}, fmt.Errorf("%w: habit %s: %w", ErrLogUnavailable, habit.ID, err)
	}

	res := Compute(habit.Cadence, events, e.now(), e.loc)
	if !habit.Cadence.Valid() {
		logger.Warn("Unrecognized cadence, using stored streak annotations",
			"habit", habit.ID, "cadence", string(habit.Cadence))
	}
	logger.Debug("Recomputed streak", "habit", habit.ID, "events", len(events),
		"current", res.Current, "longest", res.Longest)

	snap := models.StreakSnapshot{HabitID: habit.ID, Current: res.Current, Longest: res.Longest}

	// An Invalidate that ran while the log was being read bumped the
	// generation, so this result may miss the newest event.
	stale, err := e.staleSince(ctx, habit.ID, gen)
	if err != nil {
		return models.StreakSnapshot{}, err
	}
	if stale {
		return snap, nil
	}
	if err := e.cache.SetInt(ctx, curKey, int64(res.Current), e.ttl); err != nil {
		return models.StreakSnapshot{}, err
	}
	if err := e.cache.SetInt(ctx, longKey, int64(res.Longest), e.ttl); err != nil {
		return models.StreakSnapshot{}, err
	}
	// Invalidate bumps before it deletes, so either it removes what was
	// just written or the check below does.
	stale, err = e.staleSince(ctx, habit.ID, gen)
	if err != nil {
		return models.StreakSnapshot{}, err
	}
	if stale {
		if err := e.cache.Delete(ctx, curKey, longKey); err != nil {
			return models.StreakSnapshot{}, err
		}
	}
	return snap, nil
}

func (e *Engine) staleSince(ctx context.Context, habitID string, gen int64) (bool, error) {
	latest, err := e.generation(ctx, habitID)
	if err != nil {
		return false, err
	}
	if latest != gen {
		logger.Debug("Discarding streak computed before invalidation",
			"habit", habitID, "generation", gen, "latest", latest)
		return true, nil
	}
	return false, nil
}

// CurrentStreak returns the current streak of habit.
func (e *Engine) CurrentStreak(ctx context.Context, habit models.Habit) (int, error) {
	s, err := e.GetStreakInfo(ctx, habit)
	return s.Current, err
}

// LongestStreak returns the longest streak of habit.
func (e *Engine) LongestStreak(ctx context.Context, habit models.Habit) (int, error) {
	s, err := e.GetStreakInfo(ctx, habit)
	return s.Longest, err
}

// Invalidate evicts every cached streak of habitID, under all cadences, so
// the next read recomputes. It must be called after a completion is
// appended or the habit's cadence changes. Recomputes already in flight
// are detached: later readers do not join them and their results are not
// kept in the cache.
func (e *Engine) Invalidate(ctx context.Context, habitID string) error {
	gen, ok, err := e.cache.Incr(ctx, genKey(habitID))
	if err != nil {
		return err
	}
	if ok {
		if err := e.cache.Expire(ctx, genKey(habitID), constants.StreakGenerationTTL); err != nil {
			return err
		}
		gen--
	}

	keys := make([]cache.Key, 0, 2*(len(models.Cadences)+1))
	for _, kind := range []string{kindCurrent, kindLongest} {
		for _, c := range models.Cadences {
			keys = append(keys, streakKey(kind, c, habitID))
		}
		keys = append(keys, cache.NewKey(keyNamespace, kind, otherCadence, habitID))
	}
	for _, k := range keys[:len(keys)/2] {
		e.group.Forget(flightKey(k, gen))
	}
	return e.cache.Delete(ctx, keys...)
}
