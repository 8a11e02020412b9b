package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/julianstephens/sovereign/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// LogReader reads the completion log of a habit.
type LogReader interface {
	// ListCompletions returns every completion event of the habit, newest
	// first. A habit with no events yields an empty slice.
	ListCompletions(ctx context.Context, habitID string) ([]models.CompletionEvent, error)
}

// LogStore is the append-only completion log.
type LogStore interface {
	LogReader
	// AppendCompletion stores ev and returns its id. The id and CreatedAt
	// are generated when empty.
	AppendCompletion(ctx context.Context, ev models.CompletionEvent) (string, error)
}

// HabitStore holds habit definitions.
type HabitStore interface {
	AddHabit(ctx context.Context, h models.Habit) error
	GetHabit(ctx context.Context, id string) (models.Habit, error)
	ListHabits(ctx context.Context, userID string) ([]models.Habit, error)
	UpdateHabit(ctx context.Context, h models.Habit) error
	// DeleteHabit removes the habit and its completion events.
	DeleteHabit(ctx context.Context, id string) error
}

// LikeCount is the number of likes on a post.
type LikeCount struct {
	PostID string
	Count  int
}

// EngagementStore is the relational system of record for posts, likes and
// comments.
type EngagementStore interface {
	AddPost(ctx context.Context, p models.Post) error
	GetPost(ctx context.Context, id string) (models.Post, error)
	ListPostIDs(ctx context.Context) ([]string, error)

	// InsertLike records that userID liked postID. Liking twice is a no-op.
	InsertLike(ctx context.Context, postID, userID string) error
	// DeleteLike removes the like. Removing a missing like is a no-op.
	DeleteLike(ctx context.Context, postID, userID string) error
	HasLike(ctx context.Context, postID, userID string) (bool, error)
	CountLikes(ctx context.Context, postID string) (int, error)
	ListLikers(ctx context.Context, postID string) ([]string, error)
	ListLikes(ctx context.Context) ([]models.Like, error)

	InsertComment(ctx context.Context, c models.Comment) (string, error)
	DeleteComment(ctx context.Context, id string) (models.Comment, error)
	CountComments(ctx context.Context, postID string) (int, error)
	ListComments(ctx context.Context, postID string) ([]models.Comment, error)
}

// Provider is a complete storage backend.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error
	Ping(ctx context.Context) error
	// SchemaVersion returns the highest applied migration.
	SchemaVersion() (int, error)
	// ValidateSchemaVersion fails unless the database is at the schema
	// version this build expects.
	ValidateSchemaVersion() error
	// Migrate applies pending migrations to an existing database and
	// returns how many were applied.
	Migrate(logFn func(string)) (int, error)

	LogStore
	HabitStore
	EngagementStore

	// Utils
	GetConfigPath() string
}

// Timestamp formats used when storing times as text.
const timestampLayout = time.RFC3339Nano

// FormatTime renders t for storage in UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// ParseTime parses a stored timestamp.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(timestampLayout, s)
}

// IsPostgresURL reports whether conn is a PostgreSQL URL rather than a
// SQLite file path.
func IsPostgresURL(conn string) bool {
	return strings.HasPrefix(conn, "postgres://") || strings.HasPrefix(conn, "postgresql://")
}
