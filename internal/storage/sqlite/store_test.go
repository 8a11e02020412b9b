package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/sovereign/internal/models"
	"github.com/julianstephens/sovereign/internal/storage"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestInitAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sovereign.db")

	missing := NewStore(path)
	if err := missing.Load(); err == nil {
		t.Fatal("Load should fail before Init")
	}

	store := NewStore(path)
	if err := store.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	version, err := store.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if version < 1 {
		t.Errorf("expected schema version >= 1, got %d", version)
	}
	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
	store.Close()

	reopened := NewStore(path)
	if err := reopened.Load(); err != nil {
		t.Fatalf("Load after Init failed: %v", err)
	}
	defer reopened.Close()
	if reopened.GetConfigPath() != path {
		t.Errorf("GetConfigPath = %q, want %q", reopened.GetConfigPath(), path)
	}
}

func TestHabits(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	h := models.Habit{ID: "h1", UserID: "u1", Name: "Meditate", Cadence: models.CadenceDaily, Active: true}
	if err := store.AddHabit(ctx, h); err != nil {
		t.Fatalf("AddHabit failed: %v", err)
	}
	if err := store.AddHabit(ctx, models.Habit{UserID: "u2", Name: "Run", Cadence: models.CadenceWeekly}); err != nil {
		t.Fatalf("AddHabit failed: %v", err)
	}

	got, err := store.GetHabit(ctx, "h1")
	if err != nil {
		t.Fatalf("GetHabit failed: %v", err)
	}
	if got.Name != "Meditate" || got.Cadence != models.CadenceDaily || !got.Active {
		t.Errorf("unexpected habit: %+v", got)
	}

	habits, err := store.ListHabits(ctx, "u1")
	if err != nil {
		t.Fatalf("ListHabits failed: %v", err)
	}
	if len(habits) != 1 {
		t.Fatalf("expected 1 habit for u1, got %d", len(habits))
	}

	got.Cadence = models.CadenceMonthly
	got.Active = false
	if err := store.UpdateHabit(ctx, got); err != nil {
		t.Fatalf("UpdateHabit failed: %v", err)
	}
	got, _ = store.GetHabit(ctx, "h1")
	if got.Cadence != models.CadenceMonthly || got.Active {
		t.Errorf("update not persisted: %+v", got)
	}

	if _, err := store.GetHabit(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := store.UpdateHabit(ctx, models.Habit{ID: "missing"}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound on update, got %v", err)
	}
}

func TestCompletions(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	if err := store.AddHabit(ctx, models.Habit{ID: "h1", UserID: "u1", Name: "Read", Cadence: models.CadenceDaily, Active: true}); err != nil {
		t.Fatalf("AddHabit failed: %v", err)
	}

	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	for _, offset := range []int{0, 2, 1} {
		_, err := store.AppendCompletion(ctx, models.CompletionEvent{
			HabitID:     "h1",
			UserID:      "u1",
			CompletedAt: base.AddDate(0, 0, offset),
			StreakCount: offset + 1,
		})
		if err != nil {
			t.Fatalf("AppendCompletion failed: %v", err)
		}
	}

	events, err := store.ListCompletions(ctx, "h1")
	if err != nil {
		t.Fatalf("ListCompletions failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].CompletedAt.After(events[i-1].CompletedAt) {
			t.Errorf("events not newest first: %v before %v", events[i-1].CompletedAt, events[i].CompletedAt)
		}
	}
	if !events[0].CompletedAt.Equal(base.AddDate(0, 0, 2)) || events[0].StreakCount != 3 {
		t.Errorf("unexpected newest event: %+v", events[0])
	}

	empty, err := store.ListCompletions(ctx, "nobody")
	if err != nil {
		t.Fatalf("ListCompletions failed: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", empty)
	}

	if err := store.DeleteHabit(ctx, "h1"); err != nil {
		t.Fatalf("DeleteHabit failed: %v", err)
	}
	events, _ = store.ListCompletions(ctx, "h1")
	if len(events) != 0 {
		t.Errorf("expected completions to be removed with habit, got %d", len(events))
	}
	if err := store.DeleteHabit(ctx, "h1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestEngagement(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	if err := store.AddPost(ctx, models.Post{ID: "p1", UserID: "u1", Content: "day 30"}); err != nil {
		t.Fatalf("AddPost failed: %v", err)
	}
	post, err := store.GetPost(ctx, "p1")
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if post.Content != "day 30" {
		t.Errorf("unexpected post %+v", post)
	}
	if _, err := store.GetPost(ctx, "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	t.Run("likes", func(t *testing.T) {
		for _, u := range []string{"u2", "u3", "u2"} {
			if err := store.InsertLike(ctx, "p1", u); err != nil {
				t.Fatalf("InsertLike failed: %v", err)
			}
		}
		n, err := store.CountLikes(ctx, "p1")
		if err != nil {
			t.Fatalf("CountLikes failed: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 likes (duplicate ignored), got %d", n)
		}

		liked, err := store.HasLike(ctx, "p1", "u3")
		if err != nil || !liked {
			t.Errorf("HasLike(u3) = %v, %v", liked, err)
		}

		likers, err := store.ListLikers(ctx, "p1")
		if err != nil {
			t.Fatalf("ListLikers failed: %v", err)
		}
		if len(likers) != 2 || likers[0] != "u2" || likers[1] != "u3" {
			t.Errorf("unexpected likers %v", likers)
		}

		if err := store.DeleteLike(ctx, "p1", "u3"); err != nil {
			t.Fatalf("DeleteLike failed: %v", err)
		}
		if err := store.DeleteLike(ctx, "p1", "u3"); err != nil {
			t.Fatalf("DeleteLike of missing like should be a no-op: %v", err)
		}
		likes, err := store.ListLikes(ctx)
		if err != nil {
			t.Fatalf("ListLikes failed: %v", err)
		}
		if len(likes) != 1 || likes[0].UserID != "u2" {
			t.Errorf("unexpected likes %+v", likes)
		}
	})

	t.Run("comments", func(t *testing.T) {
		id, err := store.InsertComment(ctx, models.Comment{PostID: "p1", UserID: "u2", Content: "proud of you"})
		if err != nil {
			t.Fatalf("InsertComment failed: %v", err)
		}
		if _, err := store.InsertComment(ctx, models.Comment{PostID: "p1", UserID: "u3", Content: "same"}); err != nil {
			t.Fatalf("InsertComment failed: %v", err)
		}

		n, err := store.CountComments(ctx, "p1")
		if err != nil || n != 2 {
			t.Fatalf("CountComments = %d, %v", n, err)
		}

		deleted, err := store.DeleteComment(ctx, id)
		if err != nil {
			t.Fatalf("DeleteComment failed: %v", err)
		}
		if deleted.PostID != "p1" {
			t.Errorf("expected deleted comment of p1, got %+v", deleted)
		}
		if _, err := store.DeleteComment(ctx, id); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}

		comments, err := store.ListComments(ctx, "p1")
		if err != nil || len(comments) != 1 {
			t.Errorf("ListComments = %v, %v", comments, err)
		}
	})

	ids, err := store.ListPostIDs(ctx)
	if err != nil || len(ids) != 1 || ids[0] != "p1" {
		t.Errorf("ListPostIDs = %v, %v", ids, err)
	}
}
