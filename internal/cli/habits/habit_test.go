package habits

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/julianstephens/sovereign/internal/cli"
	"github.com/julianstephens/sovereign/internal/config"
	"github.com/julianstephens/sovereign/internal/constants"
	svc "github.com/julianstephens/sovereign/internal/habits"
)

func setupTestContext(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.Database = filepath.Join(t.TempDir(), "test.db")
	cfg.Cache.Backend = constants.CacheBackendMemory

	ctx, err := cli.NewContext(cfg)
	if err != nil {
		t.Fatalf("failed to build context: %v", err)
	}
	if err := ctx.Store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { ctx.Close() })

	var out bytes.Buffer
	ctx.Out = &out
	return ctx, &out
}

func addHabit(t *testing.T, ctx *cli.Context, name string) string {
	t.Helper()
	if err := (&HabitAddCmd{Name: name, User: "alice", Cadence: "daily"}).Run(ctx); err != nil {
		t.Fatalf("habit add failed: %v", err)
	}
	list, err := ctx.Habits.List(context.Background(), "alice")
	if err != nil {
		t.Fatalf("failed to list habits: %v", err)
	}
	for _, h := range list {
		if h.Name == name {
			return h.ID
		}
	}
	t.Fatalf("habit %q not stored", name)
	return ""
}

func TestHabitWorkflow(t *testing.T) {
	ctx, out := setupTestContext(t)
	id := addHabit(t, ctx, "Meditate")

	if err := (&HabitCompleteCmd{ID: id, User: "alice", Note: "calm"}).Run(ctx); err != nil {
		t.Fatalf("habit complete failed: %v", err)
	}
	if !strings.Contains(out.String(), "streak 1") {
		t.Errorf("completion output missing streak:\n%s", out)
	}

	out.Reset()
	if err := (&HabitStreakCmd{ID: id}).Run(ctx); err != nil {
		t.Fatalf("habit streak failed: %v", err)
	}
	if !strings.Contains(out.String(), "Current streak: 1") || !strings.Contains(out.String(), "Longest streak: 1") {
		t.Errorf("unexpected streak output:\n%s", out)
	}

	out.Reset()
	if err := (&HabitListCmd{User: "alice"}).Run(ctx); err != nil {
		t.Fatalf("habit list failed: %v", err)
	}
	if !strings.Contains(out.String(), "Meditate") || !strings.Contains(out.String(), "active") {
		t.Errorf("list output missing habit:\n%s", out)
	}

	out.Reset()
	if err := (&HabitLogCmd{ID: id, Limit: 10}).Run(ctx); err != nil {
		t.Fatalf("habit log failed: %v", err)
	}
	if !strings.Contains(out.String(), "calm") {
		t.Errorf("log output missing note:\n%s", out)
	}
}

func TestHabitPauseBlocksCompletion(t *testing.T) {
	ctx, _ := setupTestContext(t)
	id := addHabit(t, ctx, "Run")

	if err := (&HabitPauseCmd{ID: id, User: "alice"}).Run(ctx); err != nil {
		t.Fatalf("habit pause failed: %v", err)
	}
	err := (&HabitCompleteCmd{ID: id, User: "alice"}).Run(ctx)
	if !errors.Is(err, svc.ErrInactive) {
		t.Fatalf("complete on paused habit error = %v, want %v", err, svc.ErrInactive)
	}
	if err := (&HabitResumeCmd{ID: id, User: "alice"}).Run(ctx); err != nil {
		t.Fatalf("habit resume failed: %v", err)
	}
	if err := (&HabitCompleteCmd{ID: id, User: "alice"}).Run(ctx); err != nil {
		t.Fatalf("complete after resume failed: %v", err)
	}
}

func TestHabitCadenceAndDelete(t *testing.T) {
	ctx, out := setupTestContext(t)
	id := addHabit(t, ctx, "Review")

	if err := (&HabitCadenceCmd{ID: id, Cadence: "weekly", User: "alice"}).Run(ctx); err != nil {
		t.Fatalf("habit cadence failed: %v", err)
	}
	if !strings.Contains(out.String(), "weekly") {
		t.Errorf("cadence output:\n%s", out)
	}
	if err := (&HabitCadenceCmd{ID: id, Cadence: "weekly", User: "bob"}).Run(ctx); !errors.Is(err, svc.ErrNotOwner) {
		t.Errorf("cadence by another user error = %v, want %v", err, svc.ErrNotOwner)
	}

	if err := (&HabitDeleteCmd{ID: id, User: "alice"}).Run(ctx); err != nil {
		t.Fatalf("habit delete failed: %v", err)
	}
	out.Reset()
	if err := (&HabitListCmd{User: "alice"}).Run(ctx); err != nil {
		t.Fatalf("habit list failed: %v", err)
	}
	if !strings.Contains(out.String(), "No habits found.") {
		t.Errorf("deleted habit still listed:\n%s", out)
	}
}
