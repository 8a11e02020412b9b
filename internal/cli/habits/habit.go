package habits

import (
	"context"
	"fmt"
	"strconv"

	"github.com/julianstephens/sovereign/internal/cli"
	"github.com/julianstephens/sovereign/internal/constants"
	"github.com/julianstephens/sovereign/internal/models"
)

type HabitCmd struct {
	Add      HabitAddCmd      `cmd:"" help:"Add a new habit."`
	List     HabitListCmd     `cmd:"" help:"List a user's habits with their streaks."`
	Complete HabitCompleteCmd `cmd:"" help:"Record a completion."`
	Streak   HabitStreakCmd   `cmd:"" help:"Show the current and longest streak."`
	Cadence  HabitCadenceCmd  `cmd:"" help:"Change how often a habit is due."`
	Pause    HabitPauseCmd    `cmd:"" help:"Stop accepting completions for a habit."`
	Resume   HabitResumeCmd   `cmd:"" help:"Accept completions for a paused habit again."`
	Log      HabitLogCmd      `cmd:"" help:"Show the completion log."`
	Delete   HabitDeleteCmd   `cmd:"" help:"Delete a habit and its completion log."`
}

type HabitAddCmd struct {
	Name        string `arg:"" help:"Habit name."`
	User        string `required:"" help:"Owning user."`
	Cadence     string `help:"daily, weekly or monthly." default:"daily" enum:"daily,weekly,monthly"`
	Description string `help:"Optional description."`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	cadence, err := models.ParseCadence(c.Cadence)
	if err != nil {
		return err
	}
	h, err := ctx.Habits.Create(context.Background(), c.User, c.Name, c.Description, cadence)
	if err != nil {
		return err
	}
	cli.Success(ctx.Writer(), "Added %s habit %q (%s)", h.Cadence, h.Name, h.ID)
	return nil
}

type HabitListCmd struct {
	User string `required:"" help:"User whose habits to list."`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	out := ctx.Writer()

	list, err := ctx.Habits.List(bg, c.User)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(out, "No habits found.")
		return nil
	}

	rows := make([][]string, 0, len(list))
	for _, h := range list {
		current, longest := "?", "?"
		// A failed read leaves the row marked unknown.
		if s, err := ctx.Streaks.GetStreakInfo(bg, h); err == nil {
			current, longest = strconv.Itoa(s.Current), strconv.Itoa(s.Longest)
		}
		status := "active"
		if !h.Active {
			status = "paused"
		}
		rows = append(rows, []string{h.ID, h.Name, string(h.Cadence), status, current, longest})
	}
	cli.Table(out, []string{"ID", "NAME", "CADENCE", "STATUS", "CURRENT", "LONGEST"}, rows)
	return nil
}

type HabitCompleteCmd struct {
	ID   string `arg:"" help:"Habit ID."`
	User string `required:"" help:"Completing user."`
	Note string `help:"Optional note for this completion."`
}

func (c *HabitCompleteCmd) Run(ctx *cli.Context) error {
	ev, err := ctx.Habits.Complete(context.Background(), c.ID, c.User, c.Note)
	if err != nil {
		return err
	}
	cli.Success(ctx.Writer(), "Completed at %s, streak %d", ev.CompletedAt.In(ctx.Location).Format(constants.DateFormat+" 15:04"), ev.StreakCount)
	return nil
}

type HabitStreakCmd struct {
	ID string `arg:"" help:"Habit ID."`
}

func (c *HabitStreakCmd) Run(ctx *cli.Context) error {
	s, err := ctx.Habits.Streak(context.Background(), c.ID)
	if err != nil {
		return err
	}
	out := ctx.Writer()
	fmt.Fprintf(out, "Current streak: %d\n", s.Current)
	fmt.Fprintf(out, "Longest streak: %d\n", s.Longest)
	return nil
}

type HabitCadenceCmd struct {
	ID      string `arg:"" help:"Habit ID."`
	Cadence string `arg:"" help:"daily, weekly or monthly." enum:"daily,weekly,monthly"`
	User    string `required:"" help:"Owning user."`
}

func (c *HabitCadenceCmd) Run(ctx *cli.Context) error {
	cadence, err := models.ParseCadence(c.Cadence)
	if err != nil {
		return err
	}
	h, err := ctx.Habits.SetCadence(context.Background(), c.ID, c.User, cadence)
	if err != nil {
		return err
	}
	cli.Success(ctx.Writer(), "%q is now %s", h.Name, h.Cadence)
	return nil
}

type HabitPauseCmd struct {
	ID   string `arg:"" help:"Habit ID."`
	User string `required:"" help:"Owning user."`
}

func (c *HabitPauseCmd) Run(ctx *cli.Context) error {
	h, err := ctx.Habits.SetActive(context.Background(), c.ID, c.User, false)
	if err != nil {
		return err
	}
	cli.Success(ctx.Writer(), "Paused %q", h.Name)
	return nil
}

type HabitResumeCmd struct {
	ID   string `arg:"" help:"Habit ID."`
	User string `required:"" help:"Owning user."`
}

func (c *HabitResumeCmd) Run(ctx *cli.Context) error {
	h, err := ctx.Habits.SetActive(context.Background(), c.ID, c.User, true)
	if err != nil {
		return err
	}
	cli.Success(ctx.Writer(), "Resumed %q", h.Name)
	return nil
}

type HabitLogCmd struct {
	ID    string `arg:"" help:"Habit ID."`
	Limit int    `help:"Show at most this many events (0 for all)." default:"20"`
}

func (c *HabitLogCmd) Run(ctx *cli.Context) error {
	events, err := ctx.Habits.Log(context.Background(), c.ID)
	if err != nil {
		return err
	}
	out := ctx.Writer()
	if len(events) == 0 {
		fmt.Fprintln(out, "No completions recorded.")
		return nil
	}
	if c.Limit > 0 && len(events) > c.Limit {
		events = events[:c.Limit]
	}

	rows := make([][]string, 0, len(events))
	for _, ev := range events {
		rows = append(rows, []string{
			ev.CompletedAt.In(ctx.Location).Format(constants.DateFormat + " 15:04"),
			strconv.Itoa(ev.StreakCount),
			ev.Note,
		})
	}
	cli.Table(out, []string{"COMPLETED", "STREAK", "NOTE"}, rows)
	return nil
}

type HabitDeleteCmd struct {
	ID   string `arg:"" help:"Habit ID."`
	User string `required:"" help:"Owning user."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	if err := ctx.Habits.Delete(context.Background(), c.ID, c.User); err != nil {
		return err
	}
	cli.Success(ctx.Writer(), "Deleted habit %s", c.ID)
	return nil
}
