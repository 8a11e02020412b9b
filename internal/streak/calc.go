package streak

import (
	"errors"
	"sort"
	"time"

	"github.com/julianstephens/sovereign/internal/models"
)

// Result holds the two streak figures of a habit.
type Result struct {
	Current int
	Longest int
}

// Compute derives the current and longest streak of events for cadence, with
// "today" taken from now in loc. Events may be in any order; events without a
// timestamp are ignored.
//
// An unrecognized cadence falls back to the streak annotations stored on the
// events themselves: the newest event's count is the current streak and the
// largest count is the longest.
func Compute(cadence models.Cadence, events []models.CompletionEvent, now time.Time, loc *time.Location) Result {
	if loc == nil {
		loc = time.UTC
	}
	periodOf, err := periodFor(cadence)
	if errors.Is(err, models.ErrInvalidCadence) {
		return fromAnnotations(events)
	}

	seen := make(map[Period]struct{}, len(events))
	periods := make([]Period, 0, len(events))
	for _, ev := range events {
		if ev.CompletedAt.IsZero() {
			continue
		}
		p := periodOf(ev.CompletedAt, loc)
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i] > periods[j] })

	res := Result{
		Current: currentRun(periods, periodOf(now, loc)),
		Longest: longestRun(periods),
	}
	if res.Longest < res.Current {
		res.Longest = res.Current
	}
	return res
}

// currentRun walks distinct periods, newest first, from today. The cursor
// period is accepted, as is one period newer than the cursor. Until something
// has been counted the period before today is accepted too, since today is
// still open. The first gap ends the run. Periods more than one ahead of
// today are skipped.
func currentRun(desc []Period, today Period) int {
	cursor := today
	count := 0
	for _, p := range desc {
		if count == 0 && p > today+1 {
			continue
		}
		accept := p == cursor || p == cursor+1 || (count == 0 && p == cursor-1)
		if !accept {
			break
		}
		count++
		cursor = p - 1
	}
	return count
}

// longestRun returns the longest run of adjacent periods in desc.
func longestRun(desc []Period) int {
	if len(desc) == 0 {
		return 0
	}
	best, run := 1, 1
	for i := len(desc) - 2; i >= 0; i-- {
		if desc[i] == desc[i+1]+1 {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}

func fromAnnotations(events []models.CompletionEvent) Result {
	var newest *models.CompletionEvent
	var res Result
	for i := range events {
		ev := &events[i]
		if ev.CompletedAt.IsZero() {
			continue
		}
		if newest == nil || ev.CompletedAt.After(newest.CompletedAt) {
			newest = ev
		}
		if ev.StreakCount > res.Longest {
			res.Longest = ev.StreakCount
		}
	}
	if newest != nil && newest.StreakCount > 0 {
		res.Current = newest.StreakCount
	}
	if res.Longest < res.Current {
		res.Longest = res.Current
	}
	return res
}

// Annotate returns the streak count to record on a completion at "at",
// given the habit's earlier events: the current streak including the new
// completion.
func Annotate(cadence models.Cadence, prior []models.CompletionEvent, at time.Time, loc *time.Location) int {
	if _, err := periodFor(cadence); err != nil {
		return fromAnnotations(prior).Current + 1
	}
	events := make([]models.CompletionEvent, len(prior), len(prior)+1)
	copy(events, prior)
	events = append(events, models.CompletionEvent{CompletedAt: at})
	return Compute(cadence, events, at, loc).Current
}
