package streak

import (
	"fmt"
	"time"

	"github.com/julianstephens/sovereign/internal/models"
	"github.com/julianstephens/sovereign/internal/utils"
)

// Period is the index of a cadence period. Consecutive periods of the same
// cadence have consecutive indexes, so adjacency is a matter of subtraction.
type Period int64

// periodFunc maps a moment to the period containing it in loc.
type periodFunc func(t time.Time, loc *time.Location) Period

const secondsPerDay = 24 * 60 * 60

// dayIndex counts calendar days since 1970-01-01 in loc.
func dayIndex(t time.Time, loc *time.Location) int64 {
	return floorDiv(utils.CivilDate(t, loc).Unix(), secondsPerDay)
}

func dailyPeriod(t time.Time, loc *time.Location) Period {
	return Period(dayIndex(t, loc))
}

// weeklyPeriod indexes ISO weeks. 1970-01-01 was a Thursday, so shifting by
// three days aligns every index boundary on a Monday.
func weeklyPeriod(t time.Time, loc *time.Location) Period {
	return Period(floorDiv(dayIndex(t, loc)+3, 7))
}

func monthlyPeriod(t time.Time, loc *time.Location) Period {
	local := t.In(loc)
	return Period(int64(local.Year())*12 + int64(local.Month()) - 1)
}

// periodFor returns the period function of a cadence.
func periodFor(c models.Cadence) (periodFunc, error) {
	switch c {
	case models.CadenceDaily:
		return dailyPeriod, nil
	case models.CadenceWeekly:
		return weeklyPeriod, nil
	case models.CadenceMonthly:
		return monthlyPeriod, nil
	default:
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidCadence, string(c))
	}
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
