// Package recurrence expands a recurring booking request into the
// concrete dates it covers. Expansion is pure: the same inputs always
// yield the same sequence.
package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/campusrooms/reserve/internal/timeslot"
)

// MaxInstances caps a single expansion. Requests over the cap fail whole
// before anything is persisted.
const MaxInstances = 300

// ErrTooManyInstances is returned when a request would expand past
// MaxInstances.
var ErrTooManyInstances = errors.New("recurrence: too many instances")

// Expand walks every calendar day from start to until inclusive and
// emits the dates to book. The start date itself is always the first
// instance, whether or not its weekday is selected; it anchors the
// series. Later days are emitted only when their weekday is in the set.
func Expand(start time.Time, weekdays []time.Weekday, until time.Time) ([]time.Time, error) {
	start = timeslot.Truncate(start)
	until = timeslot.Truncate(until)
	if until.Before(start) {
		return nil, fmt.Errorf("recurrence: until %s precedes start %s",
			until.Format(timeslot.DateLayout), start.Format(timeslot.DateLayout))
	}

	selected := make(map[time.Weekday]bool, len(weekdays))
	for _, wd := range weekdays {
		selected[wd] = true
	}

	dates := []time.Time{start}
	for day := start.AddDate(0, 0, 1); !day.After(until); day = day.AddDate(0, 0, 1) {
		if !selected[day.Weekday()] {
			continue
		}
		dates = append(dates, day)
		if len(dates) > MaxInstances {
			return nil, ErrTooManyInstances
		}
	}

	return dates, nil
}
