// Package rules evaluates a room's restriction policy against a
// candidate booking. Every rule is a pure predicate over the policy, the
// candidate and an explicit "now"; all rules run and their violations
// accumulate so callers can report everything at once.
package rules

import (
	"time"

	"github.com/campusrooms/reserve/internal/model"
	"github.com/campusrooms/reserve/internal/timeslot"
)

// Institutional business hours. Bookings must not start before open or
// end after close.
const (
	BusinessOpenMin  = 8 * 60
	BusinessCloseMin = 22 * 60
)

// Candidate is one booking being checked: a single date plus, for
// recurring requests, the last date of the series.
type Candidate struct {
	Date     time.Time
	StartMin int
	EndMin   int
	// SeriesEnd is the zero value for standalone bookings.
	SeriesEnd time.Time
}

func (c Candidate) seriesEnd() time.Time {
	if c.SeriesEnd.IsZero() {
		return timeslot.Truncate(c.Date)
	}
	return timeslot.Truncate(c.SeriesEnd)
}

type rule func(p *model.RestrictionPolicy, period *model.AcademicPeriod, c Candidate, now time.Time) *Violation

// The fixed evaluation order. Tests pin each rule in isolation.
var all = []rule{
	blocked,
	minAdvance,
	dateCeilingAuto,
	dateCeilingFixed,
	academicPeriod,
	durationTooShort,
	durationTooLong,
	businessHours,
}

// Evaluate runs every rule and returns the accumulated violations, empty
// when the candidate passes. A nil policy passes trivially. The period is
// only consulted for academic-period policies.
func Evaluate(p *model.RestrictionPolicy, period *model.AcademicPeriod, c Candidate, now time.Time) []Violation {
	if p == nil {
		return nil
	}
	var violations []Violation
	for _, r := range all {
		if v := r(p, period, c, now); v != nil {
			violations = append(violations, *v)
		}
	}
	return violations
}

func blocked(p *model.RestrictionPolicy, _ *model.AcademicPeriod, _ Candidate, _ time.Time) *Violation {
	if !p.Blocked {
		return nil
	}
	return &Violation{Code: CodeBlocked, Reason: p.BlockReason}
}

func minAdvance(p *model.RestrictionPolicy, _ *model.AcademicPeriod, c Candidate, now time.Time) *Violation {
	if p.MinAdvanceDays <= 0 {
		return nil
	}
	today := timeslot.Truncate(now)
	daysAhead := int(timeslot.Truncate(c.Date).Sub(today) / (24 * time.Hour))
	if daysAhead >= p.MinAdvanceDays {
		return nil
	}
	return &Violation{Code: CodeMinAdvance, LimitDays: p.MinAdvanceDays}
}

func dateCeilingAuto(p *model.RestrictionPolicy, _ *model.AcademicPeriod, c Candidate, now time.Time) *Violation {
	if p.Kind != model.RestrictionKindAuto {
		return nil
	}
	limit := timeslot.Truncate(now).AddDate(0, 0, p.LimitDays)
	if !timeslot.Truncate(c.Date).After(limit) && !c.seriesEnd().After(limit) {
		return nil
	}
	return &Violation{Code: CodeDateCeilingAuto, LimitDays: p.LimitDays, LimitDate: &limit}
}

func dateCeilingFixed(p *model.RestrictionPolicy, _ *model.AcademicPeriod, c Candidate, _ time.Time) *Violation {
	if p.Kind != model.RestrictionKindFixed || p.LimitDate == nil {
		return nil
	}
	limit := timeslot.Truncate(*p.LimitDate)
	if !timeslot.Truncate(c.Date).After(limit) && !c.seriesEnd().After(limit) {
		return nil
	}
	return &Violation{Code: CodeDateCeilingFixed, LimitDate: &limit}
}

func academicPeriod(p *model.RestrictionPolicy, period *model.AcademicPeriod, c Candidate, _ time.Time) *Violation {
	if p.Kind != model.RestrictionKindAcademicPeriod || period == nil {
		return nil
	}
	from := timeslot.Truncate(period.ReservationsFrom)
	to := timeslot.Truncate(period.ReservationsTo)
	date := timeslot.Truncate(c.Date)
	if !date.Before(from) && !date.After(to) && !c.seriesEnd().After(to) {
		return nil
	}
	return &Violation{Code: CodeOutsideAcademicPeriod, LimitDate: &to}
}

func durationTooShort(p *model.RestrictionPolicy, _ *model.AcademicPeriod, c Candidate, _ time.Time) *Violation {
	if p.MinDurationMinutes <= 0 || c.EndMin-c.StartMin >= p.MinDurationMinutes {
		return nil
	}
	return &Violation{Code: CodeDurationTooShort, LimitMinutes: p.MinDurationMinutes}
}

func durationTooLong(p *model.RestrictionPolicy, _ *model.AcademicPeriod, c Candidate, _ time.Time) *Violation {
	if p.MaxDurationMinutes <= 0 || c.EndMin-c.StartMin <= p.MaxDurationMinutes {
		return nil
	}
	return &Violation{Code: CodeDurationTooLong, LimitMinutes: p.MaxDurationMinutes}
}

func businessHours(_ *model.RestrictionPolicy, _ *model.AcademicPeriod, c Candidate, _ time.Time) *Violation {
	if c.StartMin >= BusinessOpenMin && c.EndMin <= BusinessCloseMin {
		return nil
	}
	return &Violation{Code: CodeOutsideBusinessHours}
}
