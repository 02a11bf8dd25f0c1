package service

import (
	"fmt"
	"strings"

	"github.com/campusrooms/reserve/internal/model"
	"github.com/campusrooms/reserve/internal/rules"
	"github.com/campusrooms/reserve/internal/timeslot"
)

// ConflictSummary describes one existing reservation a candidate
// overlaps with, in query order.
type ConflictSummary struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	StartMin int    `json:"start_min"`
	EndMin   int    `json:"end_min"`
}

func (c ConflictSummary) String() string {
	return fmt.Sprintf("%s (%s-%s)", c.Title, timeslot.FormatClock(c.StartMin), timeslot.FormatClock(c.EndMin))
}

// ValidationError aggregates every violated restriction rule and every
// overlap found for a request. The engine never partially persists a
// request that carries one.
type ValidationError struct {
	Violations []rules.Violation
	Conflicts  []ConflictSummary
}

func (e *ValidationError) Error() string {
	var parts []string
	for _, v := range e.Violations {
		parts = append(parts, string(v.Code))
	}
	for _, c := range e.Conflicts {
		parts = append(parts, "conflict with "+c.String())
	}
	if len(parts) == 0 {
		return "validation failed"
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// LimitError reports a recurrence expansion over the instance cap.
type LimitError struct {
	Max int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("too many instances: recurrence expands past %d reservations", e.Max)
}

// NotFoundError reports a missing room, purpose or reservation.
type NotFoundError struct {
	Kind string
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

// TransitionError reports an approve/reject attempt on a reservation
// that is no longer pending.
type TransitionError struct {
	Current model.ReservationStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("reservation is not pending (status %s)", e.Current)
}

// PermissionError reports an operation by a principal who is neither
// entitled to it nor an administrator.
type PermissionError struct {
	Reason string
}

func (e *PermissionError) Error() string {
	return "permission denied: " + e.Reason
}
