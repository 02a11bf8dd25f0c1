package service

import (
	"context"
	"fmt"
	"time"

	"github.com/campusrooms/reserve/internal/model"
	"github.com/campusrooms/reserve/internal/timeslot"
)

// ConflictDetector finds time overlaps between a candidate booking and
// the room's existing non-rejected reservations.
type ConflictDetector struct {
	reservations ReservationStore
}

func NewConflictDetector(reservations ReservationStore) *ConflictDetector {
	return &ConflictDetector{reservations: reservations}
}

// Check returns the reservations overlapping the candidate, in query
// order. excludeID and excludeSiblings drop the reservation being edited
// and its own series instances.
func (d *ConflictDetector) Check(ctx context.Context, roomID int64, date time.Time, startMin, endMin int, excludeID int64, excludeSiblings []int64) ([]ConflictSummary, error) {
	existing, err := d.reservations.ListForRoomDate(ctx, roomID, date)
	if err != nil {
		return nil, fmt.Errorf("list reservations for room %d: %w", roomID, err)
	}
	candidate := timeslot.Interval{Date: timeslot.Truncate(date), StartMin: startMin, EndMin: endMin}
	return FindOverlaps(existing, candidate, excludeSet(excludeID, excludeSiblings)), nil
}

// FindOverlaps is the pure overlap pass shared by the pre-check and the
// in-transaction re-check. Rejected reservations never conflict.
func FindOverlaps(existing []*model.Reservation, candidate timeslot.Interval, exclude map[int64]bool) []ConflictSummary {
	var conflicts []ConflictSummary
	for _, r := range existing {
		if r.Status == model.ReservationStatusRejected || exclude[r.ID] {
			continue
		}
		iv := timeslot.Interval{Date: timeslot.Truncate(r.Date), StartMin: r.StartMin, EndMin: r.EndMin}
		if timeslot.Overlaps(candidate, iv) {
			conflicts = append(conflicts, ConflictSummary{ID: r.ID, Title: r.Title, StartMin: r.StartMin, EndMin: r.EndMin})
		}
	}
	return conflicts
}

func excludeSet(id int64, siblings []int64) map[int64]bool {
	set := make(map[int64]bool, len(siblings)+1)
	if id != 0 {
		set[id] = true
	}
	for _, s := range siblings {
		set[s] = true
	}
	return set
}
