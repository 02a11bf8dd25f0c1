package model

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalTask is a deferred job that auto-approves a reservation still
// pending at RunAt. Tasks are removed whenever the reservation is
// decided, updated or deleted.
type ApprovalTask struct {
	ID            uuid.UUID `json:"id"`
	ReservationID int64     `json:"reservation_id"`
	RunAt         time.Time `json:"run_at"`
	CreatedAt     time.Time `json:"created_at"`
}
