// Package events publishes reservation lifecycle events to a message
// broker for downstream consumers (audit, analytics). Publishing is an
// optional collaborator: failures are logged by callers and never abort
// the originating request.
package events

import (
	"context"
	"time"
)

// Routing keys double as queue names on the default exchange.
const (
	KeyReservationCreated  = "reservation.created"
	KeyReservationApproved = "reservation.approved"
	KeyReservationRejected = "reservation.rejected"
)

// ReservationEvent is the payload for every reservation lifecycle key.
// Times are wire strings so consumers need no shared parsing code.
type ReservationEvent struct {
	ReservationID int64     `json:"reservation_id"`
	SeriesID      *int64    `json:"series_id,omitempty"`
	RoomID        int64     `json:"room_id"`
	Title         string    `json:"title"`
	Date          string    `json:"date"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	Status        string    `json:"status"`
	InstanceCount int       `json:"instance_count,omitempty"`
	ActorID       int64     `json:"actor_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher delivers one event under a routing key.
type Publisher interface {
	Publish(ctx context.Context, key string, event ReservationEvent) error
}

// Nop discards every event. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, ReservationEvent) error { return nil }
