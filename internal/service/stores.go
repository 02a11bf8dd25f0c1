package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/campusrooms/reserve/internal/model"
)

// The services depend on these narrow store interfaces. The pgx
// repositories in internal/repository satisfy them in production; the
// tests use in-memory fakes. Get methods return (nil, nil) when the row
// does not exist.

type RoomStore interface {
	// GetByID loads a room with its restriction policy and responsible
	// user ids.
	GetByID(ctx context.Context, id int64) (*model.Room, error)
}

type PurposeStore interface {
	GetByID(ctx context.Context, id int64) (*model.Purpose, error)
}

type AcademicPeriodStore interface {
	GetByID(ctx context.Context, id int64) (*model.AcademicPeriod, error)
}

type ReservationStore interface {
	GetByID(ctx context.Context, id int64) (*model.Reservation, error)
	// ListForRoomDate returns the room's non-rejected reservations for a
	// date, ordered by start time.
	ListForRoomDate(ctx context.Context, roomID int64, date time.Time) ([]*model.Reservation, error)
	// ListSeries returns every instance sharing a series id, ordered by date.
	ListSeries(ctx context.Context, seriesID int64) ([]*model.Reservation, error)
	ListForRequester(ctx context.Context, requesterID int64) ([]*model.Reservation, error)
	Update(ctx context.Context, r *model.Reservation) error
	// Begin opens the transaction the multi-row write paths run in.
	Begin(ctx context.Context) (ReservationTx, error)
}

// ReservationTx is the write side of a single atomic admission,
// approval or deletion. Rollback after Commit is a no-op.
type ReservationTx interface {
	// ListForRoomDateLocked is ListForRoomDate plus row locks, so the
	// overlap re-check and the insert that follows are race-free.
	ListForRoomDateLocked(ctx context.Context, roomID int64, date time.Time) ([]*model.Reservation, error)
	Create(ctx context.Context, r *model.Reservation) error
	SetSeries(ctx context.Context, ids []int64, seriesID int64) error
	UpdateStatus(ctx context.Context, id int64, status model.ReservationStatus) error
	Delete(ctx context.Context, id int64) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type PartyStore interface {
	// GetOrCreate deduplicates parties by (name, code).
	GetOrCreate(ctx context.Context, name string, code *int64) (*model.ResponsibleParty, error)
	// SyncParties replaces the reservation's attached party set.
	SyncParties(ctx context.Context, reservationID int64, partyIDs []int64) error
}

type TaskStore interface {
	Schedule(ctx context.Context, task *model.ApprovalTask) error
	DeleteForReservation(ctx context.Context, reservationID int64) error
	// Due returns tasks whose RunAt is not after now, oldest first.
	Due(ctx context.Context, now time.Time) ([]*model.ApprovalTask, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Directory resolves a person code to a display name. Lookups are best
// effort; failures fall back to a placeholder.
type Directory interface {
	LookupName(ctx context.Context, code int64) (string, error)
}
