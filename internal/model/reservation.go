package model

import "time"

type ReservationStatus string

const (
	ReservationStatusPending  ReservationStatus = "pending"  // waiting for a room responsible to decide
	ReservationStatusApproved ReservationStatus = "approved"
	ReservationStatusRejected ReservationStatus = "rejected"
)

type Reservation struct {
	ID          int64             `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	RoomID      int64             `json:"room_id"`
	PurposeID   int64             `json:"purpose_id"`
	RequesterID int64             `json:"requester_id"`
	Date        time.Time         `json:"date"`      // midnight UTC, date precision only
	StartMin    int               `json:"start_min"` // minutes from midnight
	EndMin      int               `json:"end_min"`
	Status      ReservationStatus `json:"status"`
	SeriesID    *int64            `json:"series_id"` // id of the first instance of a recurring series, nil for standalone
	PartyType   PartyType         `json:"party_type"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`

	// Loaded via the join table, not a column.
	Parties []*ResponsibleParty `json:"parties,omitempty"`
}
