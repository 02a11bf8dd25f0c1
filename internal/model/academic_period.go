package model

import "time"

// AcademicPeriod is read-only reference data bounding the reservation
// window for rooms restricted to a teaching period.
type AcademicPeriod struct {
	ID               int64     `json:"id"`
	Code             string    `json:"code"`
	ReservationsFrom time.Time `json:"reservations_from"`
	ReservationsTo   time.Time `json:"reservations_to"`
}
