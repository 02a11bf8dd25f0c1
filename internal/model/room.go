package model

import "time"

type Room struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Capacity   int       `json:"capacity"`
	CategoryID int64     `json:"category_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Optional 1:1 restriction policy; nil means the room is unrestricted.
	Policy *RestrictionPolicy `json:"policy,omitempty"`
	// Users allowed to approve/reject reservations for this room.
	ResponsibleIDs []int64 `json:"responsible_ids,omitempty"`
}

// IsResponsible reports whether the given user may act on this room's
// pending reservations.
func (r *Room) IsResponsible(userID int64) bool {
	for _, id := range r.ResponsibleIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// RequiresApproval reports whether new reservations start out pending.
func (r *Room) RequiresApproval() bool {
	return r.Policy != nil && r.Policy.RequiresApproval
}
