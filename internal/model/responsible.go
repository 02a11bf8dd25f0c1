package model

// PartyType tells the resolver who is accountable for a reservation.
type PartyType string

const (
	PartyTypeSelf     PartyType = "self"     // the requester themselves
	PartyTypeUnit     PartyType = "unit"     // members of the organizational unit, by person code
	PartyTypeExternal PartyType = "external" // free-text external names
)

// ResponsibleParty is deduplicated by (Name, PersonCode) and shared
// across reservations through a join table.
type ResponsibleParty struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	PersonCode *int64 `json:"person_code"` // nil for external parties
}
