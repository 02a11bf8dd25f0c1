package model

// User is the authenticated principal handed to the engine by the
// surrounding layer. Admin grants the administrative override on
// permission-gated operations.
type User struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	PersonCode *int64 `json:"person_code"`
	Admin      bool   `json:"admin"`
}
