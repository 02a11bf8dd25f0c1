package model

type Purpose struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
