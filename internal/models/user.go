package models

// User is identified solely by its id.
type User struct {
	ID int `json:"id"`
}
