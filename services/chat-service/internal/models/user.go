package models

// UserSummary is the public profile of a participant, read from the users table
type UserSummary struct {
	ID       int    `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Photo    string `json:"photo"`
}
