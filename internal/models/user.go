package models

import "time"

// User is an account held by the development auth server.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	Verified     bool
	CreatedAt    time.Time
}
