// Package model defines the data structures shared by the store, the services
// and the HTTP layer.
package model

import "time"

// User is a registered account. PasswordHash never leaves the server: it is
// excluded from JSON.
type User struct {
	ID           int64     `json:"id"         db:"id"`
	Email        string    `json:"email"      db:"email"`
	Username     string    `json:"username"   db:"username"`
	PasswordHash string    `json:"-"          db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
