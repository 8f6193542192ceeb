// Package model defines domain entities for the application.
package model

import "time"

// User is the owner of kittens. Users are provisioned outside the HTTP API
// and are read-only from the API's point of view.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
