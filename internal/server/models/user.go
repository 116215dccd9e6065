// Package models defines the Hub's persisted entities. Every owner-scoped
// entity carries the owning user's id in UserID.
package models

import "time"

type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
