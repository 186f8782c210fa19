package models

import "time"

// Column limits enforced at registration; the users table matches.
const (
	UsernameMaxLen = 50
	EmailMaxLen    = 255
	FullNameMaxLen = 100
)

type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
