package models

import "time"

// User is a registered account. Only the bcrypt hash of the password is kept.
type User struct {
	ID           int64
	Username     string
	PasswordHash []byte
	CreatedAt    time.Time
}
