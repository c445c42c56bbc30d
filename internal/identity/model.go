package identity

import "time"

// User represents a registered blog author.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	IsActive     bool
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Registration is the input for creating a new account.
type Registration struct {
	Username string
	Email    string
	Password string
}
