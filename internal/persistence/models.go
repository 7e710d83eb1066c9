package persistence

import "time"

// Role identifies the access level granted to a user account.
type Role string

const (
	// RoleAdmin marks accounts that may act on any user's resources.
	RoleAdmin Role = "admin"
	// RoleUser marks regular accounts restricted to their own resources.
	RoleUser Role = "user"
)

// User represents an account record in the registry domain.
type User struct {
	ID           string
	Role         Role
	Username     string
	Email        *string
	DisplayName  *string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Token represents a session credential persisted for a user.
type Token struct {
	ID       string
	UserID   string
	Token    string
	IssuedAt time.Time
}

// Speaker represents a speaker entry owned by a user.
type Speaker struct {
	ID        string
	UserID    string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
