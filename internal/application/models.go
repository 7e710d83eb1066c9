package application

import "time"

// Role identifies the access level of a user account. The set is closed:
// authorization decisions branch on it only through CanAct.
type Role string

const (
	// RoleAdmin may act on any user's resources.
	RoleAdmin Role = "admin"
	// RoleUser may act only on resources it owns.
	RoleUser Role = "user"
)

// Valid reports whether the role is one of the two known variants.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
	Role   Role
}

// User represents an account exposed by the application services.
type User struct {
	ID          string
	Role        Role
	Username    string
	Email       *string
	DisplayName *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserView is a profile projection whose email field is withheld unless the
// viewer is the account owner or an administrator.
type UserView struct {
	ID          string
	Role        Role
	Username    string
	Email       *string
	DisplayName *string
}

// Token represents an issued session credential.
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

// RegisterParams captures the data required to register a new account.
type RegisterParams struct {
	Username string
	Email    string
	Password string
	Name     string
}

// AuthenticateParams captures the credentials presented at login.
// Username takes precedence; Email is consulted when Username is empty.
type AuthenticateParams struct {
	Username string
	Email    string
	Password string
}

// AuthResult carries the outcome of a successful registration or login.
type AuthResult struct {
	User  User
	Token string
}

// UserInput captures caller provided profile fields for updates.
type UserInput struct {
	Username string
	Email    string
	Name     string
}

// UpdateUserParams wraps the data required to update a user profile.
type UpdateUserParams struct {
	Principal Principal
	UserID    string
	Input     UserInput
}

// SpeakerInput captures caller provided speaker fields.
type SpeakerInput struct {
	Name string
}

// CreateSpeakerParams wraps the data required to create a speaker.
type CreateSpeakerParams struct {
	Principal Principal
	// OwnerID is the user the speaker is created for. Empty means the
	// principal itself.
	OwnerID string
	Input   SpeakerInput
}

// UpdateSpeakerParams wraps the data required to rename a speaker.
type UpdateSpeakerParams struct {
	Principal Principal
	SpeakerID string
	Input     SpeakerInput
}
