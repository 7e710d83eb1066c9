// Package testfixtures holds deterministic clocks, identifier generators and
// entity builders shared across the test suites.
package testfixtures

import (
	"time"

	"github.com/example/speaker-registry/internal/application"
)

// ReferenceTime is the instant fixtures are anchored to.
func ReferenceTime() time.Time {
	return time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
}

// StringPtr returns a pointer to the supplied string.
func StringPtr(s string) *string {
	return &s
}

// AdminUser returns a user with the administrator role.
func AdminUser(id string) application.User {
	now := ReferenceTime()
	return application.User{
		ID:        id,
		Role:      application.RoleAdmin,
		Username:  "admin-" + id,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RegularUser returns a user with the regular role.
func RegularUser(id string) application.User {
	now := ReferenceTime()
	return application.User{
		ID:        id,
		Role:      application.RoleUser,
		Username:  "user-" + id,
		Email:     StringPtr("user-" + id + "@example.com"),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Speaker returns a speaker owned by the supplied user.
func Speaker(id, ownerID, name string) application.Speaker {
	now := ReferenceTime()
	return application.Speaker{
		ID:        id,
		UserID:    ownerID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Token returns a session token issued at the reference time.
func Token(id, userID, value string) application.Token {
	return application.Token{
		ID:       id,
		UserID:   userID,
		Token:    value,
		IssuedAt: ReferenceTime(),
	}
}
