package main

import (
	"errors"
	"testing"
	"time"

	"github.com/example/speaker-registry/internal/application"
	"github.com/example/speaker-registry/internal/persistence"
)

func TestMapStoreError(t *testing.T) {
	t.Parallel()

	passthrough := errors.New("disk full")

	cases := []struct {
		name string
		in   error
		want error
	}{
		{name: "nil stays nil", in: nil, want: nil},
		{name: "not found translates", in: persistence.ErrNotFound, want: application.ErrNotFound},
		{name: "duplicate translates", in: persistence.ErrDuplicate, want: application.ErrDuplicate},
		{name: "unknown errors pass through", in: passthrough, want: passthrough},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := mapStoreError(tc.in)
			if tc.want == nil {
				if got != nil {
					t.Fatalf("expected nil, got %v", got)
				}
				return
			}
			if !errors.Is(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestUserConversion(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	email := "alice@example.com"
	name := "Alice"
	user := application.User{
		ID:          "user-1",
		Role:        application.RoleUser,
		Username:    "alice",
		Email:       &email,
		DisplayName: &name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	model := toPersistenceUser(user, "hash:pw")
	if model.PasswordHash != "hash:pw" {
		t.Errorf("expected the hash carried, got %q", model.PasswordHash)
	}
	if model.Role != persistence.RoleUser {
		t.Errorf("unexpected role %q", model.Role)
	}

	back := toApplicationUser(model)
	if back.ID != user.ID || back.Username != user.Username {
		t.Errorf("round-trip mismatch: %#v", back)
	}
	if back.Email == nil || *back.Email != email {
		t.Errorf("expected the email preserved, got %v", back.Email)
	}
	if !back.CreatedAt.Equal(now) {
		t.Errorf("expected the timestamp preserved, got %v", back.CreatedAt)
	}
}

func TestSpeakerConversion(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	speaker := application.Speaker{ID: "speaker-1", UserID: "user-1", Name: "Queen of Hearts", CreatedAt: now, UpdatedAt: now}

	back := toApplicationSpeaker(toPersistenceSpeaker(speaker))
	if back != speaker {
		t.Errorf("round-trip mismatch: %#v", back)
	}
}
