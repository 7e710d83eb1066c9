package token

import (
	"testing"
	"time"
)

func TestSigner(t *testing.T) {
	t.Parallel()

	secret := []byte("test-secret")
	signer := NewSigner(secret, 30*24*time.Hour)

	t.Run("round-trips the user id", func(t *testing.T) {
		t.Parallel()

		minted, err := signer.Generate("user-1", time.Now())
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}

		userID, err := signer.UserID(minted)
		if err != nil {
			t.Fatalf("UserID failed: %v", err)
		}
		if userID != "user-1" {
			t.Errorf("expected user-1, got %q", userID)
		}
	})

	t.Run("produces distinct tokens for distinct issue times", func(t *testing.T) {
		t.Parallel()

		now := time.Now()
		first, err := signer.Generate("user-1", now)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		second, err := signer.Generate("user-1", now.Add(time.Second))
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if first == second {
			t.Error("expected issue time to vary the token string")
		}
	})

	t.Run("rejects a token signed with another secret", func(t *testing.T) {
		t.Parallel()

		other := NewSigner([]byte("other-secret"), time.Hour)
		minted, err := other.Generate("user-1", time.Now())
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}

		if _, err := signer.UserID(minted); err == nil {
			t.Fatal("expected a signature failure")
		}
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		t.Parallel()

		minted, err := signer.Generate("user-1", time.Now().Add(-31*24*time.Hour))
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}

		if _, err := signer.UserID(minted); err == nil {
			t.Fatal("expected an expiry failure")
		}
	})

	t.Run("rejects garbage input", func(t *testing.T) {
		t.Parallel()

		if _, err := signer.UserID("not-a-token"); err == nil {
			t.Fatal("expected a parse failure")
		}
	})
}
