package application

import (
	"errors"
	"strings"
	"testing"
)

// Reduced parameters keep the derivation cheap in tests.
var testArgon2idParams = Argon2idParams{
	Memory:      8 * 1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

func TestHashPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("s3cret", testArgon2idParams)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$") {
		t.Errorf("unexpected hash format %q", hash)
	}

	again, err := HashPassword("s3cret", testArgon2idParams)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == again {
		t.Error("expected distinct salts to produce distinct digests")
	}
}

func TestVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("s3cret", testArgon2idParams)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	t.Run("accepts the original password", func(t *testing.T) {
		t.Parallel()
		if err := VerifyPassword(hash, "s3cret"); err != nil {
			t.Fatalf("VerifyPassword failed: %v", err)
		}
	})

	t.Run("rejects a wrong password with the credentials sentinel", func(t *testing.T) {
		t.Parallel()
		if err := VerifyPassword(hash, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("rejects malformed hashes", func(t *testing.T) {
		t.Parallel()
		for _, malformed := range []string{"", "plaintext", "$bcrypt$v=19$m=1,t=1,p=1$salt$hash"} {
			if err := VerifyPassword(malformed, "s3cret"); !errors.Is(err, ErrInvalidPasswordHash) {
				t.Errorf("expected ErrInvalidPasswordHash for %q, got %v", malformed, err)
			}
		}
	})

	t.Run("rejects an unsupported version", func(t *testing.T) {
		t.Parallel()
		altered := strings.Replace(hash, "$v=19$", "$v=18$", 1)
		if err := VerifyPassword(altered, "s3cret"); !errors.Is(err, ErrIncompatiblePasswordVersion) {
			t.Fatalf("expected ErrIncompatiblePasswordVersion, got %v", err)
		}
	})
}
