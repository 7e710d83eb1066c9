package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type credentialStoreStub struct {
	users     map[string]Credentials
	createErr error
	created   []Credentials
}

func newCredentialStoreStub(users ...Credentials) *credentialStoreStub {
	stub := &credentialStoreStub{users: make(map[string]Credentials)}
	for _, creds := range users {
		stub.users[creds.User.ID] = creds
	}
	return stub
}

func (s *credentialStoreStub) CreateUser(_ context.Context, creds Credentials) (User, error) {
	if s.createErr != nil {
		return User{}, s.createErr
	}
	s.users[creds.User.ID] = creds
	s.created = append(s.created, creds)
	return creds.User, nil
}

func (s *credentialStoreStub) GetUser(_ context.Context, id string) (User, error) {
	creds, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return creds.User, nil
}

func (s *credentialStoreStub) GetUserByUsername(_ context.Context, username string) (Credentials, error) {
	for _, creds := range s.users {
		if creds.User.Username == username {
			return creds, nil
		}
	}
	return Credentials{}, ErrNotFound
}

func (s *credentialStoreStub) GetUserByEmail(_ context.Context, email string) (Credentials, error) {
	for _, creds := range s.users {
		if creds.User.Email != nil && *creds.User.Email == email {
			return creds, nil
		}
	}
	return Credentials{}, ErrNotFound
}

type tokenStoreStub struct {
	tokens     []Token
	createErr  error
	listErr    error
	deleteErr  error
	created    []Token
	deleted    []string
	listLimits []int
}

func (s *tokenStoreStub) CreateToken(_ context.Context, token Token) (Token, error) {
	if s.createErr != nil {
		return Token{}, s.createErr
	}
	s.tokens = append(s.tokens, token)
	s.created = append(s.created, token)
	return token, nil
}

func (s *tokenStoreStub) GetToken(_ context.Context, tokenString string) (Token, error) {
	for _, token := range s.tokens {
		if token.Token == tokenString {
			return token, nil
		}
	}
	return Token{}, ErrNotFound
}

func (s *tokenStoreStub) ListTokensForUser(_ context.Context, userID string, limit int) ([]Token, error) {
	s.listLimits = append(s.listLimits, limit)
	if s.listErr != nil {
		return nil, s.listErr
	}
	matched := make([]Token, 0, len(s.tokens))
	for _, token := range s.tokens {
		if token.UserID != userID {
			continue
		}
		matched = append(matched, token)
		if limit > 0 && len(matched) == limit {
			break
		}
	}
	return matched, nil
}

func (s *tokenStoreStub) DeleteToken(_ context.Context, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, id)
	remaining := s.tokens[:0]
	for _, token := range s.tokens {
		if token.ID != id {
			remaining = append(remaining, token)
		}
	}
	s.tokens = remaining
	return nil
}

func plainPasswordFuncs(svc *AuthService) {
	svc.SetPasswordFuncs(
		func(password string) (string, error) { return "hash:" + password, nil },
		func(hashedPassword, password string) error {
			if hashedPassword != "hash:"+password {
				return ErrInvalidCredentials
			}
			return nil
		},
	)
}

func sequentialIDs(prefix string) func() string {
	next := 0
	return func() string {
		next++
		return fmt.Sprintf("%s-%d", prefix, next)
	}
}

func newTestAuthService(creds CredentialStore, tokens TokenStore, now time.Time) *AuthService {
	svc := NewAuthService(creds, tokens, func(userID string, _ time.Time) (string, error) {
		return "minted-" + userID, nil
	}, sequentialIDs("id"), func() time.Time { return now }, DefaultTokenTTL)
	plainPasswordFuncs(svc)
	return svc
}

func TestAuthService_Register(t *testing.T) {
	t.Parallel()

	t.Run("creates a regular user and issues a token", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
		creds := newCredentialStoreStub()
		tokens := &tokenStoreStub{}
		svc := newTestAuthService(creds, tokens, now)

		result, err := svc.Register(context.Background(), RegisterParams{
			Username: " alice ",
			Email:    " Alice@Example.COM ",
			Password: "s3cret",
			Name:     "Alice",
		})
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}

		if result.User.Username != "alice" {
			t.Errorf("expected trimmed username, got %q", result.User.Username)
		}
		if result.User.Role != RoleUser {
			t.Errorf("expected regular role, got %q", result.User.Role)
		}
		if result.User.Email == nil || *result.User.Email != "alice@example.com" {
			t.Errorf("expected normalized email, got %v", result.User.Email)
		}
		if result.Token != "minted-"+result.User.ID {
			t.Errorf("expected freshly minted token, got %q", result.Token)
		}
		if len(creds.created) != 1 || creds.created[0].PasswordHash != "hash:s3cret" {
			t.Errorf("expected hashed password to be stored, got %#v", creds.created)
		}
	})

	t.Run("rejects a taken username", func(t *testing.T) {
		t.Parallel()

		existing := Credentials{User: User{ID: "user-1", Username: "alice"}, PasswordHash: "hash:x"}
		svc := newTestAuthService(newCredentialStoreStub(existing), &tokenStoreStub{}, time.Now())

		_, err := svc.Register(context.Background(), RegisterParams{Username: "alice", Password: "pw"})
		if !errors.Is(err, ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("rejects a taken email", func(t *testing.T) {
		t.Parallel()

		email := "alice@example.com"
		existing := Credentials{User: User{ID: "user-1", Username: "alice", Email: &email}, PasswordHash: "hash:x"}
		svc := newTestAuthService(newCredentialStoreStub(existing), &tokenStoreStub{}, time.Now())

		_, err := svc.Register(context.Background(), RegisterParams{Username: "bob", Email: "ALICE@example.com", Password: "pw"})
		if !errors.Is(err, ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("aggregates validation failures", func(t *testing.T) {
		t.Parallel()

		svc := newTestAuthService(newCredentialStoreStub(), &tokenStoreStub{}, time.Now())

		_, err := svc.Register(context.Background(), RegisterParams{Email: "not-an-address"})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"username", "password", "email"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Errorf("expected field error for %q, got %v", field, vErr.FieldErrors)
			}
		}
	})
}

func TestAuthService_Authenticate(t *testing.T) {
	t.Parallel()

	email := "alice@example.com"
	alice := Credentials{
		User:         User{ID: "user-1", Role: RoleUser, Username: "alice", Email: &email},
		PasswordHash: "hash:s3cret",
	}

	t.Run("issues a token for a valid username and password", func(t *testing.T) {
		t.Parallel()

		tokens := &tokenStoreStub{}
		svc := newTestAuthService(newCredentialStoreStub(alice), tokens, time.Now())

		result, err := svc.Authenticate(context.Background(), AuthenticateParams{Username: "alice", Password: "s3cret"})
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if result.Token != "minted-user-1" {
			t.Errorf("expected minted token, got %q", result.Token)
		}
		if result.User.ID != "user-1" {
			t.Errorf("expected authenticated user, got %#v", result.User)
		}
	})

	t.Run("falls back to email lookup when no username is given", func(t *testing.T) {
		t.Parallel()

		svc := newTestAuthService(newCredentialStoreStub(alice), &tokenStoreStub{}, time.Now())

		result, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "Alice@Example.com", Password: "s3cret"})
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if result.User.ID != "user-1" {
			t.Errorf("expected email lookup to find the user, got %#v", result.User)
		}
	})

	t.Run("reports unknown accounts as not found", func(t *testing.T) {
		t.Parallel()

		svc := newTestAuthService(newCredentialStoreStub(), &tokenStoreStub{}, time.Now())

		_, err := svc.Authenticate(context.Background(), AuthenticateParams{Username: "ghost", Password: "pw"})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("rejects a wrong password with the credentials sentinel", func(t *testing.T) {
		t.Parallel()

		svc := newTestAuthService(newCredentialStoreStub(alice), &tokenStoreStub{}, time.Now())

		_, err := svc.Authenticate(context.Background(), AuthenticateParams{Username: "alice", Password: "wrong"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("requires a password and an identifier", func(t *testing.T) {
		t.Parallel()

		svc := newTestAuthService(newCredentialStoreStub(alice), &tokenStoreStub{}, time.Now())

		_, err := svc.Authenticate(context.Background(), AuthenticateParams{})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}

func TestAuthService_IssueOrReuseToken(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("reuses the oldest unexpired token", func(t *testing.T) {
		t.Parallel()

		tokens := &tokenStoreStub{tokens: []Token{
			{ID: "t-1", UserID: "user-1", Token: "existing-a", IssuedAt: now.Add(-48 * time.Hour)},
			{ID: "t-2", UserID: "user-1", Token: "existing-b", IssuedAt: now.Add(-time.Hour)},
		}}
		svc := newTestAuthService(newCredentialStoreStub(), tokens, now)

		token, err := svc.IssueOrReuseToken(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("IssueOrReuseToken failed: %v", err)
		}
		if token != "existing-a" {
			t.Errorf("expected the first stored token to be reused, got %q", token)
		}
		if len(tokens.created) != 0 {
			t.Errorf("expected no new token, got %#v", tokens.created)
		}
	})

	t.Run("deletes expired tokens encountered during the scan", func(t *testing.T) {
		t.Parallel()

		tokens := &tokenStoreStub{tokens: []Token{
			{ID: "t-old", UserID: "user-1", Token: "stale", IssuedAt: now.Add(-31 * 24 * time.Hour)},
			{ID: "t-live", UserID: "user-1", Token: "fresh", IssuedAt: now.Add(-time.Hour)},
		}}
		svc := newTestAuthService(newCredentialStoreStub(), tokens, now)

		token, err := svc.IssueOrReuseToken(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("IssueOrReuseToken failed: %v", err)
		}
		if token != "fresh" {
			t.Errorf("expected the surviving token, got %q", token)
		}
		if len(tokens.deleted) != 1 || tokens.deleted[0] != "t-old" {
			t.Errorf("expected the stale token to be deleted, got %v", tokens.deleted)
		}
	})

	t.Run("mints a new token when every stored one has expired", func(t *testing.T) {
		t.Parallel()

		tokens := &tokenStoreStub{tokens: []Token{
			{ID: "t-old", UserID: "user-1", Token: "stale", IssuedAt: now.Add(-40 * 24 * time.Hour)},
		}}
		svc := newTestAuthService(newCredentialStoreStub(), tokens, now)

		token, err := svc.IssueOrReuseToken(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("IssueOrReuseToken failed: %v", err)
		}
		if token != "minted-user-1" {
			t.Errorf("expected a minted token, got %q", token)
		}
		if len(tokens.created) != 1 || tokens.created[0].IssuedAt != now {
			t.Errorf("expected the new token stored with the issue time, got %#v", tokens.created)
		}
	})

	t.Run("keeps a token issued exactly at the window boundary", func(t *testing.T) {
		t.Parallel()

		tokens := &tokenStoreStub{tokens: []Token{
			{ID: "t-edge", UserID: "user-1", Token: "edge", IssuedAt: now.Add(-DefaultTokenTTL)},
		}}
		svc := newTestAuthService(newCredentialStoreStub(), tokens, now)

		token, err := svc.IssueOrReuseToken(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("IssueOrReuseToken failed: %v", err)
		}
		if token != "edge" {
			t.Errorf("expected boundary token to survive, got %q", token)
		}
		if len(tokens.deleted) != 0 {
			t.Errorf("expected no deletions, got %v", tokens.deleted)
		}
	})

	t.Run("bounds the scan by the configured limit", func(t *testing.T) {
		t.Parallel()

		tokens := &tokenStoreStub{}
		svc := newTestAuthService(newCredentialStoreStub(), tokens, now)
		svc.SetScanLimit(7)

		if _, err := svc.IssueOrReuseToken(context.Background(), "user-1"); err != nil {
			t.Fatalf("IssueOrReuseToken failed: %v", err)
		}
		if len(tokens.listLimits) != 1 || tokens.listLimits[0] != 7 {
			t.Errorf("expected list limited to 7, got %v", tokens.listLimits)
		}
	})

	t.Run("continues the sweep when a delete fails", func(t *testing.T) {
		t.Parallel()

		tokens := &tokenStoreStub{
			tokens: []Token{
				{ID: "t-old", UserID: "user-1", Token: "stale", IssuedAt: now.Add(-31 * 24 * time.Hour)},
				{ID: "t-live", UserID: "user-1", Token: "fresh", IssuedAt: now.Add(-time.Hour)},
			},
			deleteErr: errors.New("delete failed"),
		}
		svc := newTestAuthService(newCredentialStoreStub(), tokens, now)

		token, err := svc.IssueOrReuseToken(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("expected sweep failure to be non-fatal, got %v", err)
		}
		if token != "fresh" {
			t.Errorf("expected the surviving token, got %q", token)
		}
	})
}

func TestAuthService_ValidateToken(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	admin := Credentials{User: User{ID: "admin-1", Role: RoleAdmin, Username: "root"}, PasswordHash: "hash:x"}

	t.Run("resolves a stored token into a principal", func(t *testing.T) {
		t.Parallel()

		tokens := &tokenStoreStub{tokens: []Token{
			{ID: "t-1", UserID: "admin-1", Token: "bearer-value", IssuedAt: now.Add(-time.Hour)},
		}}
		svc := newTestAuthService(newCredentialStoreStub(admin), tokens, now)

		principal, err := svc.ValidateToken(context.Background(), " bearer-value ")
		if err != nil {
			t.Fatalf("ValidateToken failed: %v", err)
		}
		if principal.UserID != "admin-1" || principal.Role != RoleAdmin {
			t.Errorf("unexpected principal %#v", principal)
		}
	})

	t.Run("treats unknown tokens as invalid", func(t *testing.T) {
		t.Parallel()

		svc := newTestAuthService(newCredentialStoreStub(admin), &tokenStoreStub{}, now)

		_, err := svc.ValidateToken(context.Background(), "missing")
		if !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("rejects an expired token before resolving its owner", func(t *testing.T) {
		t.Parallel()

		tokens := &tokenStoreStub{tokens: []Token{
			{ID: "t-1", UserID: "ghost", Token: "stale", IssuedAt: now.Add(-31 * 24 * time.Hour)},
		}}
		svc := newTestAuthService(newCredentialStoreStub(), tokens, now)

		_, err := svc.ValidateToken(context.Background(), "stale")
		if !errors.Is(err, ErrTokenExpired) {
			t.Fatalf("expected ErrTokenExpired, got %v", err)
		}
	})

	t.Run("treats an orphaned token as invalid", func(t *testing.T) {
		t.Parallel()

		tokens := &tokenStoreStub{tokens: []Token{
			{ID: "t-1", UserID: "ghost", Token: "orphan", IssuedAt: now.Add(-time.Hour)},
		}}
		svc := newTestAuthService(newCredentialStoreStub(), tokens, now)

		_, err := svc.ValidateToken(context.Background(), "orphan")
		if !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("rejects a blank token", func(t *testing.T) {
		t.Parallel()

		svc := newTestAuthService(newCredentialStoreStub(admin), &tokenStoreStub{}, now)

		_, err := svc.ValidateToken(context.Background(), "   ")
		if !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	t.Parallel()

	t.Run("seeds an administrator when the username is free", func(t *testing.T) {
		t.Parallel()

		creds := newCredentialStoreStub()
		svc := newTestAuthService(creds, &tokenStoreStub{}, time.Now())

		if err := svc.EnsureAdmin(context.Background(), "root", "pw"); err != nil {
			t.Fatalf("EnsureAdmin failed: %v", err)
		}
		if len(creds.created) != 1 {
			t.Fatalf("expected one account created, got %d", len(creds.created))
		}
		if creds.created[0].User.Role != RoleAdmin {
			t.Errorf("expected administrator role, got %q", creds.created[0].User.Role)
		}
	})

	t.Run("leaves an existing account untouched", func(t *testing.T) {
		t.Parallel()

		existing := Credentials{User: User{ID: "user-1", Username: "root", Role: RoleUser}, PasswordHash: "hash:x"}
		creds := newCredentialStoreStub(existing)
		svc := newTestAuthService(creds, &tokenStoreStub{}, time.Now())

		if err := svc.EnsureAdmin(context.Background(), "root", "pw"); err != nil {
			t.Fatalf("EnsureAdmin failed: %v", err)
		}
		if len(creds.created) != 0 {
			t.Errorf("expected no account created, got %#v", creds.created)
		}
	})

	t.Run("is a no-op without a username or password", func(t *testing.T) {
		t.Parallel()

		creds := newCredentialStoreStub()
		svc := newTestAuthService(creds, &tokenStoreStub{}, time.Now())

		if err := svc.EnsureAdmin(context.Background(), "", "pw"); err != nil {
			t.Fatalf("EnsureAdmin failed: %v", err)
		}
		if err := svc.EnsureAdmin(context.Background(), "root", ""); err != nil {
			t.Fatalf("EnsureAdmin failed: %v", err)
		}
		if len(creds.created) != 0 {
			t.Errorf("expected no account created, got %#v", creds.created)
		}
	})
}
