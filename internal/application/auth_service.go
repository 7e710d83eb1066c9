package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/mail"
	"strings"
	"time"
)

// Credentials bundles a user with its stored password digest.
type Credentials struct {
	User         User
	PasswordHash string
}

// CredentialStore exposes the user persistence operations required by the auth service.
type CredentialStore interface {
	CreateUser(ctx context.Context, creds Credentials) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByUsername(ctx context.Context, username string) (Credentials, error)
	GetUserByEmail(ctx context.Context, email string) (Credentials, error)
}

// TokenStore captures the persistence interactions for issued session tokens.
type TokenStore interface {
	CreateToken(ctx context.Context, token Token) (Token, error)
	GetToken(ctx context.Context, tokenString string) (Token, error)
	ListTokensForUser(ctx context.Context, userID string, limit int) ([]Token, error)
	DeleteToken(ctx context.Context, id string) error
}

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// PasswordHasher derives a storable digest from a plaintext password.
type PasswordHasher func(password string) (string, error)

// TokenGenerator produces an unguessable token string for the given user.
// Implementations may return an opaque random string or a signed payload
// carrying the user id and expiration.
type TokenGenerator func(userID string, issuedAt time.Time) (string, error)

const (
	// DefaultTokenTTL is the session expiry window.
	DefaultTokenTTL = 30 * 24 * time.Hour
	// DefaultTokenScanLimit bounds how many stored tokens a single
	// issue-or-reuse pass inspects for one user.
	DefaultTokenScanLimit = 100
)

// AuthService coordinates registration, login, and the session token
// lifecycle: issuance, reuse, and lazy expiry.
type AuthService struct {
	credentials    CredentialStore
	tokens         TokenStore
	hashPassword   PasswordHasher
	verifyPassword PasswordVerifier
	generateToken  TokenGenerator
	idGenerator    func() string
	now            func() time.Time
	tokenTTL       time.Duration
	scanLimit      int
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(credentials CredentialStore, tokens TokenStore, generate TokenGenerator, idGenerator func() string, now func() time.Time, tokenTTL time.Duration) *AuthService {
	return NewAuthServiceWithLogger(credentials, tokens, generate, idGenerator, now, tokenTTL, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(credentials CredentialStore, tokens TokenStore, generate TokenGenerator, idGenerator func() string, now func() time.Time, tokenTTL time.Duration, logger *slog.Logger) *AuthService {
	if generate == nil {
		generate = opaqueToken
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &AuthService{
		credentials:    credentials,
		tokens:         tokens,
		hashPassword:   func(password string) (string, error) { return HashPassword(password, DefaultArgon2idParams) },
		verifyPassword: VerifyPassword,
		generateToken:  generate,
		idGenerator:    idGenerator,
		now:            now,
		tokenTTL:       tokenTTL,
		scanLimit:      DefaultTokenScanLimit,
		logger:         defaultLogger(logger),
	}
}

// SetPasswordFuncs overrides the hash and verify functions, primarily for tests.
func (s *AuthService) SetPasswordFuncs(hash PasswordHasher, verify PasswordVerifier) {
	if hash != nil {
		s.hashPassword = hash
	}
	if verify != nil {
		s.verifyPassword = verify
	}
}

// SetScanLimit overrides the token page cap used by the lazy expiry sweep.
func (s *AuthService) SetScanLimit(limit int) {
	if limit > 0 {
		s.scanLimit = limit
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Register creates a new account with the user role and issues a session token.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (result AuthResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.credentials == nil {
		err = fmt.Errorf("credential store not configured")
		return
	}

	username := strings.TrimSpace(params.Username)
	email := normalizeEmail(params.Email)

	logger := s.loggerWith(ctx, "Register", "username", username)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "registration failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", result.User.ID).InfoContext(ctx, "user registered")
	}()

	vErr := &ValidationError{}
	if username == "" {
		vErr.add("username", "username is required")
	}
	if params.Password == "" {
		vErr.add("password", "password is required")
	}
	if email != "" {
		if _, mailErr := mail.ParseAddress(email); mailErr != nil {
			vErr.add("email", "email is invalid")
		}
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if err = s.ensureIdentityFree(ctx, "", username, email); err != nil {
		return
	}

	var hash string
	hash, err = s.hashPassword(params.Password)
	if err != nil {
		return
	}

	now := s.now()
	user := User{
		ID:        s.idGenerator(),
		Role:      RoleUser,
		Username:  username,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if email != "" {
		user.Email = &email
	}
	if name := strings.TrimSpace(params.Name); name != "" {
		user.DisplayName = &name
	}

	var persisted User
	persisted, err = s.credentials.CreateUser(ctx, Credentials{User: user, PasswordHash: hash})
	if err != nil {
		return
	}

	var token string
	token, err = s.IssueOrReuseToken(ctx, persisted.ID)
	if err != nil {
		return
	}

	result = AuthResult{User: persisted, Token: token}
	return
}

// Authenticate validates credentials and returns a session token, reusing an
// unexpired one when available.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (result AuthResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.credentials == nil {
		err = fmt.Errorf("credential store not configured")
		return
	}

	username := strings.TrimSpace(params.Username)
	email := normalizeEmail(params.Email)

	logger := s.loggerWith(ctx, "Authenticate", "username", username)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", result.User.ID).InfoContext(ctx, "authentication succeeded")
	}()

	vErr := &ValidationError{}
	if username == "" && email == "" {
		vErr.add("username", "username or email is required")
	}
	if params.Password == "" {
		vErr.add("password", "password is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var creds Credentials
	if username != "" {
		creds, err = s.credentials.GetUserByUsername(ctx, username)
	} else {
		creds, err = s.credentials.GetUserByEmail(ctx, email)
	}
	if err != nil {
		return
	}

	if err = s.verifyPassword(creds.PasswordHash, params.Password); err != nil {
		err = ErrInvalidCredentials
		return
	}

	var token string
	token, err = s.IssueOrReuseToken(ctx, creds.User.ID)
	if err != nil {
		return
	}

	result = AuthResult{User: creds.User, Token: token}
	return
}

// IssueOrReuseToken returns a valid bearer token string for the user,
// reusing the first unexpired stored token and minting a new one only when
// none survives. Tokens discovered past the expiry window during the scan
// are deleted as a side effect; the sweep is bounded by the scan limit and
// scoped to this user only.
func (s *AuthService) IssueOrReuseToken(ctx context.Context, userID string) (token string, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.tokens == nil {
		err = fmt.Errorf("token store not configured")
		return
	}

	logger := s.loggerWith(ctx, "IssueOrReuseToken", "user_id", userID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "token issuance failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	var stored []Token
	stored, err = s.tokens.ListTokensForUser(ctx, userID, s.scanLimit)
	if err != nil {
		return
	}

	now := s.now()
	reuse := ""
	swept := 0
	for _, candidate := range stored {
		if now.Sub(candidate.IssuedAt) > s.tokenTTL {
			if delErr := s.tokens.DeleteToken(ctx, candidate.ID); delErr != nil {
				logger.ErrorContext(ctx, "failed to delete expired token", "token_id", candidate.ID, "error", delErr)
			} else {
				swept++
			}
			continue
		}
		if reuse == "" {
			reuse = candidate.Token
		}
	}
	if swept > 0 {
		logger.InfoContext(ctx, "expired tokens swept", "count", swept)
	}

	if reuse != "" {
		token = reuse
		return
	}

	var minted string
	minted, err = s.generateToken(userID, now)
	if err != nil {
		return
	}

	if _, err = s.tokens.CreateToken(ctx, Token{
		ID:       s.idGenerator(),
		UserID:   userID,
		Token:    minted,
		IssuedAt: now,
	}); err != nil {
		return
	}

	logger.InfoContext(ctx, "token minted")
	token = minted
	return
}

// ValidateToken resolves a bearer token string into an authenticated
// principal. The expiry check runs before the owning user is resolved so an
// expired token can never yield a principal, even transiently. Orphaned
// tokens are treated as invalid rather than purged here; removal is the lazy
// sweep's responsibility.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (principal Principal, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.tokens == nil {
		err = fmt.Errorf("token store not configured")
		return
	}
	if s.credentials == nil {
		err = fmt.Errorf("credential store not configured")
		return
	}

	trimmed := strings.TrimSpace(tokenString)
	logger := s.loggerWith(ctx, "ValidateToken", "token_provided", trimmed != "")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "token validation failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if trimmed == "" {
		err = ErrInvalidToken
		return
	}

	var stored Token
	stored, err = s.tokens.GetToken(ctx, trimmed)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrInvalidToken
		}
		return
	}

	if s.now().Sub(stored.IssuedAt) > s.tokenTTL {
		err = ErrTokenExpired
		return
	}

	var user User
	user, err = s.credentials.GetUser(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrInvalidToken
		}
		return
	}

	principal = Principal{UserID: user.ID, Role: user.Role}
	return
}

// EnsureAdmin creates an administrator account when no user with the given
// username exists. It is invoked once at startup from configuration.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.credentials == nil {
		return fmt.Errorf("credential store not configured")
	}

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil
	}

	logger := s.loggerWith(ctx, "EnsureAdmin", "username", username)

	if _, err := s.credentials.GetUserByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return err
	}

	now := s.now()
	admin := User{
		ID:        s.idGenerator(),
		Role:      RoleAdmin,
		Username:  username,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := s.credentials.CreateUser(ctx, Credentials{User: admin, PasswordHash: hash}); err != nil {
		return err
	}

	logger.InfoContext(ctx, "administrator account seeded")
	return nil
}

// ensureIdentityFree pre-checks username and email uniqueness, ignoring the
// record identified by selfID. The storage constraint remains the real
// invariant guard against concurrent identical requests.
func (s *AuthService) ensureIdentityFree(ctx context.Context, selfID, username, email string) error {
	if username != "" {
		existing, err := s.credentials.GetUserByUsername(ctx, username)
		switch {
		case err == nil:
			if existing.User.ID != selfID {
				return ErrDuplicate
			}
		case !errors.Is(err, ErrNotFound):
			return err
		}
	}
	if email != "" {
		existing, err := s.credentials.GetUserByEmail(ctx, email)
		switch {
		case err == nil:
			if existing.User.ID != selfID {
				return ErrDuplicate
			}
		case !errors.Is(err, ErrNotFound):
			return err
		}
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// opaqueToken is the fallback generator: 32 bytes of hex-encoded randomness.
func opaqueToken(_ string, _ time.Time) (string, error) {
	buf := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
