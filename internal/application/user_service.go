package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
)

// UserRepository captures the persistence operations needed by the user service.
type UserRepository interface {
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	UpdateUser(ctx context.Context, user User) (User, error)
}

// UserService orchestrates profile reads and self-or-admin profile updates.
type UserService struct {
	users  UserRepository
	now    func() time.Time
	logger *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserRepository, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(users, now, nil)
}

// NewUserServiceWithLogger constructs a UserService with a specified logger.
func NewUserServiceWithLogger(users UserRepository, now func() time.Time, logger *slog.Logger) *UserService {
	if now == nil {
		now = time.Now
	}
	return &UserService{users: users, now: now, logger: defaultLogger(logger)}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// Profile returns the authenticated principal's own account.
func (s *UserService) Profile(ctx context.Context, principal Principal) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}

	user, err := s.users.GetUser(ctx, principal.UserID)
	if err != nil {
		s.loggerWith(ctx, "Profile", "user_id", principal.UserID).
			ErrorContext(ctx, "profile lookup failed", "error", err, "error_kind", ErrorKind(err))
		return User{}, err
	}
	return user, nil
}

// GetUser returns a profile view of the target user. The email field is
// withheld unless the principal is the account owner or an administrator;
// email is the only gated field.
func (s *UserService) GetUser(ctx context.Context, principal Principal, userID string) (UserView, error) {
	if s == nil {
		return UserView{}, fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return UserView{}, fmt.Errorf("user repository not configured")
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		s.loggerWith(ctx, "GetUser", "user_id", userID).
			ErrorContext(ctx, "user lookup failed", "error", err, "error_kind", ErrorKind(err))
		return UserView{}, err
	}

	view := UserView{
		ID:          user.ID,
		Role:        user.Role,
		Username:    user.Username,
		DisplayName: user.DisplayName,
	}
	if CanAct(principal, user.ID) {
		view.Email = user.Email
	}
	return view, nil
}

// UpdateUser applies profile changes for the account owner or an administrator.
func (s *UserService) UpdateUser(ctx context.Context, params UpdateUserParams) (updated User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateUser", "principal_id", params.Principal.UserID, "user_id", params.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "user update failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "user updated")
	}()

	var existing User
	existing, err = s.users.GetUser(ctx, params.UserID)
	if err != nil {
		return
	}

	if !CanAct(params.Principal, existing.ID) {
		err = ErrUnauthorized
		return
	}

	username := strings.TrimSpace(params.Input.Username)
	email := normalizeEmail(params.Input.Email)
	name := strings.TrimSpace(params.Input.Name)

	vErr := &ValidationError{}
	if username == "" {
		vErr.add("username", "username is required")
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

	if err = s.ensureIdentityFree(ctx, existing.ID, username, email); err != nil {
		return
	}

	next := existing
	next.Username = username
	next.Email = nil
	if email != "" {
		next.Email = &email
	}
	next.DisplayName = nil
	if name != "" {
		next.DisplayName = &name
	}
	next.UpdatedAt = s.now()

	updated, err = s.users.UpdateUser(ctx, next)
	return
}

// ensureIdentityFree rejects usernames or emails already held by a different
// user. The storage constraint remains the backstop under concurrency.
func (s *UserService) ensureIdentityFree(ctx context.Context, selfID, username, email string) error {
	if username != "" {
		existing, err := s.users.GetUserByUsername(ctx, username)
		switch {
		case err == nil:
			if existing.ID != selfID {
				return ErrDuplicate
			}
		case !errors.Is(err, ErrNotFound):
			return err
		}
	}
	if email != "" {
		existing, err := s.users.GetUserByEmail(ctx, email)
		switch {
		case err == nil:
			if existing.ID != selfID {
				return ErrDuplicate
			}
		case !errors.Is(err, ErrNotFound):
			return err
		}
	}
	return nil
}
