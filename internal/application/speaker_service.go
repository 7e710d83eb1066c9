package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// SpeakerRepository captures the persistence operations needed by the speaker service.
type SpeakerRepository interface {
	CreateSpeaker(ctx context.Context, speaker Speaker) (Speaker, error)
	GetSpeaker(ctx context.Context, id string) (Speaker, error)
	UpdateSpeaker(ctx context.Context, speaker Speaker) (Speaker, error)
	DeleteSpeaker(ctx context.Context, id string) error
	ListSpeakersForUser(ctx context.Context, userID string) ([]Speaker, error)
}

// UserDirectory resolves user ids when a speaker operation targets another
// user's collection.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (User, error)
}

// SpeakerService orchestrates validation, authorization, and persistence for
// speaker entries. Every owner-scoped operation confirms the target exists
// before consulting CanAct so not-found and unauthorized stay distinct.
type SpeakerService struct {
	speakers    SpeakerRepository
	users       UserDirectory
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewSpeakerService wires dependencies for the speaker service.
func NewSpeakerService(speakers SpeakerRepository, users UserDirectory, idGenerator func() string, now func() time.Time) *SpeakerService {
	return NewSpeakerServiceWithLogger(speakers, users, idGenerator, now, nil)
}

// NewSpeakerServiceWithLogger constructs a SpeakerService with a specified logger.
func NewSpeakerServiceWithLogger(speakers SpeakerRepository, users UserDirectory, idGenerator func() string, now func() time.Time, logger *slog.Logger) *SpeakerService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &SpeakerService{
		speakers:    speakers,
		users:       users,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *SpeakerService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SpeakerService", operation, attrs...)
}

// ListOwn returns all speakers owned by the principal. An empty collection
// is a valid, non-error result.
func (s *SpeakerService) ListOwn(ctx context.Context, principal Principal) ([]Speaker, error) {
	if s == nil {
		return nil, fmt.Errorf("SpeakerService is nil")
	}
	if s.speakers == nil {
		return nil, fmt.Errorf("speaker repository not configured")
	}

	speakers, err := s.speakers.ListSpeakersForUser(ctx, principal.UserID)
	if err != nil {
		s.loggerWith(ctx, "ListOwn", "principal_id", principal.UserID).
			ErrorContext(ctx, "speaker list failed", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	return speakers, nil
}

// ListForUser returns all speakers owned by the target user, for the owner
// itself or an administrator.
func (s *SpeakerService) ListForUser(ctx context.Context, principal Principal, userID string) (speakers []Speaker, err error) {
	if s == nil {
		err = fmt.Errorf("SpeakerService is nil")
		return
	}
	if s.speakers == nil || s.users == nil {
		err = fmt.Errorf("speaker service not configured")
		return
	}

	logger := s.loggerWith(ctx, "ListForUser", "principal_id", principal.UserID, "user_id", userID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "speaker list failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	var owner User
	owner, err = s.users.GetUser(ctx, userID)
	if err != nil {
		return
	}

	if !CanAct(principal, owner.ID) {
		err = ErrUnauthorized
		return
	}

	speakers, err = s.speakers.ListSpeakersForUser(ctx, owner.ID)
	return
}

// Get returns a speaker by id for its owner or an administrator.
func (s *SpeakerService) Get(ctx context.Context, principal Principal, speakerID string) (Speaker, error) {
	if s == nil {
		return Speaker{}, fmt.Errorf("SpeakerService is nil")
	}
	if s.speakers == nil {
		return Speaker{}, fmt.Errorf("speaker repository not configured")
	}

	speaker, err := s.speakers.GetSpeaker(ctx, speakerID)
	if err != nil {
		s.loggerWith(ctx, "Get", "principal_id", principal.UserID, "speaker_id", speakerID).
			ErrorContext(ctx, "speaker lookup failed", "error", err, "error_kind", ErrorKind(err))
		return Speaker{}, err
	}

	if !CanAct(principal, speaker.UserID) {
		return Speaker{}, ErrUnauthorized
	}
	return speaker, nil
}

// Create persists a new speaker for the owner. Names must be unique within a
// single owner's collection; the duplicate pre-check yields a clean conflict
// while the storage constraint covers the concurrent case.
func (s *SpeakerService) Create(ctx context.Context, params CreateSpeakerParams) (created Speaker, err error) {
	if s == nil {
		err = fmt.Errorf("SpeakerService is nil")
		return
	}
	if s.speakers == nil {
		err = fmt.Errorf("speaker repository not configured")
		return
	}

	ownerID := params.OwnerID
	if ownerID == "" {
		ownerID = params.Principal.UserID
	}

	logger := s.loggerWith(ctx, "Create", "principal_id", params.Principal.UserID, "owner_id", ownerID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "speaker creation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("speaker_id", created.ID).InfoContext(ctx, "speaker created")
	}()

	if ownerID != params.Principal.UserID {
		if s.users == nil {
			err = fmt.Errorf("user directory not configured")
			return
		}
		var owner User
		owner, err = s.users.GetUser(ctx, ownerID)
		if err != nil {
			return
		}
		if !CanAct(params.Principal, owner.ID) {
			err = ErrUnauthorized
			return
		}
	}

	name := strings.TrimSpace(params.Input.Name)
	if name == "" {
		vErr := &ValidationError{}
		vErr.add("name", "name is required")
		err = vErr
		return
	}

	var existing []Speaker
	existing, err = s.speakers.ListSpeakersForUser(ctx, ownerID)
	if err != nil {
		return
	}
	for _, speaker := range existing {
		if speaker.Name == name {
			err = ErrDuplicate
			return
		}
	}

	now := s.now()
	created, err = s.speakers.CreateSpeaker(ctx, Speaker{
		ID:        s.idGenerator(),
		UserID:    ownerID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	})
	return
}

// Update renames a speaker for its owner or an administrator.
func (s *SpeakerService) Update(ctx context.Context, params UpdateSpeakerParams) (updated Speaker, err error) {
	if s == nil {
		err = fmt.Errorf("SpeakerService is nil")
		return
	}
	if s.speakers == nil {
		err = fmt.Errorf("speaker repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "Update", "principal_id", params.Principal.UserID, "speaker_id", params.SpeakerID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "speaker update failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "speaker updated")
	}()

	var existing Speaker
	existing, err = s.speakers.GetSpeaker(ctx, params.SpeakerID)
	if err != nil {
		return
	}

	if !CanAct(params.Principal, existing.UserID) {
		err = ErrUnauthorized
		return
	}

	name := strings.TrimSpace(params.Input.Name)
	if name == "" {
		vErr := &ValidationError{}
		vErr.add("name", "name is required")
		err = vErr
		return
	}

	next := existing
	next.Name = name
	next.UpdatedAt = s.now()

	updated, err = s.speakers.UpdateSpeaker(ctx, next)
	return
}

// Delete removes a speaker for its owner or an administrator.
func (s *SpeakerService) Delete(ctx context.Context, principal Principal, speakerID string) (err error) {
	if s == nil {
		return fmt.Errorf("SpeakerService is nil")
	}
	if s.speakers == nil {
		return fmt.Errorf("speaker repository not configured")
	}

	logger := s.loggerWith(ctx, "Delete", "principal_id", principal.UserID, "speaker_id", speakerID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "speaker delete failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "speaker deleted")
	}()

	var existing Speaker
	existing, err = s.speakers.GetSpeaker(ctx, speakerID)
	if err != nil {
		return
	}

	if !CanAct(principal, existing.UserID) {
		err = ErrUnauthorized
		return
	}

	err = s.speakers.DeleteSpeaker(ctx, existing.ID)
	return
}
