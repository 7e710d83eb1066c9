package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/speaker-registry/internal/application"
)

type speakerService interface {
	ListOwn(ctx context.Context, principal application.Principal) ([]application.Speaker, error)
	ListForUser(ctx context.Context, principal application.Principal, userID string) ([]application.Speaker, error)
	Get(ctx context.Context, principal application.Principal, speakerID string) (application.Speaker, error)
	Create(ctx context.Context, params application.CreateSpeakerParams) (application.Speaker, error)
	Update(ctx context.Context, params application.UpdateSpeakerParams) (application.Speaker, error)
	Delete(ctx context.Context, principal application.Principal, speakerID string) error
}

// SpeakerHandler serves the speaker CRUD endpoints.
type SpeakerHandler struct {
	service   speakerService
	responder responder
	logger    *slog.Logger
}

// NewSpeakerHandler constructs a SpeakerHandler.
func NewSpeakerHandler(service speakerService, logger *slog.Logger) *SpeakerHandler {
	base := defaultLogger(logger)
	return &SpeakerHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *SpeakerHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "SpeakerHandler", operation, attrs...)
}

// List handles GET /speakers, returning the caller's own collection.
func (h *SpeakerHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)

	speakers, err := h.service.ListOwn(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "speaker list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSpeakerDTOs(speakers))
}

// ListForUser handles GET /users/{id}/speakers for the owner or an administrator.
func (h *SpeakerHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	userID, ok := UserIDFromContext(r.Context())
	if !ok || strings.TrimSpace(userID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUserID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "ListForUser", "principal_id", principal.UserID, "user_id", userID)

	speakers, err := h.service.ListForUser(r.Context(), principal, userID)
	if err != nil {
		logger.ErrorContext(r.Context(), "speaker list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSpeakerDTOs(speakers))
}

// Get handles GET /speakers/{id}.
func (h *SpeakerHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	speakerID, ok := SpeakerIDFromContext(r.Context())
	if !ok || strings.TrimSpace(speakerID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSpeakerID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Get", "principal_id", principal.UserID, "speaker_id", speakerID)

	speaker, err := h.service.Get(r.Context(), principal, speakerID)
	if err != nil {
		logger.ErrorContext(r.Context(), "speaker lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSpeakerDTO(speaker))
}

// Create handles POST /speakers, creating a speaker for the caller.
func (h *SpeakerHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, "")
}

// CreateForUser handles POST /users/{id}/speakers for the owner or an administrator.
func (h *SpeakerHandler) CreateForUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok || strings.TrimSpace(userID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUserID)
		return
	}
	h.create(w, r, userID)
}

func (h *SpeakerHandler) create(w http.ResponseWriter, r *http.Request, ownerID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req speakerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode speaker request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "owner_id", ownerID)

	speaker, err := h.service.Create(r.Context(), application.CreateSpeakerParams{
		Principal: principal,
		OwnerID:   ownerID,
		Input:     application.SpeakerInput{Name: req.Name},
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "speaker creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("speaker_id", speaker.ID).InfoContext(r.Context(), "speaker created")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSpeakerDTO(speaker))
}

// Update handles PUT /speakers/{id}.
func (h *SpeakerHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	speakerID, ok := SpeakerIDFromContext(r.Context())
	if !ok || strings.TrimSpace(speakerID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSpeakerID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req speakerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "speaker_id", speakerID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode speaker update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "speaker_id", speakerID)

	speaker, err := h.service.Update(r.Context(), application.UpdateSpeakerParams{
		Principal: principal,
		SpeakerID: speakerID,
		Input:     application.SpeakerInput{Name: req.Name},
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "speaker update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "speaker updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSpeakerDTO(speaker))
}

// Delete handles DELETE /speakers/{id}. Success carries no body.
func (h *SpeakerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	speakerID, ok := SpeakerIDFromContext(r.Context())
	if !ok || strings.TrimSpace(speakerID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSpeakerID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "speaker_id", speakerID)

	if err := h.service.Delete(r.Context(), principal, speakerID); err != nil {
		logger.ErrorContext(r.Context(), "speaker delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "speaker deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, nil)
}

type speakerRequest struct {
	Name string `json:"name"`
}

type speakerDTO struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

func toSpeakerDTO(speaker application.Speaker) speakerDTO {
	return speakerDTO{ID: speaker.ID, UserID: speaker.UserID, Name: speaker.Name}
}

func toSpeakerDTOs(speakers []application.Speaker) []speakerDTO {
	out := make([]speakerDTO, 0, len(speakers))
	for _, speaker := range speakers {
		out = append(out, toSpeakerDTO(speaker))
	}
	return out
}
