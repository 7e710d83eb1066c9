package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/speaker-registry/internal/application"
	"github.com/example/speaker-registry/internal/config"
	httptransport "github.com/example/speaker-registry/internal/http"
	"github.com/example/speaker-registry/internal/persistence"
	"github.com/example/speaker-registry/internal/persistence/sqlite"
	"github.com/example/speaker-registry/internal/token"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.NewConnectionPool(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := sqlite.Migrate(context.Background(), pool); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	signer := token.NewSigner([]byte(cfg.SessionSecret), cfg.TokenTTL)
	now := time.Now

	credentialStore := newCredentialStoreAdapter(sqlite.NewUserRepository(pool))
	tokenStore := newTokenStoreAdapter(sqlite.NewTokenRepository(pool))
	userRepo := newUserRepositoryAdapter(sqlite.NewUserRepository(pool))
	speakerRepo := newSpeakerRepositoryAdapter(sqlite.NewSpeakerRepository(pool))

	authService := application.NewAuthServiceWithLogger(credentialStore, tokenStore, signer.Generate, idGenerator, now, cfg.TokenTTL, logger)
	authService.SetScanLimit(cfg.TokenScanLimit)
	userService := application.NewUserServiceWithLogger(userRepo, now, logger)
	speakerService := application.NewSpeakerServiceWithLogger(speakerRepo, userRepo, idGenerator, now, logger)

	if cfg.AdminUsername != "" {
		if err := authService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			logger.Error("failed to seed administrator", "error", err)
			os.Exit(1)
		}
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:     httptransport.NewAuthHandler(authService, logger),
		Users:    httptransport.NewUserHandler(userService, logger),
		Speakers: httptransport.NewSpeakerHandler(speakerService, logger),
	})

	protected := httptransport.RequireToken(authService, logger)(router)
	handler := httptransport.RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/auth/") {
			router.ServeHTTP(w, r)
			return
		}
		protected.ServeHTTP(w, r)
	}))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("speaker registry API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// mapStoreError translates persistence sentinels into the error values the
// application layer matches on.
func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return application.ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return application.ErrDuplicate
	default:
		return err
	}
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:          model.ID,
		Role:        application.Role(model.Role),
		Username:    model.Username,
		Email:       model.Email,
		DisplayName: model.DisplayName,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func toPersistenceUser(user application.User, passwordHash string) persistence.User {
	return persistence.User{
		ID:           user.ID,
		Role:         persistence.Role(user.Role),
		Username:     user.Username,
		Email:        user.Email,
		DisplayName:  user.DisplayName,
		PasswordHash: passwordHash,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func toApplicationToken(model persistence.Token) application.Token {
	return application.Token{
		ID:       model.ID,
		UserID:   model.UserID,
		Token:    model.Token,
		IssuedAt: model.IssuedAt,
	}
}

func toApplicationSpeaker(model persistence.Speaker) application.Speaker {
	return application.Speaker{
		ID:        model.ID,
		UserID:    model.UserID,
		Name:      model.Name,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceSpeaker(speaker application.Speaker) persistence.Speaker {
	return persistence.Speaker{
		ID:        speaker.ID,
		UserID:    speaker.UserID,
		Name:      speaker.Name,
		CreatedAt: speaker.CreatedAt,
		UpdatedAt: speaker.UpdatedAt,
	}
}

type credentialStoreAdapter struct {
	repo *sqlite.UserRepository
}

func newCredentialStoreAdapter(repo *sqlite.UserRepository) *credentialStoreAdapter {
	return &credentialStoreAdapter{repo: repo}
}

func (a *credentialStoreAdapter) CreateUser(ctx context.Context, creds application.Credentials) (application.User, error) {
	if err := a.repo.CreateUser(ctx, toPersistenceUser(creds.User, creds.PasswordHash)); err != nil {
		return application.User{}, mapStoreError(err)
	}
	stored, err := a.repo.GetUser(ctx, creds.User.ID)
	if err != nil {
		return application.User{}, mapStoreError(err)
	}
	return toApplicationUser(stored), nil
}

func (a *credentialStoreAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, mapStoreError(err)
	}
	return toApplicationUser(stored), nil
}

func (a *credentialStoreAdapter) GetUserByUsername(ctx context.Context, username string) (application.Credentials, error) {
	stored, err := a.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return application.Credentials{}, mapStoreError(err)
	}
	return application.Credentials{User: toApplicationUser(stored), PasswordHash: stored.PasswordHash}, nil
}

func (a *credentialStoreAdapter) GetUserByEmail(ctx context.Context, email string) (application.Credentials, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.Credentials{}, mapStoreError(err)
	}
	return application.Credentials{User: toApplicationUser(stored), PasswordHash: stored.PasswordHash}, nil
}

type tokenStoreAdapter struct {
	repo *sqlite.TokenRepository
}

func newTokenStoreAdapter(repo *sqlite.TokenRepository) *tokenStoreAdapter {
	return &tokenStoreAdapter{repo: repo}
}

func (a *tokenStoreAdapter) CreateToken(ctx context.Context, tok application.Token) (application.Token, error) {
	model := persistence.Token{ID: tok.ID, UserID: tok.UserID, Token: tok.Token, IssuedAt: tok.IssuedAt}
	if err := a.repo.CreateToken(ctx, model); err != nil {
		return application.Token{}, mapStoreError(err)
	}
	return tok, nil
}

func (a *tokenStoreAdapter) GetToken(ctx context.Context, tokenString string) (application.Token, error) {
	stored, err := a.repo.GetToken(ctx, tokenString)
	if err != nil {
		return application.Token{}, mapStoreError(err)
	}
	return toApplicationToken(stored), nil
}

func (a *tokenStoreAdapter) ListTokensForUser(ctx context.Context, userID string, limit int) ([]application.Token, error) {
	models, err := a.repo.ListTokensForUser(ctx, userID, limit)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	tokens := make([]application.Token, 0, len(models))
	for _, model := range models {
		tokens = append(tokens, toApplicationToken(model))
	}
	return tokens, nil
}

func (a *tokenStoreAdapter) DeleteToken(ctx context.Context, id string) error {
	return mapStoreError(a.repo.DeleteToken(ctx, id))
}

type userRepositoryAdapter struct {
	repo *sqlite.UserRepository
}

func newUserRepositoryAdapter(repo *sqlite.UserRepository) *userRepositoryAdapter {
	return &userRepositoryAdapter{repo: repo}
}

func (a *userRepositoryAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, mapStoreError(err)
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) GetUserByUsername(ctx context.Context, username string) (application.User, error) {
	stored, err := a.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return application.User{}, mapStoreError(err)
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) GetUserByEmail(ctx context.Context, email string) (application.User, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.User{}, mapStoreError(err)
	}
	return toApplicationUser(stored), nil
}

// UpdateUser rewrites the profile columns while preserving the stored
// password digest, which never travels through the application layer.
func (a *userRepositoryAdapter) UpdateUser(ctx context.Context, user application.User) (application.User, error) {
	current, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, mapStoreError(err)
	}
	if err := a.repo.UpdateUser(ctx, toPersistenceUser(user, current.PasswordHash)); err != nil {
		return application.User{}, mapStoreError(err)
	}
	stored, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, mapStoreError(err)
	}
	return toApplicationUser(stored), nil
}

type speakerRepositoryAdapter struct {
	repo *sqlite.SpeakerRepository
}

func newSpeakerRepositoryAdapter(repo *sqlite.SpeakerRepository) *speakerRepositoryAdapter {
	return &speakerRepositoryAdapter{repo: repo}
}

func (a *speakerRepositoryAdapter) CreateSpeaker(ctx context.Context, speaker application.Speaker) (application.Speaker, error) {
	if err := a.repo.CreateSpeaker(ctx, toPersistenceSpeaker(speaker)); err != nil {
		return application.Speaker{}, mapStoreError(err)
	}
	stored, err := a.repo.GetSpeaker(ctx, speaker.ID)
	if err != nil {
		return application.Speaker{}, mapStoreError(err)
	}
	return toApplicationSpeaker(stored), nil
}

func (a *speakerRepositoryAdapter) GetSpeaker(ctx context.Context, id string) (application.Speaker, error) {
	stored, err := a.repo.GetSpeaker(ctx, id)
	if err != nil {
		return application.Speaker{}, mapStoreError(err)
	}
	return toApplicationSpeaker(stored), nil
}

func (a *speakerRepositoryAdapter) UpdateSpeaker(ctx context.Context, speaker application.Speaker) (application.Speaker, error) {
	if err := a.repo.UpdateSpeaker(ctx, toPersistenceSpeaker(speaker)); err != nil {
		return application.Speaker{}, mapStoreError(err)
	}
	stored, err := a.repo.GetSpeaker(ctx, speaker.ID)
	if err != nil {
		return application.Speaker{}, mapStoreError(err)
	}
	return toApplicationSpeaker(stored), nil
}

func (a *speakerRepositoryAdapter) DeleteSpeaker(ctx context.Context, id string) error {
	return mapStoreError(a.repo.DeleteSpeaker(ctx, id))
}

func (a *speakerRepositoryAdapter) ListSpeakersForUser(ctx context.Context, userID string) ([]application.Speaker, error) {
	models, err := a.repo.ListSpeakersForUser(ctx, userID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	speakers := make([]application.Speaker, 0, len(models))
	for _, model := range models {
		speakers = append(speakers, toApplicationSpeaker(model))
	}
	return speakers, nil
}
