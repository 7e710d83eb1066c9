package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/speaker-registry/internal/persistence"
)

// SpeakerRepository implements persistence.SpeakerRepository using SQLite.
type SpeakerRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewSpeakerRepository creates a new SQLite speaker repository.
func NewSpeakerRepository(pool *ConnectionPool) *SpeakerRepository {
	return &SpeakerRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateSpeaker inserts a new speaker entry.
func (r *SpeakerRepository) CreateSpeaker(ctx context.Context, speaker persistence.Speaker) error {
	if speaker.ID == "" || speaker.UserID == "" {
		return persistence.ErrConstraintViolation
	}
	if strings.TrimSpace(speaker.Name) == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO speakers (id, user_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		speaker.ID,
		speaker.UserID,
		strings.TrimSpace(speaker.Name),
		speaker.CreatedAt.UTC().Format(time.RFC3339),
		speaker.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// UpdateSpeaker updates the mutable fields of an existing speaker.
func (r *SpeakerRepository) UpdateSpeaker(ctx context.Context, speaker persistence.Speaker) error {
	if speaker.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if strings.TrimSpace(speaker.Name) == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		UPDATE speakers
		SET name = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		strings.TrimSpace(speaker.Name),
		speaker.UpdatedAt.UTC().Format(time.RFC3339),
		speaker.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

// GetSpeaker retrieves a speaker by ID.
func (r *SpeakerRepository) GetSpeaker(ctx context.Context, id string) (persistence.Speaker, error) {
	if id == "" {
		return persistence.Speaker{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, user_id, name, created_at, updated_at
		FROM speakers
		WHERE id = ?
	`

	var speaker persistence.Speaker
	var createdAtStr, updatedAtStr string

	err := r.helper.QueryRow(ctx, query, id).Scan(
		&speaker.ID,
		&speaker.UserID,
		&speaker.Name,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Speaker{}, persistence.ErrNotFound
		}
		return persistence.Speaker{}, r.mapper.MapError(err)
	}

	if speaker.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Speaker{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if speaker.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Speaker{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return speaker, nil
}

// ListSpeakersForUser returns all speakers owned by the user in creation order.
func (r *SpeakerRepository) ListSpeakersForUser(ctx context.Context, userID string) ([]persistence.Speaker, error) {
	if userID == "" {
		return nil, nil
	}

	query := `
		SELECT id, user_id, name, created_at, updated_at
		FROM speakers
		WHERE user_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.helper.Query(ctx, query, userID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var speakers []persistence.Speaker
	for rows.Next() {
		var speaker persistence.Speaker
		var createdAtStr, updatedAtStr string

		if err := rows.Scan(&speaker.ID, &speaker.UserID, &speaker.Name, &createdAtStr, &updatedAtStr); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if speaker.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		if speaker.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
			return nil, fmt.Errorf("failed to parse updated_at: %w", err)
		}

		speakers = append(speakers, speaker)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return speakers, nil
}

// DeleteSpeaker removes a speaker by ID.
func (r *SpeakerRepository) DeleteSpeaker(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, "DELETE FROM speakers WHERE id = ?", id)
	if err != nil {
		return r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}
