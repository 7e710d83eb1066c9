package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/speaker-registry/internal/persistence"
)

// TokenRepository implements persistence.TokenRepository using SQLite.
type TokenRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewTokenRepository creates a new SQLite token repository.
func NewTokenRepository(pool *ConnectionPool) *TokenRepository {
	return &TokenRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateToken stores a new session token for a user.
func (r *TokenRepository) CreateToken(ctx context.Context, token persistence.Token) error {
	if token.ID == "" || token.UserID == "" {
		return persistence.ErrConstraintViolation
	}
	if strings.TrimSpace(token.Token) == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO tokens (id, user_id, token, issued_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		token.ID,
		token.UserID,
		strings.TrimSpace(token.Token),
		token.IssuedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// GetToken retrieves a token by its exact string value.
func (r *TokenRepository) GetToken(ctx context.Context, tokenString string) (persistence.Token, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return persistence.Token{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, user_id, token, issued_at
		FROM tokens
		WHERE token = ?
	`

	var token persistence.Token
	var issuedAtStr string

	err := r.helper.QueryRow(ctx, query, tokenString).Scan(
		&token.ID,
		&token.UserID,
		&token.Token,
		&issuedAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Token{}, persistence.ErrNotFound
		}
		return persistence.Token{}, r.mapper.MapError(err)
	}

	if token.IssuedAt, err = time.Parse(time.RFC3339, issuedAtStr); err != nil {
		return persistence.Token{}, fmt.Errorf("failed to parse issued_at: %w", err)
	}

	return token, nil
}

// ListTokensForUser returns up to limit tokens owned by the user in creation
// order. A non-positive limit means no cap.
func (r *TokenRepository) ListTokensForUser(ctx context.Context, userID string, limit int) ([]persistence.Token, error) {
	if userID == "" {
		return nil, nil
	}

	query := `
		SELECT id, user_id, token, issued_at
		FROM tokens
		WHERE user_id = ?
		ORDER BY issued_at ASC, id ASC
	`
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var tokens []persistence.Token
	for rows.Next() {
		var token persistence.Token
		var issuedAtStr string

		if err := rows.Scan(&token.ID, &token.UserID, &token.Token, &issuedAtStr); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if token.IssuedAt, err = time.Parse(time.RFC3339, issuedAtStr); err != nil {
			return nil, fmt.Errorf("failed to parse issued_at: %w", err)
		}

		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return tokens, nil
}

// DeleteToken removes a token by ID. Missing rows are not an error: the lazy
// sweep may race with another request deleting the same expired token.
func (r *TokenRepository) DeleteToken(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	_, err := r.helper.Exec(ctx, "DELETE FROM tokens WHERE id = ?", id)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}
