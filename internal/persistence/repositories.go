package persistence

import "context"

// UserRepository exposes CRUD operations for user accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
}

// TokenRepository stores issued session tokens.
type TokenRepository interface {
	CreateToken(ctx context.Context, token Token) error
	GetToken(ctx context.Context, tokenString string) (Token, error)
	ListTokensForUser(ctx context.Context, userID string, limit int) ([]Token, error)
	DeleteToken(ctx context.Context, id string) error
}

// SpeakerRepository exposes CRUD operations for speaker entries.
type SpeakerRepository interface {
	CreateSpeaker(ctx context.Context, speaker Speaker) error
	UpdateSpeaker(ctx context.Context, speaker Speaker) error
	GetSpeaker(ctx context.Context, id string) (Speaker, error)
	ListSpeakersForUser(ctx context.Context, userID string) ([]Speaker, error)
	DeleteSpeaker(ctx context.Context, id string) error
}
