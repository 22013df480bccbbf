package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/cardscan-backend/internal/errors"
	"github.com/unclebandit/cardscan-backend/internal/model"
)

type UserRepositoryInterface interface {
	Upsert(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	SaveToken(ctx context.Context, t *model.OAuthToken) error
	GetToken(ctx context.Context, userID uuid.UUID) (*model.OAuthToken, error)
}

type UserRepository struct {
	DB *sql.DB
}

// Upsert inserts the user or refreshes the name of the existing row with the
// same email. u.ID and u.CreatedAt are set from the stored row.
func (r *UserRepository) Upsert(ctx context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	query := `
		INSERT INTO users (id, email, name, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, created_at
	`
	return r.DB.QueryRowContext(ctx, query, u.ID, u.Email, u.Name).Scan(&u.ID, &u.CreatedAt)
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, email, name, created_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SaveToken stores the credential. An empty refresh token keeps the one
// already on file, since Google only returns it on first consent.
func (r *UserRepository) SaveToken(ctx context.Context, t *model.OAuthToken) error {
	t.UpdatedAt = time.Now()
	query := `
		INSERT INTO oauth_tokens (user_id, access_token, refresh_token, token_type, expiry, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			access_token  = EXCLUDED.access_token,
			refresh_token = COALESCE(NULLIF(EXCLUDED.refresh_token, ''), oauth_tokens.refresh_token),
			token_type    = EXCLUDED.token_type,
			expiry        = EXCLUDED.expiry,
			updated_at    = EXCLUDED.updated_at
	`
	_, err := r.DB.ExecContext(ctx, query, t.UserID, t.AccessToken, t.RefreshToken, t.TokenType, t.Expiry, t.UpdatedAt)
	return err
}

func (r *UserRepository) GetToken(ctx context.Context, userID uuid.UUID) (*model.OAuthToken, error) {
	var t model.OAuthToken
	err := r.DB.QueryRowContext(ctx, `
		SELECT user_id, access_token, refresh_token, token_type, expiry, updated_at
		FROM oauth_tokens WHERE user_id = $1`, userID,
	).Scan(&t.UserID, &t.AccessToken, &t.RefreshToken, &t.TokenType, &t.Expiry, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.ErrNotConnected
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

var _ UserRepositoryInterface = (*UserRepository)(nil)
