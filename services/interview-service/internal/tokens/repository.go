package tokens

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/knakajima/slotpicker/libs/db"
)

// Record is a user's Google OAuth credential set, keyed by account email.
// RefreshToken is plaintext in memory; it is sealed at rest.
type Record struct {
	Email        string
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
	UpdatedAt    time.Time
}

type Repository struct {
	pool   *db.Pool
	sealer *Sealer
}

func NewRepository(pool *db.Pool, sealer *Sealer) *Repository {
	return &Repository{pool: pool, sealer: sealer}
}

// Upsert stores the tokens from an OAuth exchange. Google only returns a
// refresh token on the consent flow, so an empty refresh token keeps the
// stored one.
func (r *Repository) Upsert(ctx context.Context, email, accessToken, refreshToken string, expiry time.Time) error {
	var sealed *string
	if refreshToken != "" {
		s, err := r.sealer.Seal(refreshToken)
		if err != nil {
			return err
		}
		sealed = &s
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO google_tokens (email, access_token, refresh_token, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (email) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = COALESCE(EXCLUDED.refresh_token, google_tokens.refresh_token),
			expires_at = EXCLUDED.expires_at,
			updated_at = now()
	`, email, accessToken, sealed, expiry)
	return err
}

func (r *Repository) Get(ctx context.Context, email string) (Record, error) {
	var rec Record
	var sealed *string
	err := r.pool.QueryRow(ctx, `
		SELECT email, access_token, refresh_token, expires_at, updated_at
		FROM google_tokens
		WHERE email = $1
	`, email).Scan(&rec.Email, &rec.AccessToken, &sealed, &rec.Expiry, &rec.UpdatedAt)
	if err != nil {
		return Record{}, err
	}
	if sealed != nil {
		refresh, err := r.sealer.Open(*sealed)
		if err != nil {
			return Record{}, err
		}
		rec.RefreshToken = refresh
	}
	return rec, nil
}

// UpdateAccess persists a refreshed access token without touching the
// refresh token.
func (r *Repository) UpdateAccess(ctx context.Context, email, accessToken string, expiry time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE google_tokens
		SET access_token = $2,
			expires_at = $3,
			updated_at = now()
		WHERE email = $1
	`, email, accessToken, expiry)
	return err
}

func (r *Repository) Delete(ctx context.Context, email string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM google_tokens
		WHERE email = $1
	`, email)
	return err
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
