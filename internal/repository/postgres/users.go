package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/marqueehq/marquee/internal/domain"
	"github.com/marqueehq/marquee/internal/repository"
)

// InsertUser inserts a user and fills in the server-assigned id,
// creation time and initial version. A unique violation on the citext
// email column surfaces as ErrDuplicateEmail.
func (r *Repository) InsertUser(ctx context.Context, user *domain.User) error {
	const query = `INSERT INTO users (name, email, password_hash, activated)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, version`
	row := r.pool.QueryRow(ctx, query, user.Name, user.Email, user.PasswordHash, user.Activated)
	if err := row.Scan(&user.ID, &user.CreatedAt, &user.Version); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// GetUserByEmail fetches a user by email. The email column is citext so
// the match is case-insensitive.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT id, created_at, name, email::text, password_hash, activated, version
		FROM users
		WHERE email = $1`
	row := r.pool.QueryRow(ctx, query, email)
	return scanUser(row)
}

// GetUserForToken resolves a token plaintext to its owner. The lookup
// hashes the plaintext and matches on (hash, scope, expiry > now), so an
// expired token is indistinguishable from one that never existed.
func (r *Repository) GetUserForToken(ctx context.Context, scope, tokenPlaintext string) (*domain.User, error) {
	const query = `SELECT users.id, users.created_at, users.name, users.email::text,
			users.password_hash, users.activated, users.version
		FROM users
		INNER JOIN tokens ON users.id = tokens.user_id
		WHERE tokens.hash = $1
		AND tokens.scope = $2
		AND tokens.expiry > $3`
	row := r.pool.QueryRow(ctx, query, domain.TokenHash(tokenPlaintext), scope, time.Now())
	return scanUser(row)
}

// UpdateUser issues a conditional write matched on (id, version). The
// email unique index can still fire here when an update changes the
// address, so that case is checked before the no-row conflict case.
func (r *Repository) UpdateUser(ctx context.Context, user *domain.User) error {
	const query = `UPDATE users
		SET name = $1, email = $2, password_hash = $3, activated = $4, version = version + 1
		WHERE id = $5 AND version = $6
		RETURNING version`
	row := r.pool.QueryRow(ctx, query, user.Name, user.Email, user.PasswordHash, user.Activated, user.ID, user.Version)
	if err := row.Scan(&user.Version); err != nil {
		switch {
		case isUniqueViolation(err):
			return repository.ErrDuplicateEmail
		case errors.Is(err, pgx.ErrNoRows):
			return repository.ErrEditConflict
		default:
			return err
		}
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.CreatedAt, &u.Name, &u.Email, &u.PasswordHash, &u.Activated, &u.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
