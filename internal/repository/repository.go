package repository

import (
	"context"

	"github.com/marqueehq/marquee/internal/domain"
)

// MovieRepository persists catalog entries with version-checked writes.
type MovieRepository interface {
	InsertMovie(ctx context.Context, movie *domain.Movie) error
	GetMovie(ctx context.Context, id int64) (*domain.Movie, error)
	// UpdateMovie performs a conditional write on (id, version). It
	// returns ErrEditConflict when zero rows match.
	UpdateMovie(ctx context.Context, movie *domain.Movie) error
	// DeleteMovie returns the affected row count; callers treat zero as
	// not found.
	DeleteMovie(ctx context.Context, id int64) (int64, error)
	// SearchMovies returns one page plus the total match count in a
	// single round trip.
	SearchMovies(ctx context.Context, title string, genres []string, filters domain.Filters) ([]*domain.Movie, domain.Metadata, error)
}

// UserRepository persists account identities.
type UserRepository interface {
	InsertUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetUserForToken resolves a token plaintext to its owner, honoring
	// scope and expiry.
	GetUserForToken(ctx context.Context, scope, tokenPlaintext string) (*domain.User, error)
	// UpdateUser performs a conditional write on (id, version).
	UpdateUser(ctx context.Context, user *domain.User) error
}

// TokenRepository persists credential hashes. Plaintext never reaches
// this layer except transiently inside GetUserForToken lookups.
type TokenRepository interface {
	InsertToken(ctx context.Context, token *domain.Token) error
	DeleteAllTokensForUser(ctx context.Context, scope string, userID int64) error
}

// PermissionRepository owns the append-only permission grant table.
type PermissionRepository interface {
	GetPermissionsForUser(ctx context.Context, userID int64) ([]string, error)
	AddPermissionsForUser(ctx context.Context, userID int64, codes ...string) error
}
