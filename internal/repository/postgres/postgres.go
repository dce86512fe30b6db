package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marqueehq/marquee/internal/repository"
)

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ensure Repository satisfies interfaces.
var (
	_ repository.MovieRepository      = (*Repository)(nil)
	_ repository.UserRepository       = (*Repository)(nil)
	_ repository.TokenRepository      = (*Repository)(nil)
	_ repository.PermissionRepository = (*Repository)(nil)
)

const uniqueViolationCode = "23505"

// isUniqueViolation reports whether err is a unique constraint failure,
// distinguishable from other write failures.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
