package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/marqueehq/marquee/internal/domain"
	"github.com/marqueehq/marquee/internal/repository"
)

// InsertMovie inserts a movie and fills in the server-assigned id,
// creation time and initial version atomically with the insert.
func (r *Repository) InsertMovie(ctx context.Context, movie *domain.Movie) error {
	const query = `INSERT INTO movies (title, year, runtime, genres)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, version`
	row := r.pool.QueryRow(ctx, query, movie.Title, movie.Year, movie.Runtime, movie.Genres)
	return row.Scan(&movie.ID, &movie.CreatedAt, &movie.Version)
}

// GetMovie fetches a movie by id.
func (r *Repository) GetMovie(ctx context.Context, id int64) (*domain.Movie, error) {
	if id < 1 {
		return nil, repository.ErrNotFound
	}
	const query = `SELECT id, created_at, title, year, runtime, genres, version
		FROM movies
		WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	var m domain.Movie
	if err := row.Scan(&m.ID, &m.CreatedAt, &m.Title, &m.Year, &m.Runtime, &m.Genres, &m.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// UpdateMovie issues a conditional write matched on (id, version). Zero
// matched rows surface as ErrEditConflict; on success the caller's copy
// receives the new version.
func (r *Repository) UpdateMovie(ctx context.Context, movie *domain.Movie) error {
	const query = `UPDATE movies
		SET title = $1, year = $2, runtime = $3, genres = $4, version = version + 1
		WHERE id = $5 AND version = $6
		RETURNING version`
	row := r.pool.QueryRow(ctx, query, movie.Title, movie.Year, movie.Runtime, movie.Genres, movie.ID, movie.Version)
	if err := row.Scan(&movie.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrEditConflict
		}
		return err
	}
	return nil
}

// DeleteMovie removes a movie and returns the affected row count.
func (r *Repository) DeleteMovie(ctx context.Context, id int64) (int64, error) {
	if id < 1 {
		return 0, nil
	}
	const query = `DELETE FROM movies WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// SearchMovies returns one page of matches plus the total count. Title
// matching is a simple full-text search where the empty string matches
// all rows; genres is a containment filter where the empty set matches
// all rows. Ordering ties are broken by id ascending so pagination is
// deterministic across pages.
func (r *Repository) SearchMovies(ctx context.Context, title string, genres []string, filters domain.Filters) ([]*domain.Movie, domain.Metadata, error) {
	query := fmt.Sprintf(`SELECT count(*) OVER(), id, created_at, title, year, runtime, genres, version
		FROM movies
		WHERE (to_tsvector('simple', title) @@ plainto_tsquery('simple', $1) OR $1 = '')
		AND (genres @> $2 OR $2 = '{}')
		ORDER BY %s %s, id ASC
		LIMIT $3 OFFSET $4`, filters.SortColumn(), filters.SortDirection())

	if genres == nil {
		genres = []string{}
	}

	rows, err := r.pool.Query(ctx, query, title, genres, filters.Limit(), filters.Offset())
	if err != nil {
		return nil, domain.Metadata{}, err
	}
	defer rows.Close()

	totalRecords := 0
	movies := []*domain.Movie{}
	for rows.Next() {
		var m domain.Movie
		if err := rows.Scan(&totalRecords, &m.ID, &m.CreatedAt, &m.Title, &m.Year, &m.Runtime, &m.Genres, &m.Version); err != nil {
			return nil, domain.Metadata{}, err
		}
		movies = append(movies, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Metadata{}, err
	}

	metadata := domain.CalculateMetadata(totalRecords, filters.Page, filters.PageSize)
	return movies, metadata, nil
}
