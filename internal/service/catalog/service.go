package catalog

import (
	"context"

	"log/slog"

	"github.com/marqueehq/marquee/internal/domain"
	"github.com/marqueehq/marquee/internal/repository"
	"github.com/marqueehq/marquee/internal/validator"
)

// movieSortList is the fixed allow-list of sort values for searches.
var movieSortList = []string{"id", "title", "year", "runtime", "-id", "-title", "-year", "-runtime"}

// Service implements movie CRUD and search on top of the
// version-checked store.
type Service struct {
	movies repository.MovieRepository
	logger *slog.Logger
}

// New constructs a Service.
func New(movies repository.MovieRepository, logger *slog.Logger) Service {
	return Service{movies: movies, logger: logger}
}

// Create validates a complete movie payload and inserts it.
func (s Service) Create(ctx context.Context, input domain.MovieInput) (*domain.Movie, error) {
	movie, err := input.ToMovie()
	if err != nil {
		return nil, err
	}
	if err := s.movies.InsertMovie(ctx, movie); err != nil {
		return nil, err
	}
	s.logger.Info("movie created", "movie_id", movie.ID)
	return movie, nil
}

// Get fetches a movie by id.
func (s Service) Get(ctx context.Context, id int64) (*domain.Movie, error) {
	return s.movies.GetMovie(ctx, id)
}

// Update applies a partial payload with optimistic concurrency. When the
// conditional write misses the caller receives ErrEditConflict and must
// re-fetch and retry or surface the conflict.
func (s Service) Update(ctx context.Context, id int64, input domain.MovieInput) (*domain.Movie, error) {
	movie, err := s.movies.GetMovie(ctx, id)
	if err != nil {
		return nil, err
	}

	v := validator.New()
	input.Validate(v)
	if !v.Valid() {
		return nil, v.Errors()
	}

	input.ApplyTo(movie)

	if err := s.movies.UpdateMovie(ctx, movie); err != nil {
		return nil, err
	}
	return movie, nil
}

// Delete removes a movie, treating zero affected rows as not found.
func (s Service) Delete(ctx context.Context, id int64) error {
	count, err := s.movies.DeleteMovie(ctx, id)
	if err != nil {
		return err
	}
	if count == 0 {
		return repository.ErrNotFound
	}
	s.logger.Info("movie deleted", "movie_id", id)
	return nil
}

// Search runs a validated, paginated catalog query. The empty title
// matches everything; so does the empty genre set.
func (s Service) Search(ctx context.Context, title string, genres []string, page, pageSize int, sort string) ([]*domain.Movie, domain.Metadata, error) {
	filters := domain.Filters{
		Page:     page,
		PageSize: pageSize,
		Sort:     sort,
		SortList: movieSortList,
	}

	v := validator.New()
	filters.Validate(v)
	if !v.Valid() {
		return nil, domain.Metadata{}, v.Errors()
	}

	return s.movies.SearchMovies(ctx, title, genres, filters)
}
