package domain

import (
	"time"

	"github.com/marqueehq/marquee/internal/validator"
)

// Movie is a catalog entry guarded by optimistic concurrency: Version
// increments exactly once per successful update.
type Movie struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"-"`
	Title     string    `json:"title"`
	Year      int32     `json:"year,omitempty"`
	Runtime   Runtime   `json:"runtime,omitempty"`
	Genres    []string  `json:"genres,omitempty"`
	Version   int32     `json:"version"`
}

// MovieInput is the client payload for creating or partially updating a
// movie. Nil fields were absent from the request body.
type MovieInput struct {
	Title   *string  `json:"title"`
	Year    *int32   `json:"year"`
	Runtime *Runtime `json:"runtime"`
	Genres  []string `json:"genres"`
}

// Validate checks the fields that are present. Presence requirements are
// the caller's concern; a partial update legitimately omits fields.
func (in *MovieInput) Validate(v *validator.Validator) {
	if in.Title != nil {
		v.Check(*in.Title != "", "title", "must be provided")
		v.Check(len(*in.Title) <= 500, "title", "must not be more than 500 bytes long")
	}
	if in.Year != nil {
		v.Check(*in.Year >= 1888, "year", "must be greater than 1888")
		v.Check(*in.Year <= int32(time.Now().Year()), "year", "must not be in the future")
	}
	if in.Runtime != nil {
		v.Check(*in.Runtime > 0, "runtime", "must be a positive integer")
	}
	if in.Genres != nil {
		v.Check(len(in.Genres) >= 1, "genres", "must contain at least 1 genre")
		v.Check(len(in.Genres) <= 5, "genres", "must not contain more than 5 genres")
		v.Check(validator.Unique(in.Genres), "genres", "must not contain duplicate values")
	}
}

// ToMovie builds a new Movie, requiring every field to be present and
// valid. Returns validator.Errors on failure.
func (in *MovieInput) ToMovie() (*Movie, error) {
	v := validator.New()
	in.Validate(v)

	v.Check(in.Title != nil, "title", "must be provided")
	v.Check(in.Year != nil, "year", "must be provided")
	v.Check(in.Runtime != nil, "runtime", "must be provided")
	v.Check(in.Genres != nil, "genres", "must be provided")

	if !v.Valid() {
		return nil, v.Errors()
	}

	return &Movie{
		Title:   *in.Title,
		Year:    *in.Year,
		Runtime: *in.Runtime,
		Genres:  in.Genres,
	}, nil
}

// ApplyTo merges the present fields onto an existing movie.
func (in *MovieInput) ApplyTo(m *Movie) {
	if in.Title != nil {
		m.Title = *in.Title
	}
	if in.Year != nil {
		m.Year = *in.Year
	}
	if in.Runtime != nil {
		m.Runtime = *in.Runtime
	}
	if in.Genres != nil {
		m.Genres = in.Genres
	}
}
