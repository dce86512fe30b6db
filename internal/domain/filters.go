package domain

import (
	"math"
	"strings"

	"github.com/marqueehq/marquee/internal/validator"
)

// Filters is a stateless pagination and sort spec, constructed per
// request and validated before it reaches the store.
type Filters struct {
	Page     int
	PageSize int
	Sort     string
	SortList []string
}

// Validate enforces the pagination bounds and the sort allow-list.
// Rejecting unknown sort values here means they can never reach the SQL
// layer.
func (f Filters) Validate(v *validator.Validator) {
	v.Check(f.Page > 0, "page", "must be greater than zero")
	v.Check(f.Page <= 10_000_000, "page", "must be a maximum of 10 million")
	v.Check(f.PageSize > 0, "page_size", "must be greater than zero")
	v.Check(f.PageSize <= 100, "page_size", "must be a maximum of 100")
	v.Check(validator.In(f.Sort, f.SortList...), "sort", "invalid sort value")
}

// SortColumn returns the bare column name for a whitelisted sort value.
// It panics on values that escaped validation, as a last line of defense
// against SQL injection through the sort parameter.
func (f Filters) SortColumn() string {
	for _, safe := range f.SortList {
		if f.Sort == safe {
			return strings.TrimPrefix(f.Sort, "-")
		}
	}
	panic("unsafe sort parameter: " + f.Sort)
}

// SortDirection returns "DESC" for "-" prefixed sort values.
func (f Filters) SortDirection() string {
	if strings.HasPrefix(f.Sort, "-") {
		return "DESC"
	}
	return "ASC"
}

func (f Filters) Limit() int {
	return f.PageSize
}

func (f Filters) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// Metadata describes one page of a search result.
type Metadata struct {
	CurrentPage  int `json:"current_page,omitempty"`
	PageSize     int `json:"page_size,omitempty"`
	FirstPage    int `json:"first_page,omitempty"`
	LastPage     int `json:"last_page,omitempty"`
	TotalRecords int `json:"total_records,omitempty"`
}

// CalculateMetadata derives page bookkeeping from a total record count.
// An empty result yields the zero value.
func CalculateMetadata(totalRecords, page, pageSize int) Metadata {
	if totalRecords == 0 {
		return Metadata{}
	}
	return Metadata{
		CurrentPage:  page,
		PageSize:     pageSize,
		FirstPage:    1,
		LastPage:     int(math.Ceil(float64(totalRecords) / float64(pageSize))),
		TotalRecords: totalRecords,
	}
}
