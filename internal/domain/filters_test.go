package domain

import (
	"testing"

	"github.com/marqueehq/marquee/internal/validator"
)

var testSortList = []string{"id", "title", "-id", "-title"}

func TestFiltersValidate(t *testing.T) {
	cases := []struct {
		name      string
		filters   Filters
		field     string
		wantError string
	}{
		{
			name:    "valid",
			filters: Filters{Page: 1, PageSize: 20, Sort: "id", SortList: testSortList},
		},
		{
			name:      "zero page",
			filters:   Filters{Page: 0, PageSize: 20, Sort: "id", SortList: testSortList},
			field:     "page",
			wantError: "must be greater than zero",
		},
		{
			name:      "page too large",
			filters:   Filters{Page: 10_000_001, PageSize: 20, Sort: "id", SortList: testSortList},
			field:     "page",
			wantError: "must be a maximum of 10 million",
		},
		{
			name:      "zero page size",
			filters:   Filters{Page: 1, PageSize: 0, Sort: "id", SortList: testSortList},
			field:     "page_size",
			wantError: "must be greater than zero",
		},
		{
			name:      "page size too large",
			filters:   Filters{Page: 1, PageSize: 101, Sort: "id", SortList: testSortList},
			field:     "page_size",
			wantError: "must be a maximum of 100",
		},
		{
			name:      "sort not in allow-list",
			filters:   Filters{Page: 1, PageSize: 20, Sort: "rating", SortList: testSortList},
			field:     "sort",
			wantError: "invalid sort value",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := validator.New()
			tc.filters.Validate(v)
			if tc.wantError == "" {
				if !v.Valid() {
					t.Fatalf("expected valid, got %v", v.Errors())
				}
				return
			}
			if got := v.Errors()[tc.field]; got != tc.wantError {
				t.Fatalf("expected %q, got %q", tc.wantError, got)
			}
		})
	}
}

func TestFiltersSortColumnAndDirection(t *testing.T) {
	f := Filters{Sort: "-title", SortList: testSortList}
	if col := f.SortColumn(); col != "title" {
		t.Fatalf("unexpected column: %s", col)
	}
	if dir := f.SortDirection(); dir != "DESC" {
		t.Fatalf("unexpected direction: %s", dir)
	}

	f.Sort = "id"
	if col := f.SortColumn(); col != "id" {
		t.Fatalf("unexpected column: %s", col)
	}
	if dir := f.SortDirection(); dir != "ASC" {
		t.Fatalf("unexpected direction: %s", dir)
	}
}

func TestFiltersSortColumnPanicsOnUnsafeValue(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on unsafe sort value")
		}
	}()
	f := Filters{Sort: "id; DROP TABLE movies", SortList: testSortList}
	f.SortColumn()
}

func TestFiltersLimitOffset(t *testing.T) {
	f := Filters{Page: 3, PageSize: 25}
	if f.Limit() != 25 {
		t.Fatalf("unexpected limit: %d", f.Limit())
	}
	if f.Offset() != 50 {
		t.Fatalf("unexpected offset: %d", f.Offset())
	}
}

func TestCalculateMetadata(t *testing.T) {
	md := CalculateMetadata(101, 2, 20)
	if md.CurrentPage != 2 || md.PageSize != 20 || md.FirstPage != 1 {
		t.Fatalf("unexpected metadata: %+v", md)
	}
	if md.LastPage != 6 {
		t.Fatalf("expected last page 6, got %d", md.LastPage)
	}
	if md.TotalRecords != 101 {
		t.Fatalf("unexpected total records: %d", md.TotalRecords)
	}
}

func TestCalculateMetadataEmptyResult(t *testing.T) {
	md := CalculateMetadata(0, 1, 20)
	if md != (Metadata{}) {
		t.Fatalf("expected zero metadata, got %+v", md)
	}
}
