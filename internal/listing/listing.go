// Package listing filters and pages record collections for display.
package listing

import (
	"strings"
)

// Searchable records expose the text fields a query is matched against.
type Searchable interface {
	SearchFields() []string
}

type Page[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// Filter returns, in order, the records where query is a case-insensitive
// substring of at least one search field. An empty query matches everything;
// whitespace is part of the query.
func Filter[T Searchable](records []T, query string) []T {
	needle := strings.ToLower(query)
	if needle == "" {
		return records
	}

	matched := make([]T, 0, len(records))
	for _, record := range records {
		for _, field := range record.SearchFields() {
			if strings.Contains(strings.ToLower(field), needle) {
				matched = append(matched, record)
				break
			}
		}
	}
	return matched
}

// Paginate returns records[page*size : page*size+size], clamped to the end of
// the slice. Pages past the end, negative pages and non-positive sizes yield
// an empty slice.
func Paginate[T any](records []T, page int, size int) []T {
	if page < 0 || size < 1 || len(records) == 0 {
		return []T{}
	}
	// page*size may overflow, so compare against the last page index instead.
	if page > (len(records)-1)/size {
		return []T{}
	}
	start := page * size
	end := len(records)
	if size < end-start {
		end = start + size
	}
	return records[start:end]
}

// Query runs Filter then Paginate and reports the filtered count.
func Query[T Searchable](records []T, query string, page int, size int) Page[T] {
	filtered := Filter(records, query)
	return Page[T]{
		Items:    Paginate(filtered, page, size),
		Total:    len(filtered),
		Page:     page,
		PageSize: size,
	}
}
