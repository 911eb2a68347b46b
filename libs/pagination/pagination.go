// Package pagination implements page-number pagination for list reads
package pagination

import (
	"math"
	"net/http"
	"strconv"

	"github.com/genzone/backend/libs/apperrors"
)

// Limits bounds the page size a caller may request
type Limits struct {
	Default int
	Max     int
}

// Params is a validated page request
type Params struct {
	Page     int
	PageSize int
}

// Offset returns the number of rows to skip
func (p Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Page is a page of results together with the total count
type Page[T any] struct {
	Count      int `json:"count"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
	Results    []T `json:"results"`
}

// FromRequest reads page and page_size query parameters.
// A page_size above the maximum is clamped to it.
func FromRequest(r *http.Request, limits Limits) (Params, error) {
	query := r.URL.Query()
	return Parse(query.Get("page"), query.Get("page_size"), limits)
}

// Parse validates raw page and page_size values
func Parse(rawPage, rawPageSize string, limits Limits) (Params, error) {
	params := Params{Page: 1, PageSize: limits.Default}

	if rawPage != "" {
		page, err := strconv.Atoi(rawPage)
		if err != nil || page < 1 {
			return Params{}, apperrors.Validation("page", "page must be a positive integer")
		}
		params.Page = page
	}

	if rawPageSize != "" {
		size, err := strconv.Atoi(rawPageSize)
		if err != nil || size < 1 {
			return Params{}, apperrors.Validation("page_size", "page_size must be a positive integer")
		}
		params.PageSize = min(size, limits.Max)
	}

	// the offset must fit in an int
	if params.Page > math.MaxInt/params.PageSize {
		return Params{}, apperrors.Validation("page", "page is out of range")
	}

	return params, nil
}

// NewPage assembles a page. Requesting a page past the last one is NotFound,
// except page 1 of an empty collection.
func NewPage[T any](items []T, total int, params Params) (*Page[T], error) {
	totalPages := 0
	if total > 0 {
		totalPages = (total + params.PageSize - 1) / params.PageSize
	}
	if params.Page > 1 && params.Page > totalPages {
		return nil, apperrors.NotFound("invalid page")
	}
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Count:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages,
		Results:    items,
	}, nil
}

// Map converts the results of a page while keeping its counters
func Map[T, U any](page *Page[T], convert func(T) U) *Page[U] {
	results := make([]U, 0, len(page.Results))
	for _, item := range page.Results {
		results = append(results, convert(item))
	}
	return &Page[U]{
		Count:      page.Count,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
		Results:    results,
	}
}
