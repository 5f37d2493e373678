package helpers

import (
	"net/http"
	"strconv"

	"eventhub/internal/domain"
)

// ParsePagination reads page and page_size (alias limit) from the query string.
// Missing or invalid values fall back to page 1 and the default size; sizes above
// the maximum are clamped.
func ParsePagination(r *http.Request) domain.PaginationParams {
	q := r.URL.Query()
	page := 1
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v >= 1 {
		page = v
	}
	raw := q.Get("page_size")
	if raw == "" {
		raw = q.Get("limit")
	}
	size := domain.DefaultPageSize
	if v, err := strconv.Atoi(raw); err == nil && v >= 1 {
		size = min(v, domain.MaxPageSize)
	}
	return domain.PaginationParams{Page: page, PageSize: size}
}

// PaginationMeta is the pagination metadata included in paginated list responses.
// swagger:model PaginationMeta
type PaginationMeta struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPaginationMeta builds PaginationMeta; TotalPages is ceil(total / pageSize).
func NewPaginationMeta(p domain.PaginationParams, total int) PaginationMeta {
	size := p.Limit()
	page := max(p.Page, 1)
	return PaginationMeta{
		Page:       page,
		PageSize:   size,
		Total:      total,
		TotalPages: (total + size - 1) / size,
	}
}
