package domain

// Page size bounds applied when a caller passes no or an out-of-range size.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PaginationParams holds offset-based pagination parameters for list queries.
type PaginationParams struct {
	Page     int
	PageSize int
}

// Limit returns the page size clamped to [1, MaxPageSize].
func (p PaginationParams) Limit() int {
	switch {
	case p.PageSize < 1:
		return DefaultPageSize
	case p.PageSize > MaxPageSize:
		return MaxPageSize
	}
	return p.PageSize
}

// Offset returns the row offset for the current page (0-based).
func (p PaginationParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}
