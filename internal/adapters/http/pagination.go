package http

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultPageSize = 100
	maxPageSize     = 500
)

// PaginatedResponse wraps list results with pagination metadata.
type PaginatedResponse struct {
	Data       any        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Pagination contains offset-based pagination info.
type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total"`
}

func parsePagination(c *fiber.Ctx, total int) Pagination {
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", defaultPageSize)
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	return Pagination{Offset: offset, Limit: limit, Total: total}
}

// page cuts the window described by p out of items. It never returns nil so
// an empty page encodes as [].
func page[T any](items []T, p Pagination) []T {
	if p.Offset >= len(items) {
		return []T{}
	}
	end := min(p.Offset+p.Limit, len(items))
	return items[p.Offset:end]
}

// SetLinkHeaders adds RFC 8288 Link headers for paginated responses.
// It uses the current request path and query parameters.
func SetLinkHeaders(c *fiber.Ctx, p Pagination) {
	base := c.Path()
	var links []string

	// first
	links = append(links, fmt.Sprintf(`<%s?offset=0&limit=%d>; rel="first"`, base, p.Limit))

	// prev
	if p.Offset > 0 {
		prev := max(p.Offset-p.Limit, 0)
		links = append(links, fmt.Sprintf(`<%s?offset=%d&limit=%d>; rel="prev"`, base, prev, p.Limit))
	}

	// next
	if p.Offset+p.Limit < p.Total {
		links = append(links, fmt.Sprintf(`<%s?offset=%d&limit=%d>; rel="next"`, base, p.Offset+p.Limit, p.Limit))
	}

	// last
	lastOffset := max(p.Total-p.Limit, 0)
	links = append(links, fmt.Sprintf(`<%s?offset=%d&limit=%d>; rel="last"`, base, lastOffset, p.Limit))

	c.Set("Link", strings.Join(links, ", "))
}
