package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage keeps Offset within a signed 32-bit column offset at any limit.
	MaxPage = 1_000_000
)

// Pagination is the page window requested by a list endpoint.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Offset returns the number of rows to skip.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Meta builds the pagination block returned alongside a page of results.
func (p Pagination) Meta(total int64) gin.H {
	totalPages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return gin.H{
		"page":       p.Page,
		"limit":      p.Limit,
		"total":      total,
		"totalPages": totalPages,
	}
}

// ParsePagination reads ?page and ?limit, falling back to the defaults for
// missing or malformed values and capping limit at MaxLimit and page at MaxPage.
func ParsePagination(c *gin.Context) Pagination {
	p := Pagination{Page: DefaultPage, Limit: DefaultLimit}

	if page, err := strconv.Atoi(c.Query("page")); err == nil && page > 0 {
		p.Page = page
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		p.Limit = limit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}
