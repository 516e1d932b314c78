package utils

import (
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const MaxPageLimit = 100

// Pagination is a zero-based page of fixed size.
type Pagination struct {
	Page  int
	Limit int
}

func (p Pagination) Offset() int {
	return p.Page * p.Limit
}

// ParsePagination reads ?page and ?limit. Invalid or negative values fall
// back to page 0 and defaultLimit; limit is capped at MaxPageLimit.
func ParsePagination(c *gin.Context, defaultLimit int) Pagination {
	p := Pagination{Page: 0, Limit: defaultLimit}

	if page, err := strconv.Atoi(c.Query("page")); err == nil && page >= 0 {
		p.Page = page
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		p.Limit = limit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p.capped()
}

// ParsePage reads ?page for listings with a fixed page size.
func ParsePage(c *gin.Context, limit int) Pagination {
	p := Pagination{Page: 0, Limit: limit}
	if page, err := strconv.Atoi(c.Query("page")); err == nil && page >= 0 {
		p.Page = page
	}
	return p.capped()
}

// capped bounds Page so Offset stays within int32.
func (p Pagination) capped() Pagination {
	if p.Limit < 1 {
		p.Limit = 1
	}
	if maxPage := math.MaxInt32 / p.Limit; p.Page > maxPage {
		p.Page = maxPage
	}
	return p
}

// NameFilter turns a client name filter into a LIKE pattern. "*" matches any
// run of characters; a filter without "*" matches exactly. Empty means no filter.
func NameFilter(name string) (pattern string, ok bool) {
	name = strings.TrimSpace(name)
	if name == "" || name == "*" {
		return "", false
	}
	replacer := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return strings.ReplaceAll(replacer.Replace(name), "*", "%"), true
}
