package query

import (
	"math"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
)

// Page is a window over the matching documents.
type Page struct {
	Number int
	Limit  int
}

// ParsePage reads the page and limit parameters. Missing, non-numeric or
// non-positive values fall back to the defaults; limit is clamped to maxLimit
// when maxLimit is positive.
func ParsePage(page, limit string, defaultLimit, maxLimit int) Page {
	if defaultLimit < 1 {
		defaultLimit = DefaultLimit
	}

	p := Page{
		Number: positiveOr(page, DefaultPage),
		Limit:  positiveOr(limit, defaultLimit),
	}
	if maxLimit > 0 && p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

func positiveOr(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}

// Skip is the number of matching documents before this page. It saturates at
// math.MaxInt64 instead of overflowing for absurd page numbers.
func (p Page) Skip() int64 {
	before, limit := int64(p.Number-1), int64(p.Limit)
	if before <= 0 || limit <= 0 {
		return 0
	}
	if before > math.MaxInt64/limit {
		return math.MaxInt64
	}
	return before * limit
}

// TotalPages is ceil(total/limit).
func (p Page) TotalPages(total int64) int64 {
	if total <= 0 {
		return 0
	}
	limit := int64(p.Limit)
	return (total + limit - 1) / limit
}
