// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// PageSize is the default number of rows returned by paged API lists.
const PageSize = 50

// MaxPageSize caps the page_size a caller may ask for.
const MaxPageSize = 200

// Page is a 1-based page number plus its size.
type Page struct {
	Number int `json:"page"`
	Size   int `json:"page_size"`
}

// Offset returns the number of rows to skip for p.
func (p Page) Offset() int64 { return int64((p.Number - 1) * p.Size) }

// Limit returns p.Size as int64 for Mongo Find().SetLimit().
func (p Page) Limit() int64 { return int64(p.Size) }

// Parse reads the "page" and "page_size" query parameters. Missing or
// invalid values fall back to page 1 and PageSize; oversized pages are
// clamped to MaxPageSize.
func Parse(r *http.Request) Page {
	p := Page{Number: positive(query.Get(r, "page"), 1), Size: positive(query.Get(r, "page_size"), PageSize)}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func positive(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}
