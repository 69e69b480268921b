// Package listutil parses list-page query strings and computes pagination
// for the admin tables and the public advice list.
package listutil

import (
	"net/url"
	"slices"
	"strconv"
)

// DefaultPerPage is the number of rows per page when none is requested.
const DefaultPerPage = 20

// PerPageOptions are the rows-per-page values offered in the page-size picker.
var PerPageOptions = []int{10, 20, 50}

// Params is a parsed list request.
type Params struct {
	Page    int    // 1-indexed
	PerPage int    // one of PerPageOptions
	Status  string // empty when unfiltered
	Search  string
}

// Parse extracts page, per_page, status and q from q.
// Unknown statuses are dropped rather than rejected.
// POST: Page >= 1, PerPage is one of PerPageOptions
func Parse(q url.Values, statuses []string) Params {
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if !slices.Contains(PerPageOptions, perPage) {
		perPage = DefaultPerPage
	}
	status := q.Get("status")
	if !slices.Contains(statuses, status) {
		status = ""
	}
	return Params{Page: page, PerPage: perPage, Status: status, Search: q.Get("q")}
}

// Page is the pagination state rendered under a table.
type Page struct {
	Number     int // current page, clamped into 1..TotalPages
	PerPage    int
	Total      int
	TotalPages int
}

// NewPage computes pagination for total rows.
// POST: TotalPages >= 1 and 1 <= Number <= TotalPages
func NewPage(number, perPage, total int) Page {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	totalPages := max((total+perPage-1)/perPage, 1)
	return Page{
		Number:     min(max(number, 1), totalPages),
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Offset returns the SQL OFFSET for the current page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// FirstRow returns the 1-indexed first row shown, 0 when empty.
func (p Page) FirstRow() int {
	if p.Total == 0 {
		return 0
	}
	return p.Offset() + 1
}

// LastRow returns the 1-indexed last row shown.
func (p Page) LastRow() int {
	return min(p.Offset()+p.PerPage, p.Total)
}

// HasPrevious reports whether a previous page exists.
func (p Page) HasPrevious() bool { return p.Number > 1 }

// HasNext reports whether a next page exists.
func (p Page) HasNext() bool { return p.Number < p.TotalPages }

// Numbers returns at most five page numbers around the current page.
func (p Page) Numbers() []int {
	const buttons = 5
	start := max(p.Number-buttons/2, 1)
	end := min(start+buttons-1, p.TotalPages)
	start = max(end-buttons+1, 1)
	out := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		out = append(out, i)
	}
	return out
}

// Show reports whether pagination controls are needed.
func (p Page) Show() bool {
	return p.Total > p.PerPage
}

// Link returns q with page set to n, encoded for an href.
func Link(q url.Values, n int) string {
	next := url.Values{}
	for k, vs := range q {
		next[k] = append([]string(nil), vs...)
	}
	next.Set("page", strconv.Itoa(n))
	return "?" + next.Encode()
}
