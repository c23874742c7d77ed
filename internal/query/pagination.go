package query

import "strconv"

// Pagination defaults. Both values are substituted whenever the request
// carries junk instead of a positive integer.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// Pagination is a validated page/limit pair.
type Pagination struct {
	Page  int
	Limit int
}

// PageRef points at an adjacent page in a listing.
type PageRef struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Window describes the neighbours of the returned page. Next is present iff
// documents remain past the window; Prev iff the window does not start at
// the first document.
type Window struct {
	Next *PageRef `json:"next,omitempty"`
	Prev *PageRef `json:"prev,omitempty"`
}

// ParsePagination builds a Pagination from raw request values, falling back
// to defaults for absent, non-numeric, or non-positive input.
func ParsePagination(pageRaw, limitRaw string) Pagination {
	page, err := strconv.Atoi(pageRaw)
	if err != nil || page < 1 {
		page = DefaultPage
	}
	limit, err := strconv.Atoi(limitRaw)
	if err != nil || limit < 1 {
		limit = DefaultLimit
	}
	return Pagination{Page: page, Limit: limit}
}

// Offset returns the skip count for the window.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Window computes the next/prev descriptors against the total match count.
// A page beyond the last one yields an empty window with only Prev set.
func (p Pagination) Window(total int64) Window {
	var w Window
	if int64(p.Offset()+p.Limit) < total {
		w.Next = &PageRef{Page: p.Page + 1, Limit: p.Limit}
	}
	if p.Offset() > 0 {
		w.Prev = &PageRef{Page: p.Page - 1, Limit: p.Limit}
	}
	return w
}
