package shared

import (
	"net/url"
	"strconv"
)

// Pager describes "page N of unknown total" navigation. The backend does
// not report totals, so a full page is the only signal that more rows exist.
type Pager struct {
	Page     int
	PerPage  int
	Loaded   int
	HasPrev  bool
	HasNext  bool
	PrevPage int
	NextPage int
}

// NewPager computes pager state after loading `loaded` rows for `page`.
func NewPager(page, perPage, loaded int) Pager {
	if perPage <= 0 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}
	p := Pager{Page: page, PerPage: perPage, Loaded: loaded}
	p.HasPrev = page > 1
	p.HasNext = loaded >= perPage
	if p.HasPrev {
		p.PrevPage = page - 1
	}
	if p.HasNext {
		p.NextPage = page + 1
	}
	return p
}

// PageFromQuery reads the `page` parameter, defaulting to 1.
func PageFromQuery(q url.Values) int {
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// PageURL returns the query string for another page, keeping other params.
func PageURL(q url.Values, page int) string {
	next := url.Values{}
	for k, v := range q {
		next[k] = append([]string(nil), v...)
	}
	next.Set("page", strconv.Itoa(page))
	return "?" + next.Encode()
}
