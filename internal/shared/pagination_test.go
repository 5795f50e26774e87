package shared

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPager(t *testing.T) {
	first := NewPager(1, 10, 10)
	assert.False(t, first.HasPrev)
	assert.True(t, first.HasNext)
	assert.Equal(t, 2, first.NextPage)

	last := NewPager(3, 10, 4)
	assert.True(t, last.HasPrev)
	assert.False(t, last.HasNext)
	assert.Equal(t, 2, last.PrevPage)

	empty := NewPager(0, 0, 0)
	assert.Equal(t, 1, empty.Page)
	assert.Equal(t, 20, empty.PerPage)
	assert.False(t, empty.HasNext)
}

func TestPageURLKeepsFilters(t *testing.T) {
	q := url.Values{"q": {"print"}, "page": {"1"}}
	assert.Equal(t, "?page=2&q=print", PageURL(q, 2))
	assert.Equal(t, "1", q.Get("page"))
	assert.Equal(t, 1, PageFromQuery(url.Values{"page": {"-3"}}))
	assert.Equal(t, 4, PageFromQuery(url.Values{"page": {"4"}}))
}
