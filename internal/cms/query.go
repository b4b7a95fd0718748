package cms

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// CategoryAll disables category filtering.
const CategoryAll = "all"

// ListQuery describes one list request against a CMS collection.
type ListQuery struct {
	Resource      string
	Category      string
	CategoryField string
	Search        string
	SearchFields  []string
	Filters       map[string]string
	Sort          []string
	Page          int
	PageSize      int
	Limit         int
}

func (q ListQuery) page() int {
	if q.Page < 1 {
		return 1
	}
	return q.Page
}

func (q ListQuery) pageSize() int {
	if q.Limit > 0 {
		return q.Limit
	}
	if q.PageSize < 1 {
		return 25
	}
	return q.PageSize
}

// Values encodes the query using the CMS bracket syntax, e.g.
// filters[category][$eq]=events&pagination[page]=2.
func (q ListQuery) Values() url.Values {
	v := url.Values{}
	v.Set("populate", "*")

	for i, s := range q.Sort {
		v.Set("sort["+strconv.Itoa(i)+"]", s)
	}

	if cat := strings.TrimSpace(q.Category); cat != "" && !strings.EqualFold(cat, CategoryAll) {
		field := q.CategoryField
		if field == "" {
			field = "category"
		}
		v.Set("filters["+field+"][$eq]", cat)
	}

	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v.Set("filters["+k+"][$eq]", q.Filters[k])
	}

	if term := strings.TrimSpace(q.Search); term != "" {
		for i, field := range q.SearchFields {
			v.Set("filters[$or]["+strconv.Itoa(i)+"]["+field+"][$containsi]", term)
		}
	}

	if q.Limit > 0 {
		v.Set("pagination[start]", "0")
		v.Set("pagination[limit]", strconv.Itoa(q.Limit))
	} else {
		v.Set("pagination[page]", strconv.Itoa(q.page()))
		v.Set("pagination[pageSize]", strconv.Itoa(q.pageSize()))
	}
	return v
}
