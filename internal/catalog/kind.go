package catalog

import (
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/hospital-site/internal/cms"
	"github.com/wolfman30/hospital-site/pkg/logging"
)

// CategoryAll is the tag that disables category filtering.
const CategoryAll = cms.CategoryAll

const cardSummaryLimit = 150

// FactField maps CMS attribute keys onto a labelled fact.
type FactField struct {
	Label   string
	Keys    []string
	Default string
	InCard  bool
}

// ListField maps a list-valued CMS attribute onto a named list.
type ListField struct {
	Label  string
	Key    string
	InCard bool
}

// Kind configures how one CMS collection is fetched, normalized and filtered.
// Every catalog page is an instance of Kind rather than its own module.
type Kind struct {
	Name            string
	Resource        string
	Label           string
	CategoryField   string
	DefaultCategory string
	Categories      []string
	CategoryLabels  map[string]string

	TitleKeys       []string
	DefaultTitle    string
	SubtitleKeys    []string
	DefaultSubtitle string
	SummaryKeys     []string
	DefaultSummary  string
	SummaryLimit    int
	BodyKeys        []string
	MediaKeys       []string
	VideoKey        string
	Placeholder     string

	FeaturedKeys  []string
	EmergencyKeys []string
	ActiveKeys    []string

	Lists []ListField
	Facts []FactField

	SearchFields []string
	Sort         []string
	Filters      map[string]string

	// ServerSide kinds refetch on every filter change and paginate with
	// LoadMore. Client-side kinds fetch once and filter in memory, showing
	// VisibleInitial items and VisibleStep more per LoadMore when set.
	ServerSide     bool
	PageSize       int
	VisibleInitial int
	VisibleStep    int

	Enrich func(attrs map[string]any, item *Item, now time.Time)
}

// NormalizeAt maps a raw record onto an Item. It never fails: missing fields
// take the kind's defaults and missing media falls back to a placeholder.
// Malformed list fields come out empty and are reported to logger at debug
// level when logger is non-nil.
func (k *Kind) NormalizeAt(raw cms.RawItem, r *cms.Resolver, now time.Time, logger *logging.Logger) Item {
	attrs := raw.Attributes
	if attrs == nil {
		attrs = map[string]any{}
	}

	item := Item{
		ID:       raw.ID,
		Kind:     k.Name,
		Title:    orDefault(textOf(attrs, k.TitleKeys), k.DefaultTitle),
		Subtitle: orDefault(textOf(attrs, k.SubtitleKeys), k.DefaultSubtitle),
		Body:     textOf(attrs, k.BodyKeys),
	}

	item.Category = strings.TrimSpace(cms.RelationName(attrs[k.CategoryField]))
	if item.Category == "" {
		item.Category = k.DefaultCategory
	}
	item.CategoryLabel = k.categoryLabel(item.Category)

	item.Slug = cms.String(attrs, "slug")
	if item.Slug == "" {
		item.Slug = item.ID
	}

	summary := orDefault(textOf(attrs, k.SummaryKeys), k.DefaultSummary)
	limit := k.SummaryLimit
	if limit == 0 {
		limit = cardSummaryLimit
	}
	item.Summary = cms.Truncate(summary, limit)
	if item.Body == "" {
		item.Body = summary
	}

	for _, key := range k.MediaKeys {
		if u := r.URL(attrs[key]); u != "" {
			item.ImageURL = u
			break
		}
	}
	if k.VideoKey != "" {
		item.VideoURL = cms.String(attrs, k.VideoKey)
		item.EmbedURL = cms.EmbedURL(item.VideoURL)
	}

	item.Featured = cms.Bool(attrs, k.FeaturedKeys...)
	item.Emergency = cms.Bool(attrs, k.EmergencyKeys...)
	item.Active = len(k.ActiveKeys) == 0 || cms.Bool(attrs, k.ActiveKeys...)

	for _, lf := range k.Lists {
		values, err := cms.ParseList(attrs[lf.Key])
		if err != nil && logger != nil {
			logger.Debug("malformed cms field", "kind", k.Name, "field", lf.Key, "id", raw.ID, "error", err)
		}
		item.Lists = append(item.Lists, List{Label: lf.Label, Values: values, InCard: lf.InCard})
	}
	for _, ff := range k.Facts {
		value := orDefault(textOf(attrs, ff.Keys), ff.Default)
		if value == "" {
			continue
		}
		item.Facts = append(item.Facts, Fact{Label: ff.Label, Value: value, InCard: ff.InCard})
	}

	if k.Enrich != nil {
		k.Enrich(attrs, &item, now)
	}

	if item.ImageURL == "" {
		placeholder := k.Placeholder
		if placeholder == "" {
			placeholder = item.Category
		}
		item.ImageURL = r.Placeholder(placeholder)
	}
	return item
}

func (k *Kind) categoryLabel(tag string) string {
	if label, ok := k.CategoryLabels[strings.ToLower(tag)]; ok {
		return label
	}
	return titleCase(tag)
}

// Query builds the CMS list query for the given state and page.
func (k *Kind) Query(state State, page int) cms.ListQuery {
	q := cms.ListQuery{
		Resource:      k.Resource,
		CategoryField: k.CategoryField,
		Sort:          k.Sort,
		Filters:       k.Filters,
		Page:          page,
		PageSize:      k.PageSize,
	}
	if k.ServerSide {
		q.Category = state.Category
		q.Search = state.Search
		q.SearchFields = k.SearchFields
	}
	return q
}

func textOf(attrs map[string]any, keys []string) string {
	for _, key := range keys {
		if s := strings.TrimSpace(cms.ExtractText(attrs[key])); s != "" {
			return s
		}
	}
	return ""
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func titleCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '_' || r == ' ' })
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func formatDate(s string) string {
	t, ok := parseDate(s)
	if !ok {
		return ""
	}
	return t.Format("January 2, 2006")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}
