package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wolfman30/hospital-site/internal/cms"
	"github.com/wolfman30/hospital-site/pkg/logging"
)

// maxClientPages bounds the initial fetch of client-filtered kinds.
const maxClientPages = 20

// ErrStale is returned when a fetch finished after a newer one was issued.
// The result was discarded and the returned view reflects the newer state.
var ErrStale = errors.New("catalog: response superseded by a newer request")

// Fetcher lists one page of a CMS collection. *cms.Client satisfies it.
type Fetcher interface {
	List(ctx context.Context, q cms.ListQuery) cms.Page
}

// State is the active filter of one catalog page.
type State struct {
	Category string `json:"category"`
	Search   string `json:"search"`
}

// EmptyState explains why nothing is displayed.
type EmptyState struct {
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// View is a snapshot of what a catalog page should display.
type View struct {
	Kind       *Kind
	State      State
	Items      []Item
	Categories []string
	Matched    int
	Total      int
	HasMore    bool
	Empty      *EmptyState
}

// Controller owns the filter state and item list for one catalog page.
// It is safe for concurrent use.
type Controller struct {
	kind     *Kind
	fetcher  Fetcher
	resolver *cms.Resolver
	logger   *logging.Logger
	now      func() time.Time

	mu         sync.Mutex
	state      State
	all        []Item
	pagination cms.Pagination
	visible    int
	seq        uint64
	// gen identifies the list in c.all; it moves on every replacing fetch.
	gen       uint64
	replacing uint64 // seq of the replacing fetch in flight, 0 when none
}

// NewController creates a controller in the initial state (category "all",
// empty search, nothing loaded).
func NewController(kind *Kind, fetcher Fetcher, resolver *cms.Resolver, logger *logging.Logger) *Controller {
	if logger == nil {
		logger = logging.Default()
	}
	if resolver == nil {
		resolver = cms.NewResolver("")
	}
	return &Controller{
		kind:     kind,
		fetcher:  fetcher,
		resolver: resolver,
		logger:   logger,
		now:      time.Now,
		state:    State{Category: CategoryAll},
		visible:  kind.VisibleInitial,
	}
}

// Kind returns the kind this controller serves.
func (c *Controller) Kind() *Kind {
	return c.kind
}

// State returns the active filter.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Load fetches the first page (or, for client-filtered kinds, every page).
func (c *Controller) Load(ctx context.Context) (View, error) {
	return c.refetch(ctx, 1, false)
}

// Restore applies a saved filter and loads the first pages of results, as
// when a page is opened from a shared query string.
func (c *Controller) Restore(ctx context.Context, s State, pages int) (View, error) {
	s.Category = strings.TrimSpace(s.Category)
	if s.Category == "" {
		s.Category = CategoryAll
	}
	s.Search = strings.TrimSpace(s.Search)
	if pages > maxClientPages {
		pages = maxClientPages
	}

	c.mu.Lock()
	c.state = s
	c.visible = c.kind.VisibleInitial
	c.mu.Unlock()

	v, err := c.Load(ctx)
	for i := 1; i < pages && err == nil && v.HasMore; i++ {
		v, err = c.LoadMore(ctx)
	}
	return v, err
}

// SelectCategory switches the category filter. Client-filtered kinds derive
// the subset in memory; server-filtered kinds refetch page 1.
func (c *Controller) SelectCategory(ctx context.Context, tag string) (View, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		tag = CategoryAll
	}
	c.mu.Lock()
	c.state.Category = tag
	c.visible = c.kind.VisibleInitial
	if !c.kind.ServerSide {
		defer c.mu.Unlock()
		return c.viewLocked(), nil
	}
	c.mu.Unlock()
	return c.refetch(ctx, 1, false)
}

// SetSearch applies a case-insensitive substring search. An empty term
// restores the full list for the active category.
func (c *Controller) SetSearch(ctx context.Context, term string) (View, error) {
	term = strings.TrimSpace(term)
	c.mu.Lock()
	c.state.Search = term
	c.visible = c.kind.VisibleInitial
	if !c.kind.ServerSide {
		defer c.mu.Unlock()
		return c.viewLocked(), nil
	}
	c.mu.Unlock()
	return c.refetch(ctx, 1, false)
}

// LoadMore appends the next page while one exists. For client-filtered kinds
// with a visible window it widens the window instead.
func (c *Controller) LoadMore(ctx context.Context) (View, error) {
	c.mu.Lock()
	if !c.kind.ServerSide {
		defer c.mu.Unlock()
		if c.kind.VisibleStep > 0 {
			c.visible += c.kind.VisibleStep
		}
		return c.viewLocked(), nil
	}
	if !c.pagination.HasMore() {
		defer c.mu.Unlock()
		return c.viewLocked(), nil
	}
	if c.replacing != 0 {
		// The held pagination belongs to the list being replaced.
		defer c.mu.Unlock()
		c.logger.Debug("load more skipped while list is refetching", "kind", c.kind.Name)
		return c.viewLocked(), ErrStale
	}
	next := c.pagination.Page + 1
	c.mu.Unlock()
	return c.refetch(ctx, next, true)
}

// View returns the current snapshot without fetching.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Find returns a loaded item by id.
func (c *Controller) Find(id string) (Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, it := range c.all {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// refetch issues a fetch tagged with a new sequence number. When the
// response arrives after a newer fetch was issued it is dropped, so the
// last issued request always wins. An appended page is also dropped when
// the list it continues has since been replaced.
func (c *Controller) refetch(ctx context.Context, page int, appendPage bool) (View, error) {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	if !appendPage {
		c.gen++
		c.replacing = seq
	}
	gen := c.gen
	q := c.kind.Query(c.state, page)
	c.mu.Unlock()

	items, pagination := c.fetch(ctx, q)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.replacing == seq {
		c.replacing = 0
	}
	if seq != c.seq || gen != c.gen {
		c.logger.Debug("discarding stale catalog response", "kind", c.kind.Name, "seq", seq, "latest", c.seq)
		return c.viewLocked(), ErrStale
	}
	if appendPage {
		c.all = append(c.all, items...)
	} else {
		c.all = items
	}
	c.pagination = pagination
	return c.viewLocked(), nil
}

func (c *Controller) fetch(ctx context.Context, q cms.ListQuery) ([]Item, cms.Pagination) {
	page := c.fetcher.List(ctx, q)
	items := c.normalize(page.Items)
	if c.kind.ServerSide {
		return items, page.Pagination
	}

	pagination := page.Pagination
	for pagination.HasMore() && pagination.Page < maxClientPages {
		if ctx.Err() != nil {
			break
		}
		q.Page = pagination.Page + 1
		next := c.fetcher.List(ctx, q)
		if len(next.Items) == 0 {
			break
		}
		items = append(items, c.normalize(next.Items)...)
		pagination = next.Pagination
	}
	return items, pagination
}

func (c *Controller) normalize(raw []cms.RawItem) []Item {
	now := c.now()
	items := make([]Item, 0, len(raw))
	for _, r := range raw {
		item := c.kind.NormalizeAt(r, c.resolver, now, c.logger)
		if !item.Active {
			continue
		}
		items = append(items, item)
	}
	return items
}

func (c *Controller) viewLocked() View {
	filtered := c.all
	if !c.kind.ServerSide {
		filtered = make([]Item, 0, len(c.all))
		for _, it := range c.all {
			if it.InCategory(c.state.Category) && it.Matches(c.state.Search) {
				filtered = append(filtered, it)
			}
		}
	}

	shown := filtered
	if !c.kind.ServerSide && c.visible > 0 && len(shown) > c.visible {
		shown = shown[:c.visible]
	}

	v := View{
		Kind:       c.kind,
		State:      c.state,
		Items:      append([]Item(nil), shown...),
		Categories: c.categoriesLocked(),
		Matched:    len(filtered),
		Total:      len(c.all),
	}
	if c.kind.ServerSide {
		v.HasMore = c.pagination.HasMore()
		v.Total = c.pagination.Total
	} else {
		v.HasMore = len(shown) < len(filtered)
	}
	if len(v.Items) == 0 {
		v.Empty = emptyState(c.state)
	}
	return v
}

func (c *Controller) categoriesLocked() []string {
	if len(c.kind.Categories) > 0 {
		return c.kind.Categories
	}
	seen := map[string]bool{}
	var tags []string
	for _, it := range c.all {
		key := strings.ToLower(it.Category)
		if it.Category == "" || seen[key] {
			continue
		}
		seen[key] = true
		tags = append(tags, it.Category)
	}
	sort.Strings(tags)
	return append([]string{CategoryAll}, tags...)
}

func emptyState(s State) *EmptyState {
	switch {
	case s.Search != "":
		return &EmptyState{
			Message: fmt.Sprintf("No results for %q", s.Search),
			Hint:    "Try a different search term.",
		}
	case s.Category != "" && !strings.EqualFold(s.Category, CategoryAll):
		return &EmptyState{
			Message: "No results for category " + s.Category,
			Hint:    `Try selecting "All" to see everything.`,
		}
	default:
		return &EmptyState{Message: "No items found"}
	}
}
