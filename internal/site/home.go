package site

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/wolfman30/hospital-site/internal/catalog"
	"github.com/wolfman30/hospital-site/internal/cms"
	"github.com/wolfman30/hospital-site/internal/render"
	"github.com/wolfman30/hospital-site/pkg/logging"
)

const (
	homeResource    = "home-page"
	aboutResource   = "about-page"
	featuredDoctors = 6

	defaultHeroTitle    = "Welcome to Kisii Teaching & Referral Hospital"
	defaultHeroSubtitle = "Quality, compassionate healthcare for Kisii County and the wider region"
	defaultHeroVideoID  = "IzZeZbr7Jf0"
	defaultAboutTitle   = "About Kisii Teaching & Referral Hospital"
)

// homeStat is one headline number. Key is the field name in the home-page
// stats object.
type homeStat struct {
	Key     string
	Label   string
	Default float64
	Suffix  string
}

var homeStats = []homeStat{
	{Key: "specialistDoctors", Label: "Specialist Doctors"},
	{Key: "hospitalBeds", Label: "Hospital Beds", Default: 500},
	{Key: "departments", Label: "Departments", Default: 50, Suffix: "+"},
	{Key: "yearsExperience", Label: "Years of Experience", Default: 25},
	{Key: "totalPatients", Label: "Patients Served", Default: 100000},
	{Key: "successRate", Label: "Success Rate", Default: 98, Suffix: "%"},
	{Key: "staffMembers", Label: "Staff Members", Default: 500},
}

// Home handles GET /home. The featured doctors and the home-page single type
// are fetched concurrently; either may fail without failing the page.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		wg       sync.WaitGroup
		featured []catalog.Item
		attrs    map[string]any
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		featured = h.featuredDoctors(ctx)
	}()
	go func() {
		defer wg.Done()
		a, err := h.cms.Single(ctx, homeResource)
		if err != nil {
			h.logger.Warn("home page content unavailable, using defaults", "error", err)
			return
		}
		attrs = a
	}()
	wg.Wait()

	html, err := h.renderer.Home(BuildHome(attrs, featured, h.logger))
	if err != nil {
		h.logger.Error("failed to render home", "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	writeHTML(w, http.StatusOK, html)
}

func (h *Handler) featuredDoctors(ctx context.Context) []catalog.Item {
	page := h.cms.List(ctx, cms.ListQuery{
		Resource: catalog.Doctors.Resource,
		Sort:     []string{"createdAt:desc"},
		Limit:    featuredDoctors,
	})
	now := h.now()
	out := make([]catalog.Item, 0, len(page.Items))
	for _, raw := range page.Items {
		if item := catalog.Doctors.NormalizeAt(raw, h.resolver, now, h.logger); item.Active {
			out = append(out, item)
		}
	}
	return out
}

// BuildHome merges home-page attributes over the built-in defaults. The
// specialist count defaults to the number of featured doctors loaded.
func BuildHome(attrs map[string]any, featured []catalog.Item, logger *logging.Logger) render.HomeData {
	d := render.HomeData{
		HeroTitle:    orDefault(cms.String(attrs, "heroTitle", "title"), defaultHeroTitle),
		HeroSubtitle: orDefault(cms.String(attrs, "heroSubtitle", "subtitle"), defaultHeroSubtitle),
		HeroVideo:    heroEmbed(cms.String(attrs, "heroVideoId", "heroVideo")),
		Featured:     featured,
	}

	overrides, err := cms.ParseObject(attrs["stats"])
	if err != nil {
		logMalformed(logger, "home", "stats", err)
	}
	for _, s := range homeStats {
		value := s.Default
		if s.Key == "specialistDoctors" {
			value = float64(len(featured))
		}
		if v, ok := number(overrides[s.Key]); ok && v != 0 {
			value = v
		}
		d.Stats = append(d.Stats, catalog.Fact{
			Label: s.Label,
			Value: strconv.FormatFloat(value, 'f', -1, 64) + s.Suffix,
		})
	}
	return d
}

func heroEmbed(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		v = defaultHeroVideoID
	}
	if embed := cms.EmbedURL(v); embed != "" {
		return embed
	}
	return "https://www.youtube.com/embed/" + v
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimRight(n, "+%")), 64)
		return f, err == nil
	}
	return 0, false
}

// aboutSections maps about-page fields to headed blocks, in page order.
var aboutSections = []struct {
	heading string
	keys    []string
	list    bool
}{
	{heading: "Overview", keys: []string{"description", "content", "overview"}},
	{heading: "Our Mission", keys: []string{"mission"}},
	{heading: "Our Vision", keys: []string{"vision"}},
	{heading: "Our History", keys: []string{"history"}},
	{heading: "Core Values", keys: []string{"values", "coreValues"}, list: true},
}

// About handles GET /about.
func (h *Handler) About(w http.ResponseWriter, r *http.Request) {
	attrs, err := h.cms.Single(r.Context(), aboutResource)
	if err != nil {
		h.logger.Warn("about page content unavailable", "error", err)
	}
	html, err := h.renderer.About(BuildAbout(attrs, h.logger))
	if err != nil {
		h.logger.Error("failed to render about", "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	writeHTML(w, http.StatusOK, html)
}

// BuildAbout turns about-page attributes into sections, skipping blank ones.
func BuildAbout(attrs map[string]any, logger *logging.Logger) render.AboutData {
	d := render.AboutData{Title: orDefault(cms.String(attrs, "title"), defaultAboutTitle)}
	for _, s := range aboutSections {
		for _, key := range s.keys {
			v, ok := attrs[key]
			if !ok || v == nil {
				continue
			}
			section := render.Section{Heading: s.heading}
			if s.list {
				items, err := cms.ParseList(v)
				if err != nil {
					logMalformed(logger, "about", key, err)
				}
				section.Items = items
			} else {
				section.Text = strings.TrimSpace(cms.ExtractText(v))
			}
			if section.Text != "" || len(section.Items) > 0 {
				d.Sections = append(d.Sections, section)
				break
			}
		}
	}
	return d
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func logMalformed(logger *logging.Logger, page, field string, err error) {
	if logger == nil {
		return
	}
	logger.Debug("malformed cms field", "page", page, "field", field, "error", err)
}
