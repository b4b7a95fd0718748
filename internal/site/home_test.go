package site

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/hospital-site/internal/catalog"
	"github.com/wolfman30/hospital-site/internal/cms"
	"github.com/wolfman30/hospital-site/pkg/logging"
)

func statValue(t *testing.T, stats []catalog.Fact, label string) string {
	t.Helper()
	for _, s := range stats {
		if s.Label == label {
			return s.Value
		}
	}
	t.Fatalf("no stat %q", label)
	return ""
}

func TestBuildHome_Defaults(t *testing.T) {
	featured := []catalog.Item{{ID: "1"}, {ID: "2"}}
	d := BuildHome(nil, featured, nil)

	assert.Equal(t, defaultHeroTitle, d.HeroTitle)
	assert.Equal(t, "https://www.youtube.com/embed/"+defaultHeroVideoID, d.HeroVideo)
	require.Len(t, d.Stats, len(homeStats))
	assert.Equal(t, "2", statValue(t, d.Stats, "Specialist Doctors"))
	assert.Equal(t, "500", statValue(t, d.Stats, "Hospital Beds"))
	assert.Equal(t, "50+", statValue(t, d.Stats, "Departments"))
	assert.Equal(t, "100000", statValue(t, d.Stats, "Patients Served"))
	assert.Equal(t, "98%", statValue(t, d.Stats, "Success Rate"))
}

func TestBuildHome_Overrides(t *testing.T) {
	attrs := map[string]any{
		"heroTitle":   "KTRH",
		"heroVideoId": "https://youtu.be/dQw4w9WgXcQ",
		"stats":       `{"specialistDoctors": 42, "hospitalBeds": "650", "successRate": 0}`,
	}
	d := BuildHome(attrs, nil, nil)

	assert.Equal(t, "KTRH", d.HeroTitle)
	assert.Equal(t, defaultHeroSubtitle, d.HeroSubtitle)
	assert.Equal(t, "https://www.youtube.com/embed/dQw4w9WgXcQ", d.HeroVideo)
	assert.Equal(t, "42", statValue(t, d.Stats, "Specialist Doctors"))
	assert.Equal(t, "650", statValue(t, d.Stats, "Hospital Beds"))
	assert.Equal(t, "98%", statValue(t, d.Stats, "Success Rate"), "zero keeps the default")
}

func TestBuildHome_MalformedStats(t *testing.T) {
	var buf bytes.Buffer
	d := BuildHome(map[string]any{"stats": "{not json"}, nil, logging.NewWithWriter("debug", &buf))
	assert.Equal(t, "500", statValue(t, d.Stats, "Hospital Beds"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "malformed cms field", rec["msg"])
	assert.Equal(t, "home", rec["page"])
	assert.Equal(t, "stats", rec["field"])
}

func TestHome(t *testing.T) {
	content := newFakeContent()
	for _, id := range []string{"1", "2", "3", "4", "5", "6", "7"} {
		content.add("doctors", cms.RawItem{ID: id, Attributes: map[string]any{"name": "Dr. " + id}})
	}
	content.singles["home-page"] = map[string]any{"heroSubtitle": "Caring for Kisii"}
	_, srv := newTestHandler(t, content)

	rec := get(t, srv, "/home")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Caring for Kisii")
	assert.Equal(t, 6, strings.Count(body, `data-action="open"`))

	var doctorQuery cms.ListQuery
	for _, q := range content.queries {
		if q.Resource == "doctors" {
			doctorQuery = q
		}
	}
	assert.Equal(t, 6, doctorQuery.Limit)
	assert.Equal(t, []string{"createdAt:desc"}, doctorQuery.Sort)
}

func TestHome_CMSDown(t *testing.T) {
	_, srv := newTestHandler(t, newFakeContent())
	rec := get(t, srv, "/home")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No doctors found")
	assert.Contains(t, rec.Body.String(), "Welcome to Kisii")
}

func TestBuildAbout(t *testing.T) {
	d := BuildAbout(map[string]any{
		"title":   "About KTRH",
		"mission": []any{map[string]any{"type": "paragraph", "children": []any{map[string]any{"text": "Serve all."}}}},
		"vision":  "",
		"values":  "Integrity\nCompassion",
	}, nil)
	assert.Equal(t, "About KTRH", d.Title)
	require.Len(t, d.Sections, 2)
	assert.Equal(t, "Our Mission", d.Sections[0].Heading)
	assert.Equal(t, "Serve all.", d.Sections[0].Text)
	assert.Equal(t, "Core Values", d.Sections[1].Heading)
	assert.Equal(t, []string{"Integrity", "Compassion"}, d.Sections[1].Items)

	assert.Equal(t, defaultAboutTitle, BuildAbout(nil, nil).Title)
}

func TestBuildAbout_MalformedValuesLogged(t *testing.T) {
	var buf bytes.Buffer
	d := BuildAbout(map[string]any{"values": "[Integrity"}, logging.NewWithWriter("debug", &buf))
	assert.Empty(t, d.Sections)
	assert.Contains(t, buf.String(), `"page":"about"`)
	assert.Contains(t, buf.String(), `"field":"values"`)
}

func TestAbout(t *testing.T) {
	content := newFakeContent()
	content.singles["about-page"] = map[string]any{"history": "Founded as Kisii District Hospital."}
	_, srv := newTestHandler(t, content)

	rec := get(t, srv, "/about")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Our History")
	assert.Contains(t, rec.Body.String(), "Founded as Kisii District Hospital.")

	_, srv = newTestHandler(t, newFakeContent())
	assert.Equal(t, http.StatusOK, get(t, srv, "/about").Code)
}
