package catalog

import "strings"

// Fact is one labelled value shown on a card or in the detail view.
type Fact struct {
	Label  string `json:"label"`
	Value  string `json:"value"`
	InCard bool   `json:"in_card"`
}

// List is a named list field such as services or requirements.
type List struct {
	Label  string   `json:"label"`
	Values []string `json:"values"`
	InCard bool     `json:"in_card"`
}

// Item is a normalized catalog record ready for rendering.
type Item struct {
	ID            string `json:"id"`
	Kind          string `json:"kind"`
	Category      string `json:"category"`
	CategoryLabel string `json:"category_label"`
	Title         string `json:"title"`
	Subtitle      string `json:"subtitle"`
	Slug          string `json:"slug"`
	Summary       string `json:"summary"`
	Body          string `json:"body"`
	ImageURL      string `json:"image_url"`
	VideoURL      string `json:"video_url,omitempty"`
	EmbedURL      string `json:"embed_url,omitempty"`
	Badge         string `json:"badge,omitempty"`
	Date          string `json:"date,omitempty"`
	Deadline      string `json:"deadline,omitempty"`
	Lists         []List `json:"lists,omitempty"`
	Facts         []Fact `json:"facts,omitempty"`
	Featured      bool   `json:"featured"`
	Emergency     bool   `json:"emergency"`
	Active        bool   `json:"active"`
}

// Anchor is the fragment id the share link points at.
func (it Item) Anchor() string {
	return it.Kind + "-item-" + it.ID
}

// CardLists returns the list fields shown on cards.
func (it Item) CardLists() []List {
	var out []List
	for _, l := range it.Lists {
		if l.InCard && len(l.Values) > 0 {
			out = append(out, l)
		}
	}
	return out
}

// CardFacts returns the facts shown on cards.
func (it Item) CardFacts() []Fact {
	var out []Fact
	for _, f := range it.Facts {
		if f.InCard {
			out = append(out, f)
		}
	}
	return out
}

// Matches reports whether term occurs, case-insensitively, in any searchable
// field. An empty term matches everything.
func (it Item) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, field := range []string{it.Title, it.Subtitle, it.Summary, it.Body, it.Category, it.CategoryLabel} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// InCategory reports whether the item carries tag. "all" matches everything.
func (it Item) InCategory(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" || strings.EqualFold(tag, CategoryAll) {
		return true
	}
	return strings.EqualFold(it.Category, tag)
}
