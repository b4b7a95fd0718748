package cms

import (
	"errors"
	"strconv"
)

var (
	// ErrNotFound is returned when the CMS has no record for the request.
	ErrNotFound = errors.New("cms: not found")

	// ErrUpstream is returned for non-2xx responses and transport failures.
	ErrUpstream = errors.New("cms: upstream error")

	// ErrUnexpectedShape is returned when a response envelope is not recognized.
	ErrUnexpectedShape = errors.New("cms: unexpected response shape")
)

// RawItem is one CMS record with its attributes flattened out of the
// {id, attributes} envelope. ID is opaque and not validated.
type RawItem struct {
	ID         string
	Attributes map[string]any
}

// Pagination mirrors the CMS meta.pagination block.
type Pagination struct {
	Page      int `json:"page"`
	PageSize  int `json:"pageSize"`
	PageCount int `json:"pageCount"`
	Total     int `json:"total"`
}

// HasMore reports whether another page can be requested.
func (p Pagination) HasMore() bool {
	return p.Page < p.PageCount
}

// Page is a normalized list response.
type Page struct {
	Items      []RawItem
	Pagination Pagination
}

func emptyPage(page, size int) Page {
	return Page{
		Items:      []RawItem{},
		Pagination: Pagination{Page: page, PageSize: size, PageCount: 1, Total: 0},
	}
}

// decodeItem unwraps either {id, attributes: {...}} or a flat record.
func decodeItem(v any) (RawItem, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return RawItem{}, false
	}
	item := RawItem{ID: idOf(obj)}
	if attrs, ok := obj["attributes"].(map[string]any); ok {
		item.Attributes = attrs
		if item.ID == "" {
			item.ID = idOf(attrs)
		}
	} else {
		item.Attributes = obj
	}
	return item, true
}

func idOf(obj map[string]any) string {
	for _, key := range []string{"id", "documentId", "_id"} {
		switch v := obj[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func intOf(v any, fallback int) int {
	if f, ok := v.(float64); ok {
		return int(f)
	}
	return fallback
}

// decodeEnvelope accepts {data: [...], meta: {pagination}} or a bare list.
func decodeEnvelope(body any) ([]RawItem, *Pagination, error) {
	var list []any
	var meta map[string]any
	switch val := body.(type) {
	case []any:
		list = val
	case map[string]any:
		data, ok := val["data"].([]any)
		if !ok {
			return nil, nil, ErrUnexpectedShape
		}
		list = data
		meta, _ = val["meta"].(map[string]any)
	default:
		return nil, nil, ErrUnexpectedShape
	}

	items := make([]RawItem, 0, len(list))
	for _, elem := range list {
		if item, ok := decodeItem(elem); ok {
			items = append(items, item)
		}
	}

	pg, ok := meta["pagination"].(map[string]any)
	if !ok {
		return items, nil, nil
	}
	return items, &Pagination{
		Page:      intOf(pg["page"], 1),
		PageSize:  intOf(pg["pageSize"], len(items)),
		PageCount: intOf(pg["pageCount"], 1),
		Total:     intOf(pg["total"], len(items)),
	}, nil
}
