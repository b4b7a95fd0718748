package cms

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// DetailsFallback is shown when a structured field cannot be flattened.
const DetailsFallback = "details available"

const stringifyLimit = 150

// ErrMalformedField is returned when a field does not have any supported shape.
var ErrMalformedField = errors.New("cms: malformed field")

// ExtractText flattens a CMS field into a display string. Strings are returned
// verbatim, rich-text block lists are flattened, and objects exposing text,
// content or description return that property. Absent data yields "".
func ExtractText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []any:
		return blocksText(val)
	case map[string]any:
		for _, key := range []string{"text", "content", "description"} {
			if inner, ok := val[key]; ok && inner != nil {
				if s := ExtractText(inner); s != "" {
					return s
				}
			}
		}
		return stringify(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return stringify(val)
	}
}

// blocksText joins the inline text of every paragraph block with single
// spaces. Each child is trimmed at its ends; whitespace inside a child is
// kept as written, the same as the string form of the field.
func blocksText(blocks []any) string {
	var parts []string
	for _, b := range blocks {
		block, ok := b.(map[string]any)
		if !ok || block["type"] != "paragraph" {
			continue
		}
		children, _ := block["children"].([]any)
		for _, c := range children {
			child, ok := c.(map[string]any)
			if !ok {
				continue
			}
			text, _ := child["text"].(string)
			if text = strings.TrimSpace(text); text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.Join(parts, " ")
}

func stringify(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return DetailsFallback
	}
	s := strings.TrimSpace(StripTags(buf.String()))
	switch s {
	case "", "{}", "[]", "null", `""`:
		return DetailsFallback
	}
	return Truncate(s, stringifyLimit)
}

// StripTags removes HTML markup and collapses whitespace.
func StripTags(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return strings.Join(strings.Fields(b.String()), " ")
			}
			return s
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			b.WriteByte(' ')
		}
	}
}

// Truncate shortens s to n runes, appending "..." when something was cut.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if n <= 0 || len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n])) + "..."
}

// ParseList normalizes a list-valued field. Native lists, JSON-encoded lists,
// relation envelopes ({data: [...]}) and newline separated text are accepted.
// Anything else yields an empty list and ErrMalformedField.
func ParseList(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return compact(val), nil
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s := strings.TrimSpace(listItemText(item)); s != "" {
				out = append(out, s)
			}
		}
		return out, nil
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return nil, nil
		}
		if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, `"`) {
			var decoded any
			if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedField, err)
			}
			if s, ok := decoded.(string); ok {
				return ParseList(s)
			}
			return ParseList(decoded)
		}
		return compact(strings.Split(trimmed, "\n")), nil
	case map[string]any:
		if data, ok := val["data"].([]any); ok {
			return ParseList(data)
		}
		return nil, fmt.Errorf("%w: object where list expected", ErrMalformedField)
	default:
		return nil, fmt.Errorf("%w: %T where list expected", ErrMalformedField, v)
	}
}

func listItemText(item any) string {
	m, ok := item.(map[string]any)
	if !ok {
		return ExtractText(item)
	}
	if attrs, ok := m["attributes"].(map[string]any); ok {
		m = attrs
	}
	for _, key := range []string{"name", "title", "label", "item", "value"} {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return ExtractText(m)
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ParseObject normalizes an object-valued field that may arrive JSON encoded.
func ParseObject(v any) (map[string]any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return val, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		var decoded map[string]any
		if err := json.Unmarshal([]byte(val), &decoded); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedField, err)
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("%w: %T where object expected", ErrMalformedField, v)
	}
}

// RelationName reads the display name of a relation field, which may be a
// plain string, a flat object or a {data: {attributes: {...}}} envelope.
func RelationName(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []any:
		if len(val) == 0 {
			return ""
		}
		return RelationName(val[0])
	case map[string]any:
		if data, ok := val["data"]; ok {
			return RelationName(data)
		}
		if attrs, ok := val["attributes"].(map[string]any); ok {
			return RelationName(attrs)
		}
		for _, key := range []string{"name", "title"} {
			if s, ok := val[key].(string); ok {
				return s
			}
		}
	}
	return ""
}

// String returns attrs[key] as a string, trying each key in order.
func String(attrs map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := attrs[key].(type) {
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

// Bool reports whether any of keys holds a truthy value.
func Bool(attrs map[string]any, keys ...string) bool {
	for _, key := range keys {
		switch v := attrs[key].(type) {
		case bool:
			if v {
				return true
			}
		case string:
			if b, err := strconv.ParseBool(v); err == nil && b {
				return true
			}
		}
	}
	return false
}
