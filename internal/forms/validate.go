package forms

import (
	"regexp"
	"sort"
	"strings"
)

// MaxCVBytes is the largest CV accepted.
const MaxCVBytes = 5 << 20

var (
	emailPattern       = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern       = regexp.MustCompile(`^[\d\s+\-()]{10,}$`)
	kenyanPhonePattern = regexp.MustCompile(`^(\+254|0)[17]\d{8}$`)
	nonDigit           = regexp.MustCompile(`\D`)
	whitespace         = regexp.MustCompile(`\s`)
)

const (
	requiredMessage    = "This field is required"
	emailMessage       = "Please enter a valid email address"
	phoneMessage       = "Please enter a valid phone number"
	kenyanPhoneMessage = "Please enter a valid Kenyan phone number (e.g., +254 712 345 678 or 0712 345 678)"
	cvTooLargeMessage  = "CV file size must be less than 5MB."
)

// FieldErrors maps a form field name to the message shown next to it.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "forms: invalid fields: " + strings.Join(fields, ", ")
}

func (e FieldErrors) required(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		e[field] = requiredMessage
		return false
	}
	return true
}

func (e FieldErrors) email(field, value string, required bool) {
	if value == "" {
		if required {
			e[field] = requiredMessage
		}
		return
	}
	if !ValidEmail(value) {
		e[field] = emailMessage
	}
}

func (e FieldErrors) phone(field, value string, required bool) {
	if value == "" {
		if required {
			e[field] = requiredMessage
		}
		return
	}
	if !ValidPhone(value) {
		e[field] = phoneMessage
	}
}

func (e FieldErrors) err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidPhone accepts any phone-like string of at least ten characters.
func ValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}

// ValidKenyanPhone accepts +2547XXXXXXXX, +2541XXXXXXXX, 07XXXXXXXX and
// 01XXXXXXXX, ignoring whitespace.
func ValidKenyanPhone(s string) bool {
	return kenyanPhonePattern.MatchString(whitespace.ReplaceAllString(s, ""))
}

// FormatKenyanPhone normalizes partial input to the +254 XXX XXX XXX display
// format as the user types.
func FormatKenyanPhone(input string) string {
	v := nonDigit.ReplaceAllString(input, "")
	switch {
	case strings.HasPrefix(v, "0"):
		v = "+254" + v[1:]
	case strings.HasPrefix(v, "254"):
		v = "+" + v
	case strings.HasPrefix(v, "7"), strings.HasPrefix(v, "1"):
		v = "+254" + v
	}
	if len(v) > 3 {
		v = v[:4] + " " + v[4:]
	}
	if len(v) > 8 {
		v = v[:8] + " " + v[8:]
	}
	if len(v) > 12 {
		end := len(v)
		if end > 15 {
			end = 15
		}
		v = v[:12] + " " + v[12:end]
	}
	return v
}
