package forms

import (
	"fmt"
	"time"
)

// EAT is East Africa Time. Kenya has no daylight saving.
var EAT = time.FixedZone("EAT", 3*60*60)

const (
	dateLayout  = "2006-01-02"
	timeLayout  = "15:04"
	firstSlot   = 8
	lastSlot    = 16
	bookingLead = 2 // hours
)

// Slot is one bookable appointment time.
type Slot struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Disabled bool   `json:"disabled"`
}

// MinDate is the earliest selectable appointment date.
func MinDate(now time.Time) string {
	return now.In(EAT).Format(dateLayout)
}

// DefaultDate preselects tomorrow.
func DefaultDate(now time.Time) string {
	return now.In(EAT).AddDate(0, 0, 1).Format(dateLayout)
}

// Slots lists the hourly slots for date. Slots today that start less than two
// hours from now are disabled.
func Slots(date string, now time.Time) []Slot {
	local := now.In(EAT)
	today := date == local.Format(dateLayout)
	out := make([]Slot, 0, lastSlot-firstSlot+1)
	for h := firstSlot; h <= lastSlot; h++ {
		out = append(out, Slot{
			Value:    fmt.Sprintf("%02d:00", h),
			Label:    slotLabel(h),
			Disabled: today && h < local.Hour()+bookingLead,
		})
	}
	return out
}

func slotLabel(h int) string {
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	display := h % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:00 %s", display, suffix)
}

// checkSchedule validates an appointment date and time against now.
func checkSchedule(errs FieldErrors, date, clock string, now time.Time) time.Time {
	if date == "" {
		errs["date"] = requiredMessage
		return time.Time{}
	}
	day, err := time.ParseInLocation(dateLayout, date, EAT)
	if err != nil {
		errs["date"] = "Please select a valid date"
		return time.Time{}
	}
	local := now.In(EAT)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, EAT)
	if day.Before(today) {
		errs["date"] = "Please select today or a future date"
		return day
	}
	if clock == "" {
		errs["time"] = requiredMessage
		return day
	}
	t, err := time.Parse(timeLayout, clock)
	if err != nil {
		errs["time"] = "Please select a valid time"
		return day
	}
	if day.Equal(today) && t.Hour() < local.Hour()+bookingLead {
		errs["time"] = "Please select a time at least 2 hours from now"
	}
	return day
}
