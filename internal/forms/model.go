package forms

import (
	"strings"
	"time"
)

// AppointmentRequest is the appointment booking form.
type AppointmentRequest struct {
	FullName   string `json:"fullName"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Department string `json:"department"`
	Doctor     string `json:"doctor"`
	Reason     string `json:"symptoms"`
}

// Validate checks the request against now and returns the parsed date.
func (r *AppointmentRequest) Validate(now time.Time) (time.Time, error) {
	errs := FieldErrors{}
	errs.required("fullName", r.FullName)
	if errs.required("phone", r.Phone) && !ValidKenyanPhone(r.Phone) {
		errs["phone"] = kenyanPhoneMessage
	}
	errs.email("email", r.Email, false)
	day := checkSchedule(errs, r.Date, r.Time, now)
	if errs.required("department", r.Department) && !doctorAllowed(r.Department, r.Doctor) {
		errs["doctor"] = "Please select a doctor from this department"
	}
	errs.required("symptoms", r.Reason)
	return day, errs.err()
}

// ContactRequest is the contact page enquiry form.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (r *ContactRequest) Validate() error {
	errs := FieldErrors{}
	errs.required("name", r.Name)
	errs.email("email", r.Email, true)
	errs.phone("phone", r.Phone, false)
	errs.required("message", r.Message)
	return errs.err()
}

// NewsletterRequest subscribes an address to the newsletter.
type NewsletterRequest struct {
	Email string `json:"email"`
}

func (r *NewsletterRequest) Validate() error {
	errs := FieldErrors{}
	errs.email("email", r.Email, true)
	return errs.err()
}

// Attachment is an uploaded file held in memory after the size check.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// JobApplication is an application for a posted vacancy.
type JobApplication struct {
	JobID         string
	JobTitle      string
	Name          string
	Email         string
	Phone         string
	Qualification string
	Experience    string
	CoverLetter   string
	CV            *Attachment
	Certificates  []Attachment
}

func (a *JobApplication) Validate() error {
	errs := FieldErrors{}
	errs.required("name", a.Name)
	errs.email("email", a.Email, true)
	errs.phone("phone", a.Phone, true)
	errs.required("qualification", a.Qualification)
	if a.CV == nil {
		errs["cv"] = "Please upload your CV"
	}
	return errs.err()
}

// GeneralApplication is an open application not tied to a vacancy.
type GeneralApplication struct {
	Name        string
	Email       string
	Phone       string
	Category    string
	Position    string
	Experience  string
	CoverLetter string
	CV          *Attachment
}

func (a *GeneralApplication) Validate() error {
	errs := FieldErrors{}
	errs.required("name", a.Name)
	errs.email("email", a.Email, true)
	errs.phone("phone", a.Phone, true)
	errs.required("category", a.Category)
	return errs.err()
}

func trim(s string) string { return strings.TrimSpace(s) }
