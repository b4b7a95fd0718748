package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/hospital-site/pkg/logging"
)

// Recipients are the staff inboxes that receive form notifications.
type Recipients struct {
	HR        string
	Reception string
}

// ApplicationNotice describes a job or general application.
type ApplicationNotice struct {
	ApplicationID string
	JobTitle      string
	Name          string
	Email         string
	Phone         string
	Position      string
	CVKey         string
	Certificates  []string
	CoverLetter   string
}

// AppointmentNotice describes a booked appointment.
type AppointmentNotice struct {
	Reference  string
	Name       string
	Email      string
	Phone      string
	Department string
	Doctor     string
	Date       time.Time
	Time       string
	Reason     string
}

// ContactNotice describes a contact form message.
type ContactNotice struct {
	Name    string
	Email   string
	Phone   string
	Subject string
	Message string
}

// Notifier formats form submissions into staff emails.
type Notifier struct {
	email      EmailSender
	recipients Recipients
	logger     *logging.Logger
}

// NewNotifier creates a notifier. A nil sender disables email entirely.
func NewNotifier(email EmailSender, recipients Recipients, logger *logging.Logger) *Notifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &Notifier{email: email, recipients: recipients, logger: logger}
}

// Application tells HR about a new application.
func (n *Notifier) Application(ctx context.Context, a ApplicationNotice) error {
	if n == nil {
		return nil
	}
	subject := "New application"
	if a.JobTitle != "" {
		subject = fmt.Sprintf("Application for %s", a.JobTitle)
	}
	subject = fmt.Sprintf("%s - %s (%s)", subject, a.Name, a.ApplicationID)

	var b strings.Builder
	fmt.Fprintf(&b, "Application ID: %s\n", a.ApplicationID)
	line(&b, "Position", firstNonEmpty(a.JobTitle, a.Position))
	line(&b, "Name", a.Name)
	line(&b, "Email", a.Email)
	line(&b, "Phone", a.Phone)
	line(&b, "CV", a.CVKey)
	if len(a.Certificates) > 0 {
		fmt.Fprintf(&b, "Certificates: %s\n", strings.Join(a.Certificates, ", "))
	}
	if a.CoverLetter != "" {
		fmt.Fprintf(&b, "\nCover letter:\n%s\n", a.CoverLetter)
	}

	return n.send(ctx, EmailMessage{
		To:       n.recipients.HR,
		ReplyTo:  a.Email,
		Subject:  subject,
		Body:     b.String(),
		Category: CategoryApplication,
	})
}

// Appointment tells reception about a booking and, when the patient left an
// email address, sends them a confirmation.
func (n *Notifier) Appointment(ctx context.Context, a AppointmentNotice) error {
	if n == nil {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Reference: %s\n", a.Reference)
	line(&b, "Patient", a.Name)
	line(&b, "Phone", a.Phone)
	line(&b, "Email", a.Email)
	line(&b, "Department", a.Department)
	line(&b, "Doctor", a.Doctor)
	fmt.Fprintf(&b, "When: %s %s\n", a.Date.Format("Monday, January 2, 2006"), a.Time)
	line(&b, "Reason", a.Reason)

	if err := n.send(ctx, EmailMessage{
		To:       n.recipients.Reception,
		ReplyTo:  a.Email,
		Subject:  fmt.Sprintf("New appointment %s - %s", a.Reference, a.Name),
		Body:     b.String(),
		Category: CategoryAppointment,
	}); err != nil {
		return err
	}

	if a.Email == "" {
		return nil
	}
	confirmation := fmt.Sprintf(
		"Dear %s,\n\nYour appointment request has been received.\n\nReference: %s\nDate: %s\nTime: %s\n\nPlease arrive 15 minutes early and bring your reference number.\n",
		a.Name, a.Reference, a.Date.Format("Monday, January 2, 2006"), a.Time,
	)
	return n.send(ctx, EmailMessage{
		To:       a.Email,
		ToName:   a.Name,
		Subject:  "Appointment request received - " + a.Reference,
		Body:     confirmation,
		Category: CategoryConfirmation,
	})
}

// Contact forwards a contact message to reception.
func (n *Notifier) Contact(ctx context.Context, c ContactNotice) error {
	if n == nil {
		return nil
	}
	var b strings.Builder
	line(&b, "From", c.Name)
	line(&b, "Email", c.Email)
	line(&b, "Phone", c.Phone)
	fmt.Fprintf(&b, "\n%s\n", c.Message)

	subject := c.Subject
	if subject == "" {
		subject = "Website enquiry"
	}
	return n.send(ctx, EmailMessage{
		To:       n.recipients.Reception,
		ReplyTo:  c.Email,
		Subject:  "Contact: " + subject,
		Body:     b.String(),
		Category: CategoryContact,
	})
}

func (n *Notifier) send(ctx context.Context, msg EmailMessage) error {
	if n.email == nil {
		return nil
	}
	if msg.To == "" {
		n.logger.Warn("notify: no recipient configured", "subject", msg.Subject)
		return nil
	}
	if err := n.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: send %q: %w", msg.Subject, err)
	}
	return nil
}

func line(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, value)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
