package forms

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/wolfman30/hospital-site/internal/appointments"
	"github.com/wolfman30/hospital-site/internal/notify"
)

const referenceAttempts = 5

// BookAppointment handles POST /appointment.
func (h *Handler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	const form = "appointment"
	var req AppointmentRequest
	err := decode(r, &req, func(get func(string) string) {
		req = AppointmentRequest{
			FullName:   get("fullName"),
			Phone:      get("phone"),
			Email:      get("email"),
			Date:       get("date"),
			Time:       get("time"),
			Department: get("department"),
			Doctor:     get("doctor"),
			Reason:     get("symptoms"),
		}
	})
	if err != nil {
		h.logger.Error("failed to decode request", "form", form, "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	now := h.now()
	day, err := req.Validate(now)
	if err != nil {
		h.reject(w, form, err, req)
		return
	}
	if req.Doctor == "" {
		req.Doctor = AnyDoctor.ID
	}

	appt := &appointments.Appointment{
		Name:       req.FullName,
		Phone:      req.Phone,
		Email:      req.Email,
		Department: req.Department,
		Doctor:     req.Doctor,
		Date:       day,
		Time:       req.Time,
		Reason:     req.Reason,
		Status:     appointments.StatusPending,
	}
	if err := h.createAppointment(r, appt, now); err != nil {
		h.logger.Error("failed to store appointment", "error", err)
		h.fail(w, form, "Sorry, we could not book your appointment. Please try again.", req)
		return
	}
	h.logger.Info("appointment booked", "reference", appt.Reference, "department", appt.Department)

	ctx := r.Context()
	if _, err := h.cms.Submit(ctx, AppointmentCollection, map[string]any{
		"reference":  appt.Reference,
		"fullName":   appt.Name,
		"phone":      appt.Phone,
		"email":      appt.Email,
		"department": appt.Department,
		"doctor":     appt.Doctor,
		"date":       req.Date,
		"time":       appt.Time,
		"symptoms":   appt.Reason,
		"status":     appt.Status,
	}); err != nil {
		h.logger.Warn("failed to forward appointment to cms", "reference", appt.Reference, "error", err)
	}
	if err := h.notifier.Appointment(ctx, notify.AppointmentNotice{
		Reference:  appt.Reference,
		Name:       appt.Name,
		Email:      appt.Email,
		Phone:      FormatKenyanPhone(appt.Phone),
		Department: appt.Department,
		Doctor:     DoctorName(appt.Doctor),
		Date:       day,
		Time:       appt.Time,
		Reason:     appt.Reason,
	}); err != nil {
		h.logger.Warn("failed to send appointment notification", "reference", appt.Reference, "error", err)
	}

	h.succeed(w, form, appt.Reference,
		fmt.Sprintf("Appointment requested. Your reference number is %s.", appt.Reference))
}

func (h *Handler) createAppointment(r *http.Request, appt *appointments.Appointment, now time.Time) error {
	var err error
	for i := 0; i < referenceAttempts; i++ {
		appt.Reference = NewReference(now.In(EAT))
		err = h.repo.Create(r.Context(), appt)
		if !errors.Is(err, appointments.ErrDuplicateReference) {
			return err
		}
	}
	return err
}

// OptionsResponse feeds the appointment form selects.
type OptionsResponse struct {
	Departments     []string       `json:"departments"`
	Doctors         []DoctorOption `json:"doctors"`
	Slots           []Slot         `json:"slots"`
	MinDate         string         `json:"min_date"`
	Date            string         `json:"date"`
	SelectedService string         `json:"selected_service,omitempty"`
}

// AppointmentOptions handles GET /appointment/options?department=&date=.
func (h *Handler) AppointmentOptions(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	date := r.URL.Query().Get("date")
	if _, err := time.Parse(dateLayout, date); err != nil {
		date = DefaultDate(now)
	}
	resp := OptionsResponse{
		Departments: Departments(),
		Doctors:     DoctorsFor(r.URL.Query().Get("department")),
		Slots:       Slots(date, now),
		MinDate:     MinDate(now),
		Date:        date,
	}
	if c, err := r.Cookie(SelectedServiceCookie); err == nil {
		resp.SelectedService = c.Value
	}
	h.respond(w, http.StatusOK, resp)
}
