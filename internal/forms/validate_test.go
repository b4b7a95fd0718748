package forms

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidKenyanPhone(t *testing.T) {
	for _, p := range []string{"+254712345678", "0712345678", "0112345678", "+254 712 345 678", "0712 345 678"} {
		assert.True(t, ValidKenyanPhone(p), p)
	}
	for _, p := range []string{"", "071234567", "0812345678", "+255712345678", "254712345678", "07123456789"} {
		assert.False(t, ValidKenyanPhone(p), p)
	}
}

func TestValidEmailAndPhone(t *testing.T) {
	assert.True(t, ValidEmail("jane@ktrh.or.ke"))
	assert.False(t, ValidEmail("jane@ktrh"))
	assert.False(t, ValidEmail("jane doe@ktrh.or.ke"))

	assert.True(t, ValidPhone("+254 (0) 712-345"))
	assert.False(t, ValidPhone("12345"))
	assert.False(t, ValidPhone("0712abc345678"))
}

func TestFormatKenyanPhone(t *testing.T) {
	cases := map[string]string{
		"0712345678":       "+254 712 345 678",
		"712345678":        "+254 712 345 678",
		"254712345678":     "+254 712 345 678",
		"+254 712 345 678": "+254 712 345 678",
		"07123456789999":   "+254 712 345 678",
		"071":              "+254 71",
		"":                 "",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatKenyanPhone(in), in)
	}
}

func TestFieldErrorsError(t *testing.T) {
	err := FieldErrors{"phone": "x", "email": "y"}
	assert.Equal(t, "forms: invalid fields: email, phone", err.Error())
	assert.NoError(t, FieldErrors{}.err())
}

func TestNewReference(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, EAT)
	for i := 0; i < 50; i++ {
		assert.Regexp(t, `^KTRH-2025-\d{5}$`, NewReference(now))
	}
}

func TestNewApplicationID(t *testing.T) {
	assert.Regexp(t, `^APP-[0-9A-F]{8}$`, NewApplicationID("APP"))
	assert.Regexp(t, `^GEN-APP-[0-9A-F]{8}$`, NewApplicationID("GEN-APP"))
}

func TestDoctorsFor(t *testing.T) {
	docs := DoctorsFor("cardiology")
	require.Len(t, docs, 2)
	assert.Equal(t, DoctorOption{ID: "dr_smith", Name: "Dr. John Smith"}, docs[0])
	assert.Len(t, DoctorsFor("emergency"), 3)
	assert.Equal(t, []DoctorOption{AnyDoctor}, DoctorsFor("radiology"))

	assert.True(t, doctorAllowed("neurology", "dr_williams"))
	assert.True(t, doctorAllowed("neurology", "any"))
	assert.False(t, doctorAllowed("neurology", "dr_brown"))
	assert.Equal(t, "Any Available Doctor", DoctorName("any"))
	assert.Contains(t, Departments(), "general")
}

func TestAppointmentRequestValidate(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 30, 0, 0, EAT)
	valid := AppointmentRequest{
		FullName:   "Jane Moraa",
		Phone:      "0712 345 678",
		Date:       "2025-03-11",
		Time:       "09:00",
		Department: "cardiology",
		Doctor:     "dr_johnson",
		Reason:     "Chest pain",
	}
	day, err := valid.Validate(now)
	require.NoError(t, err)
	assert.Equal(t, 11, day.Day())

	tests := []struct {
		name  string
		edit  func(*AppointmentRequest)
		field string
	}{
		{"missing name", func(r *AppointmentRequest) { r.FullName = " " }, "fullName"},
		{"bad phone", func(r *AppointmentRequest) { r.Phone = "0812345678" }, "phone"},
		{"bad email", func(r *AppointmentRequest) { r.Email = "nope" }, "email"},
		{"past date", func(r *AppointmentRequest) { r.Date = "2025-03-09" }, "date"},
		{"garbled date", func(r *AppointmentRequest) { r.Date = "11/03/2025" }, "date"},
		{"today too soon", func(r *AppointmentRequest) { r.Date = "2025-03-10"; r.Time = "10:00" }, "time"},
		{"doctor outside department", func(r *AppointmentRequest) { r.Doctor = "dr_brown" }, "doctor"},
		{"missing reason", func(r *AppointmentRequest) { r.Reason = "" }, "symptoms"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.edit(&req)
			_, err := req.Validate(now)
			var fields FieldErrors
			require.ErrorAs(t, err, &fields)
			assert.Contains(t, fields, tt.field)
		})
	}

	today := valid
	today.Date, today.Time = "2025-03-10", "12:00"
	_, err = today.Validate(now)
	assert.NoError(t, err)
}

func TestContactAndApplicationValidate(t *testing.T) {
	c := ContactRequest{Name: "Ann", Email: "ann@example.com", Message: "Hello"}
	assert.NoError(t, c.Validate())
	c.Phone = "123"
	var fields FieldErrors
	require.ErrorAs(t, c.Validate(), &fields)
	assert.Equal(t, phoneMessage, fields["phone"])

	job := JobApplication{Name: "Ann", Email: "ann@example.com", Phone: "0712345678", Qualification: "BSc Nursing"}
	require.ErrorAs(t, job.Validate(), &fields)
	assert.Contains(t, fields, "cv")
	job.CV = &Attachment{Filename: "cv.pdf"}
	assert.NoError(t, job.Validate())

	gen := GeneralApplication{Name: "Ann", Email: "ann@example.com", Phone: "0712345678"}
	require.ErrorAs(t, gen.Validate(), &fields)
	assert.Equal(t, requiredMessage, fields["category"])

	n := NewsletterRequest{}
	require.ErrorAs(t, n.Validate(), &fields)
	assert.Equal(t, requiredMessage, fields["email"])
}
