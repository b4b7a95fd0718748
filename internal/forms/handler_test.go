package forms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/hospital-site/internal/appointments"
	"github.com/wolfman30/hospital-site/internal/cms"
	"github.com/wolfman30/hospital-site/internal/notify"
	"github.com/wolfman30/hospital-site/internal/render"
	"github.com/wolfman30/hospital-site/internal/uploads"
	"github.com/wolfman30/hospital-site/pkg/logging"
)

type submission struct {
	resource string
	payload  map[string]any
}

type fakeCMS struct {
	mu        sync.Mutex
	submitted []submission
	submitErr error
	items     map[string]cms.RawItem
}

func (f *fakeCMS) Get(_ context.Context, resource, id string) (cms.RawItem, error) {
	item, ok := f.items[resource+"/"+id]
	if !ok {
		return cms.RawItem{}, cms.ErrNotFound
	}
	return item, nil
}

func (f *fakeCMS) Submit(_ context.Context, resource string, payload any) (cms.RawItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return cms.RawItem{}, f.submitErr
	}
	f.submitted = append(f.submitted, submission{resource: resource, payload: payload.(map[string]any)})
	return cms.RawItem{ID: "1"}, nil
}

type recordingSender struct {
	mu   sync.Mutex
	sent []notify.EmailMessage
}

func (r *recordingSender) Send(_ context.Context, msg notify.EmailMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

type failingRepo struct{ calls int }

func (f *failingRepo) Create(context.Context, *appointments.Appointment) error {
	f.calls++
	return appointments.ErrDuplicateReference
}

func (f *failingRepo) GetByReference(context.Context, string) (*appointments.Appointment, error) {
	return nil, appointments.ErrNotFound
}

type fixture struct {
	handler *Handler
	cms     *fakeCMS
	repo    *appointments.InMemoryRepository
	store   *uploads.MemoryStore
	email   *recordingSender
	router  chi.Router
}

var fixedNow = time.Date(2025, 3, 10, 9, 30, 0, 0, EAT)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		cms:   &fakeCMS{items: map[string]cms.RawItem{}},
		repo:  appointments.NewInMemoryRepository(),
		store: uploads.NewMemoryStore(),
		email: &recordingSender{},
	}
	f.handler = NewHandler(Deps{
		CMS:          f.cms,
		Appointments: f.repo,
		Uploads:      f.store,
		Notifier:     notify.NewNotifier(f.email, notify.Recipients{HR: "careers@ktrh.or.ke", Reception: "info@ktrh.or.ke"}, logging.Discard()),
		Renderer:     render.MustNew(),
		HREmail:      "careers@ktrh.or.ke",
		Logger:       logging.Discard(),
	})
	f.handler.now = func() time.Time { return fixedNow }
	f.router = chi.NewRouter()
	f.handler.Routes(f.router)
	return f
}

func (f *fixture) do(req *http.Request) (*httptest.ResponseRecorder, Response) {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	var body Response
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func jsonRequest(t *testing.T, path string, body any) *http.Request {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

type part struct {
	field, filename, content string
}

func multipartRequest(t *testing.T, path string, fields map[string]string, files ...part) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, p := range files {
		fw, err := mw.CreateFormFile(p.field, p.filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(p.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func validAppointment() AppointmentRequest {
	return AppointmentRequest{
		FullName:   "Jane Moraa",
		Phone:      "0712345678",
		Email:      "jane@example.com",
		Date:       "2025-03-11",
		Time:       "10:00",
		Department: "cardiology",
		Reason:     "Follow-up",
	}
}

func TestBookAppointment(t *testing.T) {
	f := newFixture(t)
	rec, body := f.do(jsonRequest(t, "/appointment", validAppointment()))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Regexp(t, `^KTRH-2025-\d{5}$`, body.Reference)
	assert.Contains(t, body.Notification, body.Reference)

	stored, err := f.repo.GetByReference(context.Background(), body.Reference)
	require.NoError(t, err)
	assert.Equal(t, "any", stored.Doctor)
	assert.Equal(t, "Jane Moraa", stored.Name)

	require.Len(t, f.cms.submitted, 1)
	assert.Equal(t, AppointmentCollection, f.cms.submitted[0].resource)
	assert.Equal(t, body.Reference, f.cms.submitted[0].payload["reference"])

	require.Len(t, f.email.sent, 2, "reception and patient confirmation")
	assert.Equal(t, "info@ktrh.or.ke", f.email.sent[0].To)
	assert.Contains(t, f.email.sent[0].Body, "+254 712 345 678")
	assert.Equal(t, "jane@example.com", f.email.sent[1].To)
}

func TestBookAppointment_FormEncoded(t *testing.T) {
	f := newFixture(t)
	a := validAppointment()
	form := url.Values{
		"fullName":   {a.FullName},
		"phone":      {a.Phone},
		"date":       {a.Date},
		"time":       {a.Time},
		"department": {a.Department},
		"doctor":     {"dr_smith"},
		"symptoms":   {a.Reason},
	}
	req := httptest.NewRequest(http.MethodPost, "/appointment", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec, body := f.do(req)

	require.Equal(t, http.StatusCreated, rec.Code)
	stored, err := f.repo.GetByReference(context.Background(), body.Reference)
	require.NoError(t, err)
	assert.Equal(t, "dr_smith", stored.Doctor)
	assert.Len(t, f.email.sent, 1, "no patient email given")
}

func TestBookAppointment_InvalidKeepsValues(t *testing.T) {
	f := newFixture(t)
	a := validAppointment()
	a.Phone = "12345"
	a.Date = "2025-03-01"
	rec, _ := f.do(jsonRequest(t, "/appointment", a))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var raw struct {
		Errors map[string]string `json:"errors"`
		Values map[string]string `json:"values"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, kenyanPhoneMessage, raw.Errors["phone"])
	assert.Contains(t, raw.Errors, "date")
	assert.NotContains(t, raw.Errors, "fullName")
	assert.Equal(t, "Jane Moraa", raw.Values["fullName"])
	assert.Empty(t, f.cms.submitted)
}

func TestBookAppointment_StorageFailure(t *testing.T) {
	f := newFixture(t)
	repo := &failingRepo{}
	f.handler.repo = repo
	rec, body := f.do(jsonRequest(t, "/appointment", validAppointment()))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, referenceAttempts, repo.calls)
	assert.Contains(t, body.Notification, "could not book")
	assert.NotNil(t, body.Values)
	assert.Empty(t, f.email.sent)
}

func TestBookAppointment_CMSFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.cms.submitErr = cms.ErrUpstream
	rec, _ := f.do(jsonRequest(t, "/appointment", validAppointment()))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestAppointmentOptions(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/appointment/options?department=neurology&date=2025-03-10", nil)
	req.AddCookie(&http.Cookie{Name: SelectedServiceCookie, Value: "cardiology"})
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp OptionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []DoctorOption{{ID: "dr_williams", Name: "Dr. Michael Williams"}}, resp.Doctors)
	assert.Equal(t, "2025-03-10", resp.MinDate)
	assert.Equal(t, "2025-03-10", resp.Date)
	assert.True(t, resp.Slots[0].Disabled)
	assert.Equal(t, "cardiology", resp.SelectedService)

	req = httptest.NewRequest(http.MethodGet, "/appointment/options", nil)
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2025-03-11", resp.Date)
	assert.Equal(t, []DoctorOption{AnyDoctor}, resp.Doctors)
}

func TestContact(t *testing.T) {
	f := newFixture(t)
	rec, body := f.do(jsonRequest(t, "/contact", ContactRequest{
		Name: "Ann", Email: "ann@example.com", Subject: "Visiting hours", Message: "When can I visit?",
	}))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, body.Notification, "sent successfully")
	require.Len(t, f.cms.submitted, 1)
	assert.Equal(t, ContactCollection, f.cms.submitted[0].resource)
	assert.Equal(t, "2025-03-10T06:30:00Z", f.cms.submitted[0].payload["createdAt"])
	require.Len(t, f.email.sent, 1)
	assert.Equal(t, "ann@example.com", f.email.sent[0].ReplyTo)
}

func TestContact_SubmitFailure(t *testing.T) {
	f := newFixture(t)
	f.cms.submitErr = cms.ErrUpstream
	rec, body := f.do(jsonRequest(t, "/contact", ContactRequest{Name: "Ann", Email: "ann@example.com", Message: "Hi"}))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, body.Notification, "error sending your message")
	assert.Empty(t, f.email.sent)
}

func TestSubscribe(t *testing.T) {
	f := newFixture(t)
	rec, _ := f.do(jsonRequest(t, "/newsletter", NewsletterRequest{Email: "ann@example.com"}))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, f.cms.submitted, 1)
	assert.Equal(t, NewsletterCollection, f.cms.submitted[0].resource)
	assert.Equal(t, true, f.cms.submitted[0].payload["active"])

	rec, body := f.do(jsonRequest(t, "/newsletter", NewsletterRequest{Email: "not-an-email"}))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, emailMessage, body.Errors["email"])
}

func TestSubscribe_BadBody(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/newsletter", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	rec, _ := f.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func jobFields() map[string]string {
	return map[string]string{
		"name":          "Brian Otieno",
		"email":         "brian@example.com",
		"phone":         "0712345678",
		"qualification": "BSc Nursing",
		"coverLetter":   "I would like to join.",
	}
}

func TestApplyForJob(t *testing.T) {
	f := newFixture(t)
	f.cms.items["jobs/42"] = cms.RawItem{ID: "42", Attributes: map[string]any{"title": "Registered Nurse"}}

	req := multipartRequest(t, "/careers/apply", jobFields(),
		part{"cv", "my cv.pdf", "%PDF-1.4"},
		part{"certificates", "cert.pdf", "cert"},
	)
	req.AddCookie(&http.Cookie{Name: SelectedJobCookie, Value: "42"})
	rec, body := f.do(req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Regexp(t, `^APP-[0-9A-F]{8}$`, body.Reference)
	assert.Contains(t, body.Notification, "Registered Nurse")

	cvKey := "applications/" + body.Reference + "/my_cv.pdf"
	file, ok := f.store.Get(cvKey)
	require.True(t, ok)
	assert.Equal(t, "%PDF-1.4", string(file.Data))

	require.Len(t, f.cms.submitted, 1)
	payload := f.cms.submitted[0].payload
	assert.Equal(t, ApplicationCollection, f.cms.submitted[0].resource)
	assert.Equal(t, "42", payload["jobId"])
	assert.Equal(t, "Registered Nurse", payload["jobTitle"])
	assert.Equal(t, cvKey, payload["cv"])
	assert.Equal(t, []string{"applications/" + body.Reference + "/cert.pdf"}, payload["certificates"])
	assert.Equal(t, "pending", payload["status"])

	require.Len(t, f.email.sent, 1)
	assert.Equal(t, "careers@ktrh.or.ke", f.email.sent[0].To)
}

func TestApplyForJob_MissingCV(t *testing.T) {
	f := newFixture(t)
	rec, body := f.do(multipartRequest(t, "/careers/apply", jobFields()))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, body.Errors, "cv")
	assert.Empty(t, f.cms.submitted)
}

func TestApplyForJob_CVTooLarge(t *testing.T) {
	f := newFixture(t)
	big := strings.Repeat("x", MaxCVBytes+1)
	rec, body := f.do(multipartRequest(t, "/careers/apply", jobFields(), part{"cv", "cv.pdf", big}))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, cvTooLargeMessage, body.Errors["cv"])
	assert.Empty(t, f.cms.submitted)
}

func TestApplyForJob_SubmitFailure(t *testing.T) {
	f := newFixture(t)
	f.cms.submitErr = errors.New("boom")
	rec, body := f.do(multipartRequest(t, "/careers/apply", jobFields(), part{"cv", "cv.pdf", "cv"}))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, body.Notification, "careers@ktrh.or.ke")
	assert.Empty(t, f.email.sent)
}

func TestApplyGeneral(t *testing.T) {
	f := newFixture(t)
	fields := map[string]string{
		"name":     "Brian Otieno",
		"email":    "brian@example.com",
		"phone":    "0712345678",
		"category": "nursing",
		"position": "Nurse",
	}
	rec, body := f.do(multipartRequest(t, "/careers/general", fields))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Regexp(t, `^GEN-APP-[0-9A-F]{8}$`, body.Reference)
	require.Len(t, f.cms.submitted, 1)
	assert.Equal(t, GeneralApplicationCollection, f.cms.submitted[0].resource)
	assert.Equal(t, "", f.cms.submitted[0].payload["cv"])

	delete(fields, "category")
	rec, body = f.do(multipartRequest(t, "/careers/general", fields))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, requiredMessage, body.Errors["category"])
}

func TestSelect(t *testing.T) {
	f := newFixture(t)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/select/job/42", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SelectedJobCookie, cookies[0].Name)
	assert.Equal(t, "42", cookies[0].Value)

	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/select/gallery/1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewHandlerRequiresDeps(t *testing.T) {
	assert.Panics(t, func() { NewHandler(Deps{}) })
}
