package forms

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/wolfman30/hospital-site/internal/cms"
	"github.com/wolfman30/hospital-site/internal/notify"
	"github.com/wolfman30/hospital-site/internal/uploads"
)

const (
	jobApplicationPrefix     = "APP"
	generalApplicationPrefix = "GEN-APP"
	submissionLayout         = "Monday, January 2, 2006 at 3:04:05 PM"
)

// ApplyForJob handles POST /careers/apply, a multipart form carrying the CV
// and optional certificates.
func (h *Handler) ApplyForJob(w http.ResponseWriter, r *http.Request) {
	const form = "job_application"
	if !h.parseMultipart(w, r, form) {
		return
	}
	get := func(k string) string { return trim(r.FormValue(k)) }
	app := JobApplication{
		JobID:         get("jobId"),
		JobTitle:      get("jobTitle"),
		Name:          get("name"),
		Email:         get("email"),
		Phone:         get("phone"),
		Qualification: get("qualification"),
		Experience:    get("experience"),
		CoverLetter:   get("coverLetter"),
	}
	if app.JobID == "" {
		if c, err := r.Cookie(SelectedJobCookie); err == nil {
			app.JobID = c.Value
		}
	}

	errs := FieldErrors{}
	cv, err := readAttachment(r.MultipartForm, "cv")
	switch {
	case errors.Is(err, uploads.ErrTooLarge):
		errs["cv"] = cvTooLargeMessage
	case err != nil && !errors.Is(err, http.ErrMissingFile):
		h.logger.Error("failed to read cv", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	app.CV = cv
	for _, fh := range r.MultipartForm.File["certificates"] {
		att, err := readFile(fh)
		if errors.Is(err, uploads.ErrTooLarge) {
			errs["certificates"] = "Certificate file size must be less than 5MB."
			continue
		} else if err != nil {
			h.logger.Error("failed to read certificate", "error", err)
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		app.Certificates = append(app.Certificates, *att)
	}
	if err := app.Validate(); err != nil {
		var fields FieldErrors
		errors.As(err, &fields)
		for k, v := range fields {
			if _, ok := errs[k]; !ok {
				errs[k] = v
			}
		}
	}
	values := app.values()
	if len(errs) > 0 {
		h.reject(w, form, errs, values)
		return
	}

	ctx := r.Context()
	if app.JobTitle == "" && app.JobID != "" {
		app.JobTitle = h.jobTitle(ctx, app.JobID)
	}
	id := NewApplicationID(jobApplicationPrefix)
	cvKey, certKeys, err := h.storeAttachments(ctx, id, app.CV, app.Certificates)
	if err != nil {
		h.logger.Error("failed to store application files", "application_id", id, "error", err)
		h.fail(w, form, h.applicationFailure(), values)
		return
	}

	if _, err := h.cms.Submit(ctx, ApplicationCollection, map[string]any{
		"jobId":          app.JobID,
		"jobTitle":       app.JobTitle,
		"name":           app.Name,
		"email":          app.Email,
		"phone":          app.Phone,
		"qualification":  app.Qualification,
		"experience":     app.Experience,
		"coverLetter":    app.CoverLetter,
		"applicationId":  id,
		"submissionDate": h.now().In(EAT).Format(submissionLayout),
		"status":         "pending",
		"cv":             cvKey,
		"certificates":   certKeys,
	}); err != nil {
		h.logger.Error("failed to submit application", "application_id", id, "error", err)
		h.fail(w, form, h.applicationFailure(), values)
		return
	}
	h.logger.Info("application submitted", "application_id", id, "job_id", app.JobID)

	if err := h.notifier.Application(ctx, notify.ApplicationNotice{
		ApplicationID: id,
		JobTitle:      app.JobTitle,
		Name:          app.Name,
		Email:         app.Email,
		Phone:         app.Phone,
		Position:      app.Qualification,
		CVKey:         cvKey,
		Certificates:  certKeys,
		CoverLetter:   app.CoverLetter,
	}); err != nil {
		h.logger.Warn("failed to send application notification", "application_id", id, "error", err)
	}

	title := app.JobTitle
	if title == "" {
		title = "this position"
	}
	h.succeed(w, form, id, fmt.Sprintf(
		"Thank you! Your application for %q has been submitted to KTRH HR Department.", title))
}

// ApplyGeneral handles POST /careers/general, an open application with an
// optional CV.
func (h *Handler) ApplyGeneral(w http.ResponseWriter, r *http.Request) {
	const form = "general_application"
	if !h.parseMultipart(w, r, form) {
		return
	}
	get := func(k string) string { return trim(r.FormValue(k)) }
	app := GeneralApplication{
		Name:        get("name"),
		Email:       get("email"),
		Phone:       get("phone"),
		Category:    get("category"),
		Position:    get("position"),
		Experience:  get("experience"),
		CoverLetter: get("coverLetter"),
	}
	errs := FieldErrors{}
	cv, err := readAttachment(r.MultipartForm, "cv")
	switch {
	case errors.Is(err, uploads.ErrTooLarge):
		errs["cv"] = cvTooLargeMessage
	case err != nil && !errors.Is(err, http.ErrMissingFile):
		h.logger.Error("failed to read cv", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	app.CV = cv
	if err := app.Validate(); err != nil {
		var fields FieldErrors
		errors.As(err, &fields)
		for k, v := range fields {
			errs[k] = v
		}
	}
	values := app.values()
	if len(errs) > 0 {
		h.reject(w, form, errs, values)
		return
	}

	ctx := r.Context()
	id := NewApplicationID(generalApplicationPrefix)
	cvKey, _, err := h.storeAttachments(ctx, id, app.CV, nil)
	if err != nil {
		h.logger.Error("failed to store application files", "application_id", id, "error", err)
		h.fail(w, form, h.applicationFailure(), values)
		return
	}
	if _, err := h.cms.Submit(ctx, GeneralApplicationCollection, map[string]any{
		"name":           app.Name,
		"email":          app.Email,
		"phone":          app.Phone,
		"category":       app.Category,
		"position":       app.Position,
		"experience":     app.Experience,
		"applicationId":  id,
		"submissionDate": h.now().In(EAT).Format(submissionLayout),
		"status":         "pending",
		"cv":             cvKey,
	}); err != nil {
		h.logger.Error("failed to submit general application", "application_id", id, "error", err)
		h.fail(w, form, h.applicationFailure(), values)
		return
	}
	h.logger.Info("general application submitted", "application_id", id, "category", app.Category)

	if err := h.notifier.Application(ctx, notify.ApplicationNotice{
		ApplicationID: id,
		JobTitle:      "General Application",
		Name:          app.Name,
		Email:         app.Email,
		Phone:         app.Phone,
		Position:      firstOf(app.Position, app.Category),
		CVKey:         cvKey,
		CoverLetter:   app.CoverLetter,
	}); err != nil {
		h.logger.Warn("failed to send application notification", "application_id", id, "error", err)
	}

	h.succeed(w, form, id, "Thank you! Your general application has been submitted to KTRH HR Department. "+
		"We will contact you if a matching position becomes available.")
}

func (h *Handler) applicationFailure() string {
	msg := "Sorry, there was an error submitting your application. Please try again"
	if h.hrEmail != "" {
		return msg + " or contact HR directly at " + h.hrEmail
	}
	return msg + "."
}

func (h *Handler) parseMultipart(w http.ResponseWriter, r *http.Request, form string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := r.ParseMultipartForm(maxRequestBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.reject(w, form, FieldErrors{"cv": cvTooLargeMessage}, nil)
			return false
		}
		h.logger.Error("failed to parse multipart form", "form", form, "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// jobTitle looks up the vacancy title; the application still goes through
// when the CMS cannot answer.
func (h *Handler) jobTitle(ctx context.Context, jobID string) string {
	item, err := h.cms.Get(ctx, "jobs", jobID)
	if err != nil {
		h.logger.Warn("failed to look up job", "job_id", jobID, "error", err)
		return ""
	}
	return cms.String(item.Attributes, "title")
}

func (h *Handler) storeAttachments(ctx context.Context, id string, cv *Attachment, certs []Attachment) (string, []string, error) {
	var cvKey string
	if cv != nil {
		key, err := h.put(ctx, id, *cv)
		if err != nil {
			return "", nil, err
		}
		cvKey = key
	}
	keys := make([]string, 0, len(certs))
	for _, c := range certs {
		key, err := h.put(ctx, id, c)
		if err != nil {
			return "", nil, err
		}
		keys = append(keys, key)
	}
	return cvKey, keys, nil
}

func (h *Handler) put(ctx context.Context, id string, a Attachment) (string, error) {
	ct := a.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	return h.uploads.Put(ctx, uploads.ApplicationKey(id, a.Filename), ct, bytes.NewReader(a.Data))
}

func readAttachment(mf *multipart.Form, field string) (*Attachment, error) {
	if mf == nil || len(mf.File[field]) == 0 {
		return nil, http.ErrMissingFile
	}
	return readFile(mf.File[field][0])
}

func readFile(fh *multipart.FileHeader) (*Attachment, error) {
	if fh.Size > MaxCVBytes {
		return nil, uploads.ErrTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(uploads.LimitReader(f, MaxCVBytes))
	if err != nil {
		return nil, err
	}
	return &Attachment{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func (a *JobApplication) values() map[string]string {
	return map[string]string{
		"jobId":         a.JobID,
		"jobTitle":      a.JobTitle,
		"name":          a.Name,
		"email":         a.Email,
		"phone":         a.Phone,
		"qualification": a.Qualification,
		"experience":    a.Experience,
		"coverLetter":   a.CoverLetter,
	}
}

func (a *GeneralApplication) values() map[string]string {
	return map[string]string{
		"name":        a.Name,
		"email":       a.Email,
		"phone":       a.Phone,
		"category":    a.Category,
		"position":    a.Position,
		"experience":  a.Experience,
		"coverLetter": a.CoverLetter,
	}
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
