// Copyright (C) 2026  Danish Fareed <danish.fareed@pm.me>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package api

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/danishfareed/formgate/internal/crypto"
	"github.com/danishfareed/formgate/internal/database"
	"github.com/danishfareed/formgate/internal/delivery"
	"github.com/danishfareed/formgate/internal/guard"
	"github.com/danishfareed/formgate/internal/log"
	"github.com/danishfareed/formgate/internal/models"
	"github.com/danishfareed/formgate/internal/ratelimit"
	"github.com/danishfareed/formgate/internal/webhook"
)

const defaultSuccessMessage = "Thank you for your submission."

type submitResponse struct {
	Success      bool   `json:"success"`
	SubmissionID string `json:"submission_id,omitempty"`
	Message      string `json:"message"`
	RedirectURL  string `json:"redirect_url,omitempty"`
}

// SubmitHandler accepts form submissions. It is the hot path of the whole service.
type SubmitHandler struct {
	database      database.Conn
	formDao       database.FormDao
	submissionDao database.SubmissionDao
	guard         *guard.Guard
	limiter       ratelimit.Limiter
	notifier      *delivery.Notifier
	dispatcher    *webhook.Dispatcher
	ids           crypto.IDGenerator
	clock         func() time.Time
}

// NewSubmitHandler creates a new SubmitHandler.
func NewSubmitHandler(
	conn database.Conn,
	formDao database.FormDao,
	submissionDao database.SubmissionDao,
	admission *guard.Guard,
	limiter ratelimit.Limiter,
	notifier *delivery.Notifier,
	dispatcher *webhook.Dispatcher,
	ids crypto.IDGenerator,
) *SubmitHandler {
	return &SubmitHandler{
		database:      conn,
		formDao:       formDao,
		submissionDao: submissionDao,
		guard:         admission,
		limiter:       limiter,
		notifier:      notifier,
		dispatcher:    dispatcher,
		ids:           ids,
		clock:         time.Now,
	}
}

// ServeHTTP handles POST /submit/{form}.
func (h *SubmitHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ip := clientIP(r)

	if err := h.guard.Check(guard.Request{
		APIKey: apiKey(r),
		IP:     ip,
		Origin: r.Header.Get("Origin"),
	}); err != nil {
		log.InfoContext(ctx).Err(err).Msg("submission rejected")
		writeError(w, guardRejection(err))
		return
	}

	fields, err := parseFields(r)
	if err != nil || len(fields) == 0 {
		writeError(w, rejectInvalidPayload)
		return
	}

	// Bots fill the hidden trap field. They get a success response so they do not adapt, but
	// nothing is stored and nobody is notified.
	if h.guard.Honeypot(fields) {
		log.InfoContext(ctx).Msg("honeypot tripped")
		writeJSON(w, http.StatusOK, submitResponse{
			Success: true,
			Message: defaultSuccessMessage,
		})
		return
	}

	result := h.limiter.Allow(ip.String())
	writeRateLimitHeaders(w, result)

	if !result.Allowed {
		retryAfter := int64(math.Ceil(result.RetryAfter.Seconds()))
		w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
		writeError(w, rejectRateLimited(retryAfter))
		return
	}

	form, rejection := h.lookupForm(r)
	if rejection != nil {
		writeError(w, rejection)
		return
	}

	ctx = log.WithForm(ctx, form.Slug)

	if !form.Active {
		writeError(w, rejectFormInactive)
		return
	}

	submission, rejection := h.persist(r, form, fields)
	if rejection != nil {
		writeError(w, rejection)
		return
	}

	ctx = log.WithSubmission(ctx, submission.ID)
	log.InfoContext(ctx).Msg("submission accepted")

	if err := h.notifier.SubmissionReceived(ctx, form, submission); err != nil {
		// The submission is already stored and acknowledged. Notification bookkeeping errors
		// must not turn the response into a failure.
		log.ErrorContext(ctx).Err(err).Msg("could not record notification outcome")
	}

	if err := h.dispatcher.Dispatch(ctx, form.ID, models.EventSubmissionCreated,
		map[string]interface{}{
			"submission_id": submission.ID,
			"form":          form.Slug,
			"fields":        submission.Fields,
			"submitted_at":  submission.CreatedAt,
		}); err != nil {
		log.ErrorContext(ctx).Err(err).Msg("could not dispatch webhooks")
	}

	message := form.SuccessMessage
	if message == "" {
		message = defaultSuccessMessage
	}

	writeJSON(w, http.StatusOK, submitResponse{
		Success:      true,
		SubmissionID: submission.ID,
		Message:      message,
		RedirectURL:  form.RedirectURL,
	})
}

// lookupForm resolves the url parameter as a slug first and falls back to a numeric id.
func (h *SubmitHandler) lookupForm(r *http.Request) (*models.FormEntity, *rejection) {
	ctx := r.Context()
	ref := chi.URLParam(r, "form")

	form, err := h.formDao.FindBySlug(ctx, h.database, ref)
	if err == nil {
		return form, nil
	}

	if !database.IsErrNoRows(err) {
		log.ErrorContext(ctx).Err(err).Msg("could not look up form")
		return nil, rejectPersistence
	}

	id, parseErr := strconv.ParseInt(ref, 10, 64)
	if parseErr != nil {
		return nil, rejectFormNotFound
	}

	form, err = h.formDao.FindByID(ctx, h.database, id)

	switch {
	case database.IsErrNoRows(err):
		return nil, rejectFormNotFound
	case err != nil:
		log.ErrorContext(ctx).Err(err).Msg("could not look up form")
		return nil, rejectPersistence
	}

	return form, nil
}

func (h *SubmitHandler) persist(
	r *http.Request,
	form *models.FormEntity,
	fields map[string]string,
) (*models.SubmissionEntity, *rejection) {
	ctx := r.Context()

	id, err := h.ids.GenerateID()
	if err != nil {
		log.ErrorContext(ctx).Err(err).Msg("could not generate submission id")
		return nil, rejectPersistence
	}

	delete(fields, h.guard.HoneypotField())

	submission := &models.SubmissionEntity{
		ID:        id,
		FormID:    form.ID,
		Fields:    models.FieldMap(fields),
		ClientIP:  clientIP(r).String(),
		UserAgent: r.UserAgent(),
		Referrer:  r.Referer(),
		Origin:    r.Header.Get("Origin"),
		Status:    models.SubmissionNew,
		CreatedAt: h.clock().Unix(),
	}

	if email, ok := submission.Fields.FirstEmail(); ok {
		submission.SubmitterEmail.String = email
		submission.SubmitterEmail.Valid = true
	}

	if err := h.submissionDao.Insert(ctx, h.database, submission); err != nil {
		log.ErrorContext(ctx).Err(err).Msg("could not store submission")
		return nil, rejectPersistence
	}

	return submission, nil
}

func writeRateLimitHeaders(w http.ResponseWriter, result ratelimit.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.Reset.Unix(), 10))
}
