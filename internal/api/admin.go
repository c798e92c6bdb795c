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
	"crypto/subtle"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/viper"

	"github.com/danishfareed/formgate/internal/database"
	"github.com/danishfareed/formgate/internal/log"
	"github.com/danishfareed/formgate/internal/models"
	"github.com/danishfareed/formgate/internal/retention"
)

func init() {
	viper.SetDefault("security.adminkey", "")
}

// requireAdmin guards the privacy and moderation endpoints. An unconfigured admin key disables
// them entirely.
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := []byte(viper.GetString("security.adminkey"))
		given := []byte(r.Header.Get("X-Formgate-Admin-Key"))

		if len(key) == 0 || subtle.ConstantTimeCompare(key, given) != 1 {
			writeError(w, rejectAdminKey)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// PrivacyHandler exposes the subject access and anonymization operations.
type PrivacyHandler struct {
	access     *retention.SubjectAccess
	anonymizer *retention.Anonymizer
}

// NewPrivacyHandler creates a new PrivacyHandler.
func NewPrivacyHandler(
	access *retention.SubjectAccess,
	anonymizer *retention.Anonymizer,
) *PrivacyHandler {
	return &PrivacyHandler{
		access:     access,
		anonymizer: anonymizer,
	}
}

type privacyRequest struct {
	Email string `json:"email"`
}

// Export handles POST /privacy/export.
func (h *PrivacyHandler) Export(w http.ResponseWriter, r *http.Request) {
	email, ok := readEmail(w, r)
	if !ok {
		return
	}

	records, err := h.access.Export(r.Context(), email)
	if err != nil {
		log.ErrorContext(r.Context()).Err(err).Msg("could not export subject data")
		writeError(w, rejectPersistence)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"email":       email,
		"submissions": records,
	})
}

// Delete handles DELETE /privacy/data.
func (h *PrivacyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	email, ok := readEmail(w, r)
	if !ok {
		return
	}

	n, err := h.access.Delete(r.Context(), email)
	if err != nil {
		log.ErrorContext(r.Context()).Err(err).Msg("could not erase subject data")
		writeError(w, rejectPersistence)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"email":   email,
		"deleted": n,
	})
}

// Anonymize handles POST /submissions/{id}/anonymize.
func (h *PrivacyHandler) Anonymize(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.anonymizer.Anonymize(r.Context(), id)

	switch {
	case database.IsErrNoRows(err):
		writeError(w, rejectNotFound)
		return
	case err != nil:
		log.ErrorContext(r.Context()).Err(err).Msg("could not anonymize submission")
		writeError(w, rejectPersistence)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"submission_id": id,
		"anonymized":    true,
	})
}

func readEmail(w http.ResponseWriter, r *http.Request) (string, bool) {
	var request privacyRequest

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil ||
		!models.IsEmailShaped(request.Email) {
		writeError(w, rejectInvalidPayload)
		return "", false
	}

	return request.Email, true
}

// StatusHandler implements the moderation status transitions.
type StatusHandler struct {
	database      database.Conn
	submissionDao database.SubmissionDao
	clock         func() time.Time
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(conn database.Conn, submissionDao database.SubmissionDao) *StatusHandler {
	return &StatusHandler{
		database:      conn,
		submissionDao: submissionDao,
		clock:         time.Now,
	}
}

type statusRequest struct {
	Status  models.SubmissionStatus `json:"status"`
	Starred *bool                   `json:"starred,omitempty"`
}

// ServeHTTP handles POST /submissions/{id}/status.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var request statusRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || !validStatus(request.Status) {
		writeError(w, rejectInvalidPayload)
		return
	}

	submission, err := h.submissionDao.FindByID(ctx, h.database, chi.URLParam(r, "id"))

	switch {
	case database.IsErrNoRows(err):
		writeError(w, rejectNotFound)
		return
	case err != nil:
		log.ErrorContext(ctx).Err(err).Msg("could not look up submission")
		writeError(w, rejectPersistence)
		return
	}

	submission.Status = request.Status

	if request.Status == models.SubmissionRead && !submission.ReadAt.Valid {
		submission.ReadAt = sql.NullInt64{Int64: h.clock().Unix(), Valid: true}
	}

	if request.Starred != nil {
		submission.Starred = *request.Starred
	}

	if err := h.submissionDao.Update(ctx, h.database, submission); err != nil {
		log.ErrorContext(ctx).Err(err).Msg("could not update submission status")
		writeError(w, rejectPersistence)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"submission_id": submission.ID,
		"status":        submission.Status,
		"starred":       submission.Starred,
	})
}

func validStatus(status models.SubmissionStatus) bool {
	switch status {
	case models.SubmissionNew, models.SubmissionRead, models.SubmissionSpam, models.SubmissionTrash:
		return true
	}

	return false
}
