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
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/danishfareed/formgate/internal/crypto"
	"github.com/danishfareed/formgate/internal/database"
	"github.com/danishfareed/formgate/internal/delivery"
	"github.com/danishfareed/formgate/internal/guard"
	"github.com/danishfareed/formgate/internal/inbound"
	"github.com/danishfareed/formgate/internal/models"
	"github.com/danishfareed/formgate/internal/provider"
	"github.com/danishfareed/formgate/internal/ratelimit"
	"github.com/danishfareed/formgate/internal/retention"
	"github.com/danishfareed/formgate/internal/webhook"
)

func TestSubmitHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(SubmitHandlerTestSuite))
}

type SubmitHandlerTestSuite struct {
	suite.Suite

	database      *database.MockConn
	formDao       *database.MockFormDao
	submissionDao *database.MockSubmissionDao
	logDao        *database.MockDeliveryLogDao
	webhookDao    *database.MockWebhookDao

	router chi.Router
}

func (s *SubmitHandlerTestSuite) SetupTest() {
	viper.Set("security.apikey", "secret1")
	viper.Set("security.secret.key", "0123456789abcdef")
	viper.Set("security.adminkey", "admin1")
	viper.Set("ratelimit.limit", 5)
	viper.Set("ratelimit.window", "60s")

	s.database = new(database.MockConn)
	s.formDao = new(database.MockFormDao)
	s.submissionDao = new(database.MockSubmissionDao)
	s.logDao = new(database.MockDeliveryLogDao)
	s.webhookDao = new(database.MockWebhookDao)

	s.buildRouter()
}

// buildRouter recreates the router, so tests can change viper settings first.
func (s *SubmitHandlerTestSuite) buildRouter() {
	admission, err := guard.New()
	s.Require().NoError(err)

	box, err := crypto.NewSecretBox()
	s.Require().NoError(err)

	registry := provider.NewRegistry(box)
	ids := crypto.NewIDGenerator()

	notifier := delivery.NewNotifier(s.database, s.submissionDao, s.logDao, registry, ids)
	dispatcher := webhook.NewDispatcher(s.database, s.webhookDao, webhook.NewScheduler())
	correlator := inbound.NewCorrelator(s.database, s.logDao)

	s.router = NewRouter(
		NewSubmitHandler(s.database, s.formDao, s.submissionDao, admission,
			ratelimit.NewLimiter(), notifier, dispatcher, ids),
		NewIncomingWebhookHandler(correlator),
		NewPrivacyHandler(
			retention.NewSubjectAccess(s.database, s.submissionDao, s.logDao),
			retention.NewAnonymizer(s.database, s.submissionDao)),
		NewStatusHandler(s.database, s.submissionDao),
	)
}

func (s *SubmitHandlerTestSuite) TeardownTest() {
	mock.AssertExpectationsForObjects(s.T(),
		s.database,
		s.formDao,
		s.submissionDao,
		s.logDao,
		s.webhookDao)
}

func (s *SubmitHandlerTestSuite) submit(form string, fields url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/submit/"+form,
		strings.NewReader(fields.Encode()))

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Formgate-Key", "secret1")
	req.RemoteAddr = "192.0.2.7:54321"

	recorder := httptest.NewRecorder()
	s.router.ServeHTTP(recorder, req)

	return recorder
}

func (s *SubmitHandlerTestSuite) decode(recorder *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	s.Require().NoError(json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

func (s *SubmitHandlerTestSuite) activeForm() *models.FormEntity {
	return &models.FormEntity{
		ID:             3,
		Slug:           "contact",
		Name:           "Contact",
		Active:         true,
		SuccessMessage: "Thanks!",
	}
}

func (s *SubmitHandlerTestSuite) TestSubmit_accepted() {
	s.formDao.
		On("FindBySlug", mock.Anything, s.database, "contact").
		Return(s.activeForm(), nil)

	s.submissionDao.
		On("Insert", mock.Anything, s.database,
			mock.MatchedBy(func(submission *models.SubmissionEntity) bool {
				return submission.FormID == 3 &&
					submission.Fields["message"] == "hello" &&
					submission.SubmitterEmail.String == "jane@example.com" &&
					submission.ClientIP == "192.0.2.7" &&
					submission.Status == models.SubmissionNew
			})).
		Return(nil)

	s.webhookDao.
		On("FindActive", mock.Anything, s.database, int64(3), models.EventSubmissionCreated).
		Return(nil, nil)

	recorder := s.submit("contact", url.Values{
		"message": {"hello"},
		"email":   {"jane@example.com"},
	})

	s.Require().Equal(http.StatusOK, recorder.Code)

	body := s.decode(recorder)
	s.Assert().Equal(true, body["success"])
	s.Assert().Equal("Thanks!", body["message"])
	s.Assert().NotEmpty(body["submission_id"])

	s.Assert().Equal("5", recorder.Header().Get("X-RateLimit-Limit"))
	s.Assert().Equal("4", recorder.Header().Get("X-RateLimit-Remaining"))
}

func (s *SubmitHandlerTestSuite) TestSubmit_invalidAPIKey() {
	req := httptest.NewRequest(http.MethodPost, "/submit/contact",
		strings.NewReader("message=hello"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Formgate-Key", "wrong")
	req.RemoteAddr = "192.0.2.7:54321"

	recorder := httptest.NewRecorder()
	s.router.ServeHTTP(recorder, req)

	s.Require().Equal(http.StatusUnauthorized, recorder.Code)
	s.Assert().Equal("invalid_api_key", s.decode(recorder)["code"])
}

func (s *SubmitHandlerTestSuite) TestSubmit_honeypotSilentSuccess() {
	recorder := s.submit("contact", url.Values{
		"message": {"hello"},
		"_honey":  {"gotcha"},
	})

	s.Require().Equal(http.StatusOK, recorder.Code)

	body := s.decode(recorder)
	s.Assert().Equal(true, body["success"])
	s.Assert().NotContains(body, "submission_id")
}

func (s *SubmitHandlerTestSuite) TestSubmit_rateLimited() {
	viper.Set("ratelimit.limit", 1)
	s.buildRouter()

	s.formDao.
		On("FindBySlug", mock.Anything, s.database, "contact").
		Return(s.activeForm(), nil)

	s.submissionDao.
		On("Insert", mock.Anything, s.database, mock.Anything).
		Return(nil)

	s.webhookDao.
		On("FindActive", mock.Anything, s.database, int64(3), models.EventSubmissionCreated).
		Return(nil, nil)

	first := s.submit("contact", url.Values{"message": {"hello"}})
	s.Require().Equal(http.StatusOK, first.Code)

	second := s.submit("contact", url.Values{"message": {"hello"}})
	s.Require().Equal(http.StatusTooManyRequests, second.Code)

	body := s.decode(second)
	s.Assert().Equal("rate_limited", body["code"])
	s.Assert().NotEmpty(second.Header().Get("Retry-After"))
	s.Assert().Equal("0", second.Header().Get("X-RateLimit-Remaining"))
}

func (s *SubmitHandlerTestSuite) TestSubmit_formNotFound() {
	s.formDao.
		On("FindBySlug", mock.Anything, s.database, "missing").
		Return(nil, sql.ErrNoRows)

	recorder := s.submit("missing", url.Values{"message": {"hello"}})

	s.Require().Equal(http.StatusNotFound, recorder.Code)
	s.Assert().Equal("form_not_found", s.decode(recorder)["code"])
}

func (s *SubmitHandlerTestSuite) TestSubmit_numericIDFallback() {
	s.formDao.
		On("FindBySlug", mock.Anything, s.database, "3").
		Return(nil, sql.ErrNoRows)

	s.formDao.
		On("FindByID", mock.Anything, s.database, int64(3)).
		Return(s.activeForm(), nil)

	s.submissionDao.
		On("Insert", mock.Anything, s.database, mock.Anything).
		Return(nil)

	s.webhookDao.
		On("FindActive", mock.Anything, s.database, int64(3), models.EventSubmissionCreated).
		Return(nil, nil)

	recorder := s.submit("3", url.Values{"message": {"hello"}})
	s.Assert().Equal(http.StatusOK, recorder.Code)
}

func (s *SubmitHandlerTestSuite) TestSubmit_inactiveForm() {
	form := s.activeForm()
	form.Active = false

	s.formDao.
		On("FindBySlug", mock.Anything, s.database, "contact").
		Return(form, nil)

	recorder := s.submit("contact", url.Values{"message": {"hello"}})

	s.Require().Equal(http.StatusBadRequest, recorder.Code)
	s.Assert().Equal("form_inactive", s.decode(recorder)["code"])
}

func (s *SubmitHandlerTestSuite) TestSubmit_emptyPayload() {
	recorder := s.submit("contact", url.Values{})

	s.Require().Equal(http.StatusBadRequest, recorder.Code)
	s.Assert().Equal("invalid_payload", s.decode(recorder)["code"])
}

func (s *SubmitHandlerTestSuite) TestSubmit_persistenceFailure() {
	s.formDao.
		On("FindBySlug", mock.Anything, s.database, "contact").
		Return(s.activeForm(), nil)

	s.submissionDao.
		On("Insert", mock.Anything, s.database, mock.Anything).
		Return(sql.ErrConnDone)

	recorder := s.submit("contact", url.Values{"message": {"hello"}})

	s.Require().Equal(http.StatusInternalServerError, recorder.Code)
	s.Assert().Equal("persistence_failed", s.decode(recorder)["code"])
}

func (s *SubmitHandlerTestSuite) TestSubmit_jsonPayload() {
	s.formDao.
		On("FindBySlug", mock.Anything, s.database, "contact").
		Return(s.activeForm(), nil)

	s.submissionDao.
		On("Insert", mock.Anything, s.database,
			mock.MatchedBy(func(submission *models.SubmissionEntity) bool {
				return submission.Fields["message"] == "hello" &&
					submission.Fields["answers"] == "1, 2"
			})).
		Return(nil)

	s.webhookDao.
		On("FindActive", mock.Anything, s.database, int64(3), models.EventSubmissionCreated).
		Return(nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/submit/contact",
		strings.NewReader(`{ "message": "hello", "answers": [1, 2] }`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Formgate-Key", "secret1")
	req.RemoteAddr = "192.0.2.7:54321"

	recorder := httptest.NewRecorder()
	s.router.ServeHTTP(recorder, req)

	s.Assert().Equal(http.StatusOK, recorder.Code)
}
