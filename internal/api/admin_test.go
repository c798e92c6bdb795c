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
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/mock"

	"github.com/danishfareed/formgate/internal/models"
)

func (s *SubmitHandlerTestSuite) admin(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Formgate-Admin-Key", "admin1")

	recorder := httptest.NewRecorder()
	s.router.ServeHTTP(recorder, req)

	return recorder
}

func (s *SubmitHandlerTestSuite) TestAdmin_missingKey() {
	req := httptest.NewRequest(http.MethodPost, "/privacy/export",
		strings.NewReader(`{ "email": "jane@example.com" }`))

	recorder := httptest.NewRecorder()
	s.router.ServeHTTP(recorder, req)

	s.Require().Equal(http.StatusUnauthorized, recorder.Code)
	s.Assert().Equal("invalid_admin_key", s.decode(recorder)["code"])
}

func (s *SubmitHandlerTestSuite) TestAdmin_disabledWithoutConfiguredKey() {
	viper.Set("security.adminkey", "")

	req := httptest.NewRequest(http.MethodPost, "/privacy/export",
		strings.NewReader(`{ "email": "jane@example.com" }`))
	req.Header.Set("X-Formgate-Admin-Key", "")

	recorder := httptest.NewRecorder()
	s.router.ServeHTTP(recorder, req)

	s.Assert().Equal(http.StatusUnauthorized, recorder.Code)
}

func (s *SubmitHandlerTestSuite) TestPrivacyExport() {
	s.submissionDao.
		On("FindBySubmitterEmail", mock.Anything, s.database, "jane@example.com").
		Return([]models.SubmissionEntity{{ID: "id1"}}, nil)

	s.logDao.
		On("FindBySubmissionIDs", mock.Anything, s.database, []string{"id1"}).
		Return(nil, nil)

	recorder := s.admin(http.MethodPost, "/privacy/export", `{ "email": "jane@example.com" }`)

	s.Require().Equal(http.StatusOK, recorder.Code)
	s.Assert().Equal("jane@example.com", s.decode(recorder)["email"])
}

func (s *SubmitHandlerTestSuite) TestPrivacyExport_invalidEmail() {
	recorder := s.admin(http.MethodPost, "/privacy/export", `{ "email": "not an address" }`)

	s.Require().Equal(http.StatusBadRequest, recorder.Code)
	s.Assert().Equal("invalid_payload", s.decode(recorder)["code"])
}

func (s *SubmitHandlerTestSuite) TestStatusTransition() {
	submission := models.SubmissionEntity{
		ID:     "id1",
		Status: models.SubmissionNew,
	}

	s.submissionDao.
		On("FindByID", mock.Anything, s.database, "id1").
		Return(&submission, nil)

	s.submissionDao.
		On("Update", mock.Anything, s.database,
			mock.MatchedBy(func(updated *models.SubmissionEntity) bool {
				return updated.Status == models.SubmissionRead && updated.ReadAt.Valid
			})).
		Return(nil)

	recorder := s.admin(http.MethodPost, "/submissions/id1/status", `{ "status": "read" }`)

	s.Require().Equal(http.StatusOK, recorder.Code)
	s.Assert().Equal("read", s.decode(recorder)["status"])
}

func (s *SubmitHandlerTestSuite) TestStatusTransition_invalidStatus() {
	recorder := s.admin(http.MethodPost, "/submissions/id1/status", `{ "status": "archived" }`)

	s.Require().Equal(http.StatusBadRequest, recorder.Code)
	s.Assert().Equal("invalid_payload", s.decode(recorder)["code"])
}

func (s *SubmitHandlerTestSuite) TestIncomingWebhook_alwaysAcknowledged() {
	recorder := httptest.NewRecorder()

	req := httptest.NewRequest(http.MethodPost, "/webhooks/incoming/sendgrid",
		strings.NewReader("not json at all"))

	s.router.ServeHTTP(recorder, req)

	s.Require().Equal(http.StatusOK, recorder.Code)
	s.Assert().Equal(true, s.decode(recorder)["received"])
}

func (s *SubmitHandlerTestSuite) TestHealth() {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	s.router.ServeHTTP(recorder, req)

	s.Require().Equal(http.StatusOK, recorder.Code)
	s.Assert().Equal("ok", s.decode(recorder)["status"])
}
