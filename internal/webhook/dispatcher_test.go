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

package webhook

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/danishfareed/formgate/internal/database"
	"github.com/danishfareed/formgate/internal/models"
)

func TestDispatcherTestSuite(t *testing.T) {
	suite.Run(t, new(DispatcherTestSuite))
}

type DispatcherTestSuite struct {
	suite.Suite

	database   *database.MockConn
	webhookDao *database.MockWebhookDao
	now        time.Time

	dispatcher *Dispatcher
}

func (s *DispatcherTestSuite) SetupTest() {
	s.database = new(database.MockConn)
	s.webhookDao = new(database.MockWebhookDao)
	s.now = time.Date(2026, time.January, 10, 12, 0, 0, 0, time.UTC)

	s.dispatcher = NewDispatcher(s.database, s.webhookDao, NewScheduler())
	s.dispatcher.clock = func() time.Time { return s.now }
}

func (s *DispatcherTestSuite) TeardownTest() {
	mock.AssertExpectationsForObjects(s.T(),
		s.database,
		s.webhookDao)
}

func (s *DispatcherTestSuite) TestDispatch_jsonWithBearerAuth() {
	var received struct {
		envelope Event
		auth     string
		custom   string
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.auth = r.Header.Get("Authorization")
		received.custom = r.Header.Get("X-Custom")

		s.Require().NoError(json.NewDecoder(r.Body).Decode(&received.envelope))
		w.WriteHeader(http.StatusOK)
	}))

	defer server.Close()

	webhook := models.WebhookEntity{
		ID:           42,
		Active:       true,
		TargetURL:    server.URL,
		Method:       http.MethodPost,
		ContentType:  "application/json",
		Headers:      models.FieldMap{"X-Custom": "value9"},
		AuthMethod:   models.AuthBearer,
		AuthSecret:   "token7",
		TriggerEvent: models.EventSubmissionCreated,
	}

	s.webhookDao.
		On("FindActive", mock.Anything, s.database, int64(3), models.EventSubmissionCreated).
		Return([]models.WebhookEntity{webhook}, nil)

	s.webhookDao.
		On("RecordDispatch", mock.Anything, s.database, int64(42), "success",
			sql.NullInt64{Int64: 200, Valid: true}, s.now.Unix()).
		Return(nil)

	err := s.dispatcher.Dispatch(context.TODO(), 3, models.EventSubmissionCreated,
		map[string]interface{}{"submission_id": "abc123"})

	s.Require().NoError(err)
	s.Assert().Equal("Bearer token7", received.auth)
	s.Assert().Equal("value9", received.custom)
	s.Assert().NotEmpty(received.envelope.ID)
	s.Assert().Equal(models.EventSubmissionCreated, received.envelope.Event)
	s.Assert().Equal(s.now.Unix(), received.envelope.Timestamp)
	s.Assert().Equal("abc123", received.envelope.Data["submission_id"])
}

func (s *DispatcherTestSuite) TestDispatch_formEncodedWithAPIKey() {
	var received struct {
		key   string
		event string
		field string
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Require().NoError(r.ParseForm())

		received.key = r.Header.Get("X-Api-Key")
		received.event = r.PostFormValue("event")
		received.field = r.PostFormValue("submission_id")

		w.WriteHeader(http.StatusNoContent)
	}))

	defer server.Close()

	webhook := models.WebhookEntity{
		ID:          8,
		Active:      true,
		TargetURL:   server.URL,
		ContentType: "application/x-www-form-urlencoded",
		AuthMethod:  models.AuthAPIKey,
		AuthSecret:  "key5",
	}

	s.webhookDao.
		On("FindActive", mock.Anything, s.database, int64(3), models.EventSubmissionCreated).
		Return([]models.WebhookEntity{webhook}, nil)

	s.webhookDao.
		On("RecordDispatch", mock.Anything, s.database, int64(8), "success",
			sql.NullInt64{Int64: 204, Valid: true}, s.now.Unix()).
		Return(nil)

	err := s.dispatcher.Dispatch(context.TODO(), 3, models.EventSubmissionCreated,
		map[string]interface{}{"submission_id": "abc123"})

	s.Require().NoError(err)
	s.Assert().Equal("key5", received.key)
	s.Assert().Equal(models.EventSubmissionCreated, received.event)
	s.Assert().Equal("abc123", received.field)
}

func (s *DispatcherTestSuite) TestDispatch_failureRecordedAndRetryArmed() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	defer server.Close()

	webhook := models.WebhookEntity{
		ID:           13,
		Active:       true,
		TargetURL:    server.URL,
		ContentType:  "application/json",
		RetryEnabled: true,
		MaxRetries:   3,
	}

	s.webhookDao.
		On("FindActive", mock.Anything, s.database, int64(3), models.EventSubmissionCreated).
		Return([]models.WebhookEntity{webhook}, nil)

	s.webhookDao.
		On("RecordDispatch", mock.Anything, s.database, int64(13), "failed",
			sql.NullInt64{Int64: 502, Valid: true}, s.now.Unix()).
		Return(nil)

	s.webhookDao.
		On("FindByID", mock.Anything, s.database, int64(13)).
		Return(&webhook, nil)

	err := s.dispatcher.Dispatch(context.TODO(), 3, models.EventSubmissionCreated, nil)
	s.Require().NoError(err)

	s.Assert().Contains(s.dispatcher.scheduler.attempts, int64(13))
}

func (s *DispatcherTestSuite) TestDispatch_failureWithoutRetry() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	defer server.Close()

	webhook := models.WebhookEntity{
		ID:          21,
		Active:      true,
		TargetURL:   server.URL,
		ContentType: "application/json",
	}

	s.webhookDao.
		On("FindActive", mock.Anything, s.database, int64(3), models.EventSubmissionCreated).
		Return([]models.WebhookEntity{webhook}, nil)

	s.webhookDao.
		On("RecordDispatch", mock.Anything, s.database, int64(21), "failed",
			sql.NullInt64{Int64: 500, Valid: true}, s.now.Unix()).
		Return(nil)

	err := s.dispatcher.Dispatch(context.TODO(), 3, models.EventSubmissionCreated, nil)

	s.Require().NoError(err)
	s.Assert().Empty(s.dispatcher.scheduler.attempts)
}

func (s *DispatcherTestSuite) TestDispatch_noActiveWebhooks() {
	s.webhookDao.
		On("FindActive", mock.Anything, s.database, int64(3), models.EventSubmissionCreated).
		Return(nil, nil)

	err := s.dispatcher.Dispatch(context.TODO(), 3, models.EventSubmissionCreated, nil)
	s.Assert().NoError(err)
}
