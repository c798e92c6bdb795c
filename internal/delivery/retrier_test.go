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

package delivery

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/danishfareed/formgate/internal/crypto"
	"github.com/danishfareed/formgate/internal/database"
	"github.com/danishfareed/formgate/internal/models"
	"github.com/danishfareed/formgate/internal/provider"
)

func TestRetrierTestSuite(t *testing.T) {
	suite.Run(t, new(RetrierTestSuite))
}

type RetrierTestSuite struct {
	suite.Suite

	database *database.MockConn
	logDao   *database.MockDeliveryLogDao
	backend  *provider.MockProvider

	now     time.Time
	retrier *Retrier
}

func (s *RetrierTestSuite) SetupTest() {
	viper.Set("security.secret.key", "0123456789abcdef")
	viper.Set("delivery.batchsize", 10)

	s.database = new(database.MockConn)
	s.logDao = new(database.MockDeliveryLogDao)
	s.backend = &provider.MockProvider{MockName: "mock"}
	s.now = time.Date(2026, time.January, 10, 12, 0, 0, 0, time.UTC)

	box, err := crypto.NewSecretBox()
	s.Require().NoError(err)

	registry := provider.NewRegistry(box)
	registry.Register(s.backend)

	s.retrier = NewRetrier(s.database, s.logDao, registry)
	s.retrier.clock = func() time.Time { return s.now }
}

func (s *RetrierTestSuite) TeardownTest() {
	mock.AssertExpectationsForObjects(s.T(),
		s.database,
		s.logDao,
		s.backend)
}

func (s *RetrierTestSuite) entry() models.DeliveryLogEntity {
	return models.DeliveryLogEntity{
		ID:         "entry1",
		Channel:    models.ChannelNotification,
		Provider:   "mock",
		Recipient:  "owner@example.com",
		Subject:    "subject1",
		Body:       "body1",
		Status:     models.DeliveryFailed,
		RetryCount: 1,
		MaxRetries: 3,
		Error:      sql.NullString{String: "old error", Valid: true},
	}
}

func (s *RetrierTestSuite) TestSweep_success() {
	s.logDao.
		On("FindRetryable", mock.Anything, s.database, s.now.Unix(), 10).
		Return([]models.DeliveryLogEntity{s.entry()}, nil)

	s.backend.
		On("Send", mock.Anything, mock.MatchedBy(func(msg *provider.Message) bool {
			return msg.To == "owner@example.com" &&
				msg.Subject == "subject1" &&
				msg.HTMLBody == "body1"
		})).
		Return(&provider.Result{MessageID: "msg2"}, nil)

	s.logDao.
		On("UpdateFromStatus", mock.Anything, s.database,
			mock.MatchedBy(func(entry *models.DeliveryLogEntity) bool {
				return entry.Status == models.DeliverySent &&
					!entry.Error.Valid &&
					!entry.NextRetryAt.Valid &&
					entry.SentAt.Int64 == s.now.Unix() &&
					entry.ProviderMessageID.String == "msg2"
			}),
			models.DeliveryFailed).
		Return(nil)

	s.Assert().NoError(s.retrier.Sweep(context.TODO()))
}

func (s *RetrierTestSuite) TestSweep_failureSchedulesBackoff() {
	s.logDao.
		On("FindRetryable", mock.Anything, s.database, s.now.Unix(), 10).
		Return([]models.DeliveryLogEntity{s.entry()}, nil)

	s.backend.
		On("Send", mock.Anything, mock.Anything).
		Return(nil, errors.New("still refused"))

	// The second failure backs off by 2^2 minutes.
	expectedRetryAt := s.now.Add(4 * time.Minute).Unix()

	s.logDao.
		On("UpdateFromStatus", mock.Anything, s.database,
			mock.MatchedBy(func(entry *models.DeliveryLogEntity) bool {
				return entry.Status == models.DeliveryFailed &&
					entry.RetryCount == 2 &&
					entry.Error.String == "still refused" &&
					entry.NextRetryAt.Int64 == expectedRetryAt
			}),
			models.DeliveryFailed).
		Return(nil)

	s.Assert().NoError(s.retrier.Sweep(context.TODO()))
}

func (s *RetrierTestSuite) TestSweep_unknownProviderCountsAsFailure() {
	entry := s.entry()
	entry.Provider = "gone"

	s.logDao.
		On("FindRetryable", mock.Anything, s.database, s.now.Unix(), 10).
		Return([]models.DeliveryLogEntity{entry}, nil)

	s.logDao.
		On("UpdateFromStatus", mock.Anything, s.database,
			mock.MatchedBy(func(updated *models.DeliveryLogEntity) bool {
				return updated.RetryCount == 2 &&
					updated.Error.String == "provider no longer configured"
			}),
			models.DeliveryFailed).
		Return(nil)

	s.Assert().NoError(s.retrier.Sweep(context.TODO()))
}

func (s *RetrierTestSuite) TestSweep_lostUpdateRace() {
	s.logDao.
		On("FindRetryable", mock.Anything, s.database, s.now.Unix(), 10).
		Return([]models.DeliveryLogEntity{s.entry()}, nil)

	s.backend.
		On("Send", mock.Anything, mock.Anything).
		Return(&provider.Result{}, nil)

	s.logDao.
		On("UpdateFromStatus", mock.Anything, s.database, mock.Anything, models.DeliveryFailed).
		Return(sql.ErrNoRows)

	s.Assert().NoError(s.retrier.Sweep(context.TODO()))
}

func (s *RetrierTestSuite) TestSweep_findError() {
	s.logDao.
		On("FindRetryable", mock.Anything, s.database, s.now.Unix(), 10).
		Return(nil, errors.New("err1"))

	s.Assert().EqualError(s.retrier.Sweep(context.TODO()), "err1")
}
