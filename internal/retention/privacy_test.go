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

package retention

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/danishfareed/formgate/internal/database"
	"github.com/danishfareed/formgate/internal/models"
)

func TestSubjectAccessTestSuite(t *testing.T) {
	suite.Run(t, new(SubjectAccessTestSuite))
}

type SubjectAccessTestSuite struct {
	suite.Suite

	database      *database.MockConn
	tx            *database.MockTx
	submissionDao *database.MockSubmissionDao
	logDao        *database.MockDeliveryLogDao

	access *SubjectAccess
}

func (s *SubjectAccessTestSuite) SetupTest() {
	s.database = new(database.MockConn)
	s.tx = new(database.MockTx)
	s.submissionDao = new(database.MockSubmissionDao)
	s.logDao = new(database.MockDeliveryLogDao)

	s.access = NewSubjectAccess(s.database, s.submissionDao, s.logDao)
}

func (s *SubjectAccessTestSuite) TeardownTest() {
	mock.AssertExpectationsForObjects(s.T(),
		s.database,
		s.tx,
		s.submissionDao,
		s.logDao)
}

func (s *SubjectAccessTestSuite) TestExport() {
	s.submissionDao.
		On("FindBySubmitterEmail", mock.Anything, s.database, "someone@example.com").
		Return([]models.SubmissionEntity{
			{ID: "id1", FormID: 3, Fields: models.FieldMap{"message": "hello"}},
			{ID: "id2", FormID: 3},
		}, nil)

	s.logDao.
		On("FindBySubmissionIDs", mock.Anything, s.database, []string{"id1", "id2"}).
		Return([]models.DeliveryLogEntity{
			{
				SubmissionID: sql.NullString{String: "id1", Valid: true},
				Channel:      models.ChannelNotification,
				Provider:     "smtp",
				Recipient:    "owner@example.com",
				Status:       models.DeliverySent,
			},
		}, nil)

	records, err := s.access.Export(context.TODO(), "someone@example.com")
	s.Require().NoError(err)
	s.Require().Len(records, 2)

	s.Assert().Equal("id1", records[0].SubmissionID)
	s.Require().Len(records[0].Deliveries, 1)
	s.Assert().Equal("smtp", records[0].Deliveries[0].Provider)
	s.Assert().Empty(records[1].Deliveries)
}

func (s *SubjectAccessTestSuite) TestExport_noData() {
	s.submissionDao.
		On("FindBySubmitterEmail", mock.Anything, s.database, "nobody@example.com").
		Return(nil, nil)

	records, err := s.access.Export(context.TODO(), "nobody@example.com")
	s.Require().NoError(err)
	s.Assert().Empty(records)
}

func (s *SubjectAccessTestSuite) TestDelete() {
	s.submissionDao.
		On("FindBySubmitterEmail", mock.Anything, s.database, "someone@example.com").
		Return([]models.SubmissionEntity{{ID: "id1"}}, nil)

	s.database.On("Begin", mock.Anything).Return(s.tx, nil)
	s.tx.On("Rollback").Return(nil)

	s.logDao.
		On("DeleteBySubmissionIDs", mock.Anything, s.tx, []string{"id1"}).
		Return(int64(2), nil)

	s.submissionDao.
		On("DeleteByIDs", mock.Anything, s.tx, []string{"id1"}).
		Return(int64(1), nil)

	s.tx.On("Commit").Return(nil)

	n, err := s.access.Delete(context.TODO(), "someone@example.com")
	s.Require().NoError(err)
	s.Assert().Equal(int64(1), n)
}

func TestAnonymizerTestSuite(t *testing.T) {
	suite.Run(t, new(AnonymizerTestSuite))
}

type AnonymizerTestSuite struct {
	suite.Suite

	database      *database.MockConn
	submissionDao *database.MockSubmissionDao

	anonymizer *Anonymizer
}

func (s *AnonymizerTestSuite) SetupTest() {
	s.database = new(database.MockConn)
	s.submissionDao = new(database.MockSubmissionDao)

	s.anonymizer = NewAnonymizer(s.database, s.submissionDao)
}

func (s *AnonymizerTestSuite) TeardownTest() {
	mock.AssertExpectationsForObjects(s.T(),
		s.database,
		s.submissionDao)
}

func (s *AnonymizerTestSuite) TestAnonymize() {
	submission := models.SubmissionEntity{
		ID: "id1",
		Fields: models.FieldMap{
			"First Name": "Jane",
			"contact":    "jane@example.com",
			"message":    "the roof is leaking",
		},
		SubmitterEmail: sql.NullString{String: "jane@example.com", Valid: true},
		ClientIP:       "192.0.2.7",
		UserAgent:      "Mozilla/5.0",
		Referrer:       "https://example.com/contact",
	}

	s.submissionDao.
		On("FindByID", mock.Anything, s.database, "id1").
		Return(&submission, nil)

	s.submissionDao.
		On("Update", mock.Anything, s.database,
			mock.MatchedBy(func(updated *models.SubmissionEntity) bool {
				return updated.Fields["First Name"] == "[redacted]" &&
					updated.Fields["contact"] == "[redacted]" &&
					updated.Fields["message"] == "the roof is leaking" &&
					!updated.SubmitterEmail.Valid &&
					updated.ClientIP == "" &&
					updated.UserAgent == ""
			})).
		Return(nil)

	s.Assert().NoError(s.anonymizer.Anonymize(context.TODO(), "id1"))
}
