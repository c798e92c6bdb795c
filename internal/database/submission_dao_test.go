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

package database

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/danishfareed/formgate/internal/models"
)

func TestSubmissionDaoTestSuite(t *testing.T) {
	suite.Run(t, new(SubmissionDaoTestSuite))
}

type SubmissionDaoTestSuite struct {
	suite.Suite

	ctx           context.Context
	conn          Conn
	submissionDao SubmissionDao
}

func (s *SubmissionDaoTestSuite) SetupTest() {
	conn, err := openInMemory()
	s.Require().NoError(err)

	s.ctx = context.Background()
	s.conn = conn
	s.submissionDao = NewSubmissionDao()

	s.conn.ExecContext(s.ctx,
		`
			insert into "forms"
				( "id", "slug", "name", "created_at" )
			values
				( 42, 'contact', 'Contact', 1234 ) ;
		`)
}

func (s *SubmissionDaoTestSuite) TearDownTest() {
	s.Require().NoError(s.conn.Close())
}

func (s *SubmissionDaoTestSuite) TestInsert() {
	submission := models.SubmissionEntity{
		ID:             "sub1",
		FormID:         42,
		Fields:         models.FieldMap{"message": "hello"},
		SubmitterEmail: sql.NullString{String: "jane@example.com", Valid: true},
		ClientIP:       "192.0.2.7",
		Status:         models.SubmissionNew,
		CreatedAt:      1234,
	}

	s.Assert().NoError(s.submissionDao.Insert(s.ctx, s.conn, &submission))

	actual, err := s.submissionDao.FindByID(s.ctx, s.conn, "sub1")
	s.Assert().NoError(err)
	s.Assert().Equal(&submission, actual)
}

func (s *SubmissionDaoTestSuite) TestInsert_duplicateID() {
	submission := models.SubmissionEntity{
		ID:        "sub1",
		FormID:    42,
		Status:    models.SubmissionNew,
		CreatedAt: 1234,
	}

	s.Require().NoError(s.submissionDao.Insert(s.ctx, s.conn, &submission))
	s.Assert().Error(s.submissionDao.Insert(s.ctx, s.conn, &submission))
}

func (s *SubmissionDaoTestSuite) TestUpdate() {
	s.conn.ExecContext(s.ctx,
		`
			insert into "submissions"
				( "id", "form_id", "created_at" )
			values
				( 'sub1', 42, 1234 ) ;
		`)

	submission := models.SubmissionEntity{
		ID:        "sub1",
		FormID:    42,
		Fields:    models.FieldMap{},
		Status:    models.SubmissionRead,
		Starred:   true,
		CreatedAt: 1234,
		ReadAt:    sql.NullInt64{Int64: 1300, Valid: true},
	}

	s.Assert().NoError(s.submissionDao.Update(s.ctx, s.conn, &submission))

	actual, err := s.submissionDao.FindByID(s.ctx, s.conn, "sub1")
	s.Assert().NoError(err)
	s.Assert().Equal(models.SubmissionRead, actual.Status)
	s.Assert().True(actual.Starred)
	s.Assert().Equal(int64(1300), actual.ReadAt.Int64)
}

func (s *SubmissionDaoTestSuite) TestUpdate_unknownID() {
	err := s.submissionDao.Update(s.ctx, s.conn, &models.SubmissionEntity{ID: "ghost"})
	s.Assert().True(IsErrNoRows(err))
}

func (s *SubmissionDaoTestSuite) TestFindBySubmitterEmail() {
	s.conn.ExecContext(s.ctx,
		`
			insert into "submissions"
				( "id", "form_id", "submitter_email", "created_at" )
			values
				( 'sub1', 42, 'jane@example.com', 1000 ) ,
				( 'sub2', 42, 'jane@example.com', 3000 ) ,
				( 'sub3', 42, 'john@example.com', 2000 ) ;
		`)

	actual, err := s.submissionDao.FindBySubmitterEmail(s.ctx, s.conn, "jane@example.com")
	s.Assert().NoError(err)
	s.Require().Len(actual, 2)

	// Newest first.
	s.Assert().Equal("sub2", actual[0].ID)
	s.Assert().Equal("sub1", actual[1].ID)
}

func (s *SubmissionDaoTestSuite) TestFindIDsOlderThan() {
	s.conn.ExecContext(s.ctx,
		`
			insert into "submissions"
				( "id", "form_id", "created_at" )
			values
				( 'sub1', 42, 1000 ) ,
				( 'sub2', 42, 2000 ) ,
				( 'sub3', 42, 3000 ) ;
		`)

	ids, err := s.submissionDao.FindIDsOlderThan(s.ctx, s.conn, 2000)
	s.Assert().NoError(err)
	s.Assert().Equal([]string{"sub1"}, ids)
}

func (s *SubmissionDaoTestSuite) TestDeleteByIDs() {
	s.conn.ExecContext(s.ctx,
		`
			insert into "submissions"
				( "id", "form_id", "created_at" )
			values
				( 'sub1', 42, 1000 ) ,
				( 'sub2', 42, 2000 ) ,
				( 'sub3', 42, 3000 ) ;
		`)

	deleted, err := s.submissionDao.DeleteByIDs(s.ctx, s.conn, []string{"sub1", "sub3", "ghost"})
	s.Assert().NoError(err)
	s.Assert().Equal(int64(2), deleted)

	_, err = s.submissionDao.FindByID(s.ctx, s.conn, "sub2")
	s.Assert().NoError(err)
}

func (s *SubmissionDaoTestSuite) TestDeleteByIDs_empty() {
	deleted, err := s.submissionDao.DeleteByIDs(s.ctx, s.conn, nil)
	s.Assert().NoError(err)
	s.Assert().Zero(deleted)
}
