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

	"github.com/jmoiron/sqlx"

	"github.com/danishfareed/formgate/internal/models"
)

// SubmissionDao is a data access object for all submission related queries.
type SubmissionDao interface {
	// Insert inserts a new submission.
	Insert(context.Context, Queryer, *models.SubmissionEntity) error
	// Update updates an existing submission.
	Update(context.Context, Queryer, *models.SubmissionEntity) error
	// FindByID returns the submission with the given id.
	FindByID(context.Context, Queryer, string) (*models.SubmissionEntity, error)
	// FindBySubmitterEmail returns all submissions of a submitter, newest first.
	FindBySubmitterEmail(context.Context, Queryer, string) ([]models.SubmissionEntity, error)
	// FindIDsOlderThan returns the ids of all submissions created before the cutoff.
	FindIDsOlderThan(context.Context, Queryer, int64) ([]string, error)
	// DeleteByIDs deletes the submissions with the given ids and returns the number of
	// deleted rows.
	DeleteByIDs(context.Context, Queryer, []string) (int64, error)
}

// submissionDao is the sqlite implementation of SubmissionDao.
type submissionDao struct{}

// NewSubmissionDao creates a new SubmissionDao.
func NewSubmissionDao() SubmissionDao {
	return submissionDao{}
}

func (submissionDao) Insert(ctx context.Context, q Queryer, submission *models.SubmissionEntity) error {
	const query = `
		insert into "submissions" (
			"id" ,
			"form_id" ,
			"fields" ,
			"submitter_email" ,
			"client_ip" ,
			"user_agent" ,
			"referrer" ,
			"origin" ,
			"status" ,
			"starred" ,
			"email_sent" ,
			"auto_response_sent" ,
			"created_at" ,
			"read_at"
		) values (
			:id ,
			:form_id ,
			:fields ,
			:submitter_email ,
			:client_ip ,
			:user_agent ,
			:referrer ,
			:origin ,
			:status ,
			:starred ,
			:email_sent ,
			:auto_response_sent ,
			:created_at ,
			:read_at
		) ;
	`

	result, err := execNamed(ctx, q, query, submission)
	if err != nil {
		return err
	}

	return ensureRowsAffected(result)
}

func (submissionDao) Update(ctx context.Context, q Queryer, submission *models.SubmissionEntity) error {
	const query = `
		update "submissions"
		set "fields"             = :fields ,
			"submitter_email"    = :submitter_email ,
			"client_ip"          = :client_ip ,
			"user_agent"         = :user_agent ,
			"referrer"           = :referrer ,
			"origin"             = :origin ,
			"status"             = :status ,
			"starred"            = :starred ,
			"email_sent"         = :email_sent ,
			"auto_response_sent" = :auto_response_sent ,
			"read_at"            = :read_at
		where "id" = :id ;
	`

	result, err := execNamed(ctx, q, query, submission)
	if err != nil {
		return err
	}

	return ensureRowsAffected(result)
}

func (submissionDao) FindByID(ctx context.Context, q Queryer, id string) (*models.SubmissionEntity, error) {
	const query = `
		select *
		from "submissions"
		where "id" = $1 ;
	`

	var submission models.SubmissionEntity

	if err := selectOne(ctx, q, &submission, query, id); err != nil {
		return nil, err
	}

	return &submission, nil
}

func (submissionDao) FindBySubmitterEmail(
	ctx context.Context,
	q Queryer,
	email string,
) ([]models.SubmissionEntity, error) {
	const query = `
		select *
		from "submissions"
		where "submitter_email" = $1
		order by "created_at" desc ;
	`

	var submissionSlice []models.SubmissionEntity

	if err := selectSlice(ctx, q, &submissionSlice, query, email); err != nil {
		return nil, err
	}

	return submissionSlice, nil
}

func (submissionDao) FindIDsOlderThan(ctx context.Context, q Queryer, cutoff int64) ([]string, error) {
	const query = `
		select "id"
		from "submissions"
		where "created_at" < $1 ;
	`

	var ids []string

	if err := selectSlice(ctx, q, &ids, query, cutoff); err != nil {
		return nil, err
	}

	return ids, nil
}

func (submissionDao) DeleteByIDs(ctx context.Context, q Queryer, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(`delete from "submissions" where "id" in (?) ;`, ids)
	if err != nil {
		return 0, err
	}

	return countRowsAffected(execPositional(ctx, q, q.Rebind(query), args...))
}
