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

	"github.com/danishfareed/formgate/internal/models"
)

// FormDao is a data access object for all form related queries.
type FormDao interface {
	// Insert inserts a new form.
	Insert(context.Context, Queryer, *models.FormEntity) error
	// Update updates an existing form.
	Update(context.Context, Queryer, *models.FormEntity) error
	// FindBySlug returns the form with the given slug.
	FindBySlug(context.Context, Queryer, string) (*models.FormEntity, error)
	// FindByID returns the form with the given id.
	FindByID(context.Context, Queryer, int64) (*models.FormEntity, error)
}

// formDao is the sqlite implementation of FormDao.
type formDao struct{}

// NewFormDao creates a new FormDao.
func NewFormDao() FormDao {
	return formDao{}
}

func (formDao) Insert(ctx context.Context, q Queryer, form *models.FormEntity) error {
	const query = `
		insert into "forms" (
			"slug" ,
			"name" ,
			"active" ,
			"notify_recipients" ,
			"notify_subject" ,
			"auto_responder_enabled" ,
			"auto_responder_subject" ,
			"auto_responder_body" ,
			"success_message" ,
			"redirect_url" ,
			"created_at"
		) values (
			:slug ,
			:name ,
			:active ,
			:notify_recipients ,
			:notify_subject ,
			:auto_responder_enabled ,
			:auto_responder_subject ,
			:auto_responder_body ,
			:success_message ,
			:redirect_url ,
			:created_at
		) ;
	`

	result, err := execNamed(ctx, q, query, form)
	if err != nil {
		return err
	}

	form.ID, err = result.LastInsertId()
	return err
}

func (formDao) Update(ctx context.Context, q Queryer, form *models.FormEntity) error {
	const query = `
		update "forms"
		set "slug"                   = :slug ,
			"name"                   = :name ,
			"active"                 = :active ,
			"notify_recipients"      = :notify_recipients ,
			"notify_subject"         = :notify_subject ,
			"auto_responder_enabled" = :auto_responder_enabled ,
			"auto_responder_subject" = :auto_responder_subject ,
			"auto_responder_body"    = :auto_responder_body ,
			"success_message"        = :success_message ,
			"redirect_url"           = :redirect_url
		where "id" = :id ;
	`

	result, err := execNamed(ctx, q, query, form)
	if err != nil {
		return err
	}

	return ensureRowsAffected(result)
}

func (formDao) FindBySlug(ctx context.Context, q Queryer, slug string) (*models.FormEntity, error) {
	const query = `
		select *
		from "forms"
		where "slug" = $1 ;
	`

	var form models.FormEntity

	if err := selectOne(ctx, q, &form, query, slug); err != nil {
		return nil, err
	}

	return &form, nil
}

func (formDao) FindByID(ctx context.Context, q Queryer, id int64) (*models.FormEntity, error) {
	const query = `
		select *
		from "forms"
		where "id" = $1 ;
	`

	var form models.FormEntity

	if err := selectOne(ctx, q, &form, query, id); err != nil {
		return nil, err
	}

	return &form, nil
}
