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

	"github.com/danishfareed/formgate/internal/models"
)

// WebhookDao is a data access object for all webhook config related queries.
type WebhookDao interface {
	// Insert inserts a new webhook config.
	Insert(context.Context, Queryer, *models.WebhookEntity) error
	// FindByID returns the webhook config with the given id.
	FindByID(context.Context, Queryer, int64) (*models.WebhookEntity, error)
	// FindActive returns all active webhook configs of a form matching the trigger event.
	FindActive(context.Context, Queryer, int64, string) ([]models.WebhookEntity, error)
	// RecordDispatch stores the outcome of the most recent dispatch attempt.
	RecordDispatch(context.Context, Queryer, int64, string, sql.NullInt64, int64) error
}

// webhookDao is the sqlite implementation of WebhookDao.
type webhookDao struct{}

// NewWebhookDao creates a new WebhookDao.
func NewWebhookDao() WebhookDao {
	return webhookDao{}
}

func (webhookDao) Insert(ctx context.Context, q Queryer, webhook *models.WebhookEntity) error {
	const query = `
		insert into "webhooks" (
			"form_id" ,
			"target_url" ,
			"method" ,
			"content_type" ,
			"headers" ,
			"auth_method" ,
			"auth_username" ,
			"auth_secret" ,
			"auth_header_name" ,
			"trigger_event" ,
			"active" ,
			"retry_enabled" ,
			"max_retries" ,
			"timeout_seconds" ,
			"last_status" ,
			"last_response_code" ,
			"last_triggered_at" ,
			"created_at"
		) values (
			:form_id ,
			:target_url ,
			:method ,
			:content_type ,
			:headers ,
			:auth_method ,
			:auth_username ,
			:auth_secret ,
			:auth_header_name ,
			:trigger_event ,
			:active ,
			:retry_enabled ,
			:max_retries ,
			:timeout_seconds ,
			:last_status ,
			:last_response_code ,
			:last_triggered_at ,
			:created_at
		) ;
	`

	result, err := execNamed(ctx, q, query, webhook)
	if err != nil {
		return err
	}

	webhook.ID, err = result.LastInsertId()
	return err
}

func (webhookDao) FindByID(ctx context.Context, q Queryer, id int64) (*models.WebhookEntity, error) {
	const query = `
		select *
		from "webhooks"
		where "id" = $1 ;
	`

	var webhook models.WebhookEntity

	if err := selectOne(ctx, q, &webhook, query, id); err != nil {
		return nil, err
	}

	return &webhook, nil
}

func (webhookDao) FindActive(
	ctx context.Context,
	q Queryer,
	formID int64,
	event string,
) ([]models.WebhookEntity, error) {
	const query = `
		select *
		from "webhooks"
		where "form_id" = $1
		  and "trigger_event" = $2
		  and "active" ;
	`

	var webhookSlice []models.WebhookEntity

	if err := selectSlice(ctx, q, &webhookSlice, query, formID, event); err != nil {
		return nil, err
	}

	return webhookSlice, nil
}

func (webhookDao) RecordDispatch(
	ctx context.Context,
	q Queryer,
	id int64,
	status string,
	responseCode sql.NullInt64,
	triggeredAt int64,
) error {
	const query = `
		update "webhooks"
		set "last_status"        = $1 ,
			"last_response_code" = $2 ,
			"last_triggered_at"  = $3
		where "id" = $4 ;
	`

	result, err := execPositional(ctx, q, query, status, responseCode, triggeredAt, id)
	if err != nil {
		return err
	}

	return ensureRowsAffected(result)
}
