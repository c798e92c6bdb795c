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

// DeliveryLogDao is a data access object for all delivery log related queries.
type DeliveryLogDao interface {
	// Insert inserts a new delivery log entry.
	Insert(context.Context, Queryer, *models.DeliveryLogEntity) error
	// UpdateFromStatus writes the mutable columns of an entry, but only if the row is still in
	// the expected status. IsErrNoRows identifies a lost race.
	UpdateFromStatus(context.Context, Queryer, *models.DeliveryLogEntity, models.DeliveryStatus) error
	// FindByID returns the entry with the given id.
	FindByID(context.Context, Queryer, string) (*models.DeliveryLogEntity, error)
	// FindRetryable returns up to limit failed entries whose retry budget is not exhausted and
	// whose next retry is due at or before now.
	FindRetryable(context.Context, Queryer, int64, int) ([]models.DeliveryLogEntity, error)
	// FindNewestByMessageIDPrefix returns the most recent entry whose stored provider message
	// id is a prefix of the given callback message id.
	FindNewestByMessageIDPrefix(context.Context, Queryer, string) (*models.DeliveryLogEntity, error)
	// FindBySubmissionIDs returns all entries belonging to the given submissions.
	FindBySubmissionIDs(context.Context, Queryer, []string) ([]models.DeliveryLogEntity, error)
	// DeleteBySubmissionIDs deletes all entries belonging to the given submissions.
	DeleteBySubmissionIDs(context.Context, Queryer, []string) (int64, error)
	// DeleteOlderThan deletes all entries created before the cutoff and returns the number of
	// deleted rows.
	DeleteOlderThan(context.Context, Queryer, int64) (int64, error)
}

// deliveryLogDao is the sqlite implementation of DeliveryLogDao.
type deliveryLogDao struct{}

// NewDeliveryLogDao creates a new DeliveryLogDao.
func NewDeliveryLogDao() DeliveryLogDao {
	return deliveryLogDao{}
}

func (deliveryLogDao) Insert(ctx context.Context, q Queryer, entry *models.DeliveryLogEntity) error {
	const query = `
		insert into "delivery_log" (
			"id" ,
			"submission_id" ,
			"form_id" ,
			"channel" ,
			"provider" ,
			"recipient" ,
			"subject" ,
			"body" ,
			"status" ,
			"error" ,
			"retry_count" ,
			"max_retries" ,
			"provider_message_id" ,
			"next_retry_at" ,
			"created_at" ,
			"sent_at"
		) values (
			:id ,
			:submission_id ,
			:form_id ,
			:channel ,
			:provider ,
			:recipient ,
			:subject ,
			:body ,
			:status ,
			:error ,
			:retry_count ,
			:max_retries ,
			:provider_message_id ,
			:next_retry_at ,
			:created_at ,
			:sent_at
		) ;
	`

	result, err := execNamed(ctx, q, query, entry)
	if err != nil {
		return err
	}

	return ensureRowsAffected(result)
}

func (deliveryLogDao) UpdateFromStatus(
	ctx context.Context,
	q Queryer,
	entry *models.DeliveryLogEntity,
	from models.DeliveryStatus,
) error {
	const query = `
		update "delivery_log"
		set "status"              = :status ,
			"error"               = :error ,
			"retry_count"         = :retry_count ,
			"provider_message_id" = :provider_message_id ,
			"next_retry_at"       = :next_retry_at ,
			"sent_at"             = :sent_at
		where "id" = :id
		  and "status" = :from_status ;
	`

	arg := struct {
		models.DeliveryLogEntity
		FromStatus models.DeliveryStatus `db:"from_status"`
	}{*entry, from}

	result, err := execNamed(ctx, q, query, arg)
	if err != nil {
		return err
	}

	return ensureRowsAffected(result)
}

func (deliveryLogDao) FindByID(ctx context.Context, q Queryer, id string) (*models.DeliveryLogEntity, error) {
	const query = `
		select *
		from "delivery_log"
		where "id" = $1 ;
	`

	var entry models.DeliveryLogEntity

	if err := selectOne(ctx, q, &entry, query, id); err != nil {
		return nil, err
	}

	return &entry, nil
}

func (deliveryLogDao) FindRetryable(
	ctx context.Context,
	q Queryer,
	now int64,
	limit int,
) ([]models.DeliveryLogEntity, error) {
	const query = `
		select *
		from "delivery_log"
		where "status" = $1
		  and "retry_count" < "max_retries"
		  and ( "next_retry_at" is null or "next_retry_at" <= $2 )
		order by "created_at" asc
		limit $3 ;
	`

	var entrySlice []models.DeliveryLogEntity

	if err := selectSlice(ctx, q, &entrySlice, query, models.DeliveryFailed, now, limit); err != nil {
		return nil, err
	}

	return entrySlice, nil
}

func (deliveryLogDao) FindNewestByMessageIDPrefix(
	ctx context.Context,
	q Queryer,
	messageID string,
) (*models.DeliveryLogEntity, error) {
	// Providers sometimes append suffixes to the message id they returned at send time, so the
	// stored id is matched as a prefix of the callback id.
	const query = `
		select *
		from "delivery_log"
		where "provider_message_id" is not null
		  and "provider_message_id" <> ''
		  and substr($1, 1, length("provider_message_id")) = "provider_message_id"
		order by "created_at" desc
		limit 1 ;
	`

	var entry models.DeliveryLogEntity

	if err := selectOne(ctx, q, &entry, query, messageID); err != nil {
		return nil, err
	}

	return &entry, nil
}

func (deliveryLogDao) FindBySubmissionIDs(
	ctx context.Context,
	q Queryer,
	ids []string,
) ([]models.DeliveryLogEntity, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		select *
		from "delivery_log"
		where "submission_id" in (?)
		order by "created_at" desc ;
	`, ids)

	if err != nil {
		return nil, err
	}

	var entrySlice []models.DeliveryLogEntity

	if err := selectSlice(ctx, q, &entrySlice, q.Rebind(query), args...); err != nil {
		return nil, err
	}

	return entrySlice, nil
}

func (deliveryLogDao) DeleteBySubmissionIDs(ctx context.Context, q Queryer, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(`delete from "delivery_log" where "submission_id" in (?) ;`, ids)
	if err != nil {
		return 0, err
	}

	return countRowsAffected(execPositional(ctx, q, q.Rebind(query), args...))
}

func (deliveryLogDao) DeleteOlderThan(ctx context.Context, q Queryer, cutoff int64) (int64, error) {
	const query = `
		delete from "delivery_log"
		where "created_at" < $1 ;
	`

	return countRowsAffected(execPositional(ctx, q, query, cutoff))
}
