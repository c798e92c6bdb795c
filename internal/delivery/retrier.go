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
	"time"

	"github.com/spf13/viper"

	"github.com/danishfareed/formgate/internal/database"
	"github.com/danishfareed/formgate/internal/log"
	"github.com/danishfareed/formgate/internal/models"
	"github.com/danishfareed/formgate/internal/provider"
)

func init() {
	viper.SetDefault("delivery.batchsize", 10)
}

// Retrier re-issues failed delivery log entries. It runs periodically, not per request.
type Retrier struct {
	database database.Conn
	logDao   database.DeliveryLogDao
	registry *provider.Registry
	clock    func() time.Time
}

// NewRetrier creates a new Retrier.
func NewRetrier(conn database.Conn, logDao database.DeliveryLogDao, registry *provider.Registry) *Retrier {
	return &Retrier{
		database: conn,
		logDao:   logDao,
		registry: registry,
		clock:    time.Now,
	}
}

// Sweep selects a bounded batch of due entries and retries each one. Status updates are guarded
// on the row still being failed, so a concurrent sweep or an inbound callback racing the retry
// cannot be overwritten.
func (r *Retrier) Sweep(ctx context.Context) error {
	now := r.clock()

	entries, err := r.logDao.FindRetryable(ctx, r.database, now.Unix(),
		viper.GetInt("delivery.batchsize"))
	if err != nil {
		return err
	}

	for i := range entries {
		r.retry(ctx, &entries[i], now)
	}

	return nil
}

func (r *Retrier) retry(ctx context.Context, entry *models.DeliveryLogEntity, now time.Time) {
	ctx = log.WithProvider(ctx, entry.Provider)

	backend, ok := r.registry.Get(entry.Provider)
	if !ok {
		// The provider was removed from the configuration since the entry was written. The
		// attempt still counts against the retry budget.
		r.recordFailure(ctx, entry, now, "provider no longer configured")
		return
	}

	result, err := backend.Send(ctx, &provider.Message{
		To:       entry.Recipient,
		Subject:  entry.Subject,
		HTMLBody: entry.Body,
	})

	if err != nil {
		r.recordFailure(ctx, entry, now, err.Error())
		return
	}

	entry.Status = models.DeliverySent
	entry.Error = sql.NullString{}
	entry.NextRetryAt = sql.NullInt64{}
	entry.SentAt = sql.NullInt64{Int64: now.Unix(), Valid: true}

	if result.MessageID != "" {
		entry.ProviderMessageID = sql.NullString{String: result.MessageID, Valid: true}
	}

	if err := r.update(ctx, entry); err != nil {
		log.ErrorContext(ctx).Err(err).Msg("could not mark delivery entry as sent")
		return
	}

	log.InfoContext(ctx).
		Str("entry", entry.ID).
		Int("retryCount", entry.RetryCount).
		Msg("delivery retry succeeded")
}

// recordFailure increments the retry counter and schedules the next attempt with exponential
// backoff: 2^retry_count minutes after this attempt.
func (r *Retrier) recordFailure(ctx context.Context, entry *models.DeliveryLogEntity, now time.Time, message string) {
	entry.RetryCount++
	entry.Status = models.DeliveryFailed
	entry.Error = sql.NullString{String: message, Valid: true}

	backoff := time.Duration(1<<uint(entry.RetryCount)) * time.Minute
	entry.NextRetryAt = sql.NullInt64{Int64: now.Add(backoff).Unix(), Valid: true}

	if err := r.update(ctx, entry); err != nil {
		log.ErrorContext(ctx).Err(err).Msg("could not record delivery retry failure")
		return
	}

	log.WarnContext(ctx).
		Str("entry", entry.ID).
		Int("retryCount", entry.RetryCount).
		Int("maxRetries", entry.MaxRetries).
		Msg("delivery retry failed")
}

func (r *Retrier) update(ctx context.Context, entry *models.DeliveryLogEntity) error {
	err := r.logDao.UpdateFromStatus(ctx, r.database, entry, models.DeliveryFailed)

	if database.IsErrNoRows(err) {
		// Someone else transitioned the row first. Nothing to do.
		return nil
	}

	return err
}
