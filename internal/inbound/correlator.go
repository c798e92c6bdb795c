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

// Package inbound receives delivery status callbacks from mail providers and correlates them
// with delivery log entries. Callback formats differ per provider family, so a normalizer per
// family reduces them to a common notice before correlation.
package inbound

import (
	"context"
	"database/sql"

	"github.com/danishfareed/formgate/internal/database"
	"github.com/danishfareed/formgate/internal/log"
	"github.com/danishfareed/formgate/internal/models"
)

// Notice is a normalized delivery status callback.
type Notice struct {
	MessageID string
	Status    models.DeliveryStatus
	Reason    string
}

// Correlator applies provider callbacks to the delivery log.
type Correlator struct {
	database database.Conn
	logDao   database.DeliveryLogDao
	confirm  confirmFunc
}

// NewCorrelator creates a new Correlator.
func NewCorrelator(conn database.Conn, logDao database.DeliveryLogDao) *Correlator {
	return &Correlator{
		database: conn,
		logDao:   logDao,
		confirm:  confirmSubscription,
	}
}

// Handle normalizes a raw callback body and applies the contained notices. Unknown providers
// and unmatched message ids are not errors, the callback endpoint acknowledges everything.
func (c *Correlator) Handle(ctx context.Context, provider string, body []byte) error {
	ctx = log.WithProvider(ctx, provider)

	notices, err := c.normalize(ctx, provider, body)
	if err != nil {
		log.WarnContext(ctx).Err(err).Msg("could not parse provider callback")
		return nil
	}

	for _, notice := range notices {
		if err := c.apply(ctx, notice); err != nil {
			return err
		}
	}

	return nil
}

func (c *Correlator) normalize(ctx context.Context, provider string, body []byte) ([]Notice, error) {
	switch provider {
	case "sendgrid":
		return normalizeSendgrid(body)
	case "mailgun":
		return normalizeMailgun(body)
	case "postmark":
		return normalizePostmark(body)
	case "ses":
		return c.normalizeSES(ctx, body)
	}

	log.InfoContext(ctx).Msg("callback from unknown provider ignored")
	return nil, nil
}

// apply looks up the newest delivery log entry whose stored message id is a prefix of the
// callback message id. Some providers append a suffix to the id they initially returned, which
// is why the match is on prefix, not equality.
func (c *Correlator) apply(ctx context.Context, notice Notice) error {
	if notice.MessageID == "" || !notice.Status.Terminal() {
		return nil
	}

	entry, err := c.logDao.FindNewestByMessageIDPrefix(ctx, c.database, notice.MessageID)

	if database.IsErrNoRows(err) {
		log.DebugContext(ctx).
			Str("messageID", notice.MessageID).
			Msg("callback does not match any delivery log entry")
		return nil
	}

	if err != nil {
		return err
	}

	if entry.Status.Terminal() {
		return nil
	}

	from := entry.Status
	entry.Status = notice.Status

	if notice.Status != models.DeliveryDelivered {
		entry.Error = sql.NullString{String: notice.Reason, Valid: notice.Reason != ""}
	}

	err = c.logDao.UpdateFromStatus(ctx, c.database, entry, from)

	if database.IsErrNoRows(err) {
		// Lost the race against a retry sweep. The next callback will apply cleanly.
		return nil
	}

	if err != nil {
		return err
	}

	log.InfoContext(ctx).
		Str("entry", entry.ID).
		Str("status", string(notice.Status)).
		Msg("delivery status updated from provider callback")

	return nil
}
