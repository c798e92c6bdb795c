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

// Package delivery contains the mail side of the intake pipeline: the notifier sends the owner
// notification and the auto-responder, the retrier re-issues failed sends with exponential
// backoff and the cleaner ages out old log rows. Every send attempt is written to the delivery
// log before control returns to the caller.
package delivery

import (
	"context"
	"database/sql"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/danishfareed/formgate/internal/crypto"
	"github.com/danishfareed/formgate/internal/database"
	"github.com/danishfareed/formgate/internal/log"
	"github.com/danishfareed/formgate/internal/models"
	"github.com/danishfareed/formgate/internal/provider"
)

func init() {
	viper.SetDefault("delivery.maxretries", 3)
}

// Notifier fans an accepted submission out to the notification and auto-responder channels.
type Notifier struct {
	database      database.Conn
	submissionDao database.SubmissionDao
	logDao        database.DeliveryLogDao
	registry      *provider.Registry
	ids           crypto.IDGenerator
	clock         func() time.Time
}

// NewNotifier creates a new Notifier.
func NewNotifier(
	conn database.Conn,
	submissionDao database.SubmissionDao,
	logDao database.DeliveryLogDao,
	registry *provider.Registry,
	ids crypto.IDGenerator,
) *Notifier {
	return &Notifier{
		database:      conn,
		submissionDao: submissionDao,
		logDao:        logDao,
		registry:      registry,
		ids:           ids,
		clock:         time.Now,
	}
}

// SubmissionReceived sends the notification mails for a freshly persisted submission. Provider
// failures are recorded in the delivery log and never propagate, the submitter already received
// a success response. Only database errors are returned.
func (n *Notifier) SubmissionReceived(
	ctx context.Context,
	form *models.FormEntity,
	submission *models.SubmissionEntity,
) error {
	backend := n.registry.Active()
	ctx = log.WithProvider(ctx, backend.Name())

	body := renderFieldTable(form, submission)
	subject := renderTemplate(notifySubject(form), form, submission)

	for _, recipient := range form.NotifyRecipients {
		ok, err := n.sendAndLog(ctx, backend, &models.DeliveryLogEntity{
			SubmissionID: sql.NullString{String: submission.ID, Valid: true},
			FormID:       sql.NullInt64{Int64: form.ID, Valid: true},
			Channel:      models.ChannelNotification,
			Recipient:    recipient,
			Subject:      subject,
			Body:         body,
		}, submission.SubmitterEmail.String)

		if err != nil {
			return err
		}

		if ok {
			submission.EmailSent = true
		}
	}

	if form.AutoResponderEnabled && submission.SubmitterEmail.Valid {
		ok, err := n.sendAndLog(ctx, backend, &models.DeliveryLogEntity{
			SubmissionID: sql.NullString{String: submission.ID, Valid: true},
			FormID:       sql.NullInt64{Int64: form.ID, Valid: true},
			Channel:      models.ChannelAutoResponder,
			Recipient:    submission.SubmitterEmail.String,
			Subject:      renderTemplate(form.AutoResponderSubject, form, submission),
			Body:         renderTemplate(form.AutoResponderBody, form, submission),
		}, "")

		if err != nil {
			return err
		}

		if ok {
			submission.AutoResponseSent = true
		}
	}

	return n.saveFlags(ctx, submission)
}

// sendAndLog performs one send attempt and writes the outcome to the delivery log. The returned
// bool reports delivery success, the error only database failures.
func (n *Notifier) sendAndLog(
	ctx context.Context,
	backend provider.Provider,
	entry *models.DeliveryLogEntity,
	replyTo string,
) (bool, error) {
	id, err := n.ids.GenerateID()
	if err != nil {
		return false, err
	}

	now := n.clock()

	entry.ID = id
	entry.Provider = backend.Name()
	entry.MaxRetries = viper.GetInt("delivery.maxretries")
	entry.CreatedAt = now.Unix()

	result, sendErr := backend.Send(ctx, &provider.Message{
		To:       entry.Recipient,
		Subject:  entry.Subject,
		HTMLBody: entry.Body,
		ReplyTo:  replyTo,
	})

	if sendErr != nil {
		log.WarnContext(ctx).
			Str("recipient", entry.Recipient).
			Str("channel", string(entry.Channel)).
			Err(sendErr).
			Msg("delivery attempt failed")

		entry.Status = models.DeliveryFailed
		entry.Error = sql.NullString{String: sendErr.Error(), Valid: true}
	} else {
		entry.Status = models.DeliverySent
		entry.SentAt = sql.NullInt64{Int64: now.Unix(), Valid: true}

		if result.MessageID != "" {
			entry.ProviderMessageID = sql.NullString{String: result.MessageID, Valid: true}
		}
	}

	if err := n.logDao.Insert(ctx, n.database, entry); err != nil {
		return false, err
	}

	return sendErr == nil, nil
}

func (n *Notifier) saveFlags(ctx context.Context, submission *models.SubmissionEntity) error {
	if !submission.EmailSent && !submission.AutoResponseSent {
		return nil
	}

	return n.submissionDao.Update(ctx, n.database, submission)
}

func notifySubject(form *models.FormEntity) string {
	if form.NotifySubject != "" {
		return form.NotifySubject
	}

	return "New submission for {form_name}"
}

// renderTemplate substitutes the supported placeholders. Field placeholders use the form
// {field:key}.
func renderTemplate(template string, form *models.FormEntity, submission *models.SubmissionEntity) string {
	replacer := strings.NewReplacer(
		"{form_name}", form.Name,
		"{form_slug}", form.Slug,
		"{submission_id}", submission.ID,
	)

	rendered := replacer.Replace(template)

	for _, key := range submission.Fields.Keys() {
		rendered = strings.ReplaceAll(rendered, "{field:"+key+"}", submission.Fields[key])
	}

	return rendered
}

// renderFieldTable builds the notification body: one row per submitted field, plus the client
// metadata footer.
func renderFieldTable(form *models.FormEntity, submission *models.SubmissionEntity) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<h2>%s</h2>\n", html.EscapeString(form.Name))
	b.WriteString(`<table border="0" cellpadding="6">` + "\n")

	for _, key := range submission.Fields.Keys() {
		fmt.Fprintf(&b, "<tr><th align=\"left\">%s</th><td>%s</td></tr>\n",
			html.EscapeString(key),
			html.EscapeString(submission.Fields[key]))
	}

	b.WriteString("</table>\n")

	fmt.Fprintf(&b, "<p><small>Submission %s &middot; %s</small></p>\n",
		html.EscapeString(submission.ID),
		html.EscapeString(submission.ClientIP))

	return b.String()
}
