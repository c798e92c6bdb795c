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

package models

import (
	"database/sql"
)

// FormEntity is the entity for the "forms" table. Forms are configuration and are read-only to
// the intake pipeline.
type FormEntity struct {
	ID                   int64      `db:"id"`
	Slug                 string     `db:"slug"`
	Name                 string     `db:"name"`
	Active               bool       `db:"active"`
	NotifyRecipients     StringList `db:"notify_recipients"`
	NotifySubject        string     `db:"notify_subject"`
	AutoResponderEnabled bool       `db:"auto_responder_enabled"`
	AutoResponderSubject string     `db:"auto_responder_subject"`
	AutoResponderBody    string     `db:"auto_responder_body"`
	SuccessMessage       string     `db:"success_message"`
	RedirectURL          string     `db:"redirect_url"`
	CreatedAt            int64      `db:"created_at"`
}

// SubmissionStatus is the moderation status of a submission.
type SubmissionStatus string

const (
	// SubmissionNew is an accepted submission nobody has looked at yet.
	SubmissionNew = SubmissionStatus("new")
	// SubmissionRead is a submission marked as read.
	SubmissionRead = SubmissionStatus("read")
	// SubmissionSpam is a submission marked as spam.
	SubmissionSpam = SubmissionStatus("spam")
	// SubmissionTrash is a submission marked for deletion.
	SubmissionTrash = SubmissionStatus("trash")
)

// SubmissionEntity is the entity for the "submissions" table. It is created exactly once per
// accepted request and afterwards only touched by status transitions, the delivery bookkeeping
// booleans and the retention sweep.
type SubmissionEntity struct {
	ID               string           `db:"id"`
	FormID           int64            `db:"form_id"`
	Fields           FieldMap         `db:"fields"`
	SubmitterEmail   sql.NullString   `db:"submitter_email"`
	ClientIP         string           `db:"client_ip"`
	UserAgent        string           `db:"user_agent"`
	Referrer         string           `db:"referrer"`
	Origin           string           `db:"origin"`
	Status           SubmissionStatus `db:"status"`
	Starred          bool             `db:"starred"`
	EmailSent        bool             `db:"email_sent"`
	AutoResponseSent bool             `db:"auto_response_sent"`
	CreatedAt        int64            `db:"created_at"`
	ReadAt           sql.NullInt64    `db:"read_at"`
}

// DeliveryChannel distinguishes the two mail channels written to the delivery log.
type DeliveryChannel string

const (
	// ChannelNotification is the mail sent to the form owner.
	ChannelNotification = DeliveryChannel("notification")
	// ChannelAutoResponder is the confirmation mail sent back to the submitter.
	ChannelAutoResponder = DeliveryChannel("auto_responder")
)

// DeliveryStatus is the lifecycle status of a delivery log entry.
//
// pending -> {sent, failed}; failed -> sent via retry until retry_count reaches max_retries;
// sent -> {delivered, bounced, complaint} via inbound callbacks only. delivered, bounced and
// complaint are terminal.
type DeliveryStatus string

const (
	// DeliveryPending is an entry created before the first send attempt finished.
	DeliveryPending = DeliveryStatus("pending")
	// DeliverySent is an entry the provider accepted.
	DeliverySent = DeliveryStatus("sent")
	// DeliveryFailed is an entry the provider rejected. Eligible for retry.
	DeliveryFailed = DeliveryStatus("failed")
	// DeliveryDelivered is confirmed delivery reported by a provider callback.
	DeliveryDelivered = DeliveryStatus("delivered")
	// DeliveryBounced is a hard bounce reported by a provider callback.
	DeliveryBounced = DeliveryStatus("bounced")
	// DeliveryComplaint is a spam complaint reported by a provider callback.
	DeliveryComplaint = DeliveryStatus("complaint")
)

// Terminal reports whether a status may no longer change.
func (s DeliveryStatus) Terminal() bool {
	switch s {
	case DeliveryDelivered, DeliveryBounced, DeliveryComplaint:
		return true
	}

	return false
}

// DeliveryLogEntity is the entity for the "delivery_log" table. Subject and body are stored so
// the retry sweep can re-issue the exact same mail.
type DeliveryLogEntity struct {
	ID                string          `db:"id"`
	SubmissionID      sql.NullString  `db:"submission_id"`
	FormID            sql.NullInt64   `db:"form_id"`
	Channel           DeliveryChannel `db:"channel"`
	Provider          string          `db:"provider"`
	Recipient         string          `db:"recipient"`
	Subject           string          `db:"subject"`
	Body              string          `db:"body"`
	Status            DeliveryStatus  `db:"status"`
	Error             sql.NullString  `db:"error"`
	RetryCount        int             `db:"retry_count"`
	MaxRetries        int             `db:"max_retries"`
	ProviderMessageID sql.NullString  `db:"provider_message_id"`
	NextRetryAt       sql.NullInt64   `db:"next_retry_at"`
	CreatedAt         int64           `db:"created_at"`
	SentAt            sql.NullInt64   `db:"sent_at"`
}

// WebhookAuth selects how outbound webhook requests authenticate themselves.
type WebhookAuth string

const (
	// AuthNone sends no credentials.
	AuthNone = WebhookAuth("none")
	// AuthBasic sends an Authorization header with HTTP basic credentials.
	AuthBasic = WebhookAuth("basic")
	// AuthBearer sends an Authorization header with a bearer token.
	AuthBearer = WebhookAuth("bearer")
	// AuthAPIKey sends the token in a configurable header.
	AuthAPIKey = WebhookAuth("api_key")
)

// WebhookEntity is the entity for the "webhooks" table. The last_* columns record the outcome of
// the most recent dispatch regardless of success.
type WebhookEntity struct {
	ID               int64         `db:"id"`
	FormID           int64         `db:"form_id"`
	TargetURL        string        `db:"target_url"`
	Method           string        `db:"method"`
	ContentType      string        `db:"content_type"`
	Headers          FieldMap      `db:"headers"`
	AuthMethod       WebhookAuth   `db:"auth_method"`
	AuthUsername     string        `db:"auth_username"`
	AuthSecret       string        `db:"auth_secret"`
	AuthHeaderName   string        `db:"auth_header_name"`
	TriggerEvent     string        `db:"trigger_event"`
	Active           bool          `db:"active"`
	RetryEnabled     bool          `db:"retry_enabled"`
	MaxRetries       int           `db:"max_retries"`
	TimeoutSeconds   int           `db:"timeout_seconds"`
	LastStatus       string        `db:"last_status"`
	LastResponseCode sql.NullInt64 `db:"last_response_code"`
	LastTriggeredAt  sql.NullInt64 `db:"last_triggered_at"`
	CreatedAt        int64         `db:"created_at"`
}

// EventSubmissionCreated is the only trigger event currently emitted.
const EventSubmissionCreated = "submission.created"
