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

// Package webhook pushes domain events to third party endpoints. Each configured webhook gets
// its own auth strategy, timeout and bounded retry chain. Dispatch outcomes are recorded on the
// config row regardless of success.
package webhook

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danishfareed/formgate/internal/database"
	"github.com/danishfareed/formgate/internal/log"
	"github.com/danishfareed/formgate/internal/models"
)

// Event is the envelope pushed to webhook endpoints.
type Event struct {
	ID        string                 `json:"id"`
	Event     string                 `json:"event"`
	Timestamp int64                  `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Dispatcher delivers events to the webhook configs of a form.
type Dispatcher struct {
	database   database.Conn
	webhookDao database.WebhookDao
	scheduler  *Scheduler
	client     *http.Client
	clock      func() time.Time
}

// NewDispatcher creates a new Dispatcher. The http client timeout is controlled per webhook, so
// the shared client carries none.
func NewDispatcher(conn database.Conn, webhookDao database.WebhookDao, scheduler *Scheduler) *Dispatcher {
	return &Dispatcher{
		database:   conn,
		webhookDao: webhookDao,
		scheduler:  scheduler,
		client:     &http.Client{},
		clock:      time.Now,
	}
}

// Dispatch pushes an event to every active webhook of the form matching the trigger. Individual
// webhook failures are recorded and retried, they never propagate to the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, formID int64, trigger string, data map[string]interface{}) error {
	webhooks, err := d.webhookDao.FindActive(ctx, d.database, formID, trigger)
	if err != nil {
		return err
	}

	event := Event{
		ID:        uuid.NewString(),
		Event:     trigger,
		Timestamp: d.clock().Unix(),
		Data:      data,
	}

	for i := range webhooks {
		d.dispatchOne(ctx, &webhooks[i], event)
	}

	return nil
}

// dispatchOne performs a single delivery attempt and schedules a retry on failure.
func (d *Dispatcher) dispatchOne(ctx context.Context, webhook *models.WebhookEntity, event Event) {
	code, err := d.send(ctx, webhook, event)

	status := "success"
	if err != nil {
		status = "failed"
	}

	responseCode := sql.NullInt64{Int64: int64(code), Valid: code > 0}

	if recordErr := d.webhookDao.RecordDispatch(
		ctx, d.database, webhook.ID, status, responseCode, d.clock().Unix(),
	); recordErr != nil {
		log.ErrorContext(ctx).Err(recordErr).Msg("could not record webhook dispatch")
	}

	if err == nil {
		d.scheduler.Clear(webhook.ID)
		return
	}

	log.WarnContext(ctx).
		Int64("webhook", webhook.ID).
		Str("url", webhook.TargetURL).
		Err(err).
		Msg("webhook dispatch failed")

	if webhook.RetryEnabled {
		d.scheduleRetry(webhook.ID, event)
	}
}

// scheduleRetry arms a delayed re-dispatch at 2^attempt minutes. Once the per-webhook counter
// reaches its budget it is cleared and the chain ends.
func (d *Dispatcher) scheduleRetry(webhookID int64, event Event) {
	webhook, err := d.webhookDao.FindByID(context.Background(), d.database, webhookID)
	if err != nil {
		log.Error().Err(err).Int64("webhook", webhookID).Msg("could not load webhook for retry")
		return
	}

	attempt, ok := d.scheduler.NextAttempt(webhookID, webhook.MaxRetries)
	if !ok {
		log.Info().
			Int64("webhook", webhookID).
			Msg("webhook retry budget exhausted")
		return
	}

	delay := time.Duration(1<<uint(attempt)) * time.Minute

	d.scheduler.After(delay, func() {
		d.redispatch(webhookID, event)
	})
}

// redispatch re-reads the config, so a webhook disabled in the meantime is not called again.
func (d *Dispatcher) redispatch(webhookID int64, event Event) {
	ctx := context.Background()

	webhook, err := d.webhookDao.FindByID(ctx, d.database, webhookID)
	if err != nil || !webhook.Active {
		d.scheduler.Clear(webhookID)
		return
	}

	d.dispatchOne(ctx, webhook, event)
}

// send builds and issues the http request. A response code outside 2xx counts as failure.
func (d *Dispatcher) send(ctx context.Context, webhook *models.WebhookEntity, event Event) (int, error) {
	body, contentType, err := encodePayload(webhook.ContentType, event)
	if err != nil {
		return 0, err
	}

	timeout := time.Duration(webhook.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	method := webhook.Method
	if method == "" {
		method = http.MethodPost
	}

	req, err := http.NewRequestWithContext(ctx, method, webhook.TargetURL, strings.NewReader(body))
	if err != nil {
		return 0, err
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", "formgate-webhook/1.0")

	for key, value := range webhook.Headers {
		req.Header.Set(key, value)
	}

	applyAuth(req, webhook)

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}

	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4*1024))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, fmt.Errorf("webhook: endpoint returned %d", resp.StatusCode)
	}

	return resp.StatusCode, nil
}

// applyAuth layers the configured auth strategy on top of the static headers.
func applyAuth(req *http.Request, webhook *models.WebhookEntity) {
	switch webhook.AuthMethod {
	case models.AuthBasic:
		req.SetBasicAuth(webhook.AuthUsername, webhook.AuthSecret)

	case models.AuthBearer:
		req.Header.Set("Authorization", "Bearer "+webhook.AuthSecret)

	case models.AuthAPIKey:
		name := webhook.AuthHeaderName
		if name == "" {
			name = "X-Api-Key"
		}

		req.Header.Set(name, webhook.AuthSecret)
	}
}

// encodePayload renders the event envelope as json or form data depending on the configured
// content type.
func encodePayload(contentType string, event Event) (string, string, error) {
	if strings.Contains(contentType, "x-www-form-urlencoded") {
		values := make(url.Values)
		values.Set("id", event.ID)
		values.Set("event", event.Event)
		values.Set("timestamp", fmt.Sprintf("%d", event.Timestamp))

		for key, value := range event.Data {
			values.Set(key, fmt.Sprint(value))
		}

		return values.Encode(), "application/x-www-form-urlencoded", nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return "", "", err
	}

	return string(body), "application/json", nil
}
