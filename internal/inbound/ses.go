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

package inbound

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/danishfareed/formgate/internal/log"
	"github.com/danishfareed/formgate/internal/models"
)

type confirmFunc func(ctx context.Context, url string) error

// normalizeSES parses the sns envelope amazon wraps ses notifications in. A subscription
// confirmation is answered by fetching the contained url, only then does amazon start pushing
// actual events.
func (c *Correlator) normalizeSES(ctx context.Context, body []byte) ([]Notice, error) {
	var envelope struct {
		Type         string `json:"Type"`
		SubscribeURL string `json:"SubscribeURL"`
		Message      string `json:"Message"`
	}

	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}

	if envelope.Type == "SubscriptionConfirmation" {
		if err := c.confirm(ctx, envelope.SubscribeURL); err != nil {
			log.WarnContext(ctx).Err(err).Msg("could not confirm sns subscription")
		} else {
			log.InfoContext(ctx).Msg("sns subscription confirmed")
		}

		return nil, nil
	}

	var notification struct {
		NotificationType string `json:"notificationType"`
		Mail             struct {
			MessageID string `json:"messageId"`
		} `json:"mail"`
		Bounce struct {
			BounceType        string `json:"bounceType"`
			BouncedRecipients []struct {
				DiagnosticCode string `json:"diagnosticCode"`
			} `json:"bouncedRecipients"`
		} `json:"bounce"`
		Complaint struct {
			ComplaintFeedbackType string `json:"complaintFeedbackType"`
		} `json:"complaint"`
	}

	if err := json.Unmarshal([]byte(envelope.Message), &notification); err != nil {
		return nil, err
	}

	notice := Notice{MessageID: notification.Mail.MessageID}

	switch notification.NotificationType {
	case "Delivery":
		notice.Status = models.DeliveryDelivered

	case "Bounce":
		notice.Status = models.DeliveryBounced
		notice.Reason = notification.Bounce.BounceType

		if len(notification.Bounce.BouncedRecipients) > 0 {
			diagnostic := notification.Bounce.BouncedRecipients[0].DiagnosticCode
			if diagnostic != "" {
				notice.Reason = strings.TrimSpace(notice.Reason + ": " + diagnostic)
			}
		}

	case "Complaint":
		notice.Status = models.DeliveryComplaint
		notice.Reason = notification.Complaint.ComplaintFeedbackType

	default:
		return nil, nil
	}

	return []Notice{notice}, nil
}

// confirmSubscription completes the sns handshake by fetching the subscribe url.
func confirmSubscription(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}

	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("inbound: subscription confirmation returned %d", resp.StatusCode)
	}

	return nil
}
