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
	"encoding/json"

	"github.com/danishfareed/formgate/internal/models"
)

// normalizeSendgrid parses the sendgrid event webhook format, a json array of flat event
// objects.
func normalizeSendgrid(body []byte) ([]Notice, error) {
	var events []struct {
		MessageID string `json:"sg_message_id"`
		Event     string `json:"event"`
		Reason    string `json:"reason"`
	}

	if err := json.Unmarshal(body, &events); err != nil {
		return nil, err
	}

	var notices []Notice

	for _, event := range events {
		notice := Notice{MessageID: event.MessageID, Reason: event.Reason}

		switch event.Event {
		case "delivered":
			notice.Status = models.DeliveryDelivered
		case "bounce", "dropped":
			notice.Status = models.DeliveryBounced
		case "spamreport":
			notice.Status = models.DeliveryComplaint
		default:
			continue
		}

		notices = append(notices, notice)
	}

	return notices, nil
}

// normalizeMailgun parses the mailgun webhook format, a single object wrapping an "event-data"
// payload.
func normalizeMailgun(body []byte) ([]Notice, error) {
	var callback struct {
		EventData struct {
			Event   string `json:"event"`
			Message struct {
				Headers struct {
					MessageID string `json:"message-id"`
				} `json:"headers"`
			} `json:"message"`
			DeliveryStatus struct {
				Message     string `json:"message"`
				Description string `json:"description"`
			} `json:"delivery-status"`
		} `json:"event-data"`
	}

	if err := json.Unmarshal(body, &callback); err != nil {
		return nil, err
	}

	data := callback.EventData

	notice := Notice{
		MessageID: data.Message.Headers.MessageID,
		Reason:    data.DeliveryStatus.Description,
	}

	if notice.Reason == "" {
		notice.Reason = data.DeliveryStatus.Message
	}

	switch data.Event {
	case "delivered":
		notice.Status = models.DeliveryDelivered
	case "failed":
		notice.Status = models.DeliveryBounced
	case "complained":
		notice.Status = models.DeliveryComplaint
	default:
		return nil, nil
	}

	return []Notice{notice}, nil
}

// normalizePostmark parses the postmark webhook format, a single object discriminated by
// "RecordType".
func normalizePostmark(body []byte) ([]Notice, error) {
	var callback struct {
		RecordType  string `json:"RecordType"`
		MessageID   string `json:"MessageID"`
		Description string `json:"Description"`
		Details     string `json:"Details"`
	}

	if err := json.Unmarshal(body, &callback); err != nil {
		return nil, err
	}

	notice := Notice{MessageID: callback.MessageID, Reason: callback.Description}

	if notice.Reason == "" {
		notice.Reason = callback.Details
	}

	switch callback.RecordType {
	case "Delivery":
		notice.Status = models.DeliveryDelivered
	case "Bounce":
		notice.Status = models.DeliveryBounced
	case "SpamComplaint":
		notice.Status = models.DeliveryComplaint
	default:
		return nil, nil
	}

	return []Notice{notice}, nil
}
