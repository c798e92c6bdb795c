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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danishfareed/formgate/internal/models"
)

func TestNormalizeMailgun(t *testing.T) {
	body := []byte(`{
		"event-data": {
			"event": "failed",
			"message": { "headers": { "message-id": "mg-id-1" } },
			"delivery-status": { "message": "mailbox full", "description": "" }
		}
	}`)

	notices, err := normalizeMailgun(body)
	require.NoError(t, err)
	require.Len(t, notices, 1)

	assert.Equal(t, "mg-id-1", notices[0].MessageID)
	assert.Equal(t, models.DeliveryBounced, notices[0].Status)
	assert.Equal(t, "mailbox full", notices[0].Reason)
}

func TestNormalizeMailgun_ignoresUnrelatedEvents(t *testing.T) {
	body := []byte(`{ "event-data": { "event": "opened" } }`)

	notices, err := normalizeMailgun(body)
	require.NoError(t, err)
	assert.Empty(t, notices)
}

func TestNormalizePostmark(t *testing.T) {
	for name, testcase := range map[string]struct {
		recordType string
		expected   models.DeliveryStatus
	}{
		"delivery":  {"Delivery", models.DeliveryDelivered},
		"bounce":    {"Bounce", models.DeliveryBounced},
		"complaint": {"SpamComplaint", models.DeliveryComplaint},
	} {
		t.Run(name, func(t *testing.T) {
			body := []byte(`{
				"RecordType": "` + testcase.recordType + `",
				"MessageID": "pm-id-1",
				"Description": "details"
			}`)

			notices, err := normalizePostmark(body)
			require.NoError(t, err)
			require.Len(t, notices, 1)

			assert.Equal(t, "pm-id-1", notices[0].MessageID)
			assert.Equal(t, testcase.expected, notices[0].Status)
			assert.Equal(t, "details", notices[0].Reason)
		})
	}
}

func TestNormalizeSendgrid_skipsUnknownEvents(t *testing.T) {
	body := []byte(`[
		{ "sg_message_id": "a", "event": "processed" },
		{ "sg_message_id": "b", "event": "delivered" }
	]`)

	notices, err := normalizeSendgrid(body)
	require.NoError(t, err)
	require.Len(t, notices, 1)
	assert.Equal(t, "b", notices[0].MessageID)
}
