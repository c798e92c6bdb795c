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

package retention

import (
	"context"
	"database/sql"
	"strings"

	"github.com/danishfareed/formgate/internal/database"
	"github.com/danishfareed/formgate/internal/log"
	"github.com/danishfareed/formgate/internal/models"
)

const redacted = "[redacted]"

// personalDataKeys lists field names that count as personal data regardless of their value.
// Lookup happens on the normalized key, so "First Name" and "first-name" match "first_name".
var personalDataKeys = map[string]struct{}{
	"name":         {},
	"first_name":   {},
	"last_name":    {},
	"full_name":    {},
	"email":        {},
	"e_mail":       {},
	"phone":        {},
	"phone_number": {},
	"telephone":    {},
	"mobile":       {},
	"address":      {},
	"street":       {},
	"city":         {},
	"zip":          {},
	"postal_code":  {},
	"company":      {},
	"organization": {},
}

// Anonymizer strips personal data from a submission while keeping the row itself.
type Anonymizer struct {
	database      database.Conn
	submissionDao database.SubmissionDao
}

// NewAnonymizer creates a new Anonymizer.
func NewAnonymizer(conn database.Conn, submissionDao database.SubmissionDao) *Anonymizer {
	return &Anonymizer{
		database:      conn,
		submissionDao: submissionDao,
	}
}

// Anonymize redacts email shaped values and values under personal data keys and clears the
// client metadata. The submission keeps its id, form and timestamps.
func (a *Anonymizer) Anonymize(ctx context.Context, submissionID string) error {
	ctx = log.WithSubmission(ctx, submissionID)

	submission, err := a.submissionDao.FindByID(ctx, a.database, submissionID)
	if err != nil {
		return err
	}

	for key, value := range submission.Fields {
		if models.IsEmailShaped(value) || isPersonalDataKey(key) {
			submission.Fields[key] = redacted
		}
	}

	submission.SubmitterEmail = sql.NullString{}
	submission.ClientIP = ""
	submission.UserAgent = ""
	submission.Referrer = ""

	if err := a.submissionDao.Update(ctx, a.database, submission); err != nil {
		return err
	}

	log.InfoContext(ctx).Msg("submission anonymized")
	return nil
}

func isPersonalDataKey(key string) bool {
	normalized := strings.ToLower(key)
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)

	_, ok := personalDataKeys[normalized]
	return ok
}
