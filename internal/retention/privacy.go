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

	"github.com/danishfareed/formgate/internal/database"
	"github.com/danishfareed/formgate/internal/log"
	"github.com/danishfareed/formgate/internal/models"
)

// DeliveryRecord is the delivery log metadata included in a subject access export. Mail bodies
// are deliberately left out, they may contain data of other subjects.
type DeliveryRecord struct {
	Channel   models.DeliveryChannel `json:"channel"`
	Provider  string                 `json:"provider"`
	Recipient string                 `json:"recipient"`
	Status    models.DeliveryStatus  `json:"status"`
	CreatedAt int64                  `json:"created_at"`
}

// ExportRecord is one submission of a data subject.
type ExportRecord struct {
	SubmissionID string          `json:"submission_id"`
	FormID       int64           `json:"form_id"`
	Fields       models.FieldMap `json:"fields"`
	ClientIP     string          `json:"client_ip"`
	UserAgent    string          `json:"user_agent"`
	CreatedAt    int64           `json:"created_at"`
	Deliveries   []DeliveryRecord `json:"deliveries"`
}

// SubjectAccess implements export and erasure by submitter email.
type SubjectAccess struct {
	database      database.Conn
	submissionDao database.SubmissionDao
	logDao        database.DeliveryLogDao
}

// NewSubjectAccess creates a new SubjectAccess.
func NewSubjectAccess(
	conn database.Conn,
	submissionDao database.SubmissionDao,
	logDao database.DeliveryLogDao,
) *SubjectAccess {
	return &SubjectAccess{
		database:      conn,
		submissionDao: submissionDao,
		logDao:        logDao,
	}
}

// Export returns all submissions captured for the email together with their delivery metadata.
func (s *SubjectAccess) Export(ctx context.Context, email string) ([]ExportRecord, error) {
	submissions, err := s.submissionDao.FindBySubmitterEmail(ctx, s.database, email)
	if err != nil {
		return nil, err
	}

	if len(submissions) == 0 {
		return nil, nil
	}

	ids := make([]string, len(submissions))
	for i := range submissions {
		ids[i] = submissions[i].ID
	}

	entries, err := s.logDao.FindBySubmissionIDs(ctx, s.database, ids)
	if err != nil {
		return nil, err
	}

	deliveries := make(map[string][]DeliveryRecord)

	for _, entry := range entries {
		if !entry.SubmissionID.Valid {
			continue
		}

		deliveries[entry.SubmissionID.String] = append(deliveries[entry.SubmissionID.String],
			DeliveryRecord{
				Channel:   entry.Channel,
				Provider:  entry.Provider,
				Recipient: entry.Recipient,
				Status:    entry.Status,
				CreatedAt: entry.CreatedAt,
			})
	}

	records := make([]ExportRecord, len(submissions))

	for i, submission := range submissions {
		records[i] = ExportRecord{
			SubmissionID: submission.ID,
			FormID:       submission.FormID,
			Fields:       submission.Fields,
			ClientIP:     submission.ClientIP,
			UserAgent:    submission.UserAgent,
			CreatedAt:    submission.CreatedAt,
			Deliveries:   deliveries[submission.ID],
		}
	}

	return records, nil
}

// Delete erases all submissions of the email together with their delivery log rows and returns
// the number of deleted submissions.
func (s *SubjectAccess) Delete(ctx context.Context, email string) (int64, error) {
	submissions, err := s.submissionDao.FindBySubmitterEmail(ctx, s.database, email)
	if err != nil {
		return 0, err
	}

	if len(submissions) == 0 {
		return 0, nil
	}

	ids := make([]string, len(submissions))
	for i := range submissions {
		ids[i] = submissions[i].ID
	}

	tx, err := s.database.Begin(ctx)
	if err != nil {
		return 0, err
	}

	defer tx.Rollback()

	if _, err := s.logDao.DeleteBySubmissionIDs(ctx, tx, ids); err != nil {
		return 0, err
	}

	n, err := s.submissionDao.DeleteByIDs(ctx, tx, ids)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	log.Info().
		Int64("deleted", n).
		Msg("subject data erased")

	return n, nil
}
