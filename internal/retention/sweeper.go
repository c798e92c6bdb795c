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

// Package retention implements the data minimization side of the pipeline: the periodic sweep
// of aged out submissions, on-demand anonymization and the subject access operations.
package retention

import (
	"context"
	"time"

	"github.com/spf13/viper"

	"github.com/danishfareed/formgate/internal/database"
	"github.com/danishfareed/formgate/internal/log"
)

func init() {
	// A zero retention keeps submissions forever.
	viper.SetDefault("retention.submissions", "0")
}

// Sweeper deletes submissions older than the configured retention window, together with their
// delivery log rows.
type Sweeper struct {
	database      database.Conn
	submissionDao database.SubmissionDao
	logDao        database.DeliveryLogDao
	clock         func() time.Time
}

// NewSweeper creates a new Sweeper.
func NewSweeper(
	conn database.Conn,
	submissionDao database.SubmissionDao,
	logDao database.DeliveryLogDao,
) *Sweeper {
	return &Sweeper{
		database:      conn,
		submissionDao: submissionDao,
		logDao:        logDao,
		clock:         time.Now,
	}
}

// Sweep removes aged out submissions. Log rows go first, so a crash between the two deletes
// leaves no orphaned log rows behind.
func (s *Sweeper) Sweep(ctx context.Context) error {
	retention := viper.GetDuration("retention.submissions")
	if retention <= 0 {
		return nil
	}

	cutoff := s.clock().Add(-retention).Unix()

	ids, err := s.submissionDao.FindIDsOlderThan(ctx, s.database, cutoff)
	if err != nil {
		return err
	}

	if len(ids) == 0 {
		return nil
	}

	tx, err := s.database.Begin(ctx)
	if err != nil {
		return err
	}

	defer tx.Rollback()

	if _, err := s.logDao.DeleteBySubmissionIDs(ctx, tx, ids); err != nil {
		return err
	}

	n, err := s.submissionDao.DeleteByIDs(ctx, tx, ids)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	log.Info().
		Int64("deleted", n).
		Msg("aged out submissions")

	return nil
}
