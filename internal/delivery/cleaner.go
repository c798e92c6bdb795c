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

package delivery

import (
	"context"
	"time"

	"github.com/spf13/viper"

	"github.com/danishfareed/formgate/internal/database"
	"github.com/danishfareed/formgate/internal/log"
)

func init() {
	viper.SetDefault("delivery.log.retention", "2160h") // 90 days
}

// Cleaner deletes delivery log rows older than the configured retention age.
type Cleaner struct {
	database database.Conn
	logDao   database.DeliveryLogDao
	clock    func() time.Time
}

// NewCleaner creates a new Cleaner.
func NewCleaner(conn database.Conn, logDao database.DeliveryLogDao) *Cleaner {
	return &Cleaner{
		database: conn,
		logDao:   logDao,
		clock:    time.Now,
	}
}

// Clean removes aged out log rows. A zero retention disables the cleanup.
func (c *Cleaner) Clean(ctx context.Context) error {
	retention := viper.GetDuration("delivery.log.retention")
	if retention <= 0 {
		return nil
	}

	cutoff := c.clock().Add(-retention).Unix()

	n, err := c.logDao.DeleteOlderThan(ctx, c.database, cutoff)
	if err != nil {
		return err
	}

	if n > 0 {
		log.Info().
			Int64("deleted", n).
			Msg("aged out delivery log rows")
	}

	return nil
}
