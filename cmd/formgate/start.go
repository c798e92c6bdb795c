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

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/viper"

	"github.com/danishfareed/formgate/internal/database"
	"github.com/danishfareed/formgate/internal/delivery"
	"github.com/danishfareed/formgate/internal/log"
	"github.com/danishfareed/formgate/internal/ratelimit"
	"github.com/danishfareed/formgate/internal/retention"
	"github.com/danishfareed/formgate/internal/webhook"
)

func init() {
	viper.SetDefault("http.address", "0.0.0.0:8080")
	viper.SetDefault("delivery.retryinterval", "60s")
	viper.SetDefault("delivery.cleanupinterval", "1h")
	viper.SetDefault("retention.sweepinterval", "1h")
	viper.SetDefault("ratelimit.sweepinterval", "5m")
}

type startCommand struct {
	database  database.Conn
	router    chi.Router
	retrier   *delivery.Retrier
	cleaner   *delivery.Cleaner
	sweeper   *retention.Sweeper
	limiter   ratelimit.Limiter
	scheduler *webhook.Scheduler
}

func (c *startCommand) run() error {
	defer c.database.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go c.janitor(ctx)

	server := &http.Server{
		Addr:              viper.GetString("http.address"),
		Handler:           c.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)

	go func() {
		errs <- server.ListenAndServe()
	}()

	log.Info().Str("address", server.Addr).Msg("start http server")

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errs:
		return err
	case sig := <-signals:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	return server.Shutdown(shutdownCtx)
}

// janitor runs the periodic background work: the delivery retry sweep, the delivery log
// cleanup, the retention sweep and the in-memory state sweeps.
func (c *startCommand) janitor(ctx context.Context) {
	retry := time.NewTicker(viper.GetDuration("delivery.retryinterval"))
	defer retry.Stop()

	cleanup := time.NewTicker(viper.GetDuration("delivery.cleanupinterval"))
	defer cleanup.Stop()

	sweep := time.NewTicker(viper.GetDuration("retention.sweepinterval"))
	defer sweep.Stop()

	memory := time.NewTicker(viper.GetDuration("ratelimit.sweepinterval"))
	defer memory.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-retry.C:
			if err := c.retrier.Sweep(ctx); err != nil {
				log.Error().Err(err).Msg("delivery retry sweep failed")
			}

		case <-cleanup.C:
			if err := c.cleaner.Clean(ctx); err != nil {
				log.Error().Err(err).Msg("delivery log cleanup failed")
			}

		case <-sweep.C:
			if err := c.sweeper.Sweep(ctx); err != nil {
				log.Error().Err(err).Msg("retention sweep failed")
			}

		case <-memory.C:
			c.limiter.Sweep()
			c.scheduler.Sweep()
		}
	}
}
