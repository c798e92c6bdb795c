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

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/danishfareed/formgate/internal/log"
)

// NewRouter wires the handlers into the http surface.
func NewRouter(
	submit *SubmitHandler,
	incoming *IncomingWebhookHandler,
	privacy *PrivacyHandler,
	status *StatusHandler,
) chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	router.Post("/submit/{form}", submit.ServeHTTP)
	router.Post("/webhooks/incoming/{provider}", incoming.ServeHTTP)

	router.Group(func(router chi.Router) {
		router.Use(requireAdmin)

		router.Post("/privacy/export", privacy.Export)
		router.Delete("/privacy/data", privacy.Delete)
		router.Post("/submissions/{id}/status", status.ServeHTTP)
		router.Post("/submissions/{id}/anonymize", privacy.Anonymize)
	})

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return router
}

// requestLogger attaches the request id to the log context and writes one line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := log.WithRequest(r.Context(), middleware.GetReqID(r.Context()))
		wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		start := time.Now()
		next.ServeHTTP(wrapped, r.WithContext(ctx))

		log.InfoContext(ctx).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.Status()).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	})
}
