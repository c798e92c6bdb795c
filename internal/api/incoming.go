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
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/danishfareed/formgate/internal/inbound"
	"github.com/danishfareed/formgate/internal/log"
)

// IncomingWebhookHandler receives delivery status callbacks from mail providers.
type IncomingWebhookHandler struct {
	correlator *inbound.Correlator
}

// NewIncomingWebhookHandler creates a new IncomingWebhookHandler.
func NewIncomingWebhookHandler(correlator *inbound.Correlator) *IncomingWebhookHandler {
	return &IncomingWebhookHandler{correlator: correlator}
}

// ServeHTTP handles POST /webhooks/incoming/{provider}. Providers disable endpoints that keep
// failing, so the callback is acknowledged even when it cannot be applied.
func (h *IncomingWebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	provider := chi.URLParam(r, "provider")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		log.WarnContext(ctx).Err(err).Msg("could not read callback body")
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	if err := h.correlator.Handle(ctx, provider, body); err != nil {
		log.ErrorContext(ctx).Err(err).Msg("could not apply provider callback")
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
