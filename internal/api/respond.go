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

// Package api exposes the intake pipeline over http. Handlers translate requests into calls
// against the guard, limiter, daos and services and map rejections to a small machine readable
// error taxonomy.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/danishfareed/formgate/internal/log"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warn().Err(err).Msg("could not write response body")
	}
}

type errorBody struct {
	Success    bool   `json:"success"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	RetryAfter int64  `json:"retry_after,omitempty"`
}

func writeError(w http.ResponseWriter, rejection *rejection) {
	writeJSON(w, rejection.status, errorBody{
		Code:       rejection.code,
		Message:    rejection.message,
		RetryAfter: rejection.retryAfter,
	})
}
