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
	"errors"
	"net/http"

	"github.com/danishfareed/formgate/internal/guard"
)

// rejection couples an http status with a machine readable code. The message is safe to show
// to the submitting client.
type rejection struct {
	status     int
	code       string
	message    string
	retryAfter int64
}

var (
	rejectInvalidKey = &rejection{
		status:  http.StatusUnauthorized,
		code:    "invalid_api_key",
		message: "The api key is missing or not valid.",
	}

	rejectIPBlocked = &rejection{
		status:  http.StatusForbidden,
		code:    "ip_blocked",
		message: "Requests from this address are not accepted.",
	}

	rejectOrigin = &rejection{
		status:  http.StatusForbidden,
		code:    "origin_rejected",
		message: "Requests from this origin are not accepted.",
	}

	rejectFormNotFound = &rejection{
		status:  http.StatusNotFound,
		code:    "form_not_found",
		message: "The form does not exist.",
	}

	rejectFormInactive = &rejection{
		status:  http.StatusBadRequest,
		code:    "form_inactive",
		message: "The form does not accept submissions.",
	}

	rejectInvalidPayload = &rejection{
		status:  http.StatusBadRequest,
		code:    "invalid_payload",
		message: "The submission payload could not be read.",
	}

	rejectPersistence = &rejection{
		status:  http.StatusInternalServerError,
		code:    "persistence_failed",
		message: "The submission could not be stored.",
	}

	rejectAdminKey = &rejection{
		status:  http.StatusUnauthorized,
		code:    "invalid_admin_key",
		message: "The admin key is missing or not valid.",
	}

	rejectNotFound = &rejection{
		status:  http.StatusNotFound,
		code:    "not_found",
		message: "The resource does not exist.",
	}
)

func rejectRateLimited(retryAfter int64) *rejection {
	return &rejection{
		status:     http.StatusTooManyRequests,
		code:       "rate_limited",
		message:    "Too many submissions, slow down.",
		retryAfter: retryAfter,
	}
}

// guardRejection maps guard errors to their http form. Both ip list rejections share one code,
// a blocked client learns nothing about which list matched.
func guardRejection(err error) *rejection {
	switch {
	case errors.Is(err, guard.ErrInvalidKey):
		return rejectInvalidKey
	case errors.Is(err, guard.ErrIPBlocked), errors.Is(err, guard.ErrIPNotAllowed):
		return rejectIPBlocked
	case errors.Is(err, guard.ErrOriginRejected):
		return rejectOrigin
	}

	return rejectPersistence
}
