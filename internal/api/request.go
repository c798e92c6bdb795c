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
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
)

const maxBodySize = 1 << 20 // 1 MiB

// clientIP resolves the originating address, preferring proxy headers over the socket peer.
func clientIP(r *http.Request) net.IP {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip
		}
	}

	if real := r.Header.Get("X-Real-Ip"); real != "" {
		if ip := net.ParseIP(strings.TrimSpace(real)); ip != nil {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	return net.ParseIP(host)
}

// apiKey reads the submission key from either the dedicated header or a bearer token.
func apiKey(r *http.Request) string {
	if key := r.Header.Get("X-Formgate-Key"); key != "" {
		return key
	}

	authorization := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(authorization, "Bearer "); ok {
		return token
	}

	return ""
}

// parseFields reads the submitted fields from form data, multipart form data or a flat json
// object. Non-string json values are coerced to their text form.
func parseFields(r *http.Request) (map[string]string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodySize)

	contentType := r.Header.Get("Content-Type")

	if strings.Contains(contentType, "application/json") {
		var raw map[string]interface{}

		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			return nil, err
		}

		fields := make(map[string]string, len(raw))
		for key, value := range raw {
			fields[key] = coerceString(value)
		}

		return fields, nil
	}

	if strings.Contains(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxBodySize); err != nil {
			return nil, err
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, err
	}

	fields := make(map[string]string, len(r.PostForm))
	for key, values := range r.PostForm {
		fields[key] = strings.Join(values, ", ")
	}

	return fields, nil
}

func coerceString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	case float64:
		// json numbers decode as float64. Integral values print without a fraction.
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	case bool:
		return fmt.Sprintf("%t", v)
	case []interface{}:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = coerceString(item)
		}
		return strings.Join(parts, ", ")
	default:
		encoded, _ := json.Marshal(v)
		return string(encoded)
	}
}
