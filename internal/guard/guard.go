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

// Package guard implements the admission checks in front of the intake pipeline: api key,
// ip block- and allowlists, cors origin enforcement and the honeypot trap. The guard is a pure
// predicate and has no side effects.
package guard

import (
	"crypto/subtle"
	"errors"
	"net"

	"github.com/spf13/viper"

	"github.com/danishfareed/formgate/internal/models"
)

var (
	// ErrInvalidKey is returned when the api key is missing or does not match.
	ErrInvalidKey = errors.New("guard: invalid api key")
	// ErrIPBlocked is returned when the client ip matches the blocklist.
	ErrIPBlocked = errors.New("guard: ip blocked")
	// ErrIPNotAllowed is returned when an allowlist is configured and the client ip does not
	// match it.
	ErrIPNotAllowed = errors.New("guard: ip not in allowlist")
	// ErrOriginRejected is returned when strict cors is enabled and the origin does not match
	// any allowed entry.
	ErrOriginRejected = errors.New("guard: origin rejected")
)

func init() {
	viper.SetDefault("security.apikey", "")
	viper.SetDefault("security.ip.blocklist", []string{})
	viper.SetDefault("security.ip.allowlist", []string{})
	viper.SetDefault("security.cors.strict", false)
	viper.SetDefault("security.cors.origins", []string{"*"})
	viper.SetDefault("security.honeypot.field", "_honey")
}

// Request is the subset of an inbound request the guard inspects.
type Request struct {
	APIKey string
	IP     net.IP
	Origin string
}

// Guard validates inbound requests against the configured access rules.
type Guard struct {
	apiKey     []byte
	blocklist  ipList
	allowlist  ipList
	corsStrict bool
	origins    []string
	honeypot   string
}

// New creates a Guard from the security configuration in viper.
func New() (*Guard, error) {
	blocklist, err := parseIPList(viper.GetStringSlice("security.ip.blocklist"))
	if err != nil {
		return nil, err
	}

	allowlist, err := parseIPList(viper.GetStringSlice("security.ip.allowlist"))
	if err != nil {
		return nil, err
	}

	return &Guard{
		apiKey:     []byte(viper.GetString("security.apikey")),
		blocklist:  blocklist,
		allowlist:  allowlist,
		corsStrict: viper.GetBool("security.cors.strict"),
		origins:    viper.GetStringSlice("security.cors.origins"),
		honeypot:   viper.GetString("security.honeypot.field"),
	}, nil
}

// Check runs all admission checks in order and returns the first rejection.
func (g *Guard) Check(req Request) error {
	if subtle.ConstantTimeCompare(g.apiKey, []byte(req.APIKey)) != 1 {
		return ErrInvalidKey
	}

	if g.blocklist.contains(req.IP) {
		return ErrIPBlocked
	}

	if !g.allowlist.empty() && !g.allowlist.contains(req.IP) {
		return ErrIPNotAllowed
	}

	// An absent origin header is fine even in strict mode. Non-browser clients do not send one.
	if g.corsStrict && req.Origin != "" && !matchOrigin(g.origins, req.Origin) {
		return ErrOriginRejected
	}

	return nil
}

// Honeypot reports whether the hidden trap field carries a value. Bots fill every field, humans
// never see it.
func (g *Guard) Honeypot(fields models.FieldMap) bool {
	return fields[g.honeypot] != ""
}

// HoneypotField returns the configured trap field name, so it can be stripped from the stored
// submission.
func (g *Guard) HoneypotField() string {
	return g.honeypot
}
