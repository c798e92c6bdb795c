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

package guard

import (
	"fmt"
	"net"
	"strings"
)

// ipList holds exact addresses and cidr ranges. Both ipv4 and ipv6 entries are supported.
type ipList struct {
	addresses []net.IP
	networks  []*net.IPNet
}

// parseIPList parses a mixed list of plain addresses and cidr notation entries.
func parseIPList(entries []string) (ipList, error) {
	var list ipList

	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		if strings.ContainsRune(entry, '/') {
			_, network, err := net.ParseCIDR(entry)
			if err != nil {
				return list, fmt.Errorf("guard: invalid cidr entry %q: %w", entry, err)
			}

			list.networks = append(list.networks, network)
			continue
		}

		address := net.ParseIP(entry)
		if address == nil {
			return list, fmt.Errorf("guard: invalid ip entry %q", entry)
		}

		list.addresses = append(list.addresses, address)
	}

	return list, nil
}

func (l ipList) empty() bool {
	return len(l.addresses) == 0 && len(l.networks) == 0
}

func (l ipList) contains(ip net.IP) bool {
	if ip == nil {
		return false
	}

	for _, address := range l.addresses {
		if address.Equal(ip) {
			return true
		}
	}

	for _, network := range l.networks {
		if network.Contains(ip) {
			return true
		}
	}

	return false
}

// matchOrigin checks an origin header value against the allowed entries. Entries may be exact
// origins, the `*` wildcard or `*.domain` suffix patterns. Suffix patterns match subdomains
// only, so `*.example.com` does not match `https://example.com.evil.net`.
func matchOrigin(allowed []string, origin string) bool {
	host := originHost(origin)

	for _, entry := range allowed {
		entry = strings.TrimSpace(entry)

		switch {
		case entry == "":
			continue

		case entry == "*":
			return true

		case strings.HasPrefix(entry, "*."):
			if strings.HasSuffix(host, entry[1:]) {
				return true
			}

		case entry == origin || originHost(entry) == host:
			return true
		}
	}

	return false
}

// originHost strips scheme and port from an origin value.
func originHost(origin string) string {
	host := origin

	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}

	if i := strings.LastIndexByte(host, ':'); i >= 0 && !strings.Contains(host[i:], "]") {
		host = host[:i]
	}

	return host
}
