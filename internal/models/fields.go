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

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
)

// FieldMap is an arbitrary key to value map stored as a json column.
type FieldMap map[string]string

// Scan implements the sql.Scanner interface.
func (f *FieldMap) Scan(src interface{}) error {
	return scanJSON(src, f)
}

// Value implements the driver.Valuer interface.
func (f FieldMap) Value() (driver.Value, error) {
	if f == nil {
		return "{}", nil
	}

	return valueJSON(f)
}

// Keys returns the map keys in stable order.
func (f FieldMap) Keys() []string {
	keys := make([]string, 0, len(f))

	for key := range f {
		keys = append(keys, key)
	}

	sort.Strings(keys)
	return keys
}

// StringList is a list of strings stored as a json column.
type StringList []string

// Scan implements the sql.Scanner interface.
func (l *StringList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// Value implements the driver.Valuer interface.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}

	return valueJSON(l)
}

func scanJSON(src, dest interface{}) error {
	switch raw := src.(type) {
	case []byte:
		return json.Unmarshal(raw, dest)
	case string:
		return json.Unmarshal([]byte(raw), dest)
	case nil:
		return nil
	}

	return fmt.Errorf("models: cannot scan %T into json column", src)
}

func valueJSON(src interface{}) (driver.Value, error) {
	raw, err := json.Marshal(src)
	if err != nil {
		return nil, err
	}

	return string(raw), nil
}

// emailPattern is intentionally loose. It is used to spot email-shaped values in submitted
// fields, not to validate addresses.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// IsEmailShaped reports whether a value looks like an email address.
func IsEmailShaped(value string) bool {
	return len(value) <= 256 && emailPattern.MatchString(value)
}

// FirstEmail returns the first email-shaped value of the map in stable key order.
func (f FieldMap) FirstEmail() (string, bool) {
	for _, key := range f.Keys() {
		if IsEmailShaped(f[key]) {
			return f[key], true
		}
	}

	return "", false
}
