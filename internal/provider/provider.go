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

// Package provider abstracts the email sending backends behind one uniform contract. The retry
// engine and the delivery log treat every backend the same regardless of transport.
package provider

import (
	"context"
	"fmt"

	"github.com/spf13/viper"
)

func init() {
	viper.SetDefault("delivery.provider", "smtp")
	viper.SetDefault("delivery.from", "")
	viper.SetDefault("delivery.fromname", "Formgate")
	viper.SetDefault("delivery.timeout", "15s")
}

// Message is the canonical outbound mail handed to a provider.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	ReplyTo  string
	Headers  map[string]string
}

// Result is the uniform outcome of a successful send. MessageID is the provider assigned id
// used later to correlate inbound delivery callbacks. It may be empty for backends that do not
// return one.
type Result struct {
	MessageID string
}

// Error is a send failure translated into the uniform shape. Code carries the http status code
// for REST backends and zero for transports without one.
type Error struct {
	Provider string
	Code     int
	Message  string
}

func (e *Error) Error() string {
	if e.Code > 0 {
		return fmt.Sprintf("%s: [%d] %s", e.Provider, e.Code, e.Message)
	}

	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// Provider is the capability set every mail backend implements.
type Provider interface {
	// Name returns the registry identifier of the backend.
	Name() string
	// Send delivers a message and returns the provider assigned message id.
	Send(ctx context.Context, msg *Message) (*Result, error)
	// ValidateCredentials checks whether the configured credential bundle is usable.
	ValidateCredentials(ctx context.Context) error
	// SendTest sends a short test mail to the given address.
	SendTest(ctx context.Context, to string) error
	// Settings describes the configuration fields of the backend for configuration UIs.
	Settings() []SettingField
}

// SettingField describes one configuration value of a provider.
type SettingField struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Secret bool   `json:"secret"`
}

// testSubject and testBody are used by SendTest implementations.
const (
	testSubject = "Formgate test mail"
	testBody    = "<p>This is a test mail. Your delivery provider is configured correctly.</p>"
)

// senderIdentity returns the globally configured from address and display name.
func senderIdentity() (address, name string) {
	return viper.GetString("delivery.from"), viper.GetString("delivery.fromname")
}
