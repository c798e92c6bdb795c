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

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/viper"

	"github.com/danishfareed/formgate/internal/crypto"
)

// restAuth selects how a rest backend expects its credentials.
type restAuth int

const (
	// authBearer sends "Authorization: Bearer <apikey>".
	authBearer restAuth = iota
	// authHeader sends the api key in a provider specific header.
	authHeader
	// authBasic sends http basic credentials. The username is either a fixed value or the
	// "username" setting.
	authBasic
)

// restSpec parameterizes the generic rest backend: endpoint, auth scheme, payload shape and
// message id extraction. One spec per transactional email service replaces a concrete type per
// provider.
type restSpec struct {
	name       string
	endpoint   string // may contain a {domain} placeholder
	auth       restAuth
	authHeader string // header name for authHeader
	basicUser  string // fixed basic auth username, empty means the "username" setting
	settings   []SettingField
	encode     func(msg *Message, from, fromName string, creds map[string]string) (string, []byte, error)
	messageID  func(header http.Header, body []byte) string
}

// restProvider implements Provider for any restSpec.
type restProvider struct {
	spec   restSpec
	box    crypto.SecretBox
	client *http.Client
}

func newRESTProvider(spec restSpec, box crypto.SecretBox) *restProvider {
	return &restProvider{
		spec: spec,
		box:  box,
		client: &http.Client{
			Timeout: viper.GetDuration("delivery.timeout"),
		},
	}
}

func (p *restProvider) Name() string {
	return p.spec.name
}

func (p *restProvider) Settings() []SettingField {
	return p.spec.settings
}

// credentials reads and decrypts the settings bundle of the backend from viper.
func (p *restProvider) credentials() (map[string]string, error) {
	creds := make(map[string]string, len(p.spec.settings))

	for _, field := range p.spec.settings {
		value := viper.GetString("provider." + p.spec.name + "." + field.Key)

		if field.Secret {
			opened, err := p.box.Open(value)
			if err != nil {
				return nil, &Error{Provider: p.spec.name, Message: err.Error()}
			}

			value = opened
		}

		creds[field.Key] = value
	}

	return creds, nil
}

func (p *restProvider) Send(ctx context.Context, msg *Message) (*Result, error) {
	creds, err := p.credentials()
	if err != nil {
		return nil, err
	}

	from, fromName := senderIdentity()

	contentType, body, err := p.spec.encode(msg, from, fromName, creds)
	if err != nil {
		return nil, &Error{Provider: p.spec.name, Message: err.Error()}
	}

	endpoint := strings.ReplaceAll(p.spec.endpoint, "{domain}", url.PathEscape(creds["domain"]))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Provider: p.spec.name, Message: err.Error()}
	}

	req.Header.Set("Content-Type", contentType)
	p.applyAuth(req, creds)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &Error{Provider: p.spec.name, Message: err.Error()}
	}

	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			Provider: p.spec.name,
			Code:     resp.StatusCode,
			Message:  strings.TrimSpace(string(respBody)),
		}
	}

	return &Result{MessageID: p.spec.messageID(resp.Header, respBody)}, nil
}

// ValidateCredentials checks that every secret setting is present and decryptable. It does not
// issue a network request, since most services meter their account endpoints.
func (p *restProvider) ValidateCredentials(ctx context.Context) error {
	creds, err := p.credentials()
	if err != nil {
		return err
	}

	for _, field := range p.spec.settings {
		if creds[field.Key] == "" {
			return &Error{
				Provider: p.spec.name,
				Message:  fmt.Sprintf("missing setting %q", field.Key),
			}
		}
	}

	return nil
}

func (p *restProvider) SendTest(ctx context.Context, to string) error {
	_, err := p.Send(ctx, &Message{
		To:       to,
		Subject:  testSubject,
		HTMLBody: testBody,
	})

	return err
}

func (p *restProvider) applyAuth(req *http.Request, creds map[string]string) {
	switch p.spec.auth {
	case authBearer:
		req.Header.Set("Authorization", "Bearer "+creds["apikey"])

	case authHeader:
		req.Header.Set(p.spec.authHeader, creds["apikey"])

	case authBasic:
		user := p.spec.basicUser
		if user == "" {
			user = creds["username"]
		}

		req.SetBasicAuth(user, creds["apikey"])
	}
}

// jsonField walks a decoded json body along the given path and returns the value as a string.
// Arrays are traversed through their first element.
func jsonField(body []byte, path ...string) string {
	var decoded interface{}

	if err := json.Unmarshal(body, &decoded); err != nil {
		return ""
	}

	for _, key := range path {
		if slice, ok := decoded.([]interface{}); ok {
			if len(slice) == 0 {
				return ""
			}

			decoded = slice[0]
		}

		object, ok := decoded.(map[string]interface{})
		if !ok {
			return ""
		}

		decoded = object[key]
	}

	switch value := decoded.(type) {
	case string:
		return value
	case float64:
		return fmt.Sprintf("%.0f", value)
	}

	return ""
}

func encodeJSON(payload interface{}) (string, []byte, error) {
	body, err := json.Marshal(payload)
	return "application/json", body, err
}
