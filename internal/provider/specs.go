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
	"net/http"
	"net/url"
)

// apiKeyOnly is the settings schema shared by most rest backends.
var apiKeyOnly = []SettingField{
	{Key: "apikey", Label: "API key", Secret: true},
}

// restSpecs declares every rest backend. Adding a provider is one table entry, not a new type.
var restSpecs = []restSpec{
	{
		name:     "sendgrid",
		endpoint: "https://api.sendgrid.com/v3/mail/send",
		auth:     authBearer,
		settings: apiKeyOnly,
		encode: func(msg *Message, from, fromName string, _ map[string]string) (string, []byte, error) {
			return encodeJSON(map[string]interface{}{
				"personalizations": []map[string]interface{}{
					{"to": []map[string]string{{"email": msg.To}}},
				},
				"from":    map[string]string{"email": from, "name": fromName},
				"subject": msg.Subject,
				"content": []map[string]string{
					{"type": "text/html", "value": msg.HTMLBody},
				},
			})
		},
		messageID: func(header http.Header, _ []byte) string {
			return header.Get("X-Message-Id")
		},
	},
	{
		name:      "mailgun",
		endpoint:  "https://api.mailgun.net/v3/{domain}/messages",
		auth:      authBasic,
		basicUser: "api",
		settings: []SettingField{
			{Key: "apikey", Label: "API key", Secret: true},
			{Key: "domain", Label: "Sending domain"},
		},
		encode: func(msg *Message, from, fromName string, _ map[string]string) (string, []byte, error) {
			values := make(url.Values)
			values.Set("from", fromName+" <"+from+">")
			values.Set("to", msg.To)
			values.Set("subject", msg.Subject)
			values.Set("html", msg.HTMLBody)

			if msg.ReplyTo != "" {
				values.Set("h:Reply-To", msg.ReplyTo)
			}

			return "application/x-www-form-urlencoded", []byte(values.Encode()), nil
		},
		messageID: func(_ http.Header, body []byte) string {
			return jsonField(body, "id")
		},
	},
	{
		name:       "postmark",
		endpoint:   "https://api.postmarkapp.com/email",
		auth:       authHeader,
		authHeader: "X-Postmark-Server-Token",
		settings:   apiKeyOnly,
		encode: func(msg *Message, from, _ string, _ map[string]string) (string, []byte, error) {
			return encodeJSON(map[string]string{
				"From":     from,
				"To":       msg.To,
				"Subject":  msg.Subject,
				"HtmlBody": msg.HTMLBody,
				"ReplyTo":  msg.ReplyTo,
			})
		},
		messageID: func(_ http.Header, body []byte) string {
			return jsonField(body, "MessageID")
		},
	},
	{
		name:       "brevo",
		endpoint:   "https://api.brevo.com/v3/smtp/email",
		auth:       authHeader,
		authHeader: "api-key",
		settings:   apiKeyOnly,
		encode: func(msg *Message, from, fromName string, _ map[string]string) (string, []byte, error) {
			return encodeJSON(map[string]interface{}{
				"sender":      map[string]string{"email": from, "name": fromName},
				"to":          []map[string]string{{"email": msg.To}},
				"subject":     msg.Subject,
				"htmlContent": msg.HTMLBody,
			})
		},
		messageID: func(_ http.Header, body []byte) string {
			return jsonField(body, "messageId")
		},
	},
	{
		name:     "resend",
		endpoint: "https://api.resend.com/emails",
		auth:     authBearer,
		settings: apiKeyOnly,
		encode: func(msg *Message, from, fromName string, _ map[string]string) (string, []byte, error) {
			return encodeJSON(map[string]interface{}{
				"from":    fromName + " <" + from + ">",
				"to":      []string{msg.To},
				"subject": msg.Subject,
				"html":    msg.HTMLBody,
			})
		},
		messageID: func(_ http.Header, body []byte) string {
			return jsonField(body, "id")
		},
	},
	{
		name:       "sparkpost",
		endpoint:   "https://api.sparkpost.com/api/v1/transmissions",
		auth:       authHeader,
		authHeader: "Authorization",
		settings:   apiKeyOnly,
		encode: func(msg *Message, from, fromName string, _ map[string]string) (string, []byte, error) {
			return encodeJSON(map[string]interface{}{
				"recipients": []map[string]interface{}{
					{"address": map[string]string{"email": msg.To}},
				},
				"content": map[string]interface{}{
					"from":    map[string]string{"email": from, "name": fromName},
					"subject": msg.Subject,
					"html":    msg.HTMLBody,
				},
			})
		},
		messageID: func(_ http.Header, body []byte) string {
			return jsonField(body, "results", "id")
		},
	},
	{
		name:      "mailjet",
		endpoint:  "https://api.mailjet.com/v3.1/send",
		auth:      authBasic,
		settings: []SettingField{
			{Key: "username", Label: "API key"},
			{Key: "apikey", Label: "Secret key", Secret: true},
		},
		encode: func(msg *Message, from, fromName string, _ map[string]string) (string, []byte, error) {
			return encodeJSON(map[string]interface{}{
				"Messages": []map[string]interface{}{
					{
						"From":     map[string]string{"Email": from, "Name": fromName},
						"To":       []map[string]string{{"Email": msg.To}},
						"Subject":  msg.Subject,
						"HTMLPart": msg.HTMLBody,
					},
				},
			})
		},
		messageID: func(_ http.Header, body []byte) string {
			return jsonField(body, "Messages", "To", "MessageID")
		},
	},
	{
		name:     "mailersend",
		endpoint: "https://api.mailersend.com/v1/email",
		auth:     authBearer,
		settings: apiKeyOnly,
		encode: func(msg *Message, from, fromName string, _ map[string]string) (string, []byte, error) {
			return encodeJSON(map[string]interface{}{
				"from":    map[string]string{"email": from, "name": fromName},
				"to":      []map[string]string{{"email": msg.To}},
				"subject": msg.Subject,
				"html":    msg.HTMLBody,
			})
		},
		messageID: func(header http.Header, _ []byte) string {
			return header.Get("X-Message-Id")
		},
	},
	{
		name:       "elasticemail",
		endpoint:   "https://api.elasticemail.com/v4/emails/transactional",
		auth:       authHeader,
		authHeader: "X-ElasticEmail-ApiKey",
		settings:   apiKeyOnly,
		encode: func(msg *Message, from, fromName string, _ map[string]string) (string, []byte, error) {
			return encodeJSON(map[string]interface{}{
				"Recipients": map[string]interface{}{
					"To": []string{msg.To},
				},
				"Content": map[string]interface{}{
					"From":    fromName + " <" + from + ">",
					"Subject": msg.Subject,
					"Body": []map[string]string{
						{"ContentType": "HTML", "Content": msg.HTMLBody},
					},
				},
			})
		},
		messageID: func(_ http.Header, body []byte) string {
			return jsonField(body, "MessageID")
		},
	},
	{
		name:       "smtp2go",
		endpoint:   "https://api.smtp2go.com/v3/email/send",
		auth:       authHeader,
		authHeader: "X-Smtp2go-Api-Key",
		settings:   apiKeyOnly,
		encode: func(msg *Message, from, fromName string, _ map[string]string) (string, []byte, error) {
			return encodeJSON(map[string]interface{}{
				"sender":    fromName + " <" + from + ">",
				"to":        []string{msg.To},
				"subject":   msg.Subject,
				"html_body": msg.HTMLBody,
			})
		},
		messageID: func(_ http.Header, body []byte) string {
			return jsonField(body, "data", "email_id")
		},
	},
	{
		name:     "mandrill",
		endpoint: "https://mandrillapp.com/api/1.0/messages/send",
		auth:     authBearer,
		settings: apiKeyOnly,
		encode: func(msg *Message, from, fromName string, creds map[string]string) (string, []byte, error) {
			// Mandrill expects the key inside the request body.
			return encodeJSON(map[string]interface{}{
				"key": creds["apikey"],
				"message": map[string]interface{}{
					"from_email": from,
					"from_name":  fromName,
					"to":         []map[string]string{{"email": msg.To}},
					"subject":    msg.Subject,
					"html":       msg.HTMLBody,
				},
			})
		},
		messageID: func(_ http.Header, body []byte) string {
			return jsonField(body, "_id")
		},
	},
	{
		name:     "loops",
		endpoint: "https://app.loops.so/api/v1/transactional",
		auth:     authBearer,
		settings: apiKeyOnly,
		encode: func(msg *Message, _, _ string, _ map[string]string) (string, []byte, error) {
			return encodeJSON(map[string]interface{}{
				"email": msg.To,
				"dataVariables": map[string]string{
					"subject": msg.Subject,
					"body":    msg.HTMLBody,
				},
			})
		},
		messageID: func(_ http.Header, body []byte) string {
			return jsonField(body, "id")
		},
	},
	{
		name:     "plunk",
		endpoint: "https://api.useplunk.com/v1/send",
		auth:     authBearer,
		settings: apiKeyOnly,
		encode: func(msg *Message, _, _ string, _ map[string]string) (string, []byte, error) {
			return encodeJSON(map[string]interface{}{
				"to":      msg.To,
				"subject": msg.Subject,
				"body":    msg.HTMLBody,
			})
		},
		messageID: func(_ http.Header, body []byte) string {
			return jsonField(body, "emails", "contact", "id")
		},
	},
}
