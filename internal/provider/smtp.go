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
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"net"
	"net/smtp"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/danishfareed/formgate/internal/crypto"
)

func init() {
	viper.SetDefault("provider.smtp.host", "localhost")
	viper.SetDefault("provider.smtp.port", 587)
	viper.SetDefault("provider.smtp.username", "")
	viper.SetDefault("provider.smtp.password", "")
}

// smtpProvider is the always-available default backend. It talks to a generic smtp relay with
// STARTTLS when the server offers it.
type smtpProvider struct {
	box crypto.SecretBox
}

func newSMTPProvider(box crypto.SecretBox) *smtpProvider {
	return &smtpProvider{box: box}
}

func (p *smtpProvider) Name() string {
	return "smtp"
}

func (p *smtpProvider) Settings() []SettingField {
	return []SettingField{
		{Key: "host", Label: "Host"},
		{Key: "port", Label: "Port"},
		{Key: "username", Label: "Username"},
		{Key: "password", Label: "Password", Secret: true},
	}
}

func (p *smtpProvider) Send(ctx context.Context, msg *Message) (*Result, error) {
	host := viper.GetString("provider.smtp.host")
	addr := net.JoinHostPort(host, viper.GetString("provider.smtp.port"))

	messageID, err := generateMessageID(host)
	if err != nil {
		return nil, err
	}

	from, _ := senderIdentity()

	data, err := p.buildMessage(msg, from, messageID)
	if err != nil {
		return nil, err
	}

	if err := p.transmit(ctx, addr, host, from, msg.To, data); err != nil {
		return nil, &Error{Provider: p.Name(), Message: err.Error()}
	}

	return &Result{MessageID: messageID}, nil
}

func (p *smtpProvider) ValidateCredentials(ctx context.Context) error {
	host := viper.GetString("provider.smtp.host")
	addr := net.JoinHostPort(host, viper.GetString("provider.smtp.port"))

	client, err := p.dial(ctx, addr, host)
	if err != nil {
		return &Error{Provider: p.Name(), Message: err.Error()}
	}

	defer client.Close()

	if err := p.authenticate(client, host); err != nil {
		return &Error{Provider: p.Name(), Message: err.Error()}
	}

	return client.Quit()
}

func (p *smtpProvider) SendTest(ctx context.Context, to string) error {
	_, err := p.Send(ctx, &Message{
		To:       to,
		Subject:  testSubject,
		HTMLBody: testBody,
	})

	return err
}

// transmit performs the complete smtp conversation for a single message.
func (p *smtpProvider) transmit(ctx context.Context, addr, host, from, to string, data []byte) error {
	client, err := p.dial(ctx, addr, host)
	if err != nil {
		return err
	}

	defer client.Close()

	if err := p.authenticate(client, host); err != nil {
		return err
	}

	if err := client.Mail(from); err != nil {
		return err
	}

	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return err
	}

	if err := w.Close(); err != nil {
		return err
	}

	return client.Quit()
}

func (p *smtpProvider) dial(ctx context.Context, addr, host string) (*smtp.Client, error) {
	dialer := net.Dialer{Timeout: viper.GetDuration("delivery.timeout")}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	} else {
		conn.SetDeadline(time.Now().Add(viper.GetDuration("delivery.timeout")))
	}

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return nil, err
	}

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
			client.Close()
			return nil, err
		}
	}

	return client, nil
}

func (p *smtpProvider) authenticate(client *smtp.Client, host string) error {
	username := viper.GetString("provider.smtp.username")
	if username == "" {
		return nil
	}

	password, err := p.box.Open(viper.GetString("provider.smtp.password"))
	if err != nil {
		return err
	}

	return client.Auth(smtp.PlainAuth("", username, password, host))
}

// buildMessage renders the rfc822 message including the caller supplied extra headers.
func (p *smtpProvider) buildMessage(msg *Message, from, messageID string) ([]byte, error) {
	var b strings.Builder

	headers := map[string]string{
		"From":         from,
		"To":           msg.To,
		"Subject":      msg.Subject,
		"Message-ID":   "<" + messageID + ">",
		"Date":         time.Now().Format(time.RFC1123Z),
		"MIME-Version": "1.0",
		"Content-Type": `text/html; charset="utf-8"`,
	}

	if msg.ReplyTo != "" {
		headers["Reply-To"] = msg.ReplyTo
	}

	for key, value := range msg.Headers {
		headers[key] = value
	}

	keys := make([]string, 0, len(headers))
	for key := range headers {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		if strings.ContainsAny(headers[key], "\r\n") {
			return nil, fmt.Errorf("smtp: header %q contains a line break", key)
		}

		fmt.Fprintf(&b, "%s: %s\r\n", key, headers[key])
	}

	b.WriteString("\r\n")
	b.WriteString(msg.HTMLBody)
	b.WriteString("\r\n")

	return []byte(b.String()), nil
}

// generateMessageID builds a unique message id in the form "<random>@<host>".
func generateMessageID(host string) (string, error) {
	raw := make([]byte, 12)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}

	return hex.EncodeToString(raw) + "@" + host, nil
}
