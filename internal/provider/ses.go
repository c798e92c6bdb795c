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
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/danishfareed/formgate/internal/crypto"
)

func init() {
	viper.SetDefault("provider.ses.region", "eu-west-1")
	viper.SetDefault("provider.ses.accesskey", "")
	viper.SetDefault("provider.ses.secretkey", "")
}

// sesProvider talks to the amazon ses v2 rest api. Unlike the template backends it cannot share
// the generic rest implementation, because every request must be signed with the aws signature
// version 4 scheme.
type sesProvider struct {
	box    crypto.SecretBox
	client *http.Client
	now    func() time.Time
}

func newSESProvider(box crypto.SecretBox) *sesProvider {
	return &sesProvider{
		box: box,
		client: &http.Client{
			Timeout: viper.GetDuration("delivery.timeout"),
		},
		now: time.Now,
	}
}

func (p *sesProvider) Name() string {
	return "ses"
}

func (p *sesProvider) Settings() []SettingField {
	return []SettingField{
		{Key: "region", Label: "Region"},
		{Key: "accesskey", Label: "Access key id"},
		{Key: "secretkey", Label: "Secret access key", Secret: true},
	}
}

func (p *sesProvider) Send(ctx context.Context, msg *Message) (*Result, error) {
	from, fromName := senderIdentity()

	_, body, err := encodeJSON(map[string]interface{}{
		"FromEmailAddress": fromName + " <" + from + ">",
		"Destination": map[string]interface{}{
			"ToAddresses": []string{msg.To},
		},
		"Content": map[string]interface{}{
			"Simple": map[string]interface{}{
				"Subject": map[string]string{"Data": msg.Subject},
				"Body": map[string]interface{}{
					"Html": map[string]string{"Data": msg.HTMLBody},
				},
			},
		},
	})

	if err != nil {
		return nil, &Error{Provider: p.Name(), Message: err.Error()}
	}

	region := viper.GetString("provider.ses.region")
	host := "email." + region + ".amazonaws.com"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://"+host+"/v2/email/outbound-emails", bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Provider: p.Name(), Message: err.Error()}
	}

	req.Header.Set("Content-Type", "application/json")

	if err := p.sign(req, body, region); err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &Error{Provider: p.Name(), Message: err.Error()}
	}

	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			Provider: p.Name(),
			Code:     resp.StatusCode,
			Message:  strings.TrimSpace(string(respBody)),
		}
	}

	return &Result{MessageID: jsonField(respBody, "MessageId")}, nil
}

func (p *sesProvider) ValidateCredentials(ctx context.Context) error {
	secret, err := p.box.Open(viper.GetString("provider.ses.secretkey"))
	if err != nil {
		return &Error{Provider: p.Name(), Message: err.Error()}
	}

	if viper.GetString("provider.ses.accesskey") == "" || secret == "" {
		return &Error{Provider: p.Name(), Message: "missing access key pair"}
	}

	return nil
}

func (p *sesProvider) SendTest(ctx context.Context, to string) error {
	_, err := p.Send(ctx, &Message{
		To:       to,
		Subject:  testSubject,
		HTMLBody: testBody,
	})

	return err
}

// sign adds the aws signature version 4 headers to the request.
func (p *sesProvider) sign(req *http.Request, body []byte, region string) error {
	accessKey := viper.GetString("provider.ses.accesskey")

	secretKey, err := p.box.Open(viper.GetString("provider.ses.secretkey"))
	if err != nil {
		return &Error{Provider: p.Name(), Message: err.Error()}
	}

	const service = "ses"

	now := p.now().UTC()
	amzDate := now.Format("20060102T150405Z")
	dateStamp := now.Format("20060102")

	payloadHash := hexSum(body)

	req.Header.Set("Host", req.URL.Host)
	req.Header.Set("X-Amz-Date", amzDate)
	req.Header.Set("X-Amz-Content-Sha256", payloadHash)

	signedHeaders := "content-type;host;x-amz-content-sha256;x-amz-date"

	canonicalRequest := strings.Join([]string{
		req.Method,
		req.URL.EscapedPath(),
		req.URL.RawQuery,
		"content-type:" + req.Header.Get("Content-Type"),
		"host:" + req.URL.Host,
		"x-amz-content-sha256:" + payloadHash,
		"x-amz-date:" + amzDate,
		"",
		signedHeaders,
		payloadHash,
	}, "\n")

	scope := strings.Join([]string{dateStamp, region, service, "aws4_request"}, "/")

	stringToSign := strings.Join([]string{
		"AWS4-HMAC-SHA256",
		amzDate,
		scope,
		hexSum([]byte(canonicalRequest)),
	}, "\n")

	signingKey := hmacSum(
		hmacSum(
			hmacSum(
				hmacSum([]byte("AWS4"+secretKey), dateStamp),
				region),
			service),
		"aws4_request")

	signature := hex.EncodeToString(hmacSum(signingKey, stringToSign))

	req.Header.Set("Authorization", fmt.Sprintf(
		"AWS4-HMAC-SHA256 Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		accessKey, scope, signedHeaders, signature))

	return nil
}

func hexSum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func hmacSum(key []byte, data string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))
	return mac.Sum(nil)
}
