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

package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/crypto/chacha20poly1305"
)

const sealedPrefix = "enc:v1:"

var (
	// ErrInvalidSecretKey is returned when no usable encryption key is configured.
	ErrInvalidSecretKey = errors.New("crypto: secret key missing or too short")
	// ErrMalformedSecret is returned when a sealed value cannot be decoded or authenticated.
	ErrMalformedSecret = errors.New("crypto: malformed sealed secret")
)

func init() {
	viper.SetDefault("security.secret.key", "")
}

// SecretBox seals and opens provider credentials for at-rest storage. Values are only opened
// inside provider send and validate calls.
type SecretBox interface {
	// Seal encrypts a plaintext secret into an opaque string.
	Seal(plain string) (string, error)
	// Open decrypts a sealed secret. Values without the sealed prefix are passed through
	// unchanged, so plaintext configuration keeps working.
	Open(sealed string) (string, error)
}

// NewSecretBox creates a SecretBox from the `security.secret.key` configuration value. The key
// material is stretched to the cipher key size with sha256.
func NewSecretBox() (SecretBox, error) {
	key := viper.GetString("security.secret.key")
	if len(key) < 16 {
		return nil, ErrInvalidSecretKey
	}

	sum := sha256.Sum256([]byte(key))

	aead, err := chacha20poly1305.NewX(sum[:])
	if err != nil {
		return nil, err
	}

	return &secretBox{aead: aead, random: rand.Reader}, nil
}

type secretBox struct {
	aead   interface {
		Seal(dst, nonce, plaintext, additionalData []byte) []byte
		Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
		NonceSize() int
	}
	random io.Reader
}

func (s *secretBox) Seal(plain string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(s.random, nonce); err != nil {
		return "", err
	}

	sealed := s.aead.Seal(nonce, nonce, []byte(plain), nil)
	return sealedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

func (s *secretBox) Open(sealed string) (string, error) {
	if !strings.HasPrefix(sealed, sealedPrefix) {
		return sealed, nil
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(sealed, sealedPrefix))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedSecret, err)
	}

	if len(raw) < s.aead.NonceSize() {
		return "", ErrMalformedSecret
	}

	plain, err := s.aead.Open(nil, raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():], nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedSecret, err)
	}

	return string(plain), nil
}
