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
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBox(t *testing.T, key string) SecretBox {
	t.Helper()
	viper.Set("security.secret.key", key)

	box, err := NewSecretBox()
	require.NoError(t, err)

	return box
}

func TestSecretBox_roundTrip(t *testing.T) {
	box := newTestBox(t, "0123456789abcdef")

	sealed, err := box.Seal("api-token-1")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sealed, "enc:v1:"))
	assert.NotContains(t, sealed, "api-token-1")

	opened, err := box.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "api-token-1", opened)
}

func TestSecretBox_plaintextPassthrough(t *testing.T) {
	box := newTestBox(t, "0123456789abcdef")

	opened, err := box.Open("plain-token")
	require.NoError(t, err)
	assert.Equal(t, "plain-token", opened)
}

func TestSecretBox_distinctNonces(t *testing.T) {
	box := newTestBox(t, "0123456789abcdef")

	first, err := box.Seal("same")
	require.NoError(t, err)

	second, err := box.Seal("same")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestSecretBox_malformed(t *testing.T) {
	box := newTestBox(t, "0123456789abcdef")

	_, err := box.Open("enc:v1:not base64!")
	assert.ErrorIs(t, err, ErrMalformedSecret)
}

func TestSecretBox_wrongKey(t *testing.T) {
	box := newTestBox(t, "0123456789abcdef")

	sealed, err := box.Seal("api-token-1")
	require.NoError(t, err)

	other := newTestBox(t, "fedcba9876543210")

	_, err = other.Open(sealed)
	assert.ErrorIs(t, err, ErrMalformedSecret)
}

func TestSecretBox_shortKey(t *testing.T) {
	viper.Set("security.secret.key", "short")

	_, err := NewSecretBox()
	assert.ErrorIs(t, err, ErrInvalidSecretKey)
}

func TestHashIdentity(t *testing.T) {
	first := HashIdentity("salt1", "192.0.2.7")
	second := HashIdentity("salt1", "192.0.2.7")
	assert.Equal(t, first, second)

	assert.NotEqual(t, first, HashIdentity("salt2", "192.0.2.7"))
	assert.NotEqual(t, first, HashIdentity("salt1", "192.0.2.8"))
	assert.NotContains(t, first, "192.0.2.7")
	assert.Len(t, first, 64)
}

func TestIDGenerator(t *testing.T) {
	ids := NewIDGenerator()

	first, err := ids.GenerateID()
	require.NoError(t, err)

	second, err := ids.GenerateID()
	require.NoError(t, err)

	assert.Len(t, first, 32)
	assert.NotEqual(t, first, second)
}
