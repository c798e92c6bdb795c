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

	"github.com/stretchr/testify/mock"
)

// MockProvider is a mock implementation of Provider.
type MockProvider struct {
	mock.Mock

	MockName string
}

func (m *MockProvider) Name() string {
	return m.MockName
}

func (m *MockProvider) Send(ctx context.Context, msg *Message) (*Result, error) {
	args := m.Called(ctx, msg)
	result, _ := args.Get(0).(*Result)
	return result, args.Error(1)
}

func (m *MockProvider) ValidateCredentials(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockProvider) SendTest(ctx context.Context, to string) error {
	return m.Called(ctx, to).Error(0)
}

func (m *MockProvider) Settings() []SettingField {
	args := m.Called()
	settings, _ := args.Get(0).([]SettingField)
	return settings
}
