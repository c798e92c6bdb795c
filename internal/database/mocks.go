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

package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/danishfareed/formgate/internal/models"
)

// Mocks for the database interfaces. The service tests combine a MockConn with mocked daos, so
// no query ever reaches an actual database.

// MockConn is a mock implementation of Conn.
type MockConn struct {
	mock.Mock
}

func (m *MockConn) DriverName() string {
	return m.Called().String(0)
}

func (m *MockConn) Rebind(query string) string {
	return m.Called(query).String(0)
}

func (m *MockConn) BindNamed(query string, arg interface{}) (string, []interface{}, error) {
	args := m.Called(query, arg)
	return args.String(0), args.Get(1).([]interface{}), args.Error(2)
}

func (m *MockConn) QueryContext(ctx context.Context, query string, values ...interface{}) (*sql.Rows, error) {
	args := m.Called(ctx, query, values)
	rows, _ := args.Get(0).(*sql.Rows)
	return rows, args.Error(1)
}

func (m *MockConn) QueryxContext(ctx context.Context, query string, values ...interface{}) (*sqlx.Rows, error) {
	args := m.Called(ctx, query, values)
	rows, _ := args.Get(0).(*sqlx.Rows)
	return rows, args.Error(1)
}

func (m *MockConn) QueryRowxContext(ctx context.Context, query string, values ...interface{}) *sqlx.Row {
	row, _ := m.Called(ctx, query, values).Get(0).(*sqlx.Row)
	return row
}

func (m *MockConn) ExecContext(ctx context.Context, query string, values ...interface{}) (sql.Result, error) {
	args := m.Called(ctx, query, values)
	result, _ := args.Get(0).(sql.Result)
	return result, args.Error(1)
}

func (m *MockConn) Begin(ctx context.Context) (Tx, error) {
	args := m.Called(ctx)
	tx, _ := args.Get(0).(Tx)
	return tx, args.Error(1)
}

func (m *MockConn) Close() error {
	return m.Called().Error(0)
}

// MockTx is a mock implementation of Tx.
type MockTx struct {
	MockConn
}

func (m *MockTx) Commit() error {
	return m.Called().Error(0)
}

func (m *MockTx) Rollback() error {
	return m.Called().Error(0)
}

func (m *MockTx) RollbackWith(callback func()) error {
	return m.Called(callback).Error(0)
}

// MockFormDao is a mock implementation of FormDao.
type MockFormDao struct {
	mock.Mock
}

func (m *MockFormDao) Insert(ctx context.Context, q Queryer, form *models.FormEntity) error {
	return m.Called(ctx, q, form).Error(0)
}

func (m *MockFormDao) Update(ctx context.Context, q Queryer, form *models.FormEntity) error {
	return m.Called(ctx, q, form).Error(0)
}

func (m *MockFormDao) FindBySlug(ctx context.Context, q Queryer, slug string) (*models.FormEntity, error) {
	args := m.Called(ctx, q, slug)
	form, _ := args.Get(0).(*models.FormEntity)
	return form, args.Error(1)
}

func (m *MockFormDao) FindByID(ctx context.Context, q Queryer, id int64) (*models.FormEntity, error) {
	args := m.Called(ctx, q, id)
	form, _ := args.Get(0).(*models.FormEntity)
	return form, args.Error(1)
}

// MockSubmissionDao is a mock implementation of SubmissionDao.
type MockSubmissionDao struct {
	mock.Mock
}

func (m *MockSubmissionDao) Insert(ctx context.Context, q Queryer, submission *models.SubmissionEntity) error {
	return m.Called(ctx, q, submission).Error(0)
}

func (m *MockSubmissionDao) Update(ctx context.Context, q Queryer, submission *models.SubmissionEntity) error {
	return m.Called(ctx, q, submission).Error(0)
}

func (m *MockSubmissionDao) FindByID(ctx context.Context, q Queryer, id string) (*models.SubmissionEntity, error) {
	args := m.Called(ctx, q, id)
	submission, _ := args.Get(0).(*models.SubmissionEntity)
	return submission, args.Error(1)
}

func (m *MockSubmissionDao) FindBySubmitterEmail(ctx context.Context, q Queryer, email string) ([]models.SubmissionEntity, error) {
	args := m.Called(ctx, q, email)
	submissions, _ := args.Get(0).([]models.SubmissionEntity)
	return submissions, args.Error(1)
}

func (m *MockSubmissionDao) FindIDsOlderThan(ctx context.Context, q Queryer, cutoff int64) ([]string, error) {
	args := m.Called(ctx, q, cutoff)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *MockSubmissionDao) DeleteByIDs(ctx context.Context, q Queryer, ids []string) (int64, error) {
	args := m.Called(ctx, q, ids)
	return args.Get(0).(int64), args.Error(1)
}

// MockDeliveryLogDao is a mock implementation of DeliveryLogDao.
type MockDeliveryLogDao struct {
	mock.Mock
}

func (m *MockDeliveryLogDao) Insert(ctx context.Context, q Queryer, entry *models.DeliveryLogEntity) error {
	return m.Called(ctx, q, entry).Error(0)
}

func (m *MockDeliveryLogDao) UpdateFromStatus(
	ctx context.Context,
	q Queryer,
	entry *models.DeliveryLogEntity,
	from models.DeliveryStatus,
) error {
	return m.Called(ctx, q, entry, from).Error(0)
}

func (m *MockDeliveryLogDao) FindByID(ctx context.Context, q Queryer, id string) (*models.DeliveryLogEntity, error) {
	args := m.Called(ctx, q, id)
	entry, _ := args.Get(0).(*models.DeliveryLogEntity)
	return entry, args.Error(1)
}

func (m *MockDeliveryLogDao) FindRetryable(
	ctx context.Context,
	q Queryer,
	now int64,
	limit int,
) ([]models.DeliveryLogEntity, error) {
	args := m.Called(ctx, q, now, limit)
	entries, _ := args.Get(0).([]models.DeliveryLogEntity)
	return entries, args.Error(1)
}

func (m *MockDeliveryLogDao) FindNewestByMessageIDPrefix(
	ctx context.Context,
	q Queryer,
	messageID string,
) (*models.DeliveryLogEntity, error) {
	args := m.Called(ctx, q, messageID)
	entry, _ := args.Get(0).(*models.DeliveryLogEntity)
	return entry, args.Error(1)
}

func (m *MockDeliveryLogDao) FindBySubmissionIDs(
	ctx context.Context,
	q Queryer,
	ids []string,
) ([]models.DeliveryLogEntity, error) {
	args := m.Called(ctx, q, ids)
	entries, _ := args.Get(0).([]models.DeliveryLogEntity)
	return entries, args.Error(1)
}

func (m *MockDeliveryLogDao) DeleteBySubmissionIDs(ctx context.Context, q Queryer, ids []string) (int64, error) {
	args := m.Called(ctx, q, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDeliveryLogDao) DeleteOlderThan(ctx context.Context, q Queryer, cutoff int64) (int64, error) {
	args := m.Called(ctx, q, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockWebhookDao is a mock implementation of WebhookDao.
type MockWebhookDao struct {
	mock.Mock
}

func (m *MockWebhookDao) Insert(ctx context.Context, q Queryer, webhook *models.WebhookEntity) error {
	return m.Called(ctx, q, webhook).Error(0)
}

func (m *MockWebhookDao) FindByID(ctx context.Context, q Queryer, id int64) (*models.WebhookEntity, error) {
	args := m.Called(ctx, q, id)
	webhook, _ := args.Get(0).(*models.WebhookEntity)
	return webhook, args.Error(1)
}

func (m *MockWebhookDao) FindActive(
	ctx context.Context,
	q Queryer,
	formID int64,
	trigger string,
) ([]models.WebhookEntity, error) {
	args := m.Called(ctx, q, formID, trigger)
	webhooks, _ := args.Get(0).([]models.WebhookEntity)
	return webhooks, args.Error(1)
}

func (m *MockWebhookDao) RecordDispatch(
	ctx context.Context,
	q Queryer,
	id int64,
	status string,
	code sql.NullInt64,
	triggeredAt int64,
) error {
	return m.Called(ctx, q, id, status, code, triggeredAt).Error(0)
}
