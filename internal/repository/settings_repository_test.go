package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/maheshrc27/fbscheduler/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsGet(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSettingsRepository(db)

	mock.ExpectQuery(`SELECT value FROM settings WHERE key = \$1`).
		WithArgs(models.SettingAPIURL).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("http://fb.local"))

	v, ok, err := repo.Get(context.Background(), models.SettingAPIURL)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "http://fb.local", v)
}

func TestSettingsGetMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSettingsRepository(db)

	mock.ExpectQuery(`SELECT value FROM settings`).
		WithArgs(models.SettingAPIURL).
		WillReturnError(sql.ErrNoRows)

	_, ok, err := repo.Get(context.Background(), models.SettingAPIURL)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSettingsUpsert(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSettingsRepository(db)

	mock.ExpectExec(`INSERT INTO settings .+ ON CONFLICT \(key\) DO UPDATE`).
		WithArgs(models.SettingAPIURL, "http://fb.local").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Upsert(context.Background(), models.SettingAPIURL, "http://fb.local"))
}
