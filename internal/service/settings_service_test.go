package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/maheshrc27/fbscheduler/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAPIURL(t *testing.T) {
	assert.Equal(t, "http://x:8000", NormalizeAPIURL("  http://x:8000/// "))
	assert.Equal(t, "", NormalizeAPIURL("   "))
}

func TestAPIBaseURLCachesUntilTTL(t *testing.T) {
	repo := &mockSettingsRepo{}
	repo.On("Get", mock.Anything, models.SettingAPIURL).Return("http://a/", true, nil).Twice()

	svc := NewSettingsService(repo, 30*time.Second).(*settingsService)
	clock := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	ctx := context.Background()
	for range 3 {
		url, err := svc.APIBaseURL(ctx)
		require.NoError(t, err)
		assert.Equal(t, "http://a", url)
	}

	clock = clock.Add(31 * time.Second)
	_, err := svc.APIBaseURL(ctx)
	require.NoError(t, err)

	repo.AssertExpectations(t)
}

func TestUpdateAPIURLInvalidatesCache(t *testing.T) {
	repo := &mockSettingsRepo{}
	repo.On("Get", mock.Anything, models.SettingAPIURL).Return("http://old", true, nil).Once()
	repo.On("Upsert", mock.Anything, models.SettingAPIURL, "http://new").Return(nil).Once()
	repo.On("Get", mock.Anything, models.SettingAPIURL).Return("http://new", true, nil).Once()

	svc := NewSettingsService(repo, time.Hour)
	ctx := context.Background()

	url, err := svc.APIBaseURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, "http://old", url)

	require.NoError(t, svc.UpdateAPIURL(ctx, " http://new/ "))

	url, err = svc.APIBaseURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, "http://new", url)

	repo.AssertExpectations(t)
}

func TestUpdateAPIURLIgnoresBlank(t *testing.T) {
	repo := &mockSettingsRepo{}
	svc := NewSettingsService(repo, time.Hour)

	require.NoError(t, svc.UpdateAPIURL(context.Background(), "  "))
	repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
}

func TestAPIBaseURLStorageError(t *testing.T) {
	repo := &mockSettingsRepo{}
	repo.On("Get", mock.Anything, models.SettingAPIURL).Return("", false, errors.New("down"))

	_, err := NewSettingsService(repo, time.Hour).APIBaseURL(context.Background())
	assert.Error(t, err)
}
