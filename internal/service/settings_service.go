package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/maheshrc27/fbscheduler/internal/models"
	"github.com/maheshrc27/fbscheduler/internal/repository"
)

type SettingsService interface {
	EndpointProvider
	GetAPIURL(ctx context.Context) (string, error)
	UpdateAPIURL(ctx context.Context, value string) error
}

type settingsService struct {
	sr  repository.SettingsRepository
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	cached   string
	cachedAt time.Time
	valid    bool
}

func NewSettingsService(sr repository.SettingsRepository, ttl time.Duration) SettingsService {
	return &settingsService{
		sr:  sr,
		ttl: ttl,
		now: time.Now,
	}
}

// NormalizeAPIURL trims whitespace and trailing slashes.
func NormalizeAPIURL(value string) string {
	return strings.TrimRight(strings.TrimSpace(value), "/")
}

// APIBaseURL reads through a cache that expires after the configured TTL
// and is dropped on every update.
func (s *settingsService) APIBaseURL(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.valid && s.now().Sub(s.cachedAt) < s.ttl {
		value := s.cached
		s.mu.Unlock()
		return value, nil
	}
	s.mu.Unlock()

	value, err := s.GetAPIURL(ctx)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.cached, s.cachedAt, s.valid = value, s.now(), true
	s.mu.Unlock()

	return value, nil
}

func (s *settingsService) GetAPIURL(ctx context.Context) (string, error) {
	value, _, err := s.sr.Get(ctx, models.SettingAPIURL)
	if err != nil {
		return "", err
	}
	return NormalizeAPIURL(value), nil
}

// UpdateAPIURL stores a new base URL. Blank values are ignored.
func (s *settingsService) UpdateAPIURL(ctx context.Context, value string) error {
	value = NormalizeAPIURL(value)
	if value == "" {
		return nil
	}

	if err := s.sr.Upsert(ctx, models.SettingAPIURL, value); err != nil {
		return err
	}

	s.mu.Lock()
	s.valid = false
	s.mu.Unlock()

	return nil
}
