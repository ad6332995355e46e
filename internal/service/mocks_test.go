package service

import (
	"context"
	"mime/multipart"
	"time"

	"github.com/maheshrc27/fbscheduler/internal/models"
	"github.com/maheshrc27/fbscheduler/internal/transfer"
	"github.com/stretchr/testify/mock"
)

type mockPostRepo struct{ mock.Mock }

func (m *mockPostRepo) Create(ctx context.Context, p *models.Post) (int64, error) {
	args := m.Called(ctx, p)
	if id := args.Get(0).(int64); id != 0 {
		p.ID = id
	}
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockPostRepo) Update(ctx context.Context, p *models.Post) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockPostRepo) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*models.Post)
	return p, args.Error(1)
}

func (m *mockPostRepo) List(ctx context.Context, sessionID int64) ([]*models.Post, error) {
	args := m.Called(ctx, sessionID)
	p, _ := args.Get(0).([]*models.Post)
	return p, args.Error(1)
}

func (m *mockPostRepo) ListDue(ctx context.Context, now time.Time) ([]*models.Post, error) {
	args := m.Called(ctx, now)
	p, _ := args.Get(0).([]*models.Post)
	return p, args.Error(1)
}

func (m *mockPostRepo) ListByStatus(ctx context.Context, status string, sessionID int64) ([]*models.Post, error) {
	args := m.Called(ctx, status, sessionID)
	p, _ := args.Get(0).([]*models.Post)
	return p, args.Error(1)
}

func (m *mockPostRepo) MarkFailed(ctx context.Context, id int64, errorLog string) error {
	return m.Called(ctx, id, errorLog).Error(0)
}

func (m *mockPostRepo) Remove(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockPostRepo) TryLock(ctx context.Context, id int64) (func(), bool, error) {
	args := m.Called(ctx, id)
	unlock, _ := args.Get(0).(func())
	return unlock, args.Bool(1), args.Error(2)
}

type mockPageRepo struct{ mock.Mock }

func (m *mockPageRepo) ListBySession(ctx context.Context, sessionID int64) ([]*models.Page, error) {
	args := m.Called(ctx, sessionID)
	p, _ := args.Get(0).([]*models.Page)
	return p, args.Error(1)
}

func (m *mockPageRepo) GetByID(ctx context.Context, sessionID int64, pageID string) (*models.Page, error) {
	args := m.Called(ctx, sessionID, pageID)
	p, _ := args.Get(0).(*models.Page)
	return p, args.Error(1)
}

func (m *mockPageRepo) InsertMany(ctx context.Context, pages []*models.Page) error {
	return m.Called(ctx, pages).Error(0)
}

func (m *mockPageRepo) UpdateName(ctx context.Context, sessionID int64, pageID, name string) error {
	return m.Called(ctx, sessionID, pageID, name).Error(0)
}

func (m *mockPageRepo) SetSelected(ctx context.Context, sessionID int64, pageIDs []string, selected bool) (int64, error) {
	args := m.Called(ctx, sessionID, pageIDs, selected)
	return args.Get(0).(int64), args.Error(1)
}

type mockSessionRepo struct{ mock.Mock }

func (m *mockSessionRepo) Create(ctx context.Context, s *models.Session) (int64, error) {
	args := m.Called(ctx, s)
	if id := args.Get(0).(int64); id != 0 {
		s.ID = id
	}
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSessionRepo) GetByID(ctx context.Context, id int64) (*models.Session, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*models.Session)
	return s, args.Error(1)
}

func (m *mockSessionRepo) GetLatestVerified(ctx context.Context) (*models.Session, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(*models.Session)
	return s, args.Error(1)
}

func (m *mockSessionRepo) List(ctx context.Context) ([]*models.Session, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).([]*models.Session)
	return s, args.Error(1)
}

func (m *mockSessionRepo) Update(ctx context.Context, s *models.Session) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockSessionRepo) MarkVerified(ctx context.Context, id int64, cUser, userName string) error {
	return m.Called(ctx, id, cUser, userName).Error(0)
}

func (m *mockSessionRepo) SetStatus(ctx context.Context, id int64, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockSessionRepo) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type mockLoginTaskRepo struct{ mock.Mock }

func (m *mockLoginTaskRepo) Create(ctx context.Context, t *models.LoginTask) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockLoginTaskRepo) GetByID(ctx context.Context, id string) (*models.LoginTask, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(*models.LoginTask)
	return t, args.Error(1)
}

func (m *mockLoginTaskRepo) MarkSucceeded(ctx context.Context, id string, sessionID int64) error {
	return m.Called(ctx, id, sessionID).Error(0)
}

func (m *mockLoginTaskRepo) MarkFailed(ctx context.Context, id string, message string) error {
	return m.Called(ctx, id, message).Error(0)
}

type mockSettingsRepo struct{ mock.Mock }

func (m *mockSettingsRepo) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *mockSettingsRepo) Upsert(ctx context.Context, key, value string) error {
	return m.Called(ctx, key, value).Error(0)
}

type mockFacebook struct{ mock.Mock }

func (m *mockFacebook) Login(ctx context.Context, identity, secret string, waitSeconds int) (*transfer.LoginResult, error) {
	args := m.Called(ctx, identity, secret, waitSeconds)
	r, _ := args.Get(0).(*transfer.LoginResult)
	return r, args.Error(1)
}

func (m *mockFacebook) VerifySession(ctx context.Context, cookie string) (*transfer.SessionIdentity, error) {
	args := m.Called(ctx, cookie)
	r, _ := args.Get(0).(*transfer.SessionIdentity)
	return r, args.Error(1)
}

func (m *mockFacebook) CheckLiveness(ctx context.Context, cookie string) bool {
	return m.Called(ctx, cookie).Bool(0)
}

func (m *mockFacebook) FetchPages(ctx context.Context, cookie string) ([]transfer.RemotePage, error) {
	args := m.Called(ctx, cookie)
	r, _ := args.Get(0).([]transfer.RemotePage)
	return r, args.Error(1)
}

func (m *mockFacebook) Publish(ctx context.Context, cookie string, req transfer.PublishRequest) (*transfer.PublishResult, error) {
	args := m.Called(ctx, cookie, req)
	r, _ := args.Get(0).(*transfer.PublishResult)
	return r, args.Error(1)
}

type mockMedia struct{ mock.Mock }

func (m *mockMedia) Upload(ctx context.Context, files []*multipart.FileHeader) ([]transfer.MediaFile, error) {
	args := m.Called(ctx, files)
	r, _ := args.Get(0).([]transfer.MediaFile)
	return r, args.Error(1)
}

func (m *mockMedia) List(ctx context.Context) ([]transfer.MediaFile, error) {
	args := m.Called(ctx)
	r, _ := args.Get(0).([]transfer.MediaFile)
	return r, args.Error(1)
}

func (m *mockMedia) Delete(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

func (m *mockMedia) Open(ctx context.Context, name string) ([]byte, string, error) {
	args := m.Called(ctx, name)
	b, _ := args.Get(0).([]byte)
	return b, args.String(1), args.Error(2)
}

func (m *mockMedia) SaveDataURI(ctx context.Context, dataURI string) (string, error) {
	args := m.Called(ctx, dataURI)
	return args.String(0), args.Error(1)
}

func (m *mockMedia) ReadDataURI(ctx context.Context, ref string) (string, error) {
	args := m.Called(ctx, ref)
	return args.String(0), args.Error(1)
}

type mockLoginDispatcher struct{ mock.Mock }

func (m *mockLoginDispatcher) DispatchLogin(ctx context.Context, taskID, identity, secret string, waitSeconds int) error {
	return m.Called(ctx, taskID, identity, secret, waitSeconds).Error(0)
}

type staticEndpoint string

func (s staticEndpoint) APIBaseURL(context.Context) (string, error) { return string(s), nil }
