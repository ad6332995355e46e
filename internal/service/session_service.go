package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/maheshrc27/fbscheduler/internal/models"
	"github.com/maheshrc27/fbscheduler/internal/repository"
)

// LoginDispatcher hands a login off to a background worker.
type LoginDispatcher interface {
	DispatchLogin(ctx context.Context, taskID, identity, secret string, waitSeconds int) error
}

type SessionService interface {
	List(ctx context.Context) ([]*models.Session, error)
	Create(ctx context.Context, name, cookie string) (*models.Session, error)
	Update(ctx context.Context, id int64, name, cookie *string) (*models.Session, error)
	Delete(ctx context.Context, id int64) error
	Verify(ctx context.Context, id int64) (*models.Session, error)
	Resolve(ctx context.Context, id *int64) (*models.Session, error)
	CheckLiveness(ctx context.Context, session *models.Session) bool
	Invalidate(ctx context.Context, id int64)
	StartLogin(ctx context.Context, identity, secret string, waitSeconds int) (*models.LoginTask, error)
	CompleteLogin(ctx context.Context, taskID, identity, secret string, waitSeconds int) error
	GetLoginTask(ctx context.Context, id string) (*models.LoginTask, error)
}

type sessionService struct {
	sr        repository.SessionRepository
	lr        repository.LoginTaskRepository
	fb        FacebookService
	endpoints EndpointProvider
	logins    LoginDispatcher
}

func NewSessionService(
	sr repository.SessionRepository,
	lr repository.LoginTaskRepository,
	fb FacebookService,
	endpoints EndpointProvider,
	logins LoginDispatcher) SessionService {
	return &sessionService{
		sr:        sr,
		lr:        lr,
		fb:        fb,
		endpoints: endpoints,
		logins:    logins,
	}
}

func (s *sessionService) List(ctx context.Context) ([]*models.Session, error) {
	sessions, err := s.sr.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return sessions, nil
}

func (s *sessionService) Create(ctx context.Context, name, cookie string) (*models.Session, error) {
	cookie = strings.TrimSpace(cookie)
	if !json.Valid([]byte(cookie)) {
		return nil, ErrCorruptCookie
	}

	session := &models.Session{
		Name:   strings.TrimSpace(name),
		Cookie: cookie,
		Status: models.SessionStatusPending,
	}
	if _, err := s.sr.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	return session, nil
}

// Update edits name and cookie. A different cookie sends the session back to
// pending until it is verified again.
func (s *sessionService) Update(ctx context.Context, id int64, name, cookie *string) (*models.Session, error) {
	session, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if name != nil {
		session.Name = strings.TrimSpace(*name)
	}
	if cookie != nil {
		c := strings.TrimSpace(*cookie)
		if c != session.Cookie {
			if !json.Valid([]byte(c)) {
				return nil, ErrCorruptCookie
			}
			session.Cookie = c
			session.Status = models.SessionStatusPending
		}
	}

	if err := s.sr.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	return session, nil
}

func (s *sessionService) Delete(ctx context.Context, id int64) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	if err := s.sr.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

// Verify asks the automation API who the cookie belongs to. A rejected cookie
// demotes a verified or active session; pending sessions stay pending.
func (s *sessionService) Verify(ctx context.Context, id int64) (*models.Session, error) {
	session, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	identity, err := s.fb.VerifySession(ctx, session.Cookie)
	if err != nil {
		if Classify(err) == OutcomeAuth &&
			(session.Status == models.SessionStatusVerified || session.Status == models.SessionStatusActive) {
			s.Invalidate(ctx, session.ID)
		}
		return nil, err
	}

	if err := s.sr.MarkVerified(ctx, session.ID, identity.RemoteUserID, identity.DisplayName); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	return s.get(ctx, id)
}

// Resolve returns the session with the given id or, when id is nil, the most
// recently verified one.
func (s *sessionService) Resolve(ctx context.Context, id *int64) (*models.Session, error) {
	var (
		session *models.Session
		err     error
	)
	if id != nil && *id > 0 {
		session, err = s.sr.GetByID(ctx, *id)
	} else {
		session, err = s.sr.GetLatestVerified(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *sessionService) CheckLiveness(ctx context.Context, session *models.Session) bool {
	return s.fb.CheckLiveness(ctx, session.Cookie)
}

func (s *sessionService) Invalidate(ctx context.Context, id int64) {
	slog.Info("invalidating session", "session_id", id)
	if err := s.sr.SetStatus(ctx, id, models.SessionStatusInactive); err != nil {
		slog.Error("invalidate session", "session_id", id, "error", err)
	}
}

func (s *sessionService) StartLogin(ctx context.Context, identity, secret string, waitSeconds int) (*models.LoginTask, error) {
	base, err := s.endpoints.APIBaseURL(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if base == "" {
		return nil, ErrConfiguration
	}

	task := &models.LoginTask{
		ID:       uuid.NewString(),
		Identity: identity,
		Status:   models.LoginTaskPending,
	}
	if err := s.lr.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	if err := s.logins.DispatchLogin(ctx, task.ID, identity, secret, waitSeconds); err != nil {
		slog.Error("dispatch login", "task_id", task.ID, "error", err)
		if mErr := s.lr.MarkFailed(ctx, task.ID, err.Error()); mErr != nil {
			slog.Error("mark login task failed", "task_id", task.ID, "error", mErr)
		}
		return nil, err
	}

	return task, nil
}

// CompleteLogin runs the blocking remote login for a task and records the
// result on it. Only a failure to record the result is returned.
func (s *sessionService) CompleteLogin(ctx context.Context, taskID, identity, secret string, waitSeconds int) error {
	result, err := s.fb.Login(ctx, identity, secret, waitSeconds)
	if err != nil {
		slog.Info("remote login failed", "task_id", taskID, "outcome", Classify(err).String(), "error", err)
		return s.lr.MarkFailed(ctx, taskID, err.Error())
	}

	now := time.Now()
	session := &models.Session{
		Name:       result.DisplayName,
		Cookie:     result.Cookie,
		Status:     models.SessionStatusVerified,
		UserName:   &result.DisplayName,
		VerifiedAt: &now,
	}
	if result.RemoteUserID != "" {
		session.CUser = &result.RemoteUserID
	}

	if _, err := s.sr.Create(ctx, session); err != nil {
		if mErr := s.lr.MarkFailed(ctx, taskID, "could not store session"); mErr != nil {
			slog.Error("mark login task failed", "task_id", taskID, "error", mErr)
		}
		return err
	}

	return s.lr.MarkSucceeded(ctx, taskID, session.ID)
}

func (s *sessionService) GetLoginTask(ctx context.Context, id string) (*models.LoginTask, error) {
	task, err := s.lr.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if task == nil {
		return nil, ErrLoginTaskNotFound
	}
	return task, nil
}

func (s *sessionService) get(ctx context.Context, id int64) (*models.Session, error) {
	if id <= 0 {
		return nil, ErrSessionNotFound
	}
	session, err := s.sr.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}
