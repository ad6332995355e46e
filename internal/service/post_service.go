package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maheshrc27/fbscheduler/internal/models"
	"github.com/maheshrc27/fbscheduler/internal/repository"
	"github.com/maheshrc27/fbscheduler/internal/transfer"
)

const (
	unknownPageName   = "Unknown page"
	untitledPostTitle = "Untitled (error)"
)

// PublishOutcome is the result of one publish attempt that reached a status.
type PublishOutcome struct {
	Post    *models.Post `json:"post"`
	Result  Outcome      `json:"-"`
	Message string       `json:"message"`
}

// Failed reports whether the attempt ended in a failure the caller should see.
func (o *PublishOutcome) Failed() bool {
	return o.Post != nil && o.Post.Status == models.PostStatusFailed
}

type PostService interface {
	Publish(ctx context.Context, req *transfer.PublishPost) (*PublishOutcome, error)
	Schedule(ctx context.Context, req *transfer.SchedulePost) (*models.Post, error)
	List(ctx context.Context, sessionID int64) ([]*models.Post, error)
	Remove(ctx context.Context, id int64) error
	PublishPending(ctx context.Context, sessionID int64) ([]*PublishOutcome, error)
}

type postService struct {
	pr       repository.PostRepository
	pages    repository.PageRepository
	sessions SessionService
	fb       FacebookService
	media    MediaService
	now      func() time.Time
}

func NewPostService(
	pr repository.PostRepository,
	pages repository.PageRepository,
	sessions SessionService,
	fb FacebookService,
	media MediaService) PostService {
	return &postService{
		pr:       pr,
		pages:    pages,
		sessions: sessions,
		fb:       fb,
		media:    media,
		now:      time.Now,
	}
}

// Publish drives one post to draft, pending, published or failed. Existing
// posts are locked for the whole attempt. Unexpected failures mark the post
// failed on a best-effort basis and come back wrapped in ErrCritical.
func (s *postService) Publish(ctx context.Context, req *transfer.PublishPost) (*PublishOutcome, error) {
	if req.PostID != nil {
		unlock, ok, err := s.pr.TryLock(ctx, *req.PostID)
		if err != nil {
			return nil, fmt.Errorf("%w: %w: %w", ErrCritical, ErrPersistence, err)
		}
		if !ok {
			return nil, ErrPublishInProgress
		}
		defer unlock()
	}

	outcome, err := s.attempt(ctx, req)
	if err == nil {
		return outcome, nil
	}
	if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrPostNotFound) {
		return nil, err
	}

	slog.Error("publish attempt crashed", "post_id", req.PostID, "error", err)
	s.recordCrash(ctx, req, err)

	return nil, fmt.Errorf("%w: %w", ErrCritical, err)
}

func (s *postService) attempt(ctx context.Context, req *transfer.PublishPost) (*PublishOutcome, error) {
	session, err := s.sessions.Resolve(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	post := &models.Post{}
	if req.PostID != nil {
		existing, err := s.pr.GetByID(ctx, *req.PostID)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
		}
		if existing == nil {
			return nil, ErrPostNotFound
		}
		post = existing
	}

	image, err := s.storeImage(ctx, req.ImageBase64)
	if err != nil {
		return nil, err
	}

	post.Title = req.Title
	post.Content = req.Comment
	post.PageID = req.PageID
	post.PageName = s.pageName(ctx, session.ID, req.PageID, "")
	post.SessionID = session.ID
	post.ImageURL = image

	if req.SaveDraft {
		setStatus(post, models.PostStatusDraft)
		return s.finish(ctx, post, OutcomeSuccess, "Saved as draft")
	}

	s.markAttempt(post)

	if !s.sessions.CheckLiveness(ctx, session) {
		s.sessions.Invalidate(ctx, session.ID)
		setStatus(post, models.PostStatusPending)
		return s.finish(ctx, post, OutcomeAuth, "Session expired. Post saved as pending.")
	}

	imageData := ""
	if image != nil {
		imageData, err = s.media.ReadDataURI(ctx, *image)
		if err != nil {
			return nil, err
		}
	}

	result, err := s.fb.Publish(ctx, session.Cookie, transfer.PublishRequest{
		PageID:  post.PageID,
		Title:   post.Title,
		Comment: post.Content,
		Image:   imageData,
	})

	outcome := Classify(err)
	switch outcome {
	case OutcomeSuccess:
		setStatus(post, models.PostStatusPublished)
		if result.RemotePostID != "" {
			post.FBPostID = &result.RemotePostID
		}
		return s.finish(ctx, post, outcome, "Published")

	case OutcomeAuth:
		s.sessions.Invalidate(ctx, session.ID)
		setStatus(post, models.PostStatusPending)
		post.ErrorLog = errorLog(err, "publish")
		return s.finish(ctx, post, outcome, "Session expired while publishing. Post saved as pending.")

	default:
		setStatus(post, models.PostStatusFailed)
		post.ErrorLog = errorLog(err, "publish")
		return s.finish(ctx, post, outcome, remoteErrorMessage(err))
	}
}

// Schedule creates a scheduled post after checking the session is live now.
func (s *postService) Schedule(ctx context.Context, req *transfer.SchedulePost) (*models.Post, error) {
	if !req.ScheduledAt.After(s.now()) {
		return nil, ErrInvalidSchedule
	}

	session, err := s.sessions.Resolve(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	if !s.sessions.CheckLiveness(ctx, session) {
		s.sessions.Invalidate(ctx, session.ID)
		return nil, ErrSessionExpired
	}

	image, err := s.storeImage(ctx, req.ImageBase64)
	if err != nil {
		return nil, err
	}

	scheduledAt := req.ScheduledAt.UTC()
	post := &models.Post{
		Title:       req.Title,
		Content:     req.Comment,
		Status:      models.PostStatusScheduled,
		ImageURL:    image,
		PageID:      req.PageID,
		PageName:    s.pageName(ctx, session.ID, req.PageID, unknownPageName),
		SessionID:   session.ID,
		ScheduledAt: &scheduledAt,
	}
	if _, err := s.pr.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	slog.Info("post scheduled", "post_id", post.ID, "session_id", session.ID, "scheduled_at", scheduledAt)
	return post, nil
}

// List returns posts newest first, filling page names missing from old rows.
func (s *postService) List(ctx context.Context, sessionID int64) ([]*models.Post, error) {
	posts, err := s.pr.List(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	names := map[string]string{}
	for _, p := range posts {
		if p.PageName != "" {
			continue
		}
		key := fmt.Sprintf("%d/%s", p.SessionID, p.PageID)
		name, ok := names[key]
		if !ok {
			name = s.pageName(ctx, p.SessionID, p.PageID, "")
			names[key] = name
		}
		p.PageName = name
	}

	return posts, nil
}

func (s *postService) Remove(ctx context.Context, id int64) error {
	post, err := s.pr.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if post == nil {
		return ErrPostNotFound
	}

	removed, err := s.pr.Remove(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if !removed {
		return ErrPostNotRemovable
	}
	return nil
}

// PublishPending retries every pending post of a session, one at a time.
func (s *postService) PublishPending(ctx context.Context, sessionID int64) ([]*PublishOutcome, error) {
	posts, err := s.pr.ListByStatus(ctx, models.PostStatusPending, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	outcomes := make([]*PublishOutcome, 0, len(posts))
	for _, p := range posts {
		outcome, err := s.Publish(ctx, ReplayRequest(p))
		if err != nil {
			slog.Info("auto-publish skipped", "post_id", p.ID, "session_id", sessionID, "error", err)
			continue
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}

func (s *postService) finish(ctx context.Context, post *models.Post, outcome Outcome, message string) (*PublishOutcome, error) {
	if post.ID != 0 {
		if err := s.pr.Update(ctx, post); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrPostNotFound
			}
			return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
		}
	} else if _, err := s.pr.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	slog.Info("publish attempt finished", "post_id", post.ID, "session_id", post.SessionID, "status", post.Status, "outcome", outcome.String())
	return &PublishOutcome{Post: post, Result: outcome, Message: message}, nil
}

// recordCrash is the last resort after an unexpected failure: mark the post
// failed, or create a failed row for a new post that had content. Errors
// here are logged and dropped.
func (s *postService) recordCrash(ctx context.Context, req *transfer.PublishPost, cause error) {
	log := errorLog(cause, "critical")

	if req.PostID != nil {
		if err := s.pr.MarkFailed(ctx, *req.PostID, *log); err != nil {
			slog.Error("record failed post", "post_id", *req.PostID, "error", err)
		}
		return
	}

	if strings.TrimSpace(req.Title) == "" && strings.TrimSpace(req.Comment) == "" {
		return
	}

	session, err := s.sessions.Resolve(ctx, req.SessionID)
	if err != nil {
		slog.Error("record failed post", "error", err)
		return
	}

	title := req.Title
	if strings.TrimSpace(title) == "" {
		title = untitledPostTitle
	}
	post := &models.Post{
		Title:     title,
		Content:   req.Comment,
		Status:    models.PostStatusFailed,
		PageID:    req.PageID,
		SessionID: session.ID,
		ErrorLog:  log,
	}
	if _, err := s.pr.Create(ctx, post); err != nil {
		slog.Error("record failed post", "session_id", session.ID, "error", err)
	}
}

// storeImage persists an inline data URI and returns the stored path. Other
// references pass through unchanged.
func (s *postService) storeImage(ctx context.Context, image string) (*string, error) {
	image = strings.TrimSpace(image)
	if image == "" {
		return nil, nil
	}
	if !strings.HasPrefix(image, "data:") {
		return &image, nil
	}

	ref, err := s.media.SaveDataURI(ctx, image)
	if err != nil {
		if errors.Is(err, ErrLocalStorage) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrLocalStorage, err)
	}
	return &ref, nil
}

func (s *postService) pageName(ctx context.Context, sessionID int64, pageID, fallback string) string {
	page, err := s.pages.GetByID(ctx, sessionID, pageID)
	if err != nil {
		slog.Info("page name lookup failed", "page_id", pageID, "error", err)
		return fallback
	}
	if page == nil || page.Name == "" {
		return fallback
	}
	return page.Name
}

func (s *postService) markAttempt(post *models.Post) {
	now := s.now()
	post.AttemptCount++
	post.LastAttemptAt = &now
}

// setStatus moves a post to status and clears the fields that only belong to
// other states.
func setStatus(post *models.Post, status string) {
	post.Status = status
	post.FBPostID = nil
	post.ErrorLog = nil
	post.PublishedAt = nil
	switch status {
	case models.PostStatusPublished:
		now := time.Now()
		post.PublishedAt = &now
	case models.PostStatusDraft:
		post.ScheduledAt = nil
	}
}

type errorLogEntry struct {
	Message    string          `json:"message"`
	Outcome    string          `json:"outcome"`
	StatusCode int             `json:"status_code,omitempty"`
	Response   json.RawMessage `json:"response,omitempty"`
	Source     string          `json:"source"`
	At         time.Time       `json:"at"`
}

func errorLog(err error, source string) *string {
	entry := errorLogEntry{
		Message: remoteErrorMessage(err),
		Outcome: Classify(err).String(),
		Source:  source,
		At:      time.Now().UTC(),
	}
	var re *RemoteError
	if errors.As(err, &re) {
		entry.StatusCode = re.StatusCode
		if json.Valid(re.Body) {
			entry.Response = re.Body
		}
	}

	data, mErr := json.Marshal(entry)
	if mErr != nil {
		data = []byte(fmt.Sprintf(`{"message":%q}`, err.Error()))
	}
	log := string(data)
	return &log
}

func remoteErrorMessage(err error) string {
	var re *RemoteError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// ReplayRequest rebuilds the publish request for a stored post.
func ReplayRequest(post *models.Post) *transfer.PublishPost {
	id, sessionID := post.ID, post.SessionID
	req := &transfer.PublishPost{
		PostID:    &id,
		SessionID: &sessionID,
		PageID:    post.PageID,
		Title:     post.Title,
		Comment:   post.Content,
	}
	if post.ImageURL != nil {
		req.ImageBase64 = *post.ImageURL
	}
	return req
}

// BuildReplay is ReplayRequest with a stored image inlined as a data URI, for
// callers that go through the HTTP entry point.
func BuildReplay(ctx context.Context, media MediaService, post *models.Post) (*transfer.PublishPost, error) {
	req := ReplayRequest(post)
	if req.ImageBase64 == "" {
		return req, nil
	}

	inline, err := media.ReadDataURI(ctx, req.ImageBase64)
	if err != nil {
		return nil, err
	}
	req.ImageBase64 = inline
	return req, nil
}
