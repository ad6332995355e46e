package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/fbscheduler/internal/models"
)

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) (int64, error)
	Update(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	List(ctx context.Context, sessionID int64) ([]*models.Post, error)
	ListDue(ctx context.Context, now time.Time) ([]*models.Post, error)
	ListByStatus(ctx context.Context, status string, sessionID int64) ([]*models.Post, error)
	MarkFailed(ctx context.Context, id int64, errorLog string) error
	Remove(ctx context.Context, id int64) (bool, error)
	TryLock(ctx context.Context, id int64) (func(), bool, error)
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, title, content, status, image_url, page_id, page_name, session_id,
	scheduled_at, published_at, fb_post_id, error_log, attempt_count, last_attempt_at,
	created_at, updated_at`

func scanPost(row interface{ Scan(...any) error }) (*models.Post, error) {
	var p models.Post
	err := row.Scan(
		&p.ID, &p.Title, &p.Content, &p.Status, &p.ImageURL, &p.PageID, &p.PageName, &p.SessionID,
		&p.ScheduledAt, &p.PublishedAt, &p.FBPostID, &p.ErrorLog, &p.AttemptCount, &p.LastAttemptAt,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postRepository) queryPosts(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	posts := []*models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, p)
	}

	return posts, rows.Err()
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (title, content, status, image_url, page_id, page_name, session_id,
			scheduled_at, published_at, fb_post_id, error_log, attempt_count, last_attempt_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		post.Title, post.Content, post.Status, post.ImageURL, post.PageID, post.PageName, post.SessionID,
		post.ScheduledAt, post.PublishedAt, post.FBPostID, post.ErrorLog, post.AttemptCount, post.LastAttemptAt,
	).Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return post.ID, nil
}

// Update overwrites every mutable column of the row. It returns
// sql.ErrNoRows when the post does not exist.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	query := `
		UPDATE posts
		SET title = $1,
			content = $2,
			status = $3,
			image_url = $4,
			page_id = $5,
			page_name = $6,
			session_id = $7,
			scheduled_at = $8,
			published_at = $9,
			fb_post_id = $10,
			error_log = $11,
			attempt_count = $12,
			last_attempt_at = $13,
			updated_at = now()
		WHERE id = $14
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		post.Title, post.Content, post.Status, post.ImageURL, post.PageID, post.PageName, post.SessionID,
		post.ScheduledAt, post.PublishedAt, post.FBPostID, post.ErrorLog, post.AttemptCount, post.LastAttemptAt,
		post.ID,
	).Scan(&post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	p, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return p, nil
}

// List returns posts newest first. A zero sessionID lists every session.
func (r *postRepository) List(ctx context.Context, sessionID int64) ([]*models.Post, error) {
	query := `
		SELECT ` + postColumns + ` FROM posts
		WHERE ($1::bigint = 0 OR session_id = $1)
		ORDER BY created_at DESC, id DESC
	`
	return r.queryPosts(ctx, query, sessionID)
}

// ListDue returns scheduled posts whose time is at or before now.
func (r *postRepository) ListDue(ctx context.Context, now time.Time) ([]*models.Post, error) {
	query := `
		SELECT ` + postColumns + ` FROM posts
		WHERE status = $1 AND scheduled_at <= $2
		ORDER BY scheduled_at, id
	`
	return r.queryPosts(ctx, query, models.PostStatusScheduled, now)
}

func (r *postRepository) ListByStatus(ctx context.Context, status string, sessionID int64) ([]*models.Post, error) {
	query := `
		SELECT ` + postColumns + ` FROM posts
		WHERE status = $1 AND ($2::bigint = 0 OR session_id = $2)
		ORDER BY id
	`
	return r.queryPosts(ctx, query, status, sessionID)
}

func (r *postRepository) MarkFailed(ctx context.Context, id int64, errorLog string) error {
	query := `
		UPDATE posts
		SET status = $1, error_log = $2, fb_post_id = NULL, published_at = NULL, updated_at = now()
		WHERE id = $3
	`

	_, err := r.db.ExecContext(ctx, query, models.PostStatusFailed, errorLog, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

// Remove deletes a draft or scheduled post and reports whether a row went.
func (r *postRepository) Remove(ctx context.Context, id int64) (bool, error) {
	query := `DELETE FROM posts WHERE id = $1 AND status IN ($2, $3)`

	res, err := r.db.ExecContext(ctx, query, id, models.PostStatusDraft, models.PostStatusScheduled)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

// TryLock takes a session-level advisory lock keyed by the post id on a
// dedicated connection. The returned func releases it and must be called
// when ok is true.
func (r *postRepository) TryLock(ctx context.Context, id int64) (func(), bool, error) {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		slog.Info(err.Error())
		return nil, false, err
	}

	var ok bool
	if err := conn.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, id).Scan(&ok); err != nil {
		slog.Info(err.Error())
		conn.Close()
		return nil, false, err
	}
	if !ok {
		conn.Close()
		return nil, false, nil
	}

	unlock := func() {
		if _, err := conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, id); err != nil {
			slog.Error("release post lock", "post_id", id, "error", err)
		}
		conn.Close()
	}

	return unlock, true, nil
}
