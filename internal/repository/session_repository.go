package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/fbscheduler/internal/models"
	"github.com/maheshrc27/fbscheduler/pkg/utils"
)

type SessionRepository interface {
	Create(ctx context.Context, s *models.Session) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Session, error)
	GetLatestVerified(ctx context.Context) (*models.Session, error)
	List(ctx context.Context) ([]*models.Session, error)
	Update(ctx context.Context, s *models.Session) error
	MarkVerified(ctx context.Context, id int64, cUser, userName string) error
	SetStatus(ctx context.Context, id int64, status string) error
	Delete(ctx context.Context, id int64) error
}

type sessionRepository struct {
	db  *sql.DB
	key string
}

// NewSessionRepository stores cookie payloads sealed with key. An empty key
// stores them in the clear.
func NewSessionRepository(db *sql.DB, key string) SessionRepository {
	return &sessionRepository{db: db, key: key}
}

const sessionColumns = `id, name, cookie, status, c_user, user_name, created_at, verified_at`

func (r *sessionRepository) scan(row interface{ Scan(...any) error }) (*models.Session, error) {
	var s models.Session
	err := row.Scan(&s.ID, &s.Name, &s.Cookie, &s.Status, &s.CUser, &s.UserName, &s.CreatedAt, &s.VerifiedAt)
	if err != nil {
		return nil, err
	}

	cookie, err := utils.Open(s.Cookie, r.key)
	if err != nil {
		return nil, err
	}
	s.Cookie = cookie

	return &s, nil
}

func (r *sessionRepository) Create(ctx context.Context, s *models.Session) (int64, error) {
	query := `
		INSERT INTO sessions (name, cookie, status, c_user, user_name, verified_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	cookie, err := utils.Seal(s.Cookie, r.key)
	if err != nil {
		return 0, err
	}

	err = r.db.QueryRowContext(ctx, query, s.Name, cookie, s.Status, s.CUser, s.UserName, s.VerifiedAt).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return s.ID, nil
}

func (r *sessionRepository) GetByID(ctx context.Context, id int64) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`

	s, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return s, nil
}

func (r *sessionRepository) GetLatestVerified(ctx context.Context) (*models.Session, error) {
	query := `
		SELECT ` + sessionColumns + ` FROM sessions
		WHERE status = $1
		ORDER BY verified_at DESC NULLS LAST, id DESC
		LIMIT 1
	`

	s, err := r.scan(r.db.QueryRowContext(ctx, query, models.SessionStatusVerified))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return s, nil
}

func (r *sessionRepository) List(ctx context.Context) ([]*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	sessions := []*models.Session{}
	for rows.Next() {
		s, err := r.scan(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

func (r *sessionRepository) Update(ctx context.Context, s *models.Session) error {
	query := `UPDATE sessions SET name = $1, cookie = $2, status = $3 WHERE id = $4`

	cookie, err := utils.Seal(s.Cookie, r.key)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, s.Name, cookie, s.Status, s.ID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (r *sessionRepository) MarkVerified(ctx context.Context, id int64, cUser, userName string) error {
	query := `
		UPDATE sessions
		SET status = $1,
			c_user = $2,
			user_name = $3,
			name = CASE WHEN $3 = '' THEN name ELSE $3 END,
			verified_at = now()
		WHERE id = $4
	`

	_, err := r.db.ExecContext(ctx, query, models.SessionStatusVerified, cUser, userName, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (r *sessionRepository) SetStatus(ctx context.Context, id int64, status string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE sessions SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

// Delete removes the session together with its posts and pages.
func (r *sessionRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer tx.Rollback()

	for _, query := range []string{
		`DELETE FROM posts WHERE session_id = $1`,
		`DELETE FROM pages WHERE session_id = $1`,
		`DELETE FROM sessions WHERE id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, query, id); err != nil {
			slog.Info(err.Error())
			return err
		}
	}

	return tx.Commit()
}
