package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lib/pq"
	"github.com/maheshrc27/fbscheduler/internal/models"
)

type PageRepository interface {
	ListBySession(ctx context.Context, sessionID int64) ([]*models.Page, error)
	GetByID(ctx context.Context, sessionID int64, pageID string) (*models.Page, error)
	InsertMany(ctx context.Context, pages []*models.Page) error
	UpdateName(ctx context.Context, sessionID int64, pageID, name string) error
	SetSelected(ctx context.Context, sessionID int64, pageIDs []string, selected bool) (int64, error)
}

type pageRepository struct {
	db *sql.DB
}

func NewPageRepository(db *sql.DB) PageRepository {
	return &pageRepository{db: db}
}

func (r *pageRepository) ListBySession(ctx context.Context, sessionID int64) ([]*models.Page, error) {
	query := `SELECT id, name, session_id, is_selected FROM pages WHERE session_id = $1 ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	pages := []*models.Page{}
	for rows.Next() {
		var p models.Page
		if err := rows.Scan(&p.ID, &p.Name, &p.SessionID, &p.IsSelected); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		pages = append(pages, &p)
	}

	return pages, rows.Err()
}

// GetByID looks a page up within a session. A zero sessionID matches the
// page in any session.
func (r *pageRepository) GetByID(ctx context.Context, sessionID int64, pageID string) (*models.Page, error) {
	query := `
		SELECT id, name, session_id, is_selected FROM pages
		WHERE id = $1 AND ($2::bigint = 0 OR session_id = $2)
		ORDER BY session_id = $2::bigint DESC
		LIMIT 1
	`

	var p models.Page
	err := r.db.QueryRowContext(ctx, query, pageID, sessionID).Scan(&p.ID, &p.Name, &p.SessionID, &p.IsSelected)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &p, nil
}

// InsertMany inserts pages in one statement. Rows that already exist are
// left alone.
func (r *pageRepository) InsertMany(ctx context.Context, pages []*models.Page) error {
	if len(pages) == 0 {
		return nil
	}

	values := make([]string, 0, len(pages))
	args := make([]any, 0, len(pages)*4)
	for i, p := range pages {
		n := i * 4
		values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4))
		args = append(args, p.ID, p.Name, p.SessionID, p.IsSelected)
	}

	query := `INSERT INTO pages (id, name, session_id, is_selected) VALUES ` +
		strings.Join(values, ", ") +
		` ON CONFLICT (id, session_id) DO NOTHING`

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		slog.Info(err.Error())
		return err
	}

	return tx.Commit()
}

func (r *pageRepository) UpdateName(ctx context.Context, sessionID int64, pageID, name string) error {
	query := `UPDATE pages SET name = $1 WHERE id = $2 AND session_id = $3`

	_, err := r.db.ExecContext(ctx, query, name, pageID, sessionID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (r *pageRepository) SetSelected(ctx context.Context, sessionID int64, pageIDs []string, selected bool) (int64, error) {
	query := `UPDATE pages SET is_selected = $1 WHERE session_id = $2 AND id = ANY($3)`

	res, err := r.db.ExecContext(ctx, query, selected, sessionID, pq.Array(pageIDs))
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return res.RowsAffected()
}
