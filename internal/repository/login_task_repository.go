package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/fbscheduler/internal/models"
)

type LoginTaskRepository interface {
	Create(ctx context.Context, t *models.LoginTask) error
	GetByID(ctx context.Context, id string) (*models.LoginTask, error)
	MarkSucceeded(ctx context.Context, id string, sessionID int64) error
	MarkFailed(ctx context.Context, id string, message string) error
}

type loginTaskRepository struct {
	db *sql.DB
}

func NewLoginTaskRepository(db *sql.DB) LoginTaskRepository {
	return &loginTaskRepository{db: db}
}

func (r *loginTaskRepository) Create(ctx context.Context, t *models.LoginTask) error {
	query := `
		INSERT INTO login_tasks (id, identity, status)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query, t.ID, t.Identity, t.Status).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (r *loginTaskRepository) GetByID(ctx context.Context, id string) (*models.LoginTask, error) {
	query := `
		SELECT id, identity, status, error, session_id, created_at, updated_at
		FROM login_tasks WHERE id = $1
	`

	var t models.LoginTask
	err := r.db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Identity, &t.Status, &t.Error, &t.SessionID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &t, nil
}

func (r *loginTaskRepository) MarkSucceeded(ctx context.Context, id string, sessionID int64) error {
	query := `UPDATE login_tasks SET status = $1, session_id = $2, error = NULL, updated_at = now() WHERE id = $3`

	_, err := r.db.ExecContext(ctx, query, models.LoginTaskSucceeded, sessionID, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (r *loginTaskRepository) MarkFailed(ctx context.Context, id string, message string) error {
	query := `UPDATE login_tasks SET status = $1, error = $2, updated_at = now() WHERE id = $3`

	_, err := r.db.ExecContext(ctx, query, models.LoginTaskFailed, message, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}
