package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/ex-server/internal/models"
	"github.com/ignatzorin/ex-server/internal/repository/common"
)

// ErrSessionNotFound возвращается, когда сессии с таким refresh токеном нет.
var ErrSessionNotFound = fmt.Errorf("session: %w", common.ErrNotFound)

// SessionRepository хранит выданные refresh токены.
type SessionRepository struct {
	db *sqlx.DB
}

func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create сохраняет новую сессию.
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (user_id, refresh_token, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query, session.UserID, session.RefreshToken, session.ExpiresAt).
		Scan(&session.ID, &session.CreatedAt); err != nil {
		return fmt.Errorf("session repository: create %w", err)
	}
	return nil
}

// GetByToken ищет сессию по точному значению refresh токена.
func (r *SessionRepository) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	return common.GetByField[models.Session](ctx, r.db, "sessions", "refresh_token", token, ErrSessionNotFound)
}

// DeleteByToken удаляет сессию и возвращает количество удалённых строк.
func (r *SessionRepository) DeleteByToken(ctx context.Context, token string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE refresh_token = $1`, token)
	if err != nil {
		return 0, fmt.Errorf("session repository: delete %w", err)
	}
	return common.RowsAffected(res)
}

// DeleteExpired удаляет сессии, истёкшие к моменту now.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("session repository: delete expired %w", err)
	}
	return common.RowsAffected(res)
}
