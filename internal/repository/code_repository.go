package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/ex-server/internal/models"
	"github.com/ignatzorin/ex-server/internal/repository/common"
)

// ErrCodeNotFound возвращается, когда действующего кода нет или он не совпал.
var ErrCodeNotFound = fmt.Errorf("one-time code: %w", common.ErrNotFound)

// CodeRepository работает с таблицей verification_codes.
// Назначение кода в таблице не хранится: один активный код на пользователя.
type CodeRepository struct {
	db *sqlx.DB
}

func NewCodeRepository(db *sqlx.DB) *CodeRepository {
	return &CodeRepository{db: db}
}

// FindActive возвращает любой неистёкший код пользователя.
func (r *CodeRepository) FindActive(ctx context.Context, userID uuid.UUID, now time.Time) (*models.OneTimeCode, error) {
	var code models.OneTimeCode
	query := `
		SELECT id, user_id, code, expires_at, created_at
		FROM verification_codes
		WHERE user_id = $1 AND expires_at > $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	if err := r.db.GetContext(ctx, &code, query, userID, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCodeNotFound
		}
		return nil, fmt.Errorf("code repository: find active %w", err)
	}
	return &code, nil
}

// Create сохраняет новый код.
func (r *CodeRepository) Create(ctx context.Context, code *models.OneTimeCode) error {
	query := `
		INSERT INTO verification_codes (user_id, code, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query, code.UserID, code.Code, code.ExpiresAt).
		Scan(&code.ID, &code.CreatedAt); err != nil {
		return fmt.Errorf("code repository: create %w", err)
	}
	return nil
}

// VerifyUser гасит код и помечает пользователя подтверждённым в одной транзакции.
func (r *CodeRepository) VerifyUser(ctx context.Context, userID uuid.UUID, code string, now time.Time) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := consumeCode(ctx, tx, userID, code, now); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE users SET verified = TRUE WHERE id = $1`, userID); err != nil {
			return fmt.Errorf("code repository: mark verified %w", err)
		}
		return nil
	})
}

// ResetPassword гасит код, перезаписывает хэш пароля и отзывает все сессии пользователя.
// hashPassword вызывается только после того, как код совпал и удалён.
func (r *CodeRepository) ResetPassword(ctx context.Context, userID uuid.UUID, code string, hashPassword func() (string, error), now time.Time) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := consumeCode(ctx, tx, userID, code, now); err != nil {
			return err
		}
		passwordHash, err := hashPassword()
		if err != nil {
			return fmt.Errorf("code repository: hash password %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, userID, passwordHash); err != nil {
			return fmt.Errorf("code repository: update password %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("code repository: revoke sessions %w", err)
		}
		return nil
	})
}

// DeleteExpired удаляет коды, истёкшие к моменту now.
func (r *CodeRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM verification_codes WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("code repository: delete expired %w", err)
	}
	return common.RowsAffected(res)
}

// consumeCode удаляет совпавший код. Если строку уже удалил параллельный запрос, вернётся ErrCodeNotFound.
func consumeCode(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, code string, now time.Time) error {
	res, err := tx.ExecContext(ctx, `
		DELETE FROM verification_codes
		WHERE user_id = $1 AND code = $2 AND expires_at > $3
	`, userID, code, now)
	if err != nil {
		return fmt.Errorf("code repository: consume %w", err)
	}
	n, err := common.RowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCodeNotFound
	}
	return nil
}
