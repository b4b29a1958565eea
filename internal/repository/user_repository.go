package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/ex-server/internal/models"
	"github.com/ignatzorin/ex-server/internal/repository/common"
)

var (
	// ErrUserNotFound возвращается, когда запись пользователя не найдена.
	ErrUserNotFound = fmt.Errorf("user: %w", common.ErrNotFound)
	// ErrEmailTaken возвращается при нарушении уникальности email.
	ErrEmailTaken = fmt.Errorf("email: %w", common.ErrAlreadyExists)
	// ErrUsernameTaken возвращается при нарушении уникальности username.
	ErrUsernameTaken = fmt.Errorf("username: %w", common.ErrAlreadyExists)
)

// Имена ограничений из миграции 00001_init.sql.
const (
	usersEmailKey    = "users_email_key"
	usersUsernameKey = "users_username_key"
)

const userColumns = `id, email, username, password_hash, verified, profile_picture, created_at`

// UserRepository отвечает за таблицы users и admins.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository создаёт экземпляр репозитория.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create сохраняет нового пользователя и заполняет сгенерированные базой поля.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, username, password_hash, profile_picture)
		VALUES ($1, $2, $3, $4)
		RETURNING id, verified, created_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		user.Email, user.Username, user.PasswordHash, user.ProfilePicture,
	).Scan(&user.ID, &user.Verified, &user.CreatedAt); err != nil {
		if mapped := mapUserConflict(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("user repository: create %w", err)
	}

	return nil
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return common.GetByField[models.User](ctx, r.db, "users", "id", id, ErrUserNotFound)
}

// GetByEmail возвращает пользователя по email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return common.GetByField[models.User](ctx, r.db, "users", "email", email, ErrUserNotFound)
}

// GetByUsername возвращает пользователя по username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return common.GetByField[models.User](ctx, r.db, "users", "username", username, ErrUserNotFound)
}

// List возвращает всех пользователей в порядке регистрации.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	users := make([]models.User, 0)
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC`
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("user repository: list %w", err)
	}
	return users, nil
}

// Search ищет пользователей по подстроке в username или email без учёта регистра.
func (r *UserRepository) Search(ctx context.Context, term string, limit int) ([]models.User, error) {
	users := make([]models.User, 0)
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE username ILIKE $1 OR email ILIKE $1
		ORDER BY username ASC
		LIMIT $2
	`
	pattern := "%" + common.EscapeLike(term) + "%"
	if err := r.db.SelectContext(ctx, &users, query, pattern, limit); err != nil {
		return nil, fmt.Errorf("user repository: search %w", err)
	}
	return users, nil
}

// UpdateUsername меняет username и возвращает обновлённую запись.
func (r *UserRepository) UpdateUsername(ctx context.Context, id uuid.UUID, username string) (*models.User, error) {
	var user models.User
	query := `UPDATE users SET username = $2 WHERE id = $1 RETURNING ` + userColumns
	if err := r.db.GetContext(ctx, &user, query, id, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		if mapped := mapUserConflict(err); mapped != nil {
			return nil, mapped
		}
		return nil, fmt.Errorf("user repository: update username %w", err)
	}
	return &user, nil
}

// UpdatePicture сохраняет ссылку на картинку профиля и возвращает обновлённую запись.
func (r *UserRepository) UpdatePicture(ctx context.Context, id uuid.UUID, picture string) (*models.User, error) {
	var user models.User
	query := `UPDATE users SET profile_picture = $2 WHERE id = $1 RETURNING ` + userColumns
	if err := r.db.GetContext(ctx, &user, query, id, picture); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: update picture %w", err)
	}
	return &user, nil
}

// Delete удаляет пользователя. Сессии, коды и права администратора удаляются каскадно.
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("user repository: delete %w", err)
	}
	return common.RowsAffected(res)
}

// IsAdmin проверяет наличие записи в admins.
func (r *UserRepository) IsAdmin(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM admins WHERE user_id = $1)`
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, fmt.Errorf("user repository: is admin %w", err)
	}
	return exists, nil
}

// GrantAdmin выдаёт права администратора пользователю с указанным email.
func (r *UserRepository) GrantAdmin(ctx context.Context, email string) (*models.User, error) {
	user, err := r.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	query := `INSERT INTO admins (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, user.ID); err != nil {
		return nil, fmt.Errorf("user repository: grant admin %w", err)
	}
	return user, nil
}

// mapUserConflict переводит нарушение уникальности в доменную ошибку.
func mapUserConflict(err error) error {
	constraint, ok := common.UniqueViolation(err)
	if !ok {
		return nil
	}
	switch constraint {
	case usersEmailKey:
		return ErrEmailTaken
	case usersUsernameKey:
		return ErrUsernameTaken
	default:
		return fmt.Errorf("user repository: %s %w", constraint, common.ErrAlreadyExists)
	}
}
