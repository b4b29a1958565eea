package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/ex-server/internal/logger"
	"github.com/ignatzorin/ex-server/internal/models"
	"github.com/ignatzorin/ex-server/internal/pkg/apperror"
	"github.com/ignatzorin/ex-server/internal/repository"
)

// UserStore описывает зависимости сервисов от таблицы пользователей.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Search(ctx context.Context, term string, limit int) ([]models.User, error)
	UpdateUsername(ctx context.Context, id uuid.UUID, username string) (*models.User, error)
	UpdatePicture(ctx context.Context, id uuid.UUID, picture string) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	IsAdmin(ctx context.Context, id uuid.UUID) (bool, error)
}

// SessionStore описывает хранилище refresh токенов.
type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	GetByToken(ctx context.Context, token string) (*models.Session, error)
	DeleteByToken(ctx context.Context, token string) (int64, error)
}

// PictureStorage хранит картинки профиля.
type PictureStorage interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
}

// AvatarRenderer рисует картинку профиля по имени пользователя.
type AvatarRenderer interface {
	Render(name string) ([]byte, error)
}

// AuthService инкапсулирует регистрацию, вход и работу с сессиями.
type AuthService struct {
	users    UserStore
	sessions SessionStore
	hasher   PasswordHasher
	tokens   *TokenManager
	pictures PictureStorage
	avatars  AvatarRenderer
	now      func() time.Time
}

// RegisterInput содержит данные пользователя при регистрации.
type RegisterInput struct {
	Email    string
	Username string
	Password string
}

// LoginResult возвращает токены и пользователя после входа.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         *models.User
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(
	users UserStore,
	sessions SessionStore,
	hasher PasswordHasher,
	tokens *TokenManager,
	pictures PictureStorage,
	avatars AvatarRenderer,
) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		tokens:   tokens,
		pictures: pictures,
		avatars:  avatars,
		now:      time.Now,
	}
}

// Register создаёт пользователя и рисует ему картинку профиля по первой букве имени.
// Ошибка картинки не отменяет регистрацию.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("auth service: не удалось захешировать пароль: %w", err)
	}

	user := &models.User{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
	}

	if err := s.users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailTaken):
			return nil, apperror.ErrEmailTaken
		case errors.Is(err, repository.ErrUsernameTaken):
			return nil, apperror.ErrUsernameTaken
		}
		return nil, fmt.Errorf("auth service: register %w", err)
	}

	if updated, err := s.attachAvatar(ctx, user); err != nil {
		logger.Log.WithFields(logrus.Fields{
			"user_id": user.ID,
			"error":   err.Error(),
		}).Warn("auth service: не удалось создать картинку профиля")
	} else {
		user = updated
	}

	return user, nil
}

func (s *AuthService) attachAvatar(ctx context.Context, user *models.User) (*models.User, error) {
	data, err := s.avatars.Render(user.Username)
	if err != nil {
		return nil, err
	}

	ref, err := s.pictures.Save(ctx, pictureName(user.ID, ".png"), "image/png", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	updated, err := s.users.UpdatePicture(ctx, user.ID, ref)
	if err != nil {
		_ = s.pictures.Delete(ctx, ref)
		return nil, err
	}
	return updated, nil
}

// Login проверяет учётные данные, создаёт сессию и выдаёт пару токенов.
// Неизвестный email и неверный пароль неразличимы для клиента.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth service: login %w", err)
	}

	if !s.hasher.Compare(user.PasswordHash, password) {
		return nil, apperror.ErrInvalidCredentials
	}

	accessToken, err := s.tokens.IssueAccessToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("auth service: login %w", err)
	}

	refreshToken, expiresAt, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("auth service: login %w", err)
	}

	session := &models.Session{
		UserID:       user.ID,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("auth service: login %w", err)
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

// Refresh выдаёт новый access токен по refresh токену из cookie. Сам refresh токен не меняется.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", apperror.ErrAccessDenied
	}

	session, err := s.sessions.GetByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return "", apperror.ErrInvalidRefreshToken
		}
		return "", fmt.Errorf("auth service: refresh %w", err)
	}

	if !session.ExpiresAt.After(s.now()) {
		return "", apperror.ErrInvalidRefreshToken
	}

	userID, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil || userID != session.UserID {
		return "", apperror.ErrInvalidRefreshToken
	}

	accessToken, err := s.tokens.IssueAccessToken(userID)
	if err != nil {
		return "", fmt.Errorf("auth service: refresh %w", err)
	}
	return accessToken, nil
}

// Logout удаляет сессию. Отсутствующая сессия не считается ошибкой.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return apperror.ErrAccessDenied
	}

	if _, err := s.sessions.DeleteByToken(ctx, refreshToken); err != nil {
		return fmt.Errorf("auth service: logout %w", err)
	}
	return nil
}

// Authenticate проверяет access токен и существование его владельца.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (uuid.UUID, error) {
	if accessToken == "" {
		return uuid.Nil, apperror.ErrAccessTokenMissing
	}

	userID, err := s.tokens.ParseAccess(accessToken)
	if err != nil {
		return uuid.Nil, apperror.ErrInvalidToken
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return uuid.Nil, apperror.ErrTokenUserGone
		}
		return uuid.Nil, fmt.Errorf("auth service: authenticate %w", err)
	}

	return userID, nil
}

// IsAdmin сообщает, есть ли у пользователя права администратора.
// Ошибка хранилища трактуется как отказ.
func (s *AuthService) IsAdmin(ctx context.Context, userID uuid.UUID) bool {
	ok, err := s.users.IsAdmin(ctx, userID)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err.Error(),
		}).Error("auth service: не удалось проверить права администратора")
		return false
	}
	return ok
}

// pictureName строит уникальное имя файла картинки профиля.
func pictureName(userID uuid.UUID, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fmt.Sprintf("%s_profile_%s%s", userID, uuid.NewString()[:8], ext)
}
