package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/ex-server/internal/logger"
	"github.com/ignatzorin/ex-server/internal/models"
	"github.com/ignatzorin/ex-server/internal/pkg/apperror"
	"github.com/ignatzorin/ex-server/internal/repository"
	"github.com/ignatzorin/ex-server/internal/storage"
)

// SearchLimit ограничивает количество результатов поиска.
const SearchLimit = 20

// ErrPictureTooLarge возвращается, когда хранилище отвергло файл по размеру.
var ErrPictureTooLarge = apperror.New(apperror.ErrCodeValidation, "Picture is too large")

// PictureUpload содержит проверенный файл картинки профиля.
type PictureUpload struct {
	Ext         string
	ContentType string
	Body        io.Reader
}

// UserService реализует операции с профилем пользователя.
type UserService struct {
	users    UserStore
	pictures PictureStorage
}

func NewUserService(users UserStore, pictures PictureStorage) *UserService {
	return &UserService{users: users, pictures: pictures}
}

// Me возвращает текущего пользователя.
func (s *UserService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapUserErr("me", err)
	}
	return user, nil
}

// GetByUsername ищет пользователя по точному username.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, mapUserErr("get by username", err)
	}
	return user, nil
}

// ListAll возвращает всех пользователей (для администраторов).
func (s *UserService) ListAll(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("user service: list %w", err)
	}
	return users, nil
}

// Search ищет пользователей по подстроке username или email.
func (s *UserService) Search(ctx context.Context, query string) ([]models.User, error) {
	users, err := s.users.Search(ctx, query, SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("user service: search %w", err)
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// UpdateUsername меняет username текущего пользователя.
func (s *UserService) UpdateUsername(ctx context.Context, userID uuid.UUID, username string) (*models.User, error) {
	user, err := s.users.UpdateUsername(ctx, userID, username)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return nil, apperror.ErrUsernameTaken
		}
		return nil, mapUserErr("update username", err)
	}
	return user, nil
}

// UpdatePicture сохраняет новую картинку профиля и удаляет предыдущую.
func (s *UserService) UpdatePicture(ctx context.Context, userID uuid.UUID, upload PictureUpload) (*models.User, error) {
	current, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapUserErr("update picture", err)
	}

	ref, err := s.pictures.Save(ctx, pictureName(userID, upload.Ext), upload.ContentType, upload.Body)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, ErrPictureTooLarge
		}
		return nil, fmt.Errorf("user service: save picture %w", err)
	}

	updated, err := s.users.UpdatePicture(ctx, userID, ref)
	if err != nil {
		s.dropPicture(ctx, userID, ref)
		return nil, mapUserErr("update picture", err)
	}

	if current.ProfilePicture != nil && *current.ProfilePicture != ref {
		s.dropPicture(ctx, userID, *current.ProfilePicture)
	}

	return updated, nil
}

// Delete удаляет текущего пользователя и возвращает количество удалённых записей.
func (s *UserService) Delete(ctx context.Context, userID uuid.UUID) (int64, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return 0, mapUserErr("delete", err)
	}

	count, err := s.users.Delete(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("user service: delete %w", err)
	}
	if count == 0 {
		return 0, apperror.ErrUserNotFound
	}

	if user.ProfilePicture != nil {
		s.dropPicture(ctx, userID, *user.ProfilePicture)
	}

	return count, nil
}

func (s *UserService) dropPicture(ctx context.Context, userID uuid.UUID, ref string) {
	if err := s.pictures.Delete(ctx, ref); err != nil {
		logger.Log.WithFields(logrus.Fields{
			"user_id": userID,
			"picture": ref,
			"error":   err.Error(),
		}).Warn("user service: не удалось удалить картинку профиля")
	}
}

func mapUserErr(op string, err error) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return apperror.ErrUserNotFound
	}
	return fmt.Errorf("user service: %s %w", op, err)
}
