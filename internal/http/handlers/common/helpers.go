package common

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/ex-server/internal/dto"
	"github.com/ignatzorin/ex-server/internal/http/middleware"
	"github.com/ignatzorin/ex-server/internal/validation"
)

// ErrUserNotInContext возвращается, если маршрут вызван без AuthMiddleware.
var ErrUserNotInContext = errors.New("пользователь не найден в контексте")

// CurrentUserID извлекает ID пользователя, проставленный AuthMiddleware.
func CurrentUserID(c *gin.Context) (uuid.UUID, error) {
	raw, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return uuid.Nil, ErrUserNotInContext
	}

	userID, ok := raw.(uuid.UUID)
	if !ok {
		return uuid.Nil, ErrUserNotInContext
	}

	return userID, nil
}

// BindJSON читает тело запроса. Пустое или битое тело оставляет поля пустыми,
// чтобы клиент получил ошибки валидации по полям.
func BindJSON(c *gin.Context, req interface{}) {
	_ = c.ShouldBindJSON(req)
}

// RespondError отправляет ошибку в стандартном формате {"error": message}.
func RespondError(c *gin.Context, err error) {
	middleware.WriteError(c, err)
}

// RespondValidation отправляет 422 со списком ошибок по полям.
func RespondValidation(c *gin.Context, errs validation.Errors) {
	c.JSON(http.StatusUnprocessableEntity, dto.ValidationErrorResponse{Errors: errs})
}

// RespondMessage отправляет {"message": message}.
func RespondMessage(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, dto.MessageResponse{Message: message})
}
