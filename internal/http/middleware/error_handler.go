package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/ex-server/internal/logger"
	"github.com/ignatzorin/ex-server/internal/pkg/apperror"
)

// internalErrorMessage скрывает детали непредвиденных ошибок от клиента.
const internalErrorMessage = "Internal server error"

// ErrorHandler обрабатывает ошибки, добавленные через c.Error, если ответ ещё не отправлен.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		WriteError(c, c.Errors.Last().Err)
	}
}

// WriteError отправляет {"error": message}. AppError отдаётся со своим статусом,
// всё остальное логируется и маскируется под 500.
func WriteError(c *gin.Context, err error) {
	if appErr, ok := apperror.As(err); ok {
		if appErr.Cause != nil {
			logger.Log.WithFields(logrus.Fields{
				"error":  appErr.Cause.Error(),
				"code":   appErr.Code,
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			}).Warn("Request failed")
		}
		c.JSON(appErr.HTTPStatus, gin.H{"error": appErr.Message})
		return
	}

	logger.Log.WithFields(logrus.Fields{
		"error":  err.Error(),
		"path":   c.Request.URL.Path,
		"method": c.Request.Method,
	}).Error("Request error")

	c.JSON(http.StatusInternalServerError, gin.H{"error": internalErrorMessage})
}
