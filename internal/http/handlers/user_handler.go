package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/ignatzorin/ex-server/internal/dto"
	"github.com/ignatzorin/ex-server/internal/http/handlers/common"
	"github.com/ignatzorin/ex-server/internal/models"
	"github.com/ignatzorin/ex-server/internal/service"
	"github.com/ignatzorin/ex-server/internal/validation"
)

// Столько байт читается для определения типа файла.
const sniffLen = 512

// Запас на заголовки multipart поверх лимита файла.
const multipartOverhead = 64 << 10

// AccountAPI описывает операции с профилем пользователя.
type AccountAPI interface {
	Me(ctx context.Context, userID uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	ListAll(ctx context.Context) ([]models.User, error)
	Search(ctx context.Context, query string) ([]models.User, error)
	UpdateUsername(ctx context.Context, userID uuid.UUID, username string) (*models.User, error)
	UpdatePicture(ctx context.Context, userID uuid.UUID, upload service.PictureUpload) (*models.User, error)
	Delete(ctx context.Context, userID uuid.UUID) (int64, error)
}

// UserHandler управляет профилем текущего пользователя и поиском.
type UserHandler struct {
	users       AccountAPI
	maxUploadMB int64
}

// NewUserHandler создаёт хэндлер.
func NewUserHandler(users AccountAPI, maxUploadMB int64) *UserHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 1
	}
	return &UserHandler{users: users, maxUploadMB: maxUploadMB}
}

// Me обрабатывает GET /user/me.
func (h *UserHandler) Me(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	user, err := h.users.Me(c.Request.Context(), userID)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetByUsername обрабатывает GET /user/get/:username.
func (h *UserHandler) GetByUsername(c *gin.Context) {
	username := c.Param("username")
	if msg := validation.ValidateUsernameParam(username); msg != "" {
		common.RespondValidation(c, validation.Single("username", msg))
		return
	}

	user, err := h.users.GetByUsername(c.Request.Context(), username)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ListAll обрабатывает GET /user/all (только для администраторов).
func (h *UserHandler) ListAll(c *gin.Context) {
	users, err := h.users.ListAll(c.Request.Context())
	if err != nil {
		common.RespondError(c, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	c.JSON(http.StatusOK, users)
}

// Search обрабатывает GET /user/search?query=.
func (h *UserHandler) Search(c *gin.Context) {
	query := c.Query("query")
	if msg := validation.ValidateSearchQuery(query); msg != "" {
		common.RespondValidation(c, validation.Single("query", msg))
		return
	}

	users, err := h.users.Search(c.Request.Context(), query)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// UpdateUsername обрабатывает PUT /user/username.
func (h *UserHandler) UpdateUsername(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	var req dto.UpdateUsernameRequest
	common.BindJSON(c, &req)

	if msg := validation.ValidateNewUsername(req.Username); msg != "" {
		common.RespondValidation(c, validation.Single("username", msg))
		return
	}

	user, err := h.users.UpdateUsername(c.Request.Context(), userID, req.Username)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateImage обрабатывает PUT /user/update-image (multipart, поле picture).
func (h *UserHandler) UpdateImage(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	maxBytes := h.maxUploadMB << 20
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)

	header, err := c.FormFile("picture")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondTooLarge(c)
			return
		}
		common.RespondValidation(c, validation.Single("picture", validation.MsgPictureRequired))
		return
	}

	if header.Size > maxBytes {
		h.respondTooLarge(c)
		return
	}

	file, err := header.Open()
	if err != nil {
		common.RespondError(c, err)
		return
	}
	defer file.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		common.RespondError(c, err)
		return
	}
	head = head[:n]

	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown || !filetype.IsImage(head) {
		common.RespondValidation(c, validation.Single("picture", validation.MsgPictureNotImage))
		return
	}

	user, err := h.users.UpdatePicture(c.Request.Context(), userID, service.PictureUpload{
		Ext:         kind.Extension,
		ContentType: kind.MIME.Value,
		Body:        io.MultiReader(bytes.NewReader(head), file),
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Delete обрабатывает DELETE /user/.
func (h *UserHandler) Delete(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	count, err := h.users.Delete(c.Request.Context(), userID)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CountResponse{Count: count})
}

func (h *UserHandler) respondTooLarge(c *gin.Context) {
	common.RespondValidation(c, validation.Single("picture", validation.PictureTooLarge(h.maxUploadMB)))
}
