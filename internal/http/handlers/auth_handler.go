package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/ex-server/internal/dto"
	"github.com/ignatzorin/ex-server/internal/http/handlers/common"
	"github.com/ignatzorin/ex-server/internal/models"
	"github.com/ignatzorin/ex-server/internal/service"
	"github.com/ignatzorin/ex-server/internal/validation"
)

// Cookie с refresh токеном.
const (
	RefreshCookieName = "rt"
	RefreshCookiePath = "/auth"
)

// Тексты успешных ответов.
const (
	msgVerificationSent        = "Verification code sent!"
	msgVerificationAlreadySent = "A verification code has already been sent. Please check your email."
	msgUserVerified            = "User successfully verified"
	msgResetSent               = "Password reset code sent!"
	msgResetAlreadySent        = "A reset code has already been sent. Please check your email."
	msgPasswordReset           = "Password successfully reset"
)

// AuthAPI описывает операции входа и сессий.
type AuthAPI interface {
	Register(ctx context.Context, in service.RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, refreshToken string) error
}

// CodeAPI описывает операции с одноразовыми кодами.
type CodeAPI interface {
	RequestVerification(ctx context.Context, email string) (service.CodeOutcome, error)
	VerifyEmail(ctx context.Context, email, code string) (service.CodeOutcome, error)
	RequestPasswordReset(ctx context.Context, email string) (service.CodeOutcome, error)
	ResetPassword(ctx context.Context, email, code, password string) error
}

// CookieOptions задаёт параметры cookie rt.
type CookieOptions struct {
	Secure bool
	MaxAge time.Duration
}

// AuthHandler предоставляет HTTP слой для регистрации, входа и одноразовых кодов.
type AuthHandler struct {
	auth   AuthAPI
	codes  CodeAPI
	cookie CookieOptions
}

// NewAuthHandler создаёт хэндлер.
func NewAuthHandler(auth AuthAPI, codes CodeAPI, cookie CookieOptions) *AuthHandler {
	return &AuthHandler{auth: auth, codes: codes, cookie: cookie}
}

// Register обрабатывает POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	common.BindJSON(c, &req)

	if errs := validation.ValidateRegister(req.Email, req.Username, req.Password); errs.HasErrors() {
		common.RespondValidation(c, errs)
		return
	}

	user, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.IDResponse{ID: user.ID})
}

// Login обрабатывает POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	common.BindJSON(c, &req)

	if errs := validation.ValidateLogin(req.Email, req.Password); errs.HasErrors() {
		common.RespondValidation(c, errs)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)
	c.JSON(http.StatusOK, dto.NewLoginResponse(result.AccessToken, result.User))
}

// Refresh обрабатывает POST /auth/rt.
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, _ := c.Cookie(RefreshCookieName)

	accessToken, err := h.auth.Refresh(c.Request.Context(), token)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AccessTokenResponse{AccessToken: accessToken})
}

// Logout обрабатывает POST /auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, _ := c.Cookie(RefreshCookieName)

	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		common.RespondError(c, err)
		return
	}

	h.clearRefreshCookie(c)
	c.Status(http.StatusNoContent)
}

// VerifyEmail обрабатывает POST /auth/verify-email.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req dto.EmailRequest
	common.BindJSON(c, &req)

	if errs := validation.ValidateEmailOnly(req.Email); errs.HasErrors() {
		common.RespondValidation(c, errs)
		return
	}

	outcome, err := h.codes.RequestVerification(c.Request.Context(), req.Email)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	switch outcome {
	case service.AlreadyVerified:
		c.Status(http.StatusNoContent)
	case service.CodeAlreadySent:
		common.RespondMessage(c, http.StatusOK, msgVerificationAlreadySent)
	default:
		common.RespondMessage(c, http.StatusOK, msgVerificationSent)
	}
}

// VerifyCode обрабатывает POST /auth/verify-code.
func (h *AuthHandler) VerifyCode(c *gin.Context) {
	var req dto.VerifyCodeRequest
	common.BindJSON(c, &req)

	if errs := validation.ValidateVerifyCode(req.Email, req.Code); errs.HasErrors() {
		common.RespondValidation(c, errs)
		return
	}

	outcome, err := h.codes.VerifyEmail(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	if outcome == service.AlreadyVerified {
		c.Status(http.StatusNoContent)
		return
	}
	common.RespondMessage(c, http.StatusOK, msgUserVerified)
}

// ForgotPassword обрабатывает POST /auth/forgot-password.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req dto.EmailRequest
	common.BindJSON(c, &req)

	if errs := validation.ValidateEmailOnly(req.Email); errs.HasErrors() {
		common.RespondValidation(c, errs)
		return
	}

	outcome, err := h.codes.RequestPasswordReset(c.Request.Context(), req.Email)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	if outcome == service.CodeAlreadySent {
		common.RespondMessage(c, http.StatusOK, msgResetAlreadySent)
		return
	}
	common.RespondMessage(c, http.StatusOK, msgResetSent)
}

// ResetPassword обрабатывает POST /auth/reset-password.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	common.BindJSON(c, &req)

	if errs := validation.ValidateResetPassword(req.Email, req.Code, req.Password); errs.HasErrors() {
		common.RespondValidation(c, errs)
		return
	}

	if err := h.codes.ResetPassword(c.Request.Context(), req.Email, req.Code, req.Password); err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondMessage(c, http.StatusOK, msgPasswordReset)
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(RefreshCookieName, token, int(h.cookie.MaxAge/time.Second), RefreshCookiePath, "", h.cookie.Secure, true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(RefreshCookieName, "", -1, RefreshCookiePath, "", h.cookie.Secure, true)
}
