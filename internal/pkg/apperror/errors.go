package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest   ErrorCode = "BAD_REQUEST"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeDelivery     ErrorCode = "DELIVERY_ERROR"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по коду и сообщению, чтобы errors.Is работал
// и для обёрнутых через Wrap копий предопределённых ошибок.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest:
		return http.StatusBadRequest
	case ErrCodeValidation:
		return http.StatusUnprocessableEntity
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeDelivery:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// As достаёт AppError из цепочки ошибок.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func IsNotFound(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == ErrCodeNotFound
}

func IsValidation(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == ErrCodeValidation
}

func IsDelivery(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == ErrCodeDelivery
}

// Ошибки учётных данных и токенов. Тексты намеренно общие.
var (
	ErrInvalidCredentials  = New(ErrCodeUnauthorized, "Invalid credentials")
	ErrUnknownEmail        = New(ErrCodeNotFound, "Invalid credentials")
	ErrAccessDenied        = New(ErrCodeForbidden, "Access denied, token missing!")
	ErrInvalidRefreshToken = New(ErrCodeForbidden, "Invalid refresh token")
	ErrAccessTokenMissing  = New(ErrCodeUnauthorized, "Access token is missing")
	ErrInvalidToken        = New(ErrCodeForbidden, "Invalid token")
	ErrTokenUserGone       = New(ErrCodeNotFound, "Invalid token")
	ErrNotAdmin            = New(ErrCodeForbidden, "Unauthorized")
)

// Ошибки одноразовых кодов.
var (
	ErrInvalidVerificationCode = New(ErrCodeBadRequest, "Invalid or expired verification code")
	ErrInvalidResetCode        = New(ErrCodeBadRequest, "Invalid or expired reset code")
	ErrVerificationDelivery    = New(ErrCodeDelivery, "Can't send the Verification code, try again!")
	ErrResetDelivery           = New(ErrCodeDelivery, "Failed to send the reset code. Please try again.")
)

// Ошибки аккаунта.
var (
	ErrUserNotFound  = New(ErrCodeNotFound, "User not found")
	ErrEmailTaken    = New(ErrCodeConflict, "The provided email already exists")
	ErrUsernameTaken = New(ErrCodeConflict, "The provided username already exists")
)
