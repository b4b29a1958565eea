package dto

import (
	"github.com/google/uuid"

	"github.com/ignatzorin/ex-server/internal/models"
	"github.com/ignatzorin/ex-server/internal/validation"
)

// LoginResponse is returned after a successful login
type LoginResponse struct {
	AccessToken string             `json:"accessToken"`
	User        models.UserSummary `json:"user"`
}

// NewLoginResponse builds the login response from the issued access token
func NewLoginResponse(accessToken string, user *models.User) LoginResponse {
	return LoginResponse{AccessToken: accessToken, User: user.Summary()}
}

// AccessTokenResponse is returned by the refresh endpoint
type AccessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// IDResponse carries the id of a created account
type IDResponse struct {
	ID uuid.UUID `json:"id"`
}

// CountResponse carries the number of deleted records
type CountResponse struct {
	Count int64 `json:"count"`
}

// MessageResponse represents an informational response
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationErrorResponse lists per-field validation failures
type ValidationErrorResponse struct {
	Errors validation.Errors `json:"errors"`
}

// HealthResponse reports service and database status
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}
