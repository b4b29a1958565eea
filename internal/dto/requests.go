package dto

// RegisterRequest represents the request to create an account
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest represents the login credentials
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// EmailRequest is used by verify-email and forgot-password
type EmailRequest struct {
	Email string `json:"email"`
}

// VerifyCodeRequest represents the email verification code submission
type VerifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// ResetPasswordRequest represents the password reset code submission
type ResetPasswordRequest struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

// UpdateUsernameRequest represents the username change
type UpdateUsernameRequest struct {
	Username string `json:"username"`
}
