package validation

import "unicode/utf8"

// Минимальная длина пароля.
const MinPasswordLength = 8

// MsgPasswordTooShort возвращается для слишком короткого пароля.
const MsgPasswordTooShort = "Password should be at least 8 chars"

// ValidatePassword проверяет длину пароля в символах Unicode.
func ValidatePassword(password string) string {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return MsgPasswordTooShort
	}
	return ""
}

