package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Константы валидации
const (
	MinUsernameLength    = 6
	MinSearchQueryLength = 6
	CodeLength           = 6
)

// Сообщения об ошибках валидации. Клиенты сверяют их дословно.
const (
	MsgInvalidEmail          = "Invalid Email"
	MsgUsernameRequired      = "Username is required"
	MsgUsernameTooShort      = "Username should be at least 6 chars"
	MsgUsernameNeedsLetter   = "Name must contain at least one alphabetical character"
	MsgUsernameAlphanumeric  = "Username can only contain letters and numbers"
	MsgInvalidCode           = "Invalid Code"
	MsgSearchQueryRequired   = "Search query is required and must be a string"
	MsgSearchQueryTooShort   = "Search query must be at least 6 character long"
	MsgPictureRequired       = "Picture is required"
	MsgPictureNotImage       = "Only image files are allowed"
	msgPictureTooLargeFormat = "Picture must be at most %d MB"
)

var (
	validate = validator.New()

	letterRegex       = regexp.MustCompile(`[a-zA-Z]`)
	alphanumericRegex = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	codeRegex         = regexp.MustCompile(`^\d{6}$`)
)

// PictureTooLarge формирует сообщение о превышении размера картинки.
func PictureTooLarge(maxMB int64) string {
	return fmt.Sprintf(msgPictureTooLargeFormat, maxMB)
}

// FieldError описывает ошибку одного поля запроса.
type FieldError struct {
	Msg  string `json:"msg"`
	Path string `json:"path"`
}

// Errors содержит ошибки валидации запроса. Пустой набор означает, что запрос корректен.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Path+": "+fe.Msg)
	}
	return strings.Join(msgs, "; ")
}

// HasErrors сообщает, есть ли в наборе ошибки.
func (e Errors) HasErrors() bool {
	return len(e) > 0
}

func (e *Errors) add(path, msg string) {
	if msg != "" {
		*e = append(*e, FieldError{Msg: msg, Path: path})
	}
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) string {
	if err := validate.Var(email, "required,email"); err != nil {
		return MsgInvalidEmail
	}
	return ""
}

// ValidateUsername проверяет имя пользователя при регистрации.
func ValidateUsername(username string) string {
	if username == "" {
		return MsgUsernameRequired
	}
	if utf8.RuneCountInString(username) < MinUsernameLength {
		return MsgUsernameTooShort
	}
	if !letterRegex.MatchString(username) {
		return MsgUsernameNeedsLetter
	}
	return ""
}

// ValidateNewUsername проверяет имя пользователя при смене: только латиница и цифры.
func ValidateNewUsername(username string) string {
	if msg := ValidateUsername(username); msg != "" {
		return msg
	}
	if !alphanumericRegex.MatchString(username) {
		return MsgUsernameAlphanumeric
	}
	return ""
}

// ValidateUsernameParam проверяет username из пути запроса.
func ValidateUsernameParam(username string) string {
	if utf8.RuneCountInString(username) < MinUsernameLength {
		return MsgUsernameTooShort
	}
	return ""
}

// ValidateCode проверяет одноразовый код из шести цифр.
func ValidateCode(code string) string {
	if !codeRegex.MatchString(code) {
		return MsgInvalidCode
	}
	return ""
}

// ValidateSearchQuery проверяет поисковый запрос.
func ValidateSearchQuery(query string) string {
	if strings.TrimSpace(query) == "" {
		return MsgSearchQueryRequired
	}
	if utf8.RuneCountInString(query) < MinSearchQueryLength {
		return MsgSearchQueryTooShort
	}
	return ""
}

// ValidateRegister проверяет запрос регистрации.
func ValidateRegister(email, username, password string) Errors {
	var errs Errors
	errs.add("email", ValidateEmail(email))
	errs.add("password", ValidatePassword(password))
	errs.add("username", ValidateUsername(username))
	return errs
}

// ValidateLogin проверяет запрос входа.
func ValidateLogin(email, password string) Errors {
	var errs Errors
	errs.add("email", ValidateEmail(email))
	errs.add("password", ValidatePassword(password))
	return errs
}

// ValidateEmailOnly проверяет запросы, в которых есть только email.
func ValidateEmailOnly(email string) Errors {
	var errs Errors
	errs.add("email", ValidateEmail(email))
	return errs
}

// ValidateVerifyCode проверяет запрос подтверждения кода.
func ValidateVerifyCode(email, code string) Errors {
	var errs Errors
	errs.add("email", ValidateEmail(email))
	errs.add("code", ValidateCode(code))
	return errs
}

// ValidateResetPassword проверяет запрос сброса пароля.
func ValidateResetPassword(email, code, password string) Errors {
	var errs Errors
	errs.add("email", ValidateEmail(email))
	errs.add("password", ValidatePassword(password))
	errs.add("code", ValidateCode(code))
	return errs
}

// Single оборачивает одну ошибку поля в набор.
func Single(path, msg string) Errors {
	var errs Errors
	errs.add(path, msg)
	return errs
}
