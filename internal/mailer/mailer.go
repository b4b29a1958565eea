package mailer

import (
	"context"
	"fmt"
	"html"
)

// Message описывает письмо одному получателю.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender отправляет письма.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// VerificationCodeMessage формирует письмо с кодом подтверждения email.
func VerificationCodeMessage(to, code string) Message {
	return codeMessage(to, "Your Verification Code", "Your verification code", code)
}

// ResetPasswordCodeMessage формирует письмо с кодом сброса пароля.
func ResetPasswordCodeMessage(to, code string) Message {
	return codeMessage(to, "Reset Password Code", "Your Reset Password Code", code)
}

func codeMessage(to, subject, heading, code string) Message {
	return Message{
		To:      to,
		Subject: subject,
		HTML:    fmt.Sprintf("<h2>%s</h2>\n<h1>%s</h1>", heading, html.EscapeString(code)),
		Text:    fmt.Sprintf("%s: %s", heading, code),
	}
}
