package mailer

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogMailer пишет письма в лог вместо отправки. Используется в development без RESEND_API_KEY.
type LogMailer struct {
	log logrus.FieldLogger
}

func NewLogMailer(log logrus.FieldLogger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.log.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info(msg.Text)
	return nil
}
