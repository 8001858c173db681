package mailer

import (
	"context"
	"fmt"

	"github.com/sri-ravi13/Orphan-Management-System/api/shared"

	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"
)

var ErrNotConfigured = errors.New("smtp transport is not configured")

type Mail struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, mail Mail) error
}

type SmtpMailer struct {
	Config *shared.AppConfig `inject:""`
}

func (m *SmtpMailer) Send(ctx context.Context, mail Mail) error {
	if !m.Config.MailConfigured() {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.Config.SmtpFrom, "Orphanage System")
	msg.SetHeader("To", mail.To)
	msg.SetHeader("Subject", mail.Subject)
	msg.SetBody("text/plain", mail.Body)

	dialer := gomail.NewDialer(m.Config.SmtpHost, m.Config.SmtpPort, m.Config.SmtpUsername, m.Config.SmtpPassword)
	if err := dialer.DialAndSend(msg); err != nil {
		return errors.Wrap(err, fmt.Sprintf("failed to send mail to %s", mail.To))
	}
	return nil
}
