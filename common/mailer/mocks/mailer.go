package mocks

import (
	"context"

	"github.com/sri-ravi13/Orphan-Management-System/common/mailer"

	"github.com/stretchr/testify/mock"
)

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, mail mailer.Mail) error {
	args := m.Called(ctx, mail)
	return args.Error(0)
}

func (m *MockMailer) SentMails() []mailer.Mail {
	var mails []mailer.Mail
	for _, call := range m.Calls {
		if call.Method == "Send" {
			mails = append(mails, call.Arguments.Get(1).(mailer.Mail))
		}
	}
	return mails
}
