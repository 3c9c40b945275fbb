// Package mailer sends plain-text system mail through SendGrid.
package mailer

import (
	"context"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/Ken-Miura/career-change-supporter-sub002/internal/utils"
)

const senderName = "Career Change Supporter"

type sender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridMailer delivers one message per call. There is no retry; a failed
// send is reported to the caller as *utils.MailSendError.
type SendGridMailer struct {
	client  sender
	sandbox bool
}

func NewSendGridMailer(apiKey string, sandbox bool) *SendGridMailer {
	return &SendGridMailer{client: sendgrid.NewSendClient(apiKey), sandbox: sandbox}
}

func (m *SendGridMailer) SendMail(ctx context.Context, to, from, subject, text string) error {
	msg := mail.NewSingleEmail(
		mail.NewEmail(senderName, from),
		subject,
		mail.NewEmail("", to),
		text,
		"",
	)
	msg.TrackingSettings = &mail.TrackingSettings{
		ClickTracking: &mail.ClickTrackingSetting{
			Enable: utils.Ptr(false),
		},
	}
	if m.sandbox {
		ms := mail.NewMailSettings()
		ms.SetSandboxMode(mail.NewSetting(true))
		msg.MailSettings = ms
	}

	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		status, body := 0, ""
		if resp != nil {
			status, body = resp.StatusCode, resp.Body
		}
		return &utils.MailSendError{StatusCode: status, Body: body, Err: err}
	}
	if resp.StatusCode >= 300 {
		return &utils.MailSendError{StatusCode: resp.StatusCode, Body: resp.Body}
	}

	utils.Logger.Debugf("Mail %q sent to %s (status %d)", subject, to, resp.StatusCode)
	return nil
}
