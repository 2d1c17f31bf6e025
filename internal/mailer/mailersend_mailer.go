package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/mailersend/mailersend-go"
)

type MailerSendClient struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	enabled bool
}

func NewMailerSend(apiKey, fromName, fromEmail string) *MailerSendClient {
	m := &MailerSendClient{
		enabled: apiKey != "" && fromEmail != "",
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}

	if m.enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}

	return m
}

func (m *MailerSendClient) SendRecoveryCode(toEmail, code string) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	subject := "Your Kindify password reset code"
	html := fmt.Sprintf(`
		<h2>Password reset</h2>
		<p>Your one-time code is: <strong style="font-size: 24px;">%s</strong></p>
		<p>Enter it on the login page to choose a new password.</p>
		<p>If you didn't request a reset, you can ignore this email.</p>
	`, code)
	text := fmt.Sprintf("Your one-time password reset code is: %s", code)

	return m.sendEmail(toEmail, "", subject, text, html)
}

func (m *MailerSendClient) SendVerificationEmail(toEmail, toName, verifyURL string) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	subject := "Verify your Kindify account"
	html := fmt.Sprintf(`
		<h2>Welcome to Kindify!</h2>
		<p>Hi %s,</p>
		<p>Please verify your email address by clicking the link below:</p>
		<p><a href="%s">Verify Email</a></p>
		<p>If you didn't create an account with us, please ignore this email.</p>
	`, toName, verifyURL)
	text := fmt.Sprintf("Please verify your email by clicking this link: %s", verifyURL)

	return m.sendEmail(toEmail, toName, subject, text, html)
}

func (m *MailerSendClient) sendEmail(toEmail, toName, subject, text, html string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: toName, Email: toEmail}})
	msg.SetSubject(subject)
	msg.SetText(text)
	msg.SetHTML(html)

	_, err := m.client.Email.Send(ctx, msg)
	return err
}
