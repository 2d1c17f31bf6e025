// Package mailer delivers one-time recovery codes for the dev stub of the
// platform API.
package mailer

type Service interface {
	SendRecoveryCode(toEmail, code string) error
	SendVerificationEmail(toEmail, toName, verifyURL string) error
}
