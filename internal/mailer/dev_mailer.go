package mailer

import (
	"fmt"

	"github.com/kindify/kindify-gateway/pkg/logger"
)

// DevMailer prints mail to the log instead of sending it.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendRecoveryCode(toEmail, code string) error {
	logger.Info("[DEV MAIL] Recovery code",
		"to", toEmail,
		"code", code,
	)

	fmt.Printf("\n"+
		"=================================================\n"+
		"RECOVERY CODE EMAIL (DEV MODE)\n"+
		"=================================================\n"+
		"To: %s\n"+
		"Subject: Your Kindify password reset code\n"+
		"\n"+
		"Code: %s\n"+
		"=================================================\n\n",
		toEmail, code)

	return nil
}

func (d *DevMailer) SendVerificationEmail(toEmail, toName, verifyURL string) error {
	logger.Info("[DEV MAIL] Verification email",
		"to", toEmail,
		"name", toName,
		"verify_url", verifyURL,
	)

	fmt.Printf("\n"+
		"=================================================\n"+
		"VERIFICATION EMAIL (DEV MODE)\n"+
		"=================================================\n"+
		"To: %s (%s)\n"+
		"Subject: Verify your Kindify account\n"+
		"\n"+
		"Verification URL: %s\n"+
		"=================================================\n\n",
		toEmail, toName, verifyURL)

	return nil
}
