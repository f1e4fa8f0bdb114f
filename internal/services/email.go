package services

import (
	"crypto/tls"
	"fmt"
	"time"

	"github.com/princeprakhar/review-catalog-backend/internal/config"
	"gopkg.in/gomail.v2"
)

// Mailer delivers admin notifications.
type Mailer interface {
	SendBackfillReport(to string, report BackfillReport) error
}

type EmailService struct {
	config *config.Config
}

func NewEmailService(config *config.Config) *EmailService {
	return &EmailService{config: config}
}

func (s *EmailService) SendEmail(to, subject, body string, attachmentPath ...string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.FromEmail)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", s.wrap(subject, body))

	for _, path := range attachmentPath {
		if path != "" {
			m.Attach(path)
		}
	}

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)
	d.TLSConfig = &tls.Config{ServerName: s.config.SMTPHost}

	return d.DialAndSend(m)
}

func (s *EmailService) SendBackfillReport(to string, report BackfillReport) error {
	status := "completed"
	if report.Cancelled {
		status = "was cancelled"
	}
	subject := fmt.Sprintf("Catalog backfill %s", status)
	body := fmt.Sprintf(`
		<p>The image and verification backfill %s after %s.</p>
		<table>
			<tr><td>Products in catalog</td><td>%d</td></tr>
			<tr><td>Processed</td><td>%d</td></tr>
			<tr><td>Images generated</td><td>%d</td></tr>
			<tr><td>Verified</td><td>%d</td></tr>
			<tr><td>Errors</td><td>%d</td></tr>
		</table>
	`, status, report.Duration.Round(time.Second), report.Total, report.Processed, report.ImagesGenerated, report.Verified, report.Errors)

	return s.SendEmail(to, subject, body)
}

func (s *EmailService) wrap(title, content string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #4CAF50; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background-color: #f9f9f9; }
        td { padding: 4px 12px 4px 0; }
        .footer { padding: 20px; text-align: center; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header"><h1>%s</h1></div>
        <div class="content">%s</div>
        <div class="footer"><p>This is an automated message, please do not reply to this email.</p></div>
    </div>
</body>
</html>`, title, content)
}
