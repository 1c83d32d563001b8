package services

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/anchorhub/anchorhub-api/internal/config"
	"github.com/anchorhub/anchorhub-api/internal/models"
)

// EmailSink delivers notifications over SMTP. When SMTP is not configured it
// silently drops, so local development needs no mail server.
type EmailSink struct {
	cfg     config.SMTPConfig
	baseURL string
}

func NewEmailSink(cfg config.SMTPConfig, baseURL string) *EmailSink {
	return &EmailSink{cfg: cfg, baseURL: baseURL}
}

func (s *EmailSink) IsConfigured() bool {
	return s.cfg.Host != "" && s.cfg.Username != "" && s.cfg.Password != "" && s.cfg.From != ""
}

func (s *EmailSink) Deliver(_ context.Context, to string, n *models.Notification) error {
	if !s.IsConfigured() {
		return nil
	}

	link := ""
	if n.LinkURL != nil {
		link = fmt.Sprintf(`<p><a href="%s%s">Open in Anchor Hub</a></p>`, s.baseURL, *n.LinkURL)
	}

	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>%s</h2>
			<p>%s</p>
			%s
		</body>
		</html>
	`, n.Title, n.Body, link)

	return s.send(to, n.Title, body)
}

func (s *EmailSink) send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		s.cfg.From, to, subject, body)

	return smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg))
}
