package service

import (
	"context"
	"fmt"

	"rental-marketplace-backend/internal/config"
	"rental-marketplace-backend/internal/logger"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"gopkg.in/gomail.v2"
)

// NewEmailSender builds the sender selected by cfg.Provider
func NewEmailSender(cfg config.EmailConfig) EmailSender {
	switch cfg.Provider {
	case "smtp":
		return NewSMTPEmailSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.From, cfg.FromName)
	case "sendgrid":
		return NewSendGridEmailSender(cfg.SendGridAPIKey, cfg.From, cfg.FromName)
	default:
		return NoopEmailSender{}
	}
}

type smtpEmailSender struct {
	host     string
	port     int
	username string
	password string
	from     string
	fromName string
}

func NewSMTPEmailSender(host string, port int, username, password, from, fromName string) EmailSender {
	return &smtpEmailSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		fromName: fromName,
	}
}

func (s *smtpEmailSender) Send(ctx context.Context, to, name, subject, body string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.fromName)
	m.SetAddressHeader("To", to, name)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.host, s.port, s.username, s.password)

	logger.ExternalServiceCall("smtp", "DialAndSend", "to", to, "subject", subject)
	err := d.DialAndSend(m)
	logger.ExternalServiceResult("smtp", "DialAndSend", err, "to", to)
	if err != nil {
		return fmt.Errorf("failed to send email via gomail: %w", err)
	}
	return nil
}

type sendGridEmailSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewSendGridEmailSender(apiKey, fromEmail, fromName string) EmailSender {
	return &sendGridEmailSender{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *sendGridEmailSender) Send(ctx context.Context, to, name, subject, body string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail(name, to)
	message := mail.NewSingleEmail(from, subject, recipient, body, "")

	logger.ExternalServiceCall("sendgrid", "Send", "to", to, "subject", subject)
	response, err := s.client.SendWithContext(ctx, message)
	if err == nil && response.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	logger.ExternalServiceResult("sendgrid", "Send", err, "to", to)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// NoopEmailSender drops every email; used when no provider is configured
type NoopEmailSender struct{}

func (NoopEmailSender) Send(ctx context.Context, to, name, subject, body string) error {
	logger.Debug("Email provider disabled, dropping email", "to", to, "subject", subject)
	return nil
}
