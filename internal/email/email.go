// Package email delivers transactional mail over SMTP.
package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/leadrail/lead-api/internal/model"
	"github.com/leadrail/lead-api/internal/repository"
)

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
}

type Service struct {
	config *Config
	dialer *gomail.Dialer
}

func NewService(config *Config) *Service {
	return &Service{
		config: config,
		dialer: gomail.NewDialer(config.Host, config.Port, config.User, config.Password),
	}
}

func (s *Service) Send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.config.From, s.config.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// MissedFollowUpAlerter emails the Admin when a lead's follow-up was
// missed. Satisfies the follow-up scheduler's Alerter.
type MissedFollowUpAlerter struct {
	email *Service
	users repository.UserRepository
}

func NewMissedFollowUpAlerter(email *Service, users repository.UserRepository) *MissedFollowUpAlerter {
	return &MissedFollowUpAlerter{email: email, users: users}
}

func (a *MissedFollowUpAlerter) MissedFollowUp(ctx context.Context, lead *model.Lead) error {
	admin, err := a.users.GetAdmin(ctx)
	if err != nil {
		return err
	}
	if admin == nil {
		return nil
	}

	subject := fmt.Sprintf("Missed follow-up: %s", lead.Name)
	body := fmt.Sprintf(`
		<p>The follow-up for lead <strong>%s</strong> scheduled on %s was missed.</p>
		<p>Mobile: %s</p>
	`, lead.Name, lead.NextFollowUp.Format("02 Jan 2006"), lead.Mobile)

	return a.email.Send(admin.Email, subject, body)
}
