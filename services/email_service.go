package services

import (
	"fmt"
	"log"

	"gopkg.in/gomail.v2"

	"connectsphere-api/config"
	"connectsphere-api/models"
)

type EmailService struct {
	config *config.Config
	dialer *gomail.Dialer
}

func NewEmailService(cfg *config.Config) *EmailService {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)

	return &EmailService{
		config: cfg,
		dialer: dialer,
	}
}

// SendWelcomeEmail greets a newly registered user.
func (es *EmailService) SendWelcomeEmail(email, name string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("%s <%s>", es.config.FromName, es.config.FromEmail))
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Welcome to ConnectSphere")

	m.SetBody("text/plain", fmt.Sprintf(`Hello %s!

Welcome to ConnectSphere. Complete your profile to start connecting with
professionals in your area, join chapter events and grow your network.

The ConnectSphere Team`, name))

	if err := es.dialer.DialAndSend(m); err != nil {
		log.Printf("failed to send welcome email to %s: %v", email, err)
		return err
	}
	return nil
}

// SendInvitationEmails mails each invitee about a private event. Errors
// are logged per recipient; one bad address does not stop the rest.
func (es *EmailService) SendInvitationEmails(event *models.Event, organizerName string, invitees []models.User) {
	for i := range invitees {
		invitee := &invitees[i]
		if err := es.sendInvitationEmail(event, organizerName, invitee); err != nil {
			log.Printf("failed to send invitation email to %s: %v", invitee.Email, err)
		}
	}
}

func (es *EmailService) sendInvitationEmail(event *models.Event, organizerName string, invitee *models.User) error {
	m := gomail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("%s <%s>", es.config.FromName, es.config.FromEmail))
	m.SetHeader("To", invitee.Email)
	m.SetHeader("Subject", fmt.Sprintf("You're invited: %s", event.Title))

	location := "online"
	if !event.IsVirtual && event.Location != nil {
		location = *event.Location
	}

	m.SetBody("text/plain", fmt.Sprintf(`Hello %s!

%s has invited you to "%s" on %s (%s).

Log in to ConnectSphere to respond to the invitation.

The ConnectSphere Team`,
		invitee.FirstName,
		organizerName,
		event.Title,
		event.Date.Format("Monday, 2 January 2006 at 15:04"),
		location,
	))

	return es.dialer.DialAndSend(m)
}
