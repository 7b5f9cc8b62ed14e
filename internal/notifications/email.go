package notifications

import (
	"fmt"
	"log"

	gomail "github.com/wneessen/go-mail"

	"github.com/ClassTrack/CT-Backend/internal/config"
)

// Mailer delivers transactional email. Delivery is best-effort; callers
// log failures and move on.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer sends through a configured SMTP relay.
type SMTPMailer struct {
	cfg config.SMTPConfig
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	opts := []gomail.Option{
		gomail.WithPort(m.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.cfg.Username),
		gomail.WithPassword(m.cfg.Password),
	}
	client, err := gomail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return err
	}
	return client.DialAndSend(msg)
}

// LogMailer writes the message to the log instead of sending it. Used in
// development and in tests, where SMTP is not configured.
type LogMailer struct{}

func (LogMailer) Send(to, subject, body string) error {
	log.Printf("[mail] to=%s subject=%q\n%s", to, subject, body)
	return nil
}

// FromConfig picks the SMTP mailer when a host is configured, otherwise
// the log fallback.
func FromConfig(cfg config.SMTPConfig) Mailer {
	if cfg.Host == "" {
		return LogMailer{}
	}
	return &SMTPMailer{cfg: cfg}
}

// PasswordResetMessage builds the reset email. The link lands on the
// frontend, which replays uid and token into the confirm endpoint.
func PasswordResetMessage(appLabel, link string) (subject, body string) {
	subject = fmt.Sprintf("%s - Password reset", appLabel)
	body = fmt.Sprintf(
		"Someone requested a password reset for your account.\n\n"+
			"Follow this link to choose a new password:\n\n%s\n\n"+
			"If this wasn't you, you can ignore this message.\n", link)
	return subject, body
}
