package notifications

import (
	"gopkg.in/gomail.v2"

	"github.com/goattech/giftflow/pkg/config"
)

// EmailClient sends email over SMTP
type EmailClient struct {
	dialer *gomail.Dialer
	from   string
}

// NewEmailClient creates an SMTP email client
func NewEmailClient(cfg *config.SMTPConfig) *EmailClient {
	return &EmailClient{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

// SendHTMLEmail sends a single HTML email
func (c *EmailClient) SendHTMLEmail(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", c.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	return c.dialer.DialAndSend(m)
}
