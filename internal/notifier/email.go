package notifier

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/tair/order-fulfillment/internal/order/domain"
)

// SMTPConfig holds the mail relay settings
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// EmailEmitter sends customer notifications over SMTP
type EmailEmitter struct {
	cfg       SMTPConfig
	directory Directory
}

// NewEmailEmitter creates a new SMTP-backed notification emitter
func NewEmailEmitter(cfg SMTPConfig, directory Directory) *EmailEmitter {
	return &EmailEmitter{cfg: cfg, directory: directory}
}

// Send resolves the recipient and delivers the message
func (e *EmailEmitter) Send(ctx context.Context, n domain.Notification) error {
	customer, err := e.directory.FindByID(ctx, n.CustomerID)
	if err != nil {
		return fmt.Errorf("resolve recipient: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", e.cfg.From)
	m.SetHeader("To", customer.Email)
	m.SetHeader("Subject", n.Subject)
	m.SetBody("text/plain", n.Body)

	d := gomail.NewDialer(e.cfg.Host, e.cfg.Port, e.cfg.User, e.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
