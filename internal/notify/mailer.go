// Package notify sends the best-effort order confirmation email. A failure
// here is logged by the caller and never fails the order.
package notify

import (
	"context"
	"html/template"
	"strings"

	"github.com/go-faster/errors"
	"gopkg.in/gomail.v2"

	"github.com/tastycart/storefront/internal/domain/checkout"
	"github.com/tastycart/storefront/internal/domain/order"
)

// Config holds the injected SMTP settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	// From is the sender address, e.g. "TastyCart <orders@tastycart.example>".
	From string
}

// Mailer sends order confirmations over SMTP. It implements
// checkout.Notifier.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

var _ checkout.Notifier = (*Mailer)(nil)

// NewMailer creates a Mailer from injected SMTP configuration.
func NewMailer(cfg Config) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Thank you for your order!</h2>
  <p>Date: {{.PaidAt.Format "January 2, 2006"}}</p>
  <h3>Order Summary:</h3>
  <p>Total: ${{.TotalPrice.StringFixed 2}}</p>
  <p>Shipping Address: {{.ShippingAddress}}</p>
  <p>Order Items:</p>
  <ul>
  {{- range .Items}}
    <li>{{.ProductName}} - ${{.Price.StringFixed 2}}{{if gt .Quantity 1}} (Qty: {{.Quantity}}){{end}}</li>
  {{- end}}
  </ul>
  <p>If you have any questions, please contact our customer service team.</p>
</div>`))

// SendOrderConfirmation renders the order summary and delivers it to the
// customer. gomail dials synchronously and carries no context; the ctx
// parameter exists to satisfy checkout.Notifier.
func (m *Mailer) SendOrderConfirmation(_ context.Context, email string, o *order.Order) error {
	var body strings.Builder
	if err := confirmationTmpl.Execute(&body, o); err != nil {
		return errors.Wrap(err, "render confirmation")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", "Order Confirmation")
	msg.SetBody("text/plain", "Thank you for your purchase! Please keep this email for your records until the order arrives.")
	msg.AddAlternative("text/html", body.String())

	if err := m.dialer.DialAndSend(msg); err != nil {
		return errors.Wrap(err, "send confirmation")
	}
	return nil
}
