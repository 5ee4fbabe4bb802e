// Package mail delivers notifications as HTML email over SMTP.
package mail

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"

	"gopkg.in/gomail.v2"

	"github.com/Africa-Access-Water/afaw-api/internal/money"
	"github.com/Africa-Access-Water/afaw-api/internal/notify"
)

//go:embed templates/*.html
var templateFS embed.FS

var ErrNoRecipients = errors.New("notification has no recipients")

// Dialer is satisfied by *gomail.Dialer.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type Mailer struct {
	dialer   Dialer
	from     string
	fromName string
	tmpl     *template.Template
}

// New connects to the SMTP server on every send. Port 465 uses implicit TLS.
func New(host string, port int, user, password, fromName string) (*Mailer, error) {
	return NewWithDialer(gomail.NewDialer(host, port, user, password), user, fromName)
}

func NewWithDialer(d Dialer, from, fromName string) (*Mailer, error) {
	tmpl, err := template.New("mail").
		Funcs(template.FuncMap{"money": money.Format}).
		ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing mail templates: %w", err)
	}

	return &Mailer{dialer: d, from: from, fromName: fromName, tmpl: tmpl}, nil
}

func (m *Mailer) Send(ctx context.Context, n notify.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(n.To) == 0 {
		return ErrNoRecipients
	}

	subject, body, err := m.Render(n)
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", msg.FormatAddress(m.from, m.fromName))
	msg.SetHeader("To", n.To...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	for _, a := range n.Attachments {
		content := a.Content
		msg.Attach(a.Filename,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(content)
				return err
			}),
			gomail.SetHeader(map[string][]string{"Content-Type": {a.ContentType}}),
		)
	}

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending %s email: %w", n.Kind, err)
	}

	slog.Info("email sent", "kind", n.Kind, "recipients", len(n.To), "attachments", len(n.Attachments))

	return nil
}

type view struct {
	Title      string
	Org        string
	Name       string
	Retry      bool
	HasReceipt bool
	Data       notify.Data
}

// Render returns the subject and HTML body for a notification.
func (m *Mailer) Render(n notify.Notification) (string, string, error) {
	subject, title := headings(n)

	v := view{
		Title:      title,
		Org:        m.fromName,
		Name:       n.Data.DonorName,
		Retry:      n.Data.Attempt > 1,
		HasReceipt: len(n.Attachments) > 0,
		Data:       n.Data,
	}

	if v.Name == "" {
		v.Name = "Valued Donor"
	}

	var buf bytes.Buffer
	if err := m.tmpl.ExecuteTemplate(&buf, string(n.Kind)+".html", v); err != nil {
		return "", "", fmt.Errorf("rendering %s email: %w", n.Kind, err)
	}

	return subject, buf.String(), nil
}

func headings(n notify.Notification) (subject, title string) {
	d := n.Data
	amount := money.Format(d.Amount, d.Currency)

	donor := d.DonorName
	if donor == "" {
		donor = "Unknown Donor"
	}

	switch n.Kind {
	case notify.KindDonorConfirmation:
		return "Thank you for your donation of " + amount, "Thank You for Your Donation"
	case notify.KindAdminNewDonation:
		return "New Donation Received: " + amount, "New Donation Received"
	case notify.KindDonorAmountChanged:
		return "Your Recurring Donation Amount Has Been Updated", "Donation Amount Updated"
	case notify.KindAdminAmountChanged:
		return "Subscription Amount Updated - " + donor, "Subscription Amount Updated"
	case notify.KindDonorSubscriptionCanceled:
		return "Your Recurring Donation Has Been Cancelled", "Recurring Donation Cancelled"
	case notify.KindAdminSubscriptionCanceled:
		return "Subscription Cancelled - " + donor, "Subscription Cancelled"
	case notify.KindDonorPaymentFailed:
		if d.Attempt > 1 {
			return fmt.Sprintf("Payment Still Failed - Attempt %d", d.Attempt), "Payment Failed"
		}

		return "Payment Failed - Action Required", "Payment Failed"
	case notify.KindDonorSubscriptionAutoCanceled:
		return "Subscription Cancelled - Payment Failed", "Subscription Cancelled"
	}

	return string(n.Kind), string(n.Kind)
}
