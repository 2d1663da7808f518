package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/iliyamo/sportbnb/internal/i18n"
	"github.com/iliyamo/sportbnb/internal/model"
)

// Mail is one rendered plain-text email.
type Mail struct {
	To      string
	ToName  string
	Subject string
	Body    string
}

// Sender delivers a rendered email.
type Sender interface {
	Send(ctx context.Context, m Mail) error
}

// SMTPSender delivers mail through an SMTP relay, upgrading to TLS when
// the server offers STARTTLS and authenticating when User is set.
type SMTPSender struct {
	Host     string
	Port     string
	User     string
	Pass     string
	From     string
	FromName string
	Timeout  time.Duration // per message, zero means none
}

func (s SMTPSender) Send(ctx context.Context, m Mail) error {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	addr := net.JoinHostPort(s.Host, s.Port)
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp dial %s: %w", addr, err)
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}
	c, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer func() { _ = c.Close() }()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.Host}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	if s.User != "" {
		if err := c.Auth(smtp.PlainAuth("", s.User, s.Pass, s.Host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := c.Mail(s.From); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	if err := c.Rcpt(m.To); err != nil {
		return fmt.Errorf("smtp RCPT TO: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(compose(s.From, s.FromName, m, time.Now())); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp DATA close: %w", err)
	}
	return c.Quit()
}

// compose renders RFC 5322 headers and a UTF-8 plain text body.
func compose(from, fromName string, m Mail, now time.Time) []byte {
	var b bytes.Buffer
	fromAddr := mail.Address{Name: fromName, Address: from}
	toAddr := mail.Address{Name: m.ToName, Address: m.To}
	fmt.Fprintf(&b, "From: %s\r\n", fromAddr.String())
	fmt.Fprintf(&b, "To: %s\r\n", toAddr.String())
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", m.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", now.UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	b.WriteString(strings.ReplaceAll(m.Body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return b.Bytes()
}

// LogSender logs mail instead of sending it.  The worker uses it when
// no SMTP host is configured.
type LogSender struct {
	Log zerolog.Logger
}

func (s LogSender) Send(_ context.Context, m Mail) error {
	s.Log.Info().Str("to", m.To).Str("subject", m.Subject).Msg("mail not sent, SMTP not configured")
	return nil
}

// BreakerSender guards a Sender with a circuit breaker so a dead relay
// fails fast instead of stalling every delivery for the dial timeout.
type BreakerSender struct {
	next Sender
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerSender opens the circuit after maxFailures consecutive
// failures and tries again after cooldown.
func NewBreakerSender(next Sender, maxFailures uint32, cooldown time.Duration, log zerolog.Logger) *BreakerSender {
	if maxFailures == 0 {
		maxFailures = 5
	}
	st := gobreaker.Settings{
		Name:        "smtp",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	}
	return &BreakerSender{next: next, cb: gobreaker.NewCircuitBreaker(st)}
}

func (b *BreakerSender) Send(ctx context.Context, m Mail) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Send(ctx, m)
	})
	return err
}

// State reports the breaker state ("closed", "open", "half-open").
func (b *BreakerSender) State() string { return b.cb.State().String() }

// Mailer renders events into localized emails and sends them.  It is
// the Handler run by cmd/worker.
type Mailer struct {
	catalog *i18n.Catalog
	sender  Sender
	log     zerolog.Logger
}

func NewMailer(c *i18n.Catalog, s Sender, log zerolog.Logger) *Mailer {
	return &Mailer{catalog: c, sender: s, log: log}
}

// Handle sends one email per recipient of ev.  Every recipient is
// attempted; the returned error joins the individual failures.
func (m *Mailer) Handle(ctx context.Context, ev Event) error {
	var errs []error
	for _, r := range Recipients(ev) {
		msg := m.Render(ev, r)
		if err := m.sender.Send(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("send %s to %s: %w", ev.Kind, r.Contact.Email, err))
			continue
		}
		m.log.Info().Str("event_id", ev.ID).Str("kind", string(ev.Kind)).Str("to", r.Contact.Email).Msg("mail sent")
	}
	return errors.Join(errs...)
}

// Render builds the email for one recipient in the recipient's language.
func (m *Mailer) Render(ev Event, r Recipient) Mail {
	lang := r.Contact.Lang
	vars := map[string]string{
		"name":      r.Contact.Name,
		"equipment": ev.EquipmentTitle,
		"from":      ev.DateFrom,
		"to":        ev.DateTo,
		"amount":    FormatAmount(ev.AmountCents),
		"excerpt":   ev.Excerpt,
	}
	if ev.Guest != nil {
		vars["guest"] = ev.Guest.Name
	}
	if ev.Sender != nil {
		vars["sender"] = ev.Sender.Name
	}

	prefix := "email." + string(ev.Kind) + "." + r.Role
	var body strings.Builder
	body.WriteString(m.catalog.T(lang, "email.greeting", vars))
	body.WriteString("\n\n")
	body.WriteString(m.catalog.T(lang, prefix+".body", vars))
	body.WriteString("\n\n")
	body.WriteString(m.catalog.T(lang, "email.regards", nil))
	body.WriteString("\n")
	body.WriteString(m.catalog.T(lang, "email.team", nil))

	return Mail{
		To:      r.Contact.Email,
		ToName:  r.Contact.Name,
		Subject: m.catalog.T(lang, prefix+".subject", vars),
		Body:    body.String(),
	}
}

// FormatAmount renders cents as euros, e.g. 7500 -> "€75.00".
func FormatAmount(cents int64) string {
	return fmt.Sprintf("€%.2f", model.AmountFromCents(cents))
}
