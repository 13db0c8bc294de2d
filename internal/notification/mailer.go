// Package notification sends the service's transactional emails.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/smtp"
	"strconv"
	"time"

	"github.com/emersion/go-message/mail"
	"go.uber.org/zap"

	"github.com/Internmain07/I-INTERN/internal/config"
)

// Message is one email
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers a message
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// BrevoEndpoint is the Brevo transactional email API
const BrevoEndpoint = "https://api.brevo.com/v3/smtp/email"

// BrevoMailer sends mail through the Brevo HTTP API
type BrevoMailer struct {
	APIKey    string
	FromEmail string
	FromName  string
	Endpoint  string
	Client    *http.Client
}

type brevoAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoPayload struct {
	Sender      brevoAddress   `json:"sender"`
	To          []brevoAddress `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent,omitempty"`
	TextContent string         `json:"textContent,omitempty"`
}

// Send posts the message to Brevo
func (b *BrevoMailer) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(brevoPayload{
		Sender:      brevoAddress{Email: b.FromEmail, Name: b.FromName},
		To:          []brevoAddress{{Email: msg.To}},
		Subject:     msg.Subject,
		HTMLContent: msg.HTML,
		TextContent: msg.Text,
	})
	if err != nil {
		return err
	}

	endpoint := b.Endpoint
	if endpoint == "" {
		endpoint = BrevoEndpoint
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("api-key", b.APIKey)
	req.Header.Set("content-type", "application/json")

	client := b.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("brevo request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("brevo returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}

// SMTPMailer sends multipart mail over SMTP with PLAIN auth
type SMTPMailer struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string

	// send is smtp.SendMail, replaced in tests
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// Compose builds the MIME body of msg
func (s *SMTPMailer) Compose(msg Message) ([]byte, error) {
	var h mail.Header
	h.SetDate(time.Now())
	h.SetAddressList("From", []*mail.Address{{Name: s.FromName, Address: s.FromEmail}})
	h.SetAddressList("To", []*mail.Address{{Address: msg.To}})
	h.SetSubject(msg.Subject)

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, err
	}

	tw, err := mw.CreateInline()
	if err != nil {
		return nil, err
	}
	parts := []struct{ contentType, body string }{
		{"text/plain", msg.Text},
		{"text/html", msg.HTML},
	}
	for _, p := range parts {
		if p.body == "" {
			continue
		}
		var ph mail.InlineHeader
		ph.SetContentType(p.contentType, map[string]string{"charset": "utf-8"})
		w, err := tw.CreatePart(ph)
		if err != nil {
			return nil, err
		}
		if _, err := io.WriteString(w, p.body); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Send delivers msg through the SMTP server
func (s *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := s.Compose(msg)
	if err != nil {
		return err
	}

	send := s.send
	if send == nil {
		send = smtp.SendMail
	}
	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
	return send(addr, auth, s.FromEmail, []string{msg.To}, body)
}

// LogMailer only logs messages; used when no transport is configured
type LogMailer struct {
	Log *zap.Logger
}

// Send logs the message
func (l *LogMailer) Send(_ context.Context, msg Message) error {
	l.Log.Info("email not sent, no mail transport configured",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject))
	return nil
}

// FallbackMailer tries each mailer in order until one succeeds
type FallbackMailer struct {
	Mailers []Mailer
	Log     *zap.Logger
}

// Send delivers msg with the first mailer that succeeds
func (f *FallbackMailer) Send(ctx context.Context, msg Message) error {
	var errs []error
	for _, m := range f.Mailers {
		err := m.Send(ctx, msg)
		if err == nil {
			return nil
		}
		f.Log.Warn("mail transport failed, trying next", zap.Error(err))
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return errors.New("no mail transport configured")
	}
	return errors.Join(errs...)
}

// NewMailer picks the transports from the configuration: Brevo first, SMTP as
// fallback, logging only when neither is configured.
func NewMailer(cfg config.MailConfig, log *zap.Logger) Mailer {
	var mailers []Mailer
	if cfg.BrevoAPIKey != "" {
		mailers = append(mailers, &BrevoMailer{
			APIKey:    cfg.BrevoAPIKey,
			FromEmail: cfg.FromEmail,
			FromName:  cfg.FromName,
		})
	}
	if cfg.SMTPHost != "" && cfg.SMTPUsername != "" && cfg.SMTPPassword != "" {
		mailers = append(mailers, &SMTPMailer{
			Host:      cfg.SMTPHost,
			Port:      cfg.SMTPPort,
			Username:  cfg.SMTPUsername,
			Password:  cfg.SMTPPassword,
			FromEmail: cfg.FromEmail,
			FromName:  cfg.FromName,
		})
	}

	switch len(mailers) {
	case 0:
		return &LogMailer{Log: log}
	case 1:
		return mailers[0]
	default:
		return &FallbackMailer{Mailers: mailers, Log: log}
	}
}
