package mailer

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"
	"net/url"
	"strconv"
	"strings"

	"github.com/loussodesigns/opts/pkg/config"
)

const (
	TemplateRegistration = "registration"
	TemplateStaffWelcome = "staff_welcome"

	registrationSubject = "Complete Your Registration"
	staffWelcomeSubject = "Welcome to the Lousso Designs Order Tracker"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Mailer sends the transactional emails of the order tracker.
type Mailer interface {
	SendRegistrationEmail(ctx context.Context, to, token string, orderID int64) error
	SendStaffWelcome(ctx context.Context, to, name string) error
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTP delivers mail through a plain-auth SMTP relay.
type SMTP struct {
	cfg     config.MailConfig
	baseURL string
	send    sendFunc
}

func NewSMTP(cfg config.MailConfig, baseURL string) (*SMTP, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("smtp host is required")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, errors.New("mail from address is required")
	}
	return &SMTP{cfg: cfg, baseURL: strings.TrimRight(baseURL, "/"), send: smtp.SendMail}, nil
}

// New returns an SMTP mailer when mail is enabled, otherwise a no-op.
func New(cfg config.MailConfig, baseURL string) (Mailer, error) {
	if !cfg.Enabled {
		return NoOp{}, nil
	}
	return NewSMTP(cfg, baseURL)
}

func (s *SMTP) SendRegistrationEmail(ctx context.Context, to, token string, orderID int64) error {
	body, err := render(TemplateRegistration, map[string]string{
		"RegisterURL": RegistrationURL(s.baseURL, token, orderID),
		"LoginURL":    s.baseURL + "/login",
	})
	if err != nil {
		return err
	}
	return s.deliver(ctx, to, registrationSubject, body)
}

func (s *SMTP) SendStaffWelcome(ctx context.Context, to, name string) error {
	body, err := render(TemplateStaffWelcome, map[string]string{
		"Name":     name,
		"LoginURL": s.baseURL + "/login",
	})
	if err != nil {
		return err
	}
	return s.deliver(ctx, to, staffWelcomeSubject, body)
}

func (s *SMTP) deliver(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.ContainsAny(to, "\r\n") || strings.ContainsAny(subject, "\r\n") {
		return errors.New("mail header contains newline")
	}

	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	}

	msg := buildMessage(s.cfg.From, to, subject, htmlBody)
	if err := s.send(s.cfg.Addr(), auth, s.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

// RegistrationURL is the one-time link a new customer follows to set a password.
func RegistrationURL(baseURL, token string, orderID int64) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("order_id", strconv.FormatInt(orderID, 10))
	return strings.TrimRight(baseURL, "/") + "/register?" + q.Encode()
}

func buildMessage(from, to, subject, htmlBody string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}

func render(name string, data any) (string, error) {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, name+".html", data); err != nil {
		return "", fmt.Errorf("render %s email: %w", name, err)
	}
	return body.String(), nil
}

// NoOp discards every message. Used when mail is disabled.
type NoOp struct{}

func (NoOp) SendRegistrationEmail(context.Context, string, string, int64) error { return nil }

func (NoOp) SendStaffWelcome(context.Context, string, string) error { return nil }
