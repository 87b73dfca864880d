// Package mailer sends templated email over SMTP.
package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"embed"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

const dialTimeout = 8 * time.Second

// Mailer delivers rendered HTML templates to a recipient over SMTP.
// STARTTLS is used when the server offers it, PLAIN auth when credentials
// are configured.
type Mailer struct {
	host      string
	port      int
	login     string
	password  string
	templates *template.Template
}

// New creates a Mailer for the given SMTP endpoint.
// login and password may be empty for unauthenticated relays.
func New(host string, port int, login, password string) (*Mailer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse mail templates: %w", err)
	}
	return &Mailer{
		host:      host,
		port:      port,
		login:     login,
		password:  password,
		templates: tmpl,
	}, nil
}

// Send renders the named template with data and delivers it to the recipient.
// The SMTP exchange is bounded by the context deadline and an absolute
// connection deadline, whichever is sooner.
func (m *Mailer) Send(ctx context.Context, subject, from, to, templateName string, data map[string]string) error {
	var body bytes.Buffer
	if err := m.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return fmt.Errorf("failed to render template %s: %w", templateName, err)
	}

	msg := buildMessage(subject, from, to, body.String())
	return m.sendSMTP(ctx, from, to, []byte(msg))
}

// buildMessage assembles the MIME message for an HTML mail.
func buildMessage(subject, from, to, htmlBody string) string {
	return strings.Join([]string{
		fmt.Sprintf("From: %s", from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		`Content-Type: text/html; charset="UTF-8"`,
		"",
		htmlBody,
	}, "\r\n")
}

func (m *Mailer) sendSMTP(ctx context.Context, from, to string, msg []byte) error {
	addr := fmt.Sprintf("%s:%d", m.host, m.port)

	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to dial smtp server: %w", err)
	}

	// Deadline covers the whole exchange so a stalled server cannot hang the sender.
	deadline := time.Now().Add(15 * time.Second)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	c, err := smtp.NewClient(conn, m.host)
	if err != nil {
		return err
	}
	defer func() { _ = c.Quit() }()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
			return err
		}
	}
	if m.login != "" && m.password != "" {
		auth := smtp.PlainAuth("", m.login, m.password, m.host)
		if err := c.Auth(auth); err != nil {
			return err
		}
	}

	if err := c.Mail(from); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}

	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
