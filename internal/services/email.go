package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/easystock/backend/internal/config"
	"github.com/easystock/backend/internal/models"
	"github.com/easystock/backend/pkg/logger"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// ErrMailerDisabled is returned when no SMTP host is configured.
var ErrMailerDisabled = errors.New("email delivery is not configured")

type EmailMessage struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers a single email.
type Mailer interface {
	Send(ctx context.Context, msg *EmailMessage) error
}

type SMTPMailer struct {
	cfg config.SMTPConfig
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPMailer{cfg: cfg}
}

// mailTimeout bounds a delivery when the caller's context has no deadline.
const mailTimeout = 30 * time.Second

func (m *SMTPMailer) Send(ctx context.Context, msg *EmailMessage) error {
	if !m.cfg.MailEnabled() {
		return ErrMailerDisabled
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, mailTimeout)
		defer cancel()
	}

	from := m.cfg.From
	if from == "" {
		from = m.cfg.Username
	}

	if err := m.deliver(ctx, from, msg); err != nil {
		logger.Warn().Err(err).Str("to", msg.To).Msg("[Email] Failed to send email")
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("[Email] Sent")
	return nil
}

// deliver runs one SMTP session. Cancelling ctx closes the connection, which
// unblocks any pending command.
func (m *SMTPMailer) deliver(ctx context.Context, from string, msg *EmailMessage) error {
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	tlsConfig := &tls.Config{ServerName: m.cfg.Host}
	var client *smtp.Client
	if m.cfg.UseTLS {
		tlsConn := tls.Client(conn, tlsConfig)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			conn.Close()
			return err
		}
		client = smtp.NewClient(tlsConn)
	} else {
		client, err = smtp.NewClientStartTLS(conn, tlsConfig)
		if err != nil {
			conn.Close()
			return err
		}
	}
	defer client.Close()

	if m.cfg.Username != "" && m.cfg.Password != "" {
		if err := client.Auth(sasl.NewPlainClient("", m.cfg.Username, m.cfg.Password)); err != nil {
			return err
		}
	}
	if err := client.SendMail(from, []string{msg.To}, strings.NewReader(buildMIME(from, msg))); err != nil {
		return err
	}
	return client.Quit()
}

func buildMIME(from string, msg *EmailMessage) string {
	var sb strings.Builder
	sb.WriteString("From: " + from + "\r\n")
	sb.WriteString("To: " + msg.To + "\r\n")
	sb.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject) + "\r\n")
	sb.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(msg.HTML)
	return sb.String()
}

var inviteEmailTemplate = template.Must(template.New("invite").Parse(`<html><body style="font-family: Arial, sans-serif;">
<h2>{{.AppName}}</h2>
<p>Olá{{if .Name}} {{.Name}}{{end}},</p>
<p><strong>{{.SenderName}}</strong> convidou você para participar do projeto <strong>{{.ProjectName}}</strong> como <strong>{{.RoleLabel}}</strong>.</p>
<p><a href="{{.AcceptURL}}" style="background: #2563eb; color: #fff; padding: 10px 16px; border-radius: 4px; text-decoration: none;">Aceitar convite</a></p>
<p style="color: #888; font-size: 12px;">Este convite expira em {{.ExpiresAt}}.</p>
</body></html>`))

type inviteEmailData struct {
	AppName     string
	Name        string
	SenderName  string
	ProjectName string
	RoleLabel   string
	AcceptURL   string
	ExpiresAt   string
}

// InviteSubject is the subject line of an invite email.
func InviteSubject(projectName string) string {
	return "Convite para participar do projeto " + projectName
}

func roleLabel(role string) string {
	if role == models.RoleGestor {
		return "Gestor"
	}
	return "Colaborador"
}

func renderInviteEmail(data *inviteEmailData) (string, error) {
	var buf bytes.Buffer
	if err := inviteEmailTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
